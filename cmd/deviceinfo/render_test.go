package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/cloudronix/deviceinfo/internal/config"
	"github.com/cloudronix/deviceinfo/internal/panel"
	"github.com/cloudronix/deviceinfo/internal/resources"
	"github.com/cloudronix/deviceinfo/pkg/sysinfo"
)

type emptySource struct{}

func (emptySource) Property(string) string { return "" }
func (emptySource) StorageTotal(string) (uint64, error) { return 0, nil }
func (emptySource) MemoryTotal() (uint64, error) { return 0, nil }
func (emptySource) Display() (sysinfo.Display, bool) { return sysinfo.Display{}, false }
func (emptySource) PowerProfile() (sysinfo.PowerProfile, bool) { return nil, false }
func (emptySource) Build() sysinfo.Build { return sysinfo.Build{} }

func TestPrintPanel_MatchesPlainText(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = saved }()

	ctrl := panel.NewController(emptySource{}, config.DefaultConfig(), resources.NewCatalog("", nil))
	p := ctrl.Display()

	var buf bytes.Buffer
	printPanel(&buf, ctrl, p)
	assert.Equal(t, ctrl.Text(p), buf.String())
}

func TestPrintPanel_Colored(t *testing.T) {
	saved := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = saved }()

	ctrl := panel.NewController(emptySource{}, config.DefaultConfig(), resources.NewCatalog("", nil))

	var buf bytes.Buffer
	printPanel(&buf, ctrl, ctrl.Display())
	assert.Contains(t, buf.String(), "\x1b[33;1mCommunity build")
	assert.Contains(t, buf.String(), "\x1b[36mChipset:")
}
