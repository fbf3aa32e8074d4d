package sysinfo

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudronix/deviceinfo/pkg/specfmt"
)

// writeTree creates files under root; keys are slash-separated relative paths
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// newTestPlatform returns a Platform that never reaches real tools
func newTestPlatform(t *testing.T, opts Options) *Platform {
	t.Helper()
	if opts.SysfsRoot == "" {
		opts.SysfsRoot = t.TempDir()
	}
	if opts.GetpropPath == "" {
		opts.GetpropPath = filepath.Join(t.TempDir(), "no-getprop")
	}
	if opts.WMPath == "" {
		opts.WMPath = filepath.Join(t.TempDir(), "no-wm")
	}
	return New(opts)
}

func TestProperty_FromFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"system/build.prop": "# comment\nro.board.platform=kalama\nro.everest.cpu=\nro.product.model = Pixel Test\n",
		"vendor/build.prop": "ro.everest.cpu=Snapdragon 8 Gen 2\nro.board.platform=override-ignored\n",
	})

	p := newTestPlatform(t, Options{PropertyFiles: []string{
		filepath.Join(dir, "system", "build.prop"),
		filepath.Join(dir, "vendor", "build.prop"),
		filepath.Join(dir, "missing.prop"),
	}})

	// First file with a non-empty value wins
	assert.Equal(t, "kalama", p.Property("ro.board.platform"))
	assert.Equal(t, "Snapdragon 8 Gen 2", p.Property("ro.everest.cpu"))
	assert.Equal(t, "Pixel Test", p.Property("ro.product.model"))
	assert.Equal(t, "", p.Property("ro.unset"))
}

func TestReadPropertyFile_LastAssignmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.prop")
	require.NoError(t, os.WriteFile(path, []byte("a=1\nb=2\na=3\n"), 0644))

	v, ok := readPropertyFile(path, "a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	_, ok = readPropertyFile(path, "c")
	assert.False(t, ok)
}

func TestProperty_Getprop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub needs a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "getprop")
	stub := "#!/bin/sh\nif [ \"$1\" = \"ro.hardware\" ]; then echo qcom; fi\n"
	require.NoError(t, os.WriteFile(script, []byte(stub), 0755))

	propFile := filepath.Join(dir, "build.prop")
	require.NoError(t, os.WriteFile(propFile, []byte("ro.board.platform=fromfile\n"), 0644))

	p := newTestPlatform(t, Options{GetpropPath: script, PropertyFiles: []string{propFile}})

	assert.Equal(t, "qcom", p.Property("ro.hardware"))
	// getprop printed nothing, so the file is consulted
	assert.Equal(t, "fromfile", p.Property("ro.board.platform"))
}

func TestReadMemTotal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meminfo")
	content := "MemTotal:        7823456 kB\nMemFree:          123456 kB\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	assert.Equal(t, uint64(7823456*1024), readMemTotal(path))
	assert.Equal(t, uint64(0), readMemTotal(filepath.Join(t.TempDir(), "absent")))
}

func TestMemoryTotal_FromMeminfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meminfo")
	require.NoError(t, os.WriteFile(path, []byte("MemTotal: 1024 kB\n"), 0644))

	p := newTestPlatform(t, Options{MemInfoPath: path})
	total, err := p.MemoryTotal()
	require.NoError(t, err)
	assert.Equal(t, uint64(1024*1024), total)
}

func TestStorageTotal(t *testing.T) {
	p := newTestPlatform(t, Options{})

	total, err := p.StorageTotal(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, total, uint64(0))

	missing := filepath.Join(t.TempDir(), "does", "not", "exist")
	_, err = p.StorageTotal(missing)
	require.Error(t, err)

	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, "storage", readErr.What)
	assert.Equal(t, missing, readErr.Path)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestDisplay_DRMAndFramebuffer(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"class/drm/card0-DSI-1/status": "disconnected\n",
		"class/drm/card0-DSI-1/modes":  "720x1600\n",
		"class/drm/card1-DSI-1/status": "connected\n",
		"class/drm/card1-DSI-1/modes":  "1080x2400\n1080x2400\n",
		"class/graphics/fb0/modes":     "U:1080x2274p-60\n",
	})

	p := newTestPlatform(t, Options{SysfsRoot: root})
	d, ok := p.Display()
	require.True(t, ok)
	assert.Equal(t, Display{Width: 1080, Height: 2274, RealWidth: 1080, RealHeight: 2400}, d)
}

func TestDisplay_DoubleBufferedFramebuffer(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"virtual size ignored", map[string]string{
			"class/drm/card0-DSI-1/status":    "connected\n",
			"class/drm/card0-DSI-1/modes":     "1080x2400\n",
			"class/graphics/fb0/virtual_size": "1080,4800\n",
		}},
		{"fb mode clamped to panel", map[string]string{
			"class/drm/card0-DSI-1/status":    "connected\n",
			"class/drm/card0-DSI-1/modes":     "1080x2400\n",
			"class/graphics/fb0/modes":        "U:1080x4800p-60\n",
			"class/graphics/fb0/virtual_size": "1080,4800\n",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tt.files)

			p := newTestPlatform(t, Options{SysfsRoot: root})
			d, ok := p.Display()
			require.True(t, ok)
			assert.Equal(t, Display{Width: 1080, Height: 2400, RealWidth: 1080, RealHeight: 2400}, d)
			assert.Equal(t, "1080 x 2400", specfmt.FormatResolution(d.Width, d.Height, d.RealHeight))
		})
	}
}

func TestDisplay_FramebufferOnly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"class/graphics/fb0/modes":        "U:720x1600p-60\nU:720x1600p-90\n",
		"class/graphics/fb0/virtual_size": "720,3200\n",
	})

	p := newTestPlatform(t, Options{SysfsRoot: root})
	d, ok := p.Display()
	require.True(t, ok)
	assert.Equal(t, Display{Width: 720, Height: 1600, RealWidth: 720, RealHeight: 1600}, d)
}

func TestDisplay_DRMOnly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"class/drm/card0-HDMI-A-1/status": "connected\n",
		"class/drm/card0-HDMI-A-1/modes":  "1920x1080i\n",
	})

	p := newTestPlatform(t, Options{SysfsRoot: root})
	d, ok := p.Display()
	require.True(t, ok)
	assert.Equal(t, 1920, d.Width)
	assert.Equal(t, 1080, d.Height)
	assert.Equal(t, 1080, d.RealHeight)
}

func TestDisplay_Absent(t *testing.T) {
	p := newTestPlatform(t, Options{})
	_, ok := p.Display()
	assert.False(t, ok)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in     string
		sep    string
		w, h   int
		wantOK bool
	}{
		{"1080x2400", "x", 1080, 2400, true},
		{"1920x1080i", "x", 1920, 1080, true},
		{"1080,2274", ",", 1080, 2274, true},
		{"1080x2400p-60", "x", 1080, 2400, true},
		{"garbage", "x", 0, 0, false},
		{"0x100", "x", 0, 0, false},
		{"100x", "x", 0, 0, false},
	}

	for _, tt := range tests {
		w, h, ok := parseSize(tt.in, tt.sep)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.w, w, tt.in)
		assert.Equal(t, tt.h, h, tt.in)
	}
}

func TestPowerProfile_ChargeFullDesign(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"class/power_supply/AC/type":                    "Mains\n",
		"class/power_supply/battery/type":               "Battery\n",
		"class/power_supply/battery/charge_full_design": "4870000\n",
	})

	p := newTestPlatform(t, Options{SysfsRoot: root})
	pp, ok := p.PowerProfile()
	require.True(t, ok)

	capacity, ok := pp.BatteryCapacity()
	assert.True(t, ok)
	assert.InDelta(t, 4870.0, capacity, 0.001)

	_, ok = pp.AveragePower("battery.capacity")
	assert.False(t, ok)
}

func TestPowerProfile_EnergyDesign(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"class/power_supply/BAT0/type":               "Battery\n",
		"class/power_supply/BAT0/energy_full_design": "57000000\n",
		"class/power_supply/BAT0/voltage_min_design": "11400000\n",
	})

	p := newTestPlatform(t, Options{SysfsRoot: root})
	pp, ok := p.PowerProfile()
	require.True(t, ok)

	capacity, ok := pp.BatteryCapacity()
	assert.True(t, ok)
	assert.InDelta(t, 5000.0, capacity, 0.001)
}

func TestPowerProfile_TableOnly(t *testing.T) {
	p := newTestPlatform(t, Options{PowerProfile: map[string]float64{"battery.capacity": 3110}})
	pp, ok := p.PowerProfile()
	require.True(t, ok)

	_, ok = pp.BatteryCapacity()
	assert.False(t, ok)

	v, ok := pp.AveragePower("battery.capacity")
	assert.True(t, ok)
	assert.Equal(t, 3110.0, v)
}

func TestPowerProfile_Absent(t *testing.T) {
	p := newTestPlatform(t, Options{})
	pp, ok := p.PowerProfile()
	assert.False(t, ok)
	assert.Nil(t, pp)
}

func TestBuild_Fallbacks(t *testing.T) {
	p := newTestPlatform(t, Options{})
	build := p.Build()

	assert.Equal(t, runtime.GOARCH, build.Architecture)
	assert.NotEmpty(t, build.OSName)
	assert.NotEmpty(t, build.Hardware)
}

func TestBuild_FromProperties(t *testing.T) {
	dir := t.TempDir()
	propFile := filepath.Join(dir, "build.prop")
	require.NoError(t, os.WriteFile(propFile, []byte("ro.product.model=Everest One\nro.hardware=qcom\n"), 0644))

	p := newTestPlatform(t, Options{PropertyFiles: []string{propFile}})
	build := p.Build()

	assert.Equal(t, "Everest One", build.Model)
	assert.Equal(t, "qcom", build.Hardware)
}
