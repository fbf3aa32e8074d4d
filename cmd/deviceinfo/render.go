package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/cloudronix/deviceinfo/internal/panel"
)

var (
	officialColor  = color.New(color.FgGreen, color.Bold)
	communityColor = color.New(color.FgYellow, color.Bold)
	labelColor     = color.New(color.FgCyan)
	valueColor     = color.New(color.FgWhite)
)

// printPanel writes the panel text, coloring the header and labels.
// Colors are dropped when color.NoColor is set.
func printPanel(w io.Writer, ctrl *panel.Controller, p *panel.Panel) {
	lines := strings.Split(strings.TrimSuffix(ctrl.Text(p), "\n"), "\n")

	for i, line := range lines {
		switch {
		case i == 0 && p.Official:
			officialColor.Fprintln(w, line)
		case i == 0:
			communityColor.Fprintln(w, line)
		case i == 1:
			fmt.Fprintln(w, line)
		default:
			label, value, ok := strings.Cut(line, ":")
			if !ok {
				fmt.Fprintln(w, line)
				continue
			}
			labelColor.Fprint(w, label+":")
			valueColor.Fprintln(w, value)
		}
	}
}
