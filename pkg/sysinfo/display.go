package sysinfo

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Display reads the default display. The real size comes from the first
// connected DRM connector, the usable size from the framebuffer's visible
// mode, clamped to the real size; Android's wm tool is the last resort.
func (p *Platform) Display() (Display, bool) {
	realW, realH, haveReal := p.drmMode()
	usableW, usableH, haveUsable := p.framebufferMode()

	if !haveReal && !haveUsable {
		w, h, ok := p.wmSize()
		if !ok {
			return Display{}, false
		}
		return Display{Width: w, Height: h, RealWidth: w, RealHeight: h}, true
	}

	if !haveUsable {
		usableW, usableH = realW, realH
	}
	if !haveReal {
		realW, realH = usableW, usableH
	}
	usableW, usableH = min(usableW, realW), min(usableH, realH)

	return Display{
		Width:      usableW,
		Height:     usableH,
		RealWidth:  realW,
		RealHeight: realH,
	}, true
}

// drmMode returns the preferred mode of the first connected connector
func (p *Platform) drmMode() (int, int, bool) {
	matches, _ := filepath.Glob(filepath.Join(p.opts.SysfsRoot, "class", "drm", "card*-*"))
	sort.Strings(matches)

	for _, dir := range matches {
		status, err := os.ReadFile(filepath.Join(dir, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}
		modes, err := os.ReadFile(filepath.Join(dir, "modes"))
		if err != nil {
			continue
		}
		// First line is the preferred mode, e.g. "1080x2400"
		first, _, _ := strings.Cut(strings.TrimSpace(string(modes)), "\n")
		if w, h, ok := parseSize(first, "x"); ok {
			return w, h, true
		}
	}

	return 0, 0, false
}

// framebufferMode returns fb0's visible mode, written as "U:1080x2400p-60".
// virtual_size covers every page-flip buffer and is not read.
func (p *Platform) framebufferMode() (int, int, bool) {
	data, err := os.ReadFile(filepath.Join(p.opts.SysfsRoot, "class", "graphics", "fb0", "modes"))
	if err != nil {
		return 0, 0, false
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
	if _, mode, ok := strings.Cut(first, ":"); ok {
		first = mode
	}
	return parseSize(first, "x")
}

// wmSize asks Android's window manager for the physical size
func (p *Platform) wmSize() (int, int, bool) {
	bin, err := exec.LookPath(p.opts.WMPath)
	if err != nil {
		return 0, 0, false
	}
	// Output: "Physical size: 1080x2400"
	out := p.run(bin, "size")
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Physical size:"); ok {
			return parseSize(strings.TrimSpace(rest), "x")
		}
	}
	return 0, 0, false
}

// parseSize parses "W<sep>H". Modes may carry a suffix such as "i" or "p-60".
func parseSize(s, sep string) (int, int, bool) {
	ws, hs, ok := strings.Cut(s, sep)
	if !ok {
		return 0, 0, false
	}
	hs = strings.TrimSpace(hs)
	if i := strings.IndexFunc(hs, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		hs = hs[:i]
	}

	w, err := strconv.Atoi(strings.TrimSpace(ws))
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
