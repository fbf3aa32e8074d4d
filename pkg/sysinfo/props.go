package sysinfo

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cloudronix/deviceinfo/internal/log"
)

var _ Source = (*Platform)(nil)

// Property returns a system property. getprop is asked first; when it is not
// installed or prints nothing, the property files are searched in order.
func (p *Platform) Property(key string) string {
	if value := p.getprop(key); value != "" {
		return value
	}

	for _, path := range p.opts.PropertyFiles {
		value, ok := readPropertyFile(path, key)
		if ok && value != "" {
			return value
		}
	}

	return ""
}

// getprop runs the Android property tool, empty when unavailable
func (p *Platform) getprop(key string) string {
	bin, err := exec.LookPath(p.opts.GetpropPath)
	if err != nil {
		return ""
	}
	return p.run(bin, key)
}

// run executes a command and returns its trimmed stdout
func (p *Platform) run(name string, arg ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.CommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, arg...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Debug().Err(err).Str("cmd", name).Str("stderr", strings.TrimSpace(stderr.String())).Msg("command failed")
		return ""
	}

	return strings.TrimSpace(out.String())
}

// readPropertyFile looks up key in a build.prop style file. The last
// assignment wins, matching how the property service loads them.
func readPropertyFile(path, key string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	var value string
	found := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(k) != key {
			continue
		}
		value = strings.TrimSpace(v)
		found = true
	}

	if err := scanner.Err(); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("failed to read property file")
	}

	return value, found
}

// readMemTotal returns MemTotal from a meminfo file in bytes, 0 if absent
func readMemTotal(path string) uint64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "MemTotal:") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				// MemTotal is in kB
				if kb, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
					return kb * 1024
				}
			}
		}
	}

	return 0
}
