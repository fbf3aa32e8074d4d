package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/cloudronix/deviceinfo/internal/config"
	"github.com/cloudronix/deviceinfo/internal/log"
)

const (
	unitName     = "deviceinfo"
	launchdLabel = "io.cloudronix.deviceinfo"
)

// Layout is where a service install places its files
type Layout struct {
	GOOS    string
	Binary  string
	Unit    string
	LogFile string
}

// DefaultLayout returns the install locations for goos
func DefaultLayout(goos string) (Layout, error) {
	switch goos {
	case "linux":
		return Layout{
			GOOS:   goos,
			Binary: "/usr/local/bin/deviceinfo",
			Unit:   "/etc/systemd/system/" + unitName + ".service",
		}, nil
	case "darwin":
		return Layout{
			GOOS:    goos,
			Binary:  "/usr/local/bin/deviceinfo",
			Unit:    "/Library/LaunchDaemons/" + launchdLabel + ".plist",
			LogFile: "/var/log/deviceinfo.log",
		}, nil
	default:
		return Layout{}, fmt.Errorf("service installation not supported on %s", goos)
	}
}

// runner executes a service manager command
type runner func(name string, args ...string) ([]byte, error)

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// Install installs the panel server as a system service
func Install(cfg *config.Config) error {
	layout, err := DefaultLayout(runtime.GOOS)
	if err != nil {
		return err
	}
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	return install(cfg, layout, exePath, runCommand)
}

// Uninstall stops and removes the service
func Uninstall(cfg *config.Config) error {
	layout, err := DefaultLayout(runtime.GOOS)
	if err != nil {
		return err
	}
	return uninstall(layout, runCommand)
}

func install(cfg *config.Config, layout Layout, exePath string, run runner) error {
	if exePath != layout.Binary {
		log.Info().Str("path", layout.Binary).Msg("Copying binary")
		input, err := os.ReadFile(exePath)
		if err != nil {
			return fmt.Errorf("failed to read executable: %w", err)
		}
		if err := os.WriteFile(layout.Binary, input, 0755); err != nil {
			return fmt.Errorf("failed to copy executable: %w", err)
		}
	}

	var unit string
	if layout.GOOS == "darwin" {
		unit = RenderLaunchdPlist(layout.Binary, cfg.ConfigDir, layout.LogFile)
	} else {
		unit = RenderSystemdUnit(layout.Binary, cfg.ConfigDir)
	}

	if err := os.MkdirAll(filepath.Dir(layout.Unit), 0755); err != nil {
		return fmt.Errorf("failed to create service directory: %w", err)
	}
	if err := os.WriteFile(layout.Unit, []byte(unit), 0644); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	if layout.GOOS == "darwin" {
		if output, err := run("launchctl", "load", layout.Unit); err != nil {
			return fmt.Errorf("failed to load service: %s - %w", string(output), err)
		}
		log.Info().Str("label", launchdLabel).Msg("launchd service installed")
		return nil
	}

	run("systemctl", "daemon-reload")
	if output, err := run("systemctl", "enable", unitName); err != nil {
		return fmt.Errorf("failed to enable service: %s - %w", string(output), err)
	}
	if output, err := run("systemctl", "start", unitName); err != nil {
		log.Warn().Str("output", string(output)).Msg("Failed to start service")
	}

	log.Info().Str("unit", layout.Unit).Msg("systemd service installed")
	return nil
}

func uninstall(layout Layout, run runner) error {
	if layout.GOOS == "darwin" {
		run("launchctl", "unload", layout.Unit)
	} else {
		run("systemctl", "stop", unitName)
		run("systemctl", "disable", unitName)
	}

	if err := os.Remove(layout.Unit); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove service file: %w", err)
	}
	if layout.GOOS != "darwin" {
		run("systemctl", "daemon-reload")
	}
	if err := os.Remove(layout.Binary); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to remove binary")
	}

	log.Info().Msg("Uninstall complete")
	return nil
}

// RenderSystemdUnit returns the unit file for the panel server
func RenderSystemdUnit(binary, configDir string) string {
	return fmt.Sprintf(`[Unit]
Description=Device Info Panel Server
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s serve --config %s
Restart=always
RestartSec=10

[Install]
WantedBy=multi-user.target
`, binary, configDir)
}

// RenderLaunchdPlist returns the launchd property list for the panel server
func RenderLaunchdPlist(binary, configDir, logFile string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
        <string>serve</string>
        <string>--config</string>
        <string>%s</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>%s</string>
    <key>StandardErrorPath</key>
    <string>%s</string>
</dict>
</plist>
`, launchdLabel, binary, configDir, logFile, logFile)
}
