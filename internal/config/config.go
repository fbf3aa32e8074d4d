package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudronix/deviceinfo/pkg/sysinfo"
)

// Config holds the deviceinfo configuration
type Config struct {
	// Directory where config.yaml lives
	ConfigDir string `yaml:"-"`

	// Platform sources
	DataDir       string   `yaml:"data_dir"`   // filesystem measured for storage
	SysfsRoot     string   `yaml:"sysfs_root"` // usually /sys
	PropertyFiles []string `yaml:"property_files,omitempty"`
	GetpropPath   string   `yaml:"getprop_path,omitempty"`
	WMPath        string   `yaml:"wm_path,omitempty"`

	// Seconds allowed for getprop and wm, 0 for the default
	CommandTimeout int `yaml:"command_timeout,omitempty"`

	// Property key names
	Properties Properties `yaml:"properties"`

	// Override strings replace any computed value when non-empty
	Overrides Overrides `yaml:"overrides"`

	// Localization
	Locale  string                       `yaml:"locale,omitempty"`
	Strings map[string]map[string]string `yaml:"strings,omitempty"`

	// Power profile values by name, e.g. battery.capacity
	PowerProfile map[string]float64 `yaml:"power_profile,omitempty"`

	// Panel server
	Listen          string `yaml:"listen"`
	RefreshInterval int    `yaml:"refresh_interval"` // seconds

	// Report collector
	CollectorURL string `yaml:"collector_url,omitempty"`
}

// Properties names the system property keys each resolver reads
type Properties struct {
	CPU         string `yaml:"cpu"`
	CPUFallback string `yaml:"cpu_fallback"`
	DeviceModel string `yaml:"device_model"`
	BuildType   string `yaml:"build_type"`
	Maintainer  string `yaml:"maintainer"`
	ModVersion  string `yaml:"mod_version"`
	Edition     string `yaml:"edition"`
}

// Overrides is the override string table of the panel
type Overrides struct {
	CPUModel         string `yaml:"cpu_model,omitempty"`
	Storage          string `yaml:"storage,omitempty"`
	RAM              string `yaml:"ram,omitempty"`
	Battery          string `yaml:"battery,omitempty"`
	ScreenResolution string `yaml:"screen_resolution,omitempty"`
}

// Paths returns important file paths
type Paths struct {
	Config string // config.yaml
}

// ValidationError reports an invalid configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field '%s': %s", e.Field, e.Message)
}

// DefaultProperties returns the property keys used by stock builds
func DefaultProperties() Properties {
	return Properties{
		CPU:         "ro.everest.cpu",
		CPUFallback: "ro.board.platform",
		DeviceModel: "ro.product.system.model",
		BuildType:   "ro.everest.buildtype",
		Maintainer:  "ro.everestos.maintainer",
		ModVersion:  "ro.modversion",
		Edition:     "ro.everest.edition",
	}
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		DataDir:         defaultDataDir(),
		SysfsRoot:       "/sys",
		PropertyFiles:   []string{"/system/build.prop", "/vendor/build.prop"},
		Properties:      DefaultProperties(),
		Listen:          "127.0.0.1:8086",
		RefreshInterval: 5,
	}
}

// Load loads configuration from the specified directory or default
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = defaultConfigDir()
	}

	cfg := DefaultConfig()
	cfg.ConfigDir = configDir

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// First run - check environment variables
			cfg.applyEnv()
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.fillDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(c.Paths().Config, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Paths returns the file paths used by the config
func (c *Config) Paths() Paths {
	return Paths{
		Config: filepath.Join(c.ConfigDir, "config.yaml"),
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		return &ValidationError{Field: "refresh_interval", Message: "must be a positive number of seconds"}
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return &ValidationError{Field: "listen", Message: fmt.Sprintf("'%s' is not host:port", c.Listen)}
	}
	if c.CommandTimeout < 0 {
		return &ValidationError{Field: "command_timeout", Message: "must not be negative"}
	}
	if c.CollectorURL != "" &&
		!strings.HasPrefix(c.CollectorURL, "http://") && !strings.HasPrefix(c.CollectorURL, "https://") {
		return &ValidationError{Field: "collector_url", Message: "must start with http:// or https://"}
	}
	return nil
}

// Refresh returns the panel refresh interval as a duration
func (c *Config) Refresh() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// SourceOptions returns the platform reader settings
func (c *Config) SourceOptions() sysinfo.Options {
	return sysinfo.Options{
		SysfsRoot:      c.SysfsRoot,
		PropertyFiles:  c.PropertyFiles,
		GetpropPath:    c.GetpropPath,
		WMPath:         c.WMPath,
		PowerProfile:   c.PowerProfile,
		CommandTimeout: time.Duration(c.CommandTimeout) * time.Second,
	}
}

// fillDefaults restores defaults for keys an older file left empty
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.SysfsRoot == "" {
		c.SysfsRoot = def.SysfsRoot
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}

	p, d := &c.Properties, def.Properties
	setIfEmpty(&p.CPU, d.CPU)
	setIfEmpty(&p.CPUFallback, d.CPUFallback)
	setIfEmpty(&p.DeviceModel, d.DeviceModel)
	setIfEmpty(&p.BuildType, d.BuildType)
	setIfEmpty(&p.Maintainer, d.Maintainer)
	setIfEmpty(&p.ModVersion, d.ModVersion)
	setIfEmpty(&p.Edition, d.Edition)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DEVICEINFO_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("DEVICEINFO_COLLECTOR_URL"); v != "" {
		c.CollectorURL = v
	}
	if v := os.Getenv("DEVICEINFO_LOCALE"); v != "" {
		c.Locale = v
	}
	if c.Locale == "" {
		c.Locale = os.Getenv("LANG")
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// defaultDataDir returns the filesystem whose size is reported as storage
func defaultDataDir() string {
	switch runtime.GOOS {
	case "android":
		return "/data"
	case "windows":
		return "C:\\"
	default:
		return "/"
	}
}

// defaultConfigDir returns the default configuration directory
func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		// Use %LOCALAPPDATA%\DeviceInfo
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			return filepath.Join(localAppData, "DeviceInfo")
		}
		return filepath.Join(os.Getenv("USERPROFILE"), ".deviceinfo")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "DeviceInfo")
	default:
		// Linux, Android and others
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".deviceinfo")
	}
}
