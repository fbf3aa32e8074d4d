package sysinfo

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/cloudronix/deviceinfo/internal/log"
)

// Source reads the raw measurements behind the device info panel.
// Every method reports absence explicitly instead of failing loudly.
type Source interface {
	// Property returns a system property, empty when unset
	Property(key string) string
	// StorageTotal returns the total size in bytes of the filesystem holding path
	StorageTotal(path string) (uint64, error)
	// MemoryTotal returns total physical memory in bytes
	MemoryTotal() (uint64, error)
	// Display returns the default display metrics
	Display() (Display, bool)
	// PowerProfile returns the battery power profile, if the device has one
	PowerProfile() (PowerProfile, bool)
	// Build returns constants describing the hardware and OS
	Build() Build
}

// Display contains the default display metrics in pixels
type Display struct {
	Width      int `json:"width"`       // usable width
	Height     int `json:"height"`      // usable height, without system bars
	RealWidth  int `json:"real_width"`  // full panel width
	RealHeight int `json:"real_height"` // full panel height
}

// PowerProfile exposes the battery figures a device publishes
type PowerProfile interface {
	// BatteryCapacity returns the design capacity in mAh
	BatteryCapacity() (float64, bool)
	// AveragePower returns a named power profile value, e.g. "battery.capacity"
	AveragePower(name string) (float64, bool)
}

// Build describes the device hardware and OS
type Build struct {
	Model        string `json:"model,omitempty"`
	Hardware     string `json:"hardware,omitempty"`
	OSName       string `json:"os_name"`
	OSVersion    string `json:"os_version,omitempty"`
	Hostname     string `json:"hostname,omitempty"`
	Architecture string `json:"architecture"`
}

// Options configures where a Platform reads from
type Options struct {
	SysfsRoot      string             // default /sys
	MemInfoPath    string             // default /proc/meminfo
	PropertyFiles  []string           // build.prop style files, read in order
	GetpropPath    string             // default getprop on PATH
	WMPath         string             // default wm on PATH
	PowerProfile   map[string]float64 // static power profile values
	CommandTimeout time.Duration      // timeout for external commands
}

// Platform is the Source backed by the running system
type Platform struct {
	opts Options
}

// New creates a Platform, filling in default paths
func New(opts Options) *Platform {
	if opts.SysfsRoot == "" {
		opts.SysfsRoot = "/sys"
	}
	if opts.MemInfoPath == "" {
		opts.MemInfoPath = "/proc/meminfo"
	}
	if opts.GetpropPath == "" {
		opts.GetpropPath = "getprop"
	}
	if opts.WMPath == "" {
		opts.WMPath = "wm"
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 2 * time.Second
	}
	return &Platform{opts: opts}
}

// StorageTotal returns the filesystem size via statfs
func (p *Platform) StorageTotal(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, &ReadError{What: "storage", Path: path, Cause: err}
	}
	return usage.Total, nil
}

// MemoryTotal returns physical RAM, trying /proc/meminfo before gopsutil
func (p *Platform) MemoryTotal() (uint64, error) {
	if physicalRAM := readMemTotal(p.opts.MemInfoPath); physicalRAM > 0 {
		return physicalRAM, nil
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return 0, &ReadError{What: "memory", Cause: err}
	}
	return memInfo.Total, nil
}

// Build gathers model and hardware constants
func (p *Platform) Build() Build {
	build := Build{
		Architecture: runtime.GOARCH,
	}

	if hostname, err := os.Hostname(); err == nil {
		build.Hostname = hostname
	}

	if hostInfo, err := host.Info(); err == nil {
		build.OSName = hostInfo.Platform
		build.OSVersion = hostInfo.PlatformVersion
		if build.OSName == "" {
			build.OSName = hostInfo.OS
		}
	} else {
		log.Debug().Err(err).Msg("host info unavailable")
		build.OSName = runtime.GOOS
	}

	// Android publishes both as properties
	build.Model = p.Property("ro.product.model")
	build.Hardware = p.Property("ro.hardware")

	if build.Model == "" {
		build.Model = p.productName()
	}
	if build.Hardware == "" {
		if cpuInfo, err := cpu.Info(); err == nil && len(cpuInfo) > 0 {
			build.Hardware = cpuInfo[0].ModelName
		}
	}
	if build.Hardware == "" {
		build.Hardware = machine()
	}

	return build
}
