// Package panel builds the device info panel from a sysinfo.Source.
//
// Each resolver tries its override string first, then the platform readings
// in a fixed order. Platform failures never surface; they fall back to a
// placeholder and are logged at debug level.
package panel

import (
	"fmt"
	"strings"

	"github.com/cloudronix/deviceinfo/internal/config"
	"github.com/cloudronix/deviceinfo/internal/log"
	"github.com/cloudronix/deviceinfo/internal/resources"
	"github.com/cloudronix/deviceinfo/pkg/specfmt"
	"github.com/cloudronix/deviceinfo/pkg/sysinfo"
)

const (
	// Key identifies the panel for hosts that index their sections
	Key = "my_device_info_header"

	// batteryCapacityName is the power profile entry holding the capacity
	batteryCapacityName = "battery.capacity"

	unknown      = "unknown"
	officialType = "official"

	// unsetMaintainer is what builds without a maintainer publish
	unsetMaintainer = "Unknown"
)

// Panel is one rendering of the device info panel
type Panel struct {
	DeviceName    string `json:"device_name"`
	Chipset       string `json:"chipset"`
	Storage       string `json:"storage"`
	RAM           string `json:"ram"`
	StorageAndRAM string `json:"storage_and_ram"`
	Battery       string `json:"battery"`
	Display       string `json:"display"`
	BuildStatus   string `json:"build_status"`
	Maintainer    string `json:"maintainer"`
	Official      bool   `json:"official"`
	VersionDetail string `json:"version_detail,omitempty"`
}

// Controller resolves every panel entry
type Controller struct {
	src       sysinfo.Source
	cat       *resources.Catalog
	props     config.Properties
	overrides config.Overrides
	dataDir   string
}

// NewController creates a controller reading from src with the override
// table and property keys from cfg
func NewController(src sysinfo.Source, cfg *config.Config, cat *resources.Catalog) *Controller {
	if cat == nil {
		cat = resources.NewCatalog(cfg.Locale, cfg.Strings)
	}
	return &Controller{
		src:       src,
		cat:       cat,
		props:     cfg.Properties,
		overrides: cfg.Overrides,
		dataDir:   cfg.DataDir,
	}
}

// Key returns the panel key
func (c *Controller) Key() string {
	return Key
}

// Available reports whether the panel should be shown; it always is
func (c *Controller) Available() bool {
	return true
}

// Catalog returns the strings the controller renders with
func (c *Controller) Catalog() *resources.Catalog {
	return c.cat
}

// Display computes a fresh panel
func (c *Controller) Display() *Panel {
	storage := c.StorageInfo()
	ram := c.RAMInfo()
	status, maintainer, official := c.BuildStatus()

	p := &Panel{
		DeviceName:    c.DeviceName(),
		Chipset:       c.ProcessorModel(),
		Storage:       storage,
		RAM:           ram,
		StorageAndRAM: joinStorageAndRAM(ram, storage),
		Battery:       c.BatteryInfo(),
		Display:       c.ScreenResolution(),
		BuildStatus:   status,
		Maintainer:    maintainer,
		Official:      official,
	}
	if detail, ok := c.VersionDetail(); ok {
		p.VersionDetail = detail
	}

	return p
}

// ProcessorModel resolves the chipset name
func (c *Controller) ProcessorModel() string {
	if c.overrides.CPUModel != "" {
		return c.overrides.CPUModel
	}
	if v := c.src.Property(c.props.CPU); v != "" {
		return v
	}
	if v := c.src.Property(c.props.CPUFallback); v != "" {
		return v
	}
	if hw := c.src.Build().Hardware; hw != "" {
		return hw
	}
	return unknown
}

// StorageInfo resolves the advertised size of the data filesystem
func (c *Controller) StorageInfo() string {
	if c.overrides.Storage != "" {
		return c.overrides.Storage
	}

	total, err := c.src.StorageTotal(c.dataDir)
	if err != nil {
		log.Debug().Err(err).Str("path", c.dataDir).Msg("storage size unavailable")
		total = 0
	}
	return specfmt.FormatStorage(total)
}

// RAMInfo resolves the advertised RAM size
func (c *Controller) RAMInfo() string {
	if c.overrides.RAM != "" {
		return c.overrides.RAM
	}

	total, err := c.src.MemoryTotal()
	if err != nil {
		log.Debug().Err(err).Msg("memory size unavailable")
		total = 0
	}
	return specfmt.FormatRAM(total)
}

// StorageAndRAMInfo resolves the combined "RAM | storage" line
func (c *Controller) StorageAndRAMInfo() string {
	return joinStorageAndRAM(c.RAMInfo(), c.StorageInfo())
}

// BatteryInfo resolves the battery design capacity
func (c *Controller) BatteryInfo() string {
	if c.overrides.Battery != "" {
		return c.overrides.Battery
	}
	return specfmt.FormatBattery(c.batteryCapacity())
}

// batteryCapacity asks the power profile for the capacity, 0 when absent
func (c *Controller) batteryCapacity() float64 {
	profile, ok := c.src.PowerProfile()
	if !ok || profile == nil {
		log.Debug().Msg("no power profile, reporting 0 mAh")
		return 0
	}
	if v, ok := profile.BatteryCapacity(); ok && v > 0 {
		return v
	}
	if v, ok := profile.AveragePower(batteryCapacityName); ok && v > 0 {
		return v
	}
	log.Debug().Msg("power profile has no battery capacity")
	return 0
}

// ScreenResolution resolves "W x H" including the navigation bar
func (c *Controller) ScreenResolution() string {
	if c.overrides.ScreenResolution != "" {
		return c.overrides.ScreenResolution
	}

	d, ok := c.src.Display()
	if !ok {
		log.Debug().Msg("no display metrics")
		return c.cat.String(resources.DeviceInfoDefault)
	}
	return specfmt.FormatResolution(d.Width, d.Height, d.RealHeight)
}

// DeviceName resolves the marketing model name
func (c *Controller) DeviceName() string {
	if v := c.src.Property(c.props.DeviceModel); v != "" {
		return v
	}
	if model := c.src.Build().Model; model != "" {
		return model
	}
	return unknown
}

// BuildStatus returns the build title, the maintainer summary and whether
// the build is official
func (c *Controller) BuildStatus() (string, string, bool) {
	buildType := strings.ToLower(c.src.Property(c.props.BuildType))
	official := buildType == officialType

	title := c.cat.String(resources.BuildIsCommunityTitle)
	if official {
		title = c.cat.String(resources.BuildIsOfficialTitle)
	}

	var summary string
	maintainer := c.src.Property(c.props.Maintainer)
	if maintainer == "" || strings.EqualFold(maintainer, unsetMaintainer) {
		summary = c.cat.String(resources.UnknownMaintainer)
	} else {
		summary = c.cat.Format(resources.MaintainerSummary, maintainer)
	}

	return title, summary, official
}

// VersionDetail returns "modversion | buildtype | edition", skipping empty
// parts. It is unavailable when the mod version is not set.
func (c *Controller) VersionDetail() (string, bool) {
	modVersion := c.src.Property(c.props.ModVersion)
	if modVersion == "" {
		return "", false
	}

	parts := []string{modVersion}
	for _, key := range []string{c.props.BuildType, c.props.Edition} {
		if v := c.src.Property(key); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | "), true
}

// Text renders the panel as aligned "label: value" lines
func (c *Controller) Text(p *Panel) string {
	rows := [][2]string{
		{c.cat.String(resources.LabelDevice), p.DeviceName},
		{c.cat.String(resources.LabelChipset), p.Chipset},
		{c.cat.String(resources.LabelStorage), p.StorageAndRAM},
		{c.cat.String(resources.LabelBattery), p.Battery},
		{c.cat.String(resources.LabelDisplay), p.Display},
	}
	if p.VersionDetail != "" {
		rows = append(rows, [2]string{c.cat.String(resources.LabelVersion), p.VersionDetail})
	}

	width := 0
	for _, row := range rows {
		if n := len([]rune(row[0])); n > width {
			width = n
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", p.BuildStatus, p.Maintainer)
	for _, row := range rows {
		pad := strings.Repeat(" ", width-len([]rune(row[0])))
		fmt.Fprintf(&b, "%s:%s %s\n", row[0], pad, row[1])
	}
	return b.String()
}

func joinStorageAndRAM(ram, storage string) string {
	return ram + " | " + storage
}
