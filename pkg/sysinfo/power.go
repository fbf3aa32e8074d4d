package sysinfo

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudronix/deviceinfo/internal/log"
)

// powerProfile combines the kernel's battery design figures with the static
// power profile table from configuration
type powerProfile struct {
	capacity float64 // mAh, 0 when the kernel reports none
	table    map[string]float64
}

func (pp *powerProfile) BatteryCapacity() (float64, bool) {
	return pp.capacity, pp.capacity > 0
}

func (pp *powerProfile) AveragePower(name string) (float64, bool) {
	v, ok := pp.table[name]
	return v, ok && v > 0
}

// PowerProfile returns the battery profile, absent on devices with no battery
// and no configured table
func (p *Platform) PowerProfile() (PowerProfile, bool) {
	capacity, ok := p.batteryDesignCapacity()
	if !ok && len(p.opts.PowerProfile) == 0 {
		return nil, false
	}
	return &powerProfile{capacity: capacity, table: p.opts.PowerProfile}, true
}

// batteryDesignCapacity reads the first battery-type power supply. Values are
// in µAh, or µWh plus a design voltage in µV on some fuel gauges.
func (p *Platform) batteryDesignCapacity() (float64, bool) {
	matches, _ := filepath.Glob(filepath.Join(p.opts.SysfsRoot, "class", "power_supply", "*"))
	sort.Strings(matches)

	for _, dir := range matches {
		kind, err := readSysfsString(filepath.Join(dir, "type"))
		if err != nil || !strings.EqualFold(kind, "Battery") {
			continue
		}

		if uAh, ok := readSysfsFloat(filepath.Join(dir, "charge_full_design")); ok {
			return uAh / 1000, true
		}

		uWh, okEnergy := readSysfsFloat(filepath.Join(dir, "energy_full_design"))
		uV, okVoltage := readSysfsFloat(filepath.Join(dir, "voltage_min_design"))
		if okEnergy && okVoltage {
			// µWh / µV = Ah
			return uWh / uV * 1000, true
		}

		log.Debug().Str("supply", filepath.Base(dir)).Msg("battery reports no design capacity")
	}

	return 0, false
}

func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readSysfsFloat(path string) (float64, bool) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
