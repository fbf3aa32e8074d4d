// Package resources holds the localized strings used on the device info panel
package resources

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// String keys
const (
	DeviceInfoDefault     = "device_info_default"
	UnknownMaintainer     = "unknown_maintainer"
	MaintainerSummary     = "maintainer_summary"
	BuildIsOfficialTitle  = "build_is_official_title"
	BuildIsCommunityTitle = "build_is_community_title"
	LabelDevice           = "label_device"
	LabelChipset          = "label_chipset"
	LabelStorage          = "label_storage"
	LabelBattery          = "label_battery"
	LabelDisplay          = "label_display"
	LabelVersion          = "label_version"
)

// DefaultLocale is the table key holding the untranslated strings
const DefaultLocale = "default"

// builtin carries the shipped translations; config tables are merged on top
var builtin = map[string]map[string]string{
	DefaultLocale: {
		DeviceInfoDefault:     "Unknown",
		UnknownMaintainer:     "Unknown maintainer",
		MaintainerSummary:     "Maintained by %s",
		BuildIsOfficialTitle:  "Official build",
		BuildIsCommunityTitle: "Community build",
		LabelDevice:           "Device",
		LabelChipset:          "Chipset",
		LabelStorage:          "Storage",
		LabelBattery:          "Battery",
		LabelDisplay:          "Display",
		LabelVersion:          "Version",
	},
	"de": {
		DeviceInfoDefault:     "Unbekannt",
		UnknownMaintainer:     "Unbekannter Betreuer",
		MaintainerSummary:     "Betreut von %s",
		BuildIsOfficialTitle:  "Offizieller Build",
		BuildIsCommunityTitle: "Community-Build",
		LabelDevice:           "Gerät",
		LabelChipset:          "Chipsatz",
		LabelStorage:          "Speicher",
		LabelBattery:          "Akku",
		LabelDisplay:          "Display",
		LabelVersion:          "Version",
	},
	"fr": {
		DeviceInfoDefault:     "Inconnu",
		UnknownMaintainer:     "Mainteneur inconnu",
		MaintainerSummary:     "Maintenu par %s",
		BuildIsOfficialTitle:  "Build officiel",
		BuildIsCommunityTitle: "Build communautaire",
		LabelDevice:           "Appareil",
		LabelChipset:          "Puce",
		LabelStorage:          "Stockage",
		LabelBattery:          "Batterie",
		LabelDisplay:          "Écran",
		LabelVersion:          "Version",
	},
}

// Catalog resolves string keys for one locale with fallback to parent
// locales and finally the default table
type Catalog struct {
	locale string
	chain  []map[string]string
}

// NewCatalog builds a catalog for locale. extra tables, keyed by BCP 47 tag or
// "default", override the built-in strings key by key.
func NewCatalog(locale string, extra map[string]map[string]string) *Catalog {
	tables := mergeTables(builtin, extra)

	byTag := make(map[string]string, len(tables))
	supported := []language.Tag{language.Und}
	for name := range tables {
		if name == DefaultLocale {
			continue
		}
		tag, err := language.Parse(name)
		if err != nil {
			continue
		}
		byTag[tag.String()] = name
		supported = append(supported, tag)
	}

	c := &Catalog{locale: DefaultLocale}
	desired, err := language.Parse(normalizeLocale(locale))
	if err == nil && !desired.IsRoot() {
		// Exact tag first, then its parents: de-AT, de
		for t := desired; !t.IsRoot(); t = t.Parent() {
			if name, ok := byTag[t.String()]; ok {
				c.add(name, tables[name])
			}
		}

		// Nothing exact, let the matcher pick a close relative
		if len(c.chain) == 0 {
			matcher := language.NewMatcher(supported)
			_, idx, conf := matcher.Match(desired)
			if conf != language.No && idx > 0 {
				name := byTag[supported[idx].String()]
				c.add(name, tables[name])
			}
		}
	}
	c.chain = append(c.chain, tables[DefaultLocale])
	return c
}

func (c *Catalog) add(name string, table map[string]string) {
	if len(c.chain) == 0 {
		c.locale = name
	}
	c.chain = append(c.chain, table)
}

// Locale returns the table name the catalog resolved to
func (c *Catalog) Locale() string {
	return c.locale
}

// String returns the string for key, or the key itself when no table has it
func (c *Catalog) String(key string) string {
	for _, table := range c.chain {
		if v, ok := table[key]; ok {
			return v
		}
	}
	return key
}

// Format looks up key and formats it with args. A template without any
// verb is returned as is.
func (c *Catalog) Format(key string, args ...any) string {
	tmpl := c.String(key)
	if !strings.Contains(tmpl, "%") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// normalizeLocale turns POSIX locale names like "de_AT.UTF-8" into "de-AT"
func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "C" || locale == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(locale, "_", "-")
}

func mergeTables(base, extra map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(base)+len(extra))
	for name, table := range base {
		out[name] = copyTable(table)
	}
	for name, table := range extra {
		if _, ok := out[name]; !ok {
			out[name] = make(map[string]string, len(table))
		}
		for k, v := range table {
			out[name][k] = v
		}
	}
	return out
}

func copyTable(table map[string]string) map[string]string {
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}
