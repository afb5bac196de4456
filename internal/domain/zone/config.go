package zone

import (
	"fmt"
	"strings"

	"github.com/labelops/engine/internal/domain/shared"
)

// Definition describes one warehouse zone: a named region with a fixed
// rows x columns grid of storage bins. Color is cosmetic and passed through
// untouched for the presentation layer.
type Definition struct {
	Code        string
	DisplayName string
	Color       string
	Rows        int
	Columns     int
}

// Config is a validated, immutable snapshot of the warehouse layout.
// It is safe to share by reference across goroutines; a changed layout is
// expressed by building a new Config and swapping the snapshot atomically,
// never by mutating one in place.
type Config struct {
	zones []Definition
	index map[string]int
}

// NewConfig validates a zone set and builds a Config snapshot. Zone order is
// preserved as given (insertion order). There is no default layout: an empty
// or invalid set fails closed with CONFIG_INVALID rather than fabricating
// one.
func NewConfig(zones []Definition) (*Config, error) {
	if len(zones) == 0 {
		return nil, shared.ErrConfigInvalid.WithMessage("zone configuration has no zones")
	}

	cfg := &Config{
		zones: make([]Definition, 0, len(zones)),
		index: make(map[string]int, len(zones)),
	}
	for _, z := range zones {
		code := strings.TrimSpace(z.Code)
		if code == "" {
			return nil, shared.ErrConfigInvalid.WithMessage("zone code cannot be empty")
		}
		if _, dup := cfg.index[code]; dup {
			return nil, shared.ErrConfigInvalid.WithMessage(
				fmt.Sprintf("duplicate zone code %q", code))
		}
		if z.Rows < 1 {
			return nil, shared.ErrConfigInvalid.WithMessage(
				fmt.Sprintf("zone %q has non-positive rows %d", code, z.Rows))
		}
		if z.Columns < 1 {
			return nil, shared.ErrConfigInvalid.WithMessage(
				fmt.Sprintf("zone %q has non-positive columns %d", code, z.Columns))
		}
		z.Code = code
		cfg.index[code] = len(cfg.zones)
		cfg.zones = append(cfg.zones, z)
	}
	return cfg, nil
}

// Zones returns the zone definitions in insertion order.
func (c *Config) Zones() []Definition {
	out := make([]Definition, len(c.zones))
	copy(out, c.zones)
	return out
}

// Zone looks up a zone definition by code.
func (c *Config) Zone(code string) (Definition, bool) {
	i, ok := c.index[code]
	if !ok {
		return Definition{}, false
	}
	return c.zones[i], true
}

// ValidateLocation parses and range-checks location text against this
// snapshot. Each failure mode is distinguishable: INVALID_FORMAT,
// UNKNOWN_ZONE, ROW_OUT_OF_RANGE, or COLUMN_OUT_OF_RANGE.
func (c *Config) ValidateLocation(text string) (Location, error) {
	loc, err := parseLocationText(text)
	if err != nil {
		return Location{}, err
	}

	def, ok := c.Zone(loc.ZoneCode)
	if !ok {
		return Location{}, shared.ErrUnknownZone.WithMessage(
			fmt.Sprintf("zone %q is not configured (available: %s)", loc.ZoneCode, strings.Join(c.codes(), ", ")))
	}
	if loc.Row < 1 || loc.Row > def.Rows {
		return Location{}, shared.ErrRowOutOfRange.WithMessage(
			fmt.Sprintf("row %02d outside zone %s range 01-%02d", loc.Row, def.Code, def.Rows))
	}
	if loc.Column < 1 || loc.Column > def.Columns {
		return Location{}, shared.ErrColumnOutOfRange.WithMessage(
			fmt.Sprintf("column %02d outside zone %s range 01-%02d", loc.Column, def.Code, def.Columns))
	}
	return loc, nil
}

// EnumerateLocations returns every bin in the layout in deterministic order:
// zone insertion order, then row-major within each zone.
func (c *Config) EnumerateLocations() []Location {
	total := 0
	for _, z := range c.zones {
		total += z.Rows * z.Columns
	}
	out := make([]Location, 0, total)
	for _, z := range c.zones {
		for row := 1; row <= z.Rows; row++ {
			for col := 1; col <= z.Columns; col++ {
				out = append(out, Location{ZoneCode: z.Code, Row: row, Column: col})
			}
		}
	}
	return out
}

func (c *Config) codes() []string {
	codes := make([]string, len(c.zones))
	for i, z := range c.zones {
		codes[i] = z.Code
	}
	return codes
}
