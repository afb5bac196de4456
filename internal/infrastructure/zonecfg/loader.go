// Package zonecfg loads the warehouse layout from its JSON configuration
// file and keeps the active snapshot fresh while operator tooling edits the
// file underneath running processes.
package zonecfg

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/labelops/engine/internal/domain/shared"
	"github.com/labelops/engine/internal/domain/zone"
)

// zoneEntry mirrors one zone object of the configuration file:
//
//	{"zones": {"A": {"name": "...", "color": "#2196F3",
//	                 "sections": {"rows": 5, "columns": 3}}}}
//
// color is cosmetic and passed through untouched.
type zoneEntry struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Sections struct {
		Rows    int `json:"rows"`
		Columns int `json:"columns"`
	} `json:"sections"`
}

// Load reads and validates a zone configuration file. A missing or
// malformed file fails closed with CONFIG_INVALID: the engine never
// fabricates a fallback layout.
func Load(path string) (*zone.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, shared.ErrConfigInvalid.WithMessage(
			fmt.Sprintf("cannot open zone configuration %s: %v", path, err))
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a zone configuration document. Zone order follows the
// file's key order, which downstream enumeration and grid layout preserve.
func Parse(r io.Reader) (*zone.Config, error) {
	// encoding/json maps drop key order, so walk the token stream to keep
	// the file's zone order.
	dec := json.NewDecoder(r)

	var defs []zone.Definition
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		if key != "zones" {
			// Unknown top-level sections are skipped, not rejected.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, invalid(err)
			}
			continue
		}

		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		for dec.More() {
			code, err := stringToken(dec)
			if err != nil {
				return nil, err
			}
			var entry zoneEntry
			if err := dec.Decode(&entry); err != nil {
				return nil, invalid(err)
			}
			defs = append(defs, zone.Definition{
				Code:        code,
				DisplayName: entry.Name,
				Color:       entry.Color,
				Rows:        entry.Sections.Rows,
				Columns:     entry.Sections.Columns,
			})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	return zone.NewConfig(defs)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return invalid(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return shared.ErrConfigInvalid.WithMessage(
			fmt.Sprintf("zone configuration: expected %q, got %v", want, tok))
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", invalid(err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", shared.ErrConfigInvalid.WithMessage(
			fmt.Sprintf("zone configuration: expected string key, got %v", tok))
	}
	return s, nil
}

func invalid(err error) error {
	return shared.ErrConfigInvalid.WithMessage("malformed zone configuration: " + err.Error())
}
