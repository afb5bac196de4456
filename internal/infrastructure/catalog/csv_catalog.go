// Package catalog loads product master data from a CSV export.
package catalog

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	domaincatalog "github.com/labelops/engine/internal/domain/catalog"
	"github.com/labelops/engine/internal/domain/shared"
)

// LoadCSV reads a product catalog from a CSV file with at least two columns,
// product code and product name. A header row is detected by the literal
// "product_code" in the first column and skipped. Blank lines and rows with
// an empty code are ignored; later rows win on duplicate codes.
func LoadCSV(path string) (*domaincatalog.StaticResolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, shared.ErrConfigInvalid.WithMessage("cannot open product catalog: " + err.Error())
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV parses catalog rows from a reader. See LoadCSV for the format.
func ParseCSV(r io.Reader) (*domaincatalog.StaticResolver, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	names := make(map[string]string)
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, shared.ErrConfigInvalid.WithMessage("malformed product catalog: " + err.Error())
		}
		if first {
			first = false
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "product_code") {
				continue
			}
		}
		if len(row) < 2 {
			continue
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		names[code] = strings.TrimSpace(row[1])
	}
	return domaincatalog.NewStaticResolver(names), nil
}
