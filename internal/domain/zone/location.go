package zone

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/labelops/engine/internal/domain/shared"
)

// locationPattern is the fixed wire shape of a location label: a single
// uppercase zone letter, a 2-digit row, and a 2-digit column. The shape is
// independent of how many zones or rows are actually configured; range
// checks are data-driven from the active Config.
var locationPattern = regexp.MustCompile(`^([A-Z])-(\d{2})-(\d{2})$`)

// Location identifies a single storage bin: a zone code plus a 1-based
// row/column pair. A Location is only meaningful with respect to the Config
// snapshot that validated it.
type Location struct {
	ZoneCode string
	Row      int
	Column   int
}

// String formats the location canonically as ZONE-RR-CC with zero-padded
// 2-digit row and column.
func (l Location) String() string {
	return fmt.Sprintf("%s-%02d-%02d", l.ZoneCode, l.Row, l.Column)
}

// IsZero reports whether the location is the zero value.
func (l Location) IsZero() bool {
	return l.ZoneCode == "" && l.Row == 0 && l.Column == 0
}

// parseLocationText splits location text into its components without
// consulting any zone configuration. Shape errors surface as INVALID_FORMAT.
func parseLocationText(text string) (Location, error) {
	m := locationPattern.FindStringSubmatch(text)
	if m == nil {
		return Location{}, shared.ErrInvalidFormat.WithMessage(
			fmt.Sprintf("location %q does not match ZONE-RR-CC (e.g. A-01-01)", text))
	}
	row, _ := strconv.Atoi(m[2])
	col, _ := strconv.Atoi(m[3])
	return Location{ZoneCode: m[1], Row: row, Column: col}, nil
}
