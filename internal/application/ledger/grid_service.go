package ledger

import (
	"context"
	"time"

	"github.com/labelops/engine/internal/domain/label"
	"github.com/labelops/engine/internal/domain/zone"
)

// Cell is the aggregate view of one storage bin.
type Cell struct {
	Location         zone.Location
	Empty            bool
	DistinctProducts int
	TotalRecords     int
	// NearestDisposal is the disposal date closest to now by absolute
	// distance, ties breaking toward the earlier date. Nil when no record
	// in the cell carries an expiry.
	NearestDisposal *time.Time
}

// Grid is a pure projection of the ledger onto the configured layout. It
// carries no persisted state of its own and can be re-derived at any time.
type Grid struct {
	Zones       []zone.Definition
	Cells       []Cell
	GeneratedAt time.Time
}

// GridService projects ledger contents onto the zone grid for display and
// search. It renders nothing itself; callers get data, not pixels.
type GridService struct {
	records label.RecordRepository
	zones   zone.Provider
	now     func() time.Time
}

// NewGridService creates a new GridService.
func NewGridService(records label.RecordRepository, zones zone.Provider) *GridService {
	return &GridService{
		records: records,
		zones:   zones,
		now:     time.Now,
	}
}

// Snapshot builds one cell per enumerated location (zone insertion order,
// row-major) from the records matching the filter. A nil filter means the
// whole ledger.
func (s *GridService) Snapshot(ctx context.Context, filter *label.Filter) (*Grid, error) {
	cfg, err := s.zones.Snapshot()
	if err != nil {
		return nil, err
	}

	f := label.Filter{}
	if filter != nil {
		f = *filter
	}
	records, err := s.records.Query(ctx, f, label.SortBySerialNumber, true)
	if err != nil {
		return nil, err
	}

	byLocation := make(map[string][]label.Record)
	for i := range records {
		byLocation[records[i].Location] = append(byLocation[records[i].Location], records[i])
	}

	now := s.now()
	locations := cfg.EnumerateLocations()
	cells := make([]Cell, 0, len(locations))
	for _, loc := range locations {
		cell := Cell{Location: loc}
		items := byLocation[loc.String()]
		if len(items) == 0 {
			cell.Empty = true
		} else {
			cell.TotalRecords = len(items)
			cell.DistinctProducts = distinctProducts(items)
			cell.NearestDisposal = nearestDisposal(items, now)
		}
		cells = append(cells, cell)
	}

	return &Grid{
		Zones:       cfg.Zones(),
		Cells:       cells,
		GeneratedAt: now,
	}, nil
}

// SearchLocations returns the locations whose cells hold at least one record
// matching the filter, in grid order.
func (s *GridService) SearchLocations(ctx context.Context, filter label.Filter) ([]zone.Location, error) {
	grid, err := s.Snapshot(ctx, &filter)
	if err != nil {
		return nil, err
	}
	var hits []zone.Location
	for _, cell := range grid.Cells {
		if !cell.Empty {
			hits = append(hits, cell.Location)
		}
	}
	return hits, nil
}

func distinctProducts(items []label.Record) int {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		seen[items[i].ProductCode] = struct{}{}
	}
	return len(seen)
}

// nearestDisposal picks the disposal date with the smallest absolute
// distance to now; on a tie the earlier date wins.
func nearestDisposal(items []label.Record, now time.Time) *time.Time {
	var best *time.Time
	var bestDist time.Duration
	for i := range items {
		d := items[i].DisposalDate()
		if d == nil {
			continue
		}
		dist := d.Sub(now)
		if dist < 0 {
			dist = -dist
		}
		switch {
		case best == nil,
			dist < bestDist,
			dist == bestDist && d.Before(*best):
			best = d
			bestDist = dist
		}
	}
	return best
}
