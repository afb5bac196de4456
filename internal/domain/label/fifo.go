package label

import (
	"sort"

	"github.com/labelops/engine/internal/domain/shared"
)

// SelectFIFO picks quantity records from candidates in first-in-first-out
// order: oldest IssuedAt first, serial number as the tie-break (serials are
// strictly increasing in issuance order, so equal timestamps still resolve
// to the earlier issuance). The input slice is not modified.
//
// It fails atomically with INSUFFICIENT_STOCK when fewer than quantity
// candidates exist; a partial pick is never returned.
func SelectFIFO(candidates []Record, quantity int) ([]Record, error) {
	if quantity < 1 {
		return nil, shared.ErrInvalidInput.WithMessage("deduction quantity must be at least 1")
	}
	if len(candidates) < quantity {
		return nil, shared.ErrInsufficientStock
	}

	sorted := make([]Record, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].IssuedAt.Equal(sorted[j].IssuedAt) {
			return sorted[i].IssuedAt.Before(sorted[j].IssuedAt)
		}
		return sorted[i].SerialNumber < sorted[j].SerialNumber
	})

	return sorted[:quantity], nil
}

// OutboundEligible checks the category policy for every candidate record.
// A single non-removable record in the set blocks the whole location/product
// pair, even when enough removable stock exists: tracked stock is never
// silently skipped over.
func OutboundEligible(candidates []Record) error {
	for i := range candidates {
		if !candidates[i].Category.Policy().OutboundAllowed {
			return shared.ErrOutboundForbidden.WithMessage(
				"category " + string(candidates[i].Category) + " cannot be deducted")
		}
	}
	return nil
}
