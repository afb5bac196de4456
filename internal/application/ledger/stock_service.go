package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/labelops/engine/internal/domain/label"
	"github.com/labelops/engine/internal/domain/shared"
	"github.com/labelops/engine/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// GroupKey names a grouping dimension for CountsBy.
type GroupKey string

const (
	GroupByLocation GroupKey = "location"
	GroupByCategory GroupKey = "category"
	GroupByProduct  GroupKey = "product_code"
)

// CountKey is one group in a CountsBy result. Dimensions not requested stay
// at their zero value.
type CountKey struct {
	Location    string
	Category    label.Category
	ProductCode string
}

// DeductRequest is one entry of a batch outbound deduction.
type DeductRequest struct {
	Location    string
	ProductCode string
	Quantity    int
	Actor       string
}

// DeductResult reports the outcome of one batch entry. Exactly one of
// Removed/Err is set.
type DeductResult struct {
	Request DeductRequest
	Removed []label.OutboundRecord
	Err     error
}

// StockService aggregates the ledger and performs outbound deduction with
// FIFO semantics. It never mutates records in place: a deduction writes the
// outbound audit record and removes the label record in one transaction.
type StockService struct {
	scope    TransactionScope
	records  label.RecordRepository
	outbound label.OutboundRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewStockService creates a new StockService.
func NewStockService(scope TransactionScope, records label.RecordRepository, outbound label.OutboundRepository, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		scope:    scope,
		records:  records,
		outbound: outbound,
		logger:   logger,
		now:      time.Now,
	}
}

// CountsBy groups the ledger (optionally pre-filtered) by the requested
// dimensions and counts records per group. A pure query: no mutation.
func (s *StockService) CountsBy(ctx context.Context, keys []GroupKey, filter label.Filter) (map[CountKey]int, error) {
	if len(keys) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("at least one group key is required")
	}
	wantLocation, wantCategory, wantProduct := false, false, false
	for _, k := range keys {
		switch k {
		case GroupByLocation:
			wantLocation = true
		case GroupByCategory:
			wantCategory = true
		case GroupByProduct:
			wantProduct = true
		default:
			return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown group key %q", k))
		}
	}

	records, err := s.records.Query(ctx, filter, label.SortBySerialNumber, true)
	if err != nil {
		return nil, err
	}

	counts := make(map[CountKey]int)
	for i := range records {
		var key CountKey
		if wantLocation {
			key.Location = records[i].Location
		}
		if wantCategory {
			key.Category = records[i].Category
		}
		if wantProduct {
			key.ProductCode = records[i].ProductCode
		}
		counts[key]++
	}
	return counts, nil
}

// SortedCountKeys returns the keys of a CountsBy result in a stable display
// order: location, then product code, then category.
func SortedCountKeys(counts map[CountKey]int) []CountKey {
	keys := make([]CountKey, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Location != keys[j].Location {
			return keys[i].Location < keys[j].Location
		}
		if keys[i].ProductCode != keys[j].ProductCode {
			return keys[i].ProductCode < keys[j].ProductCode
		}
		return keys[i].Category < keys[j].Category
	})
	return keys
}

// AvailableQuantity counts the records currently at a location for a product
// code. Category is not part of this key.
func (s *StockService) AvailableQuantity(ctx context.Context, location, productCode string) (int, error) {
	records, err := s.records.FindByLocationAndProduct(ctx, location, productCode)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// DeductOutbound removes quantity records for (location, productCode) in
// FIFO order, writing one outbound record per removal. Category policy is
// checked before anything else: tracked stock is rejected with
// OUTBOUND_FORBIDDEN even when stock exists. The whole deduction commits
// atomically or not at all; INSUFFICIENT_STOCK never leaves a partial
// effect.
func (s *StockService) DeductOutbound(ctx context.Context, location, productCode string, quantity int, actor string) ([]label.OutboundRecord, error) {
	if actor == "" {
		return nil, shared.ErrInvalidInput.WithMessage("actor is required for outbound deduction")
	}

	var removed []label.OutboundRecord
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		candidates, err := repos.Records().FindByLocationAndProduct(ctx, location, productCode)
		if err != nil {
			return err
		}
		if err := label.OutboundEligible(candidates); err != nil {
			return err
		}
		picked, err := label.SelectFIFO(candidates, quantity)
		if err != nil {
			return err
		}

		removedAt := s.now()
		removed = make([]label.OutboundRecord, 0, len(picked))
		for i := range picked {
			out := label.NewOutboundRecord(&picked[i], actor, removedAt)
			if err := repos.Outbound().Create(ctx, out); err != nil {
				return err
			}
			n, err := repos.Records().DeleteBySerials(ctx, []int64{picked[i].SerialNumber})
			if err != nil {
				return err
			}
			if n != 1 {
				// The selected record vanished mid-transaction; the store's
				// isolation should make this impossible.
				return shared.ErrInsufficientStock.WithMessage(
					fmt.Sprintf("record %d disappeared during deduction", picked[i].SerialNumber))
			}
			removed = append(removed, *out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The CLI attaches an actor-enriched logger to the context; direct
	// callers fall back to the service logger with the same attribution.
	log := logger.FromContextOr(ctx, s.logger.With(zap.String("actor", actor)))
	log.Info("outbound deduction",
		zap.String("location", location),
		zap.String("product_code", productCode),
		zap.Int("quantity", quantity),
	)
	return removed, nil
}

// BatchDeduct processes an ordered list of deduction requests. Every request
// is re-checked for category eligibility and stock sufficiency before any
// deduction commits; requests that fail the pre-check are reported without
// being attempted. Passing requests then commit one by one, each atomically,
// so a later failure never unwinds an earlier success and a failing request
// never leaves a partial outbound/removal pair.
func (s *StockService) BatchDeduct(ctx context.Context, requests []DeductRequest) []DeductResult {
	results := make([]DeductResult, len(requests))
	eligible := make([]bool, len(requests))

	for i, req := range requests {
		results[i].Request = req
		if req.Quantity < 1 {
			results[i].Err = shared.ErrInvalidInput.WithMessage("deduction quantity must be at least 1")
			continue
		}
		candidates, err := s.records.FindByLocationAndProduct(ctx, req.Location, req.ProductCode)
		if err != nil {
			results[i].Err = err
			continue
		}
		if err := label.OutboundEligible(candidates); err != nil {
			results[i].Err = err
			continue
		}
		if len(candidates) < req.Quantity {
			results[i].Err = shared.ErrInsufficientStock.WithMessage(
				fmt.Sprintf("%s %s: requested %d, available %d", req.Location, req.ProductCode, req.Quantity, len(candidates)))
			continue
		}
		eligible[i] = true
	}

	for i, req := range requests {
		if !eligible[i] {
			continue
		}
		removed, err := s.DeductOutbound(ctx, req.Location, req.ProductCode, req.Quantity, req.Actor)
		if err != nil {
			// Stock may have been consumed by an earlier request in this
			// batch or by another process between pre-check and commit.
			results[i].Err = err
			continue
		}
		results[i].Removed = removed
	}
	return results
}

// OutboundHistory queries the outbound ledger, most recent first.
func (s *StockService) OutboundHistory(ctx context.Context, filter label.OutboundFilter) ([]label.OutboundRecord, error) {
	return s.outbound.Query(ctx, filter)
}
