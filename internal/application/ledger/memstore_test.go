package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/labelops/engine/internal/domain/label"
	"github.com/labelops/engine/internal/domain/shared"
)

// memStore is an in-memory stand-in for the persistence layer, good enough
// to exercise service semantics without a database file. All repositories
// vended from it share the same state; Execute offers no rollback, which the
// service tests do not rely on.
type memStore struct {
	mu         sync.Mutex
	records    map[int64]label.Record
	outbound   []label.OutboundRecord
	lastSerial int64
	hasCounter bool

	// failNext, when set, makes the next repository call fail with it.
	failNext error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[int64]label.Record)}
}

func (s *memStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

// TransactionalRepositories

func (s *memStore) Records() label.RecordRepository    { return &memRecordRepo{s} }
func (s *memStore) Outbound() label.OutboundRepository { return &memOutboundRepo{s} }
func (s *memStore) Serials() label.SerialRepository    { return &memSerialRepo{s} }

// Execute implements TransactionScope without transactionality.
func (s *memStore) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

type memRecordRepo struct{ s *memStore }

func (r *memRecordRepo) Create(ctx context.Context, rec *label.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return err
	}
	if rec.SerialNumber < 1 {
		return shared.ErrInvalidInput.WithMessage("record has no serial number")
	}
	if _, dup := r.s.records[rec.SerialNumber]; dup {
		return shared.ErrInvalidInput.WithMessage("duplicate serial")
	}
	r.s.records[rec.SerialNumber] = *rec
	return nil
}

func (r *memRecordRepo) FindBySerial(ctx context.Context, serial int64) (*label.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return nil, err
	}
	rec, ok := r.s.records[serial]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &rec, nil
}

func (r *memRecordRepo) FindByLocationAndProduct(ctx context.Context, location, productCode string) ([]label.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return nil, err
	}
	var out []label.Record
	for _, rec := range r.s.records {
		if rec.Location == location && rec.ProductCode == productCode {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.Before(out[j].IssuedAt)
		}
		return out[i].SerialNumber < out[j].SerialNumber
	})
	return out, nil
}

func (r *memRecordRepo) Query(ctx context.Context, filter label.Filter, sortBy label.SortKey, ascending bool) ([]label.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return nil, err
	}
	if !sortBy.IsValid() {
		sortBy = label.SortByIssuedAt
		ascending = false
	}

	var out []label.Record
	for _, rec := range r.s.records {
		if matchFilter(rec, filter) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		less := lessBy(out[i], out[j], sortBy)
		if ascending {
			return less
		}
		return lessBy(out[j], out[i], sortBy)
	})
	return out, nil
}

func (r *memRecordRepo) DeleteBySerials(ctx context.Context, serials []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return 0, err
	}
	var n int64
	for _, serial := range serials {
		if _, ok := r.s.records[serial]; ok {
			delete(r.s.records, serial)
			n++
		}
	}
	return n, nil
}

func (r *memRecordRepo) All(ctx context.Context) ([]label.Record, error) {
	return r.Query(ctx, label.Filter{}, label.SortBySerialNumber, true)
}

func (r *memRecordRepo) MaxSerial(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var max int64
	for serial := range r.s.records {
		if serial > max {
			max = serial
		}
	}
	return max, nil
}

type memOutboundRepo struct{ s *memStore }

func (r *memOutboundRepo) Create(ctx context.Context, rec *label.OutboundRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return err
	}
	r.s.outbound = append(r.s.outbound, *rec)
	return nil
}

func (r *memOutboundRepo) Query(ctx context.Context, filter label.OutboundFilter) ([]label.OutboundRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []label.OutboundRecord
	for _, rec := range r.s.outbound {
		if filter.Location != "" && rec.Location != filter.Location {
			continue
		}
		if filter.ProductCode != "" && rec.ProductCode != filter.ProductCode {
			continue
		}
		if filter.Actor != "" && rec.Actor != filter.Actor {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RemovedAt.Equal(out[j].RemovedAt) {
			return out[i].RemovedAt.After(out[j].RemovedAt)
		}
		return out[i].SourceSerialNumber > out[j].SourceSerialNumber
	})
	return out, nil
}

type memSerialRepo struct{ s *memStore }

func (r *memSerialRepo) Next(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return 0, err
	}
	if !r.s.hasCounter {
		for serial := range r.s.records {
			if serial > r.s.lastSerial {
				r.s.lastSerial = serial
			}
		}
		r.s.hasCounter = true
	}
	r.s.lastSerial++
	return r.s.lastSerial, nil
}

func (r *memSerialRepo) Peek(ctx context.Context) (int64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.hasCounter {
		return r.s.lastSerial + 1, true, nil
	}
	var max int64
	for serial := range r.s.records {
		if serial > max {
			max = serial
		}
	}
	if max == 0 {
		return 0, false, nil
	}
	return max + 1, true, nil
}

func matchFilter(rec label.Record, filter label.Filter) bool {
	if filter.Category != nil && rec.Category != *filter.Category {
		return false
	}
	if filter.ProductCode != "" && rec.ProductCode != filter.ProductCode {
		return false
	}
	if filter.Location != "" && rec.Location != filter.Location {
		return false
	}
	if filter.IssuedFrom != nil && rec.IssuedAt.Before(*filter.IssuedFrom) {
		return false
	}
	if filter.IssuedTo != nil && rec.IssuedAt.After(*filter.IssuedTo) {
		return false
	}
	return true
}

func lessBy(a, b label.Record, sortBy label.SortKey) bool {
	switch sortBy {
	case label.SortByIssuedAt:
		if !a.IssuedAt.Equal(b.IssuedAt) {
			return a.IssuedAt.Before(b.IssuedAt)
		}
	case label.SortByExpiryDate:
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return true
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return false
		case a.ExpiryDate != nil && b.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
	case label.SortByProductCode:
		if a.ProductCode != b.ProductCode {
			return a.ProductCode < b.ProductCode
		}
	case label.SortByLocation:
		if a.Location != b.Location {
			return a.Location < b.Location
		}
	}
	return a.SerialNumber < b.SerialNumber
}

var (
	_ label.RecordRepository    = (*memRecordRepo)(nil)
	_ label.OutboundRepository  = (*memOutboundRepo)(nil)
	_ label.SerialRepository    = (*memSerialRepo)(nil)
	_ TransactionScope          = (*memStore)(nil)
	_ TransactionalRepositories = (*memStore)(nil)
)
