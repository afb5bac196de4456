package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/labelops/engine/internal/domain/catalog"
	"github.com/labelops/engine/internal/domain/label"
	"github.com/labelops/engine/internal/domain/shared"
	"github.com/labelops/engine/internal/domain/zone"
	"go.uber.org/zap"
)

// DateLayout is the wire format for expiry and disposal dates.
const DateLayout = "2006-01-02"

// AppendInput carries the operator-supplied fields for one issuance.
// Expiry is a DateLayout string; empty or "N/A" means absent.
type AppendInput struct {
	ProductCode string
	Lot         string
	Expiry      string
	Version     string
	Location    string
	Category    label.Category
}

// LedgerService is the engine handle for the label ledger. It owns the
// single write path for issuance: nothing else may fabricate a label record.
type LedgerService struct {
	scope   TransactionScope
	records label.RecordRepository
	zones   zone.Provider
	catalog catalog.Resolver
	logger  *zap.Logger
	now     func() time.Time
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(scope TransactionScope, records label.RecordRepository, zones zone.Provider, resolver catalog.Resolver, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		scope:   scope,
		records: records,
		zones:   zones,
		catalog: resolver,
		logger:  logger,
		now:     time.Now,
	}
}

// Append validates the input against the active zone snapshot and the
// category policy, then allocates the next serial, derives the disposal date,
// and persists the record inside a single transaction. The returned record is
// durably flushed before Append returns.
func (s *LedgerService) Append(ctx context.Context, in AppendInput) (*label.Record, error) {
	cfg, err := s.zones.Snapshot()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.ValidateLocation(in.Location)
	if err != nil {
		return nil, err
	}

	expiry, err := parseExpiry(in.Expiry)
	if err != nil {
		return nil, err
	}

	name := catalog.ResolveOrUnknown(s.catalog, in.ProductCode)
	rec, err := label.NewRecord(in.Category, in.ProductCode, name, in.Lot, expiry, in.Version, loc, s.now())
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		serial, err := repos.Serials().Next(ctx)
		if err != nil {
			return err
		}
		rec.SerialNumber = serial
		return repos.Records().Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("label issued",
		zap.Int64("serial", rec.SerialNumber),
		zap.String("product_code", rec.ProductCode),
		zap.String("location", rec.Location),
		zap.String("category", rec.Category.String()),
	)
	return rec, nil
}

// FindBySerial returns the record for a serial number, or NOT_FOUND.
func (s *LedgerService) FindBySerial(ctx context.Context, serial int64) (*label.Record, error) {
	return s.records.FindBySerial(ctx, serial)
}

// Query returns records matching the filter with a stable sort. An empty
// sort key defaults to issued_at descending, the ledger's user-facing view.
func (s *LedgerService) Query(ctx context.Context, filter label.Filter, sortBy label.SortKey, ascending bool) ([]label.Record, error) {
	return s.records.Query(ctx, filter, sortBy, ascending)
}

// Delete is the manual correction path: it permanently removes the given
// serials and reports how many existed. Deleting an absent serial is a
// no-op, so retrying a delete is always safe.
func (s *LedgerService) Delete(ctx context.Context, serials ...int64) (int64, error) {
	if len(serials) == 0 {
		return 0, nil
	}
	var deleted int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		n, err := repos.Records().DeleteBySerials(ctx, serials)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("labels deleted", zap.Int64("count", deleted), zap.Int("requested", len(serials)))
	return deleted, nil
}

// All returns the full ledger, for aggregation.
func (s *LedgerService) All(ctx context.Context) ([]label.Record, error) {
	return s.records.All(ctx)
}

// exportHeader is the fixed logical field order of persisted/exported rows.
var exportHeader = []string{
	"serial_number", "category", "product_code", "product_name", "lot",
	"expiry_date", "disposal_date", "location", "version", "issued_at",
}

// ExportCSV writes matching records to w in display order (issued_at
// descending) using the engine's external row format.
func (s *LedgerService) ExportCSV(ctx context.Context, w io.Writer, filter label.Filter) error {
	records, err := s.records.Query(ctx, filter, label.SortByIssuedAt, false)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for i := range records {
		r := &records[i]
		row := []string{
			strconv.FormatInt(r.SerialNumber, 10),
			r.Category.String(),
			r.ProductCode,
			r.ProductName,
			r.Lot,
			formatDate(r.ExpiryDate),
			formatDate(r.DisposalDate()),
			r.Location,
			r.Version,
			r.IssuedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// parseExpiry converts wire text into an optional date. Empty and the N/A
// sentinel mean absent; anything else must parse as DateLayout.
func parseExpiry(text string) (*time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, label.NoValue) {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, text)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithMessage(
			fmt.Sprintf("expiry date %q is not %s", text, DateLayout))
	}
	return &t, nil
}

// formatDate renders an optional date, using the N/A sentinel when absent.
func formatDate(t *time.Time) string {
	if t == nil {
		return label.NoValue
	}
	return t.Format(DateLayout)
}
