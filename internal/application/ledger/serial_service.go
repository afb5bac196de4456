package ledger

import (
	"context"

	"github.com/labelops/engine/internal/domain/label"
	"go.uber.org/zap"
)

// SerialService is the engine handle for the serial allocator. Issuance
// normally allocates inside LedgerService.Append's transaction; this handle
// exists for callers that need a serial on its own, and for diagnostics.
type SerialService struct {
	scope   TransactionScope
	serials label.SerialRepository
	logger  *zap.Logger
}

// NewSerialService creates a new SerialService.
func NewSerialService(scope TransactionScope, serials label.SerialRepository, logger *zap.Logger) *SerialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerialService{scope: scope, serials: serials, logger: logger}
}

// Next allocates and durably persists the next serial number. Two
// concurrent callers never observe the same value; a crash before commit
// simply loses the allocation, it never leaves a gap.
func (s *SerialService) Next(ctx context.Context) (int64, error) {
	var serial int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		n, err := repos.Serials().Next(ctx)
		if err != nil {
			return err
		}
		serial = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("serial allocated", zap.Int64("serial", serial))
	return serial, nil
}

// Peek returns the serial Next would hand out, without allocating.
// ok is false when nothing was ever allocated and the ledger is empty.
func (s *SerialService) Peek(ctx context.Context) (next int64, ok bool, err error) {
	return s.serials.Peek(ctx)
}
