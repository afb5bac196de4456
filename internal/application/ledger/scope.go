package ledger

import (
	"context"

	"github.com/labelops/engine/internal/domain/label"
)

// TransactionalRepositories provides access to all repositories within one
// transaction. Everything obtained from it reads and writes the same
// transaction; nothing becomes durable until the scope commits.
type TransactionalRepositories interface {
	// Records returns the label record repository scoped to the transaction.
	Records() label.RecordRepository

	// Outbound returns the outbound ledger repository scoped to the transaction.
	Outbound() label.OutboundRepository

	// Serials returns the serial counter repository scoped to the transaction.
	Serials() label.SerialRepository
}

// TransactionScope executes a function atomically against the backing store.
// The read-compute-write span of every ledger mutation runs inside Execute
// so concurrent processes never interleave half-applied state: the function
// either commits as a whole or leaves no durable trace.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
