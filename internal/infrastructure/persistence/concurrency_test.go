package persistence

import (
	"context"
	"sync"
	"testing"

	appledger "github.com/labelops/engine/internal/application/ledger"
	"github.com/labelops/engine/internal/domain/label"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerForConcurrency(t *testing.T) *appledger.LedgerService {
	t.Helper()
	db := openTestStore(t)
	zones, err := zoneConfigForTest()
	require.NoError(t, err)
	scope := NewGormTransactionScope(db.DB)
	return appledger.NewLedgerService(scope, NewGormRecordRepository(db.DB), zones, nil, nil)
}

func appendStandard(ctx context.Context, svc *appledger.LedgerService) (*label.Record, error) {
	return svc.Append(ctx, appledger.AppendInput{
		ProductCode: "ABC-100", Lot: "L1", Expiry: "2025-01-01",
		Version: "v1", Location: "A-01-01", Category: label.CategoryStandard,
	})
}

// TestConcurrentAppendSerials verifies serial allocation under contention:
// N uncoordinated writers appending against the same store receive exactly
// the serials 1..N, with no duplicates and no gaps.
func TestConcurrentAppendSerials(t *testing.T) {
	ctx := context.Background()

	t.Run("25 writers allocate exactly 1..25", func(t *testing.T) {
		svc := newLedgerForConcurrency(t)

		const writers = 25
		serials := make(chan int64, writers)
		var wg sync.WaitGroup
		wg.Add(writers)
		for i := 0; i < writers; i++ {
			go func() {
				defer wg.Done()
				rec, err := appendStandard(ctx, svc)
				if assert.NoError(t, err) {
					serials <- rec.SerialNumber
				}
			}()
		}
		wg.Wait()
		close(serials)

		seen := make(map[int64]bool, writers)
		for s := range serials {
			assert.False(t, seen[s], "serial %d allocated twice", s)
			seen[s] = true
		}
		require.Len(t, seen, writers)
		for s := int64(1); s <= writers; s++ {
			assert.True(t, seen[s], "serial %d missing from the sequence", s)
		}
	})

	t.Run("concurrent batch continues the sequence after deletions", func(t *testing.T) {
		svc := newLedgerForConcurrency(t)

		for i := 0; i < 5; i++ {
			_, err := appendStandard(ctx, svc)
			require.NoError(t, err)
		}
		deleted, err := svc.Delete(ctx, 4, 5)
		require.NoError(t, err)
		require.Equal(t, int64(2), deleted)

		const writers = 10
		serials := make(chan int64, writers)
		var wg sync.WaitGroup
		wg.Add(writers)
		for i := 0; i < writers; i++ {
			go func() {
				defer wg.Done()
				rec, err := appendStandard(ctx, svc)
				if assert.NoError(t, err) {
					serials <- rec.SerialNumber
				}
			}()
		}
		wg.Wait()
		close(serials)

		// Deleted serials are never reissued: the batch picks up at 6.
		seen := make(map[int64]bool, writers)
		for s := range serials {
			seen[s] = true
		}
		require.Len(t, seen, writers)
		for s := int64(6); s <= 5+writers; s++ {
			assert.True(t, seen[s], "serial %d missing from the sequence", s)
		}
	})
}
