package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/labelops/engine/internal/domain/label"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSerialRepository_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh store starts at 1", func(t *testing.T) {
		db := openTestStore(t)
		repo := NewGormSerialRepository(db.DB)

		for want := int64(1); want <= 3; want++ {
			got, err := repo.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("seeds from an existing ledger", func(t *testing.T) {
		db := openTestStore(t)
		records := NewGormRecordRepository(db.DB)
		require.NoError(t, records.Create(ctx, storedRecord(
			12, label.CategoryStandard, "ABC-100", "A-01-01",
			time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC), nil)))

		got, err := NewGormSerialRepository(db.DB).Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(13), got)
	})

	t.Run("deleting the newest record never frees its serial", func(t *testing.T) {
		db := openTestStore(t)
		records := NewGormRecordRepository(db.DB)
		serials := NewGormSerialRepository(db.DB)

		serial, err := serials.Next(ctx)
		require.NoError(t, err)
		require.NoError(t, records.Create(ctx, storedRecord(
			serial, label.CategoryStandard, "ABC-100", "A-01-01",
			time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC), nil)))

		_, err = records.DeleteBySerials(ctx, []int64{serial})
		require.NoError(t, err)

		next, err := serials.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, serial+1, next)
	})
}

func TestGormSerialRepository_Peek(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		db := openTestStore(t)
		_, ok, err := NewGormSerialRepository(db.DB).Peek(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("after allocation", func(t *testing.T) {
		db := openTestStore(t)
		repo := NewGormSerialRepository(db.DB)

		_, err := repo.Next(ctx)
		require.NoError(t, err)

		next, ok, err := repo.Peek(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(2), next)

		// Peek does not allocate.
		again, ok, err := repo.Peek(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, next, again)
	})

	t.Run("pre-counter ledger data", func(t *testing.T) {
		db := openTestStore(t)
		records := NewGormRecordRepository(db.DB)
		require.NoError(t, records.Create(ctx, storedRecord(
			5, label.CategoryStandard, "ABC-100", "A-01-01",
			time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC), nil)))

		next, ok, err := NewGormSerialRepository(db.DB).Peek(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(6), next)
	})
}
