package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/labelops/engine/internal/domain/label"
	"github.com/labelops/engine/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedRecord(serial int64, category label.Category, product, location string, issued time.Time, expiry *time.Time) *label.Record {
	return &label.Record{
		SerialNumber: serial,
		Category:     category,
		ProductCode:  product,
		ProductName:  "Test Product",
		Lot:          "L1",
		ExpiryDate:   expiry,
		Version:      "v1",
		Location:     location,
		IssuedAt:     issued,
	}
}

func TestGormRecordRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	repo := NewGormRecordRepository(db.DB)

	issued := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	expiry := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	t.Run("round-trips a record", func(t *testing.T) {
		rec := storedRecord(1, label.CategoryStandard, "ABC-100", "A-01-01", issued, &expiry)
		require.NoError(t, repo.Create(ctx, rec))

		got, err := repo.FindBySerial(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, rec.SerialNumber, got.SerialNumber)
		assert.Equal(t, rec.Category, got.Category)
		assert.Equal(t, rec.ProductCode, got.ProductCode)
		assert.Equal(t, rec.Location, got.Location)
		require.NotNil(t, got.ExpiryDate)
		assert.True(t, got.ExpiryDate.Equal(expiry))
		assert.True(t, got.IssuedAt.Equal(issued))
	})

	t.Run("missing serial is NOT_FOUND", func(t *testing.T) {
		_, err := repo.FindBySerial(ctx, 99)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unassigned serial rejected", func(t *testing.T) {
		err := repo.Create(ctx, storedRecord(0, label.CategoryStandard, "ABC-100", "A-01-01", issued, nil))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("nil expiry survives the round-trip", func(t *testing.T) {
		rec := storedRecord(2, label.CategorySample, "ABC-100", "A-01-02", issued, nil)
		rec.Lot = label.SampleLot
		rec.Version = label.NoValue
		require.NoError(t, repo.Create(ctx, rec))

		got, err := repo.FindBySerial(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, got.ExpiryDate)
	})
}

func TestGormRecordRepository_Query(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	repo := NewGormRecordRepository(db.DB)

	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	expiry := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	fixtures := []*label.Record{
		storedRecord(1, label.CategoryStandard, "ABC-100", "A-01-01", base, &expiry),
		storedRecord(2, label.CategoryTracked, "DEF-200", "B-01-01", base.Add(time.Hour), &expiry),
		storedRecord(3, label.CategoryStandard, "ABC-100", "A-01-02", base.Add(2*time.Hour), nil),
	}
	for _, rec := range fixtures {
		require.NoError(t, repo.Create(ctx, rec))
	}

	t.Run("empty filter matches everything", func(t *testing.T) {
		records, err := repo.Query(ctx, label.Filter{}, label.SortBySerialNumber, true)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("unknown sort key falls back to issued_at descending", func(t *testing.T) {
		records, err := repo.Query(ctx, label.Filter{}, label.SortKey("lot"), true)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, int64(3), records[0].SerialNumber)
		assert.Equal(t, int64(1), records[2].SerialNumber)
	})

	t.Run("category filter", func(t *testing.T) {
		cat := label.CategoryTracked
		records, err := repo.Query(ctx, label.Filter{Category: &cat}, label.SortBySerialNumber, true)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(2), records[0].SerialNumber)
	})

	t.Run("issued range filter", func(t *testing.T) {
		from := base.Add(30 * time.Minute)
		to := base.Add(90 * time.Minute)
		records, err := repo.Query(ctx, label.Filter{IssuedFrom: &from, IssuedTo: &to}, label.SortBySerialNumber, true)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(2), records[0].SerialNumber)
	})

	t.Run("find by location and product in FIFO order", func(t *testing.T) {
		records, err := repo.FindByLocationAndProduct(ctx, "A-01-01", "ABC-100")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(1), records[0].SerialNumber)
	})
}

func TestGormRecordRepository_DeleteAndMaxSerial(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	repo := NewGormRecordRepository(db.DB)

	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	for serial := int64(1); serial <= 3; serial++ {
		require.NoError(t, repo.Create(ctx,
			storedRecord(serial, label.CategoryStandard, "ABC-100", "A-01-01", base, nil)))
	}

	max, err := repo.MaxSerial(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), max)

	n, err := repo.DeleteBySerials(ctx, []int64{2, 3, 99})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "absent serials are no-ops")

	n, err = repo.DeleteBySerials(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(1), all[0].SerialNumber)
}

func TestGormOutboundRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	repo := NewGormOutboundRepository(db.DB)

	source := storedRecord(1, label.CategoryStandard, "ABC-100", "A-01-01",
		time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC), nil)

	first := label.NewOutboundRecord(source, "jsmith", time.Date(2025, time.March, 2, 9, 0, 0, 0, time.UTC))
	second := label.NewOutboundRecord(source, "mlee", time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	t.Run("most recent first", func(t *testing.T) {
		records, err := repo.Query(ctx, label.OutboundFilter{})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "mlee", records[0].Actor)
		assert.Equal(t, "jsmith", records[1].Actor)
	})

	t.Run("actor filter", func(t *testing.T) {
		records, err := repo.Query(ctx, label.OutboundFilter{Actor: "jsmith"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, first.ID, records[0].ID)
	})

	t.Run("removed range filter", func(t *testing.T) {
		from := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
		records, err := repo.Query(ctx, label.OutboundFilter{RemovedFrom: &from})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, second.ID, records[0].ID)
	})
}
