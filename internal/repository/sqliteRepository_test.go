package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/laundry-queue/internal/domain"
)

func openTestSQLite(t *testing.T, path string) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleOrders() []domain.Order {
	added := time.Date(2026, time.April, 2, 9, 15, 30, 123456789, time.UTC)
	done := added.Add(3 * time.Hour)
	return []domain.Order{
		{
			ID:            "0190a1b2-0000-7000-8000-000000000001",
			Name:          "Alice",
			ClothesCount:  5,
			DateAdded:     added,
			ReadyDate:     added,
			Completed:     true,
			CompletedDate: &done,
		},
		{
			ID:           "0190a1b2-0000-7000-8000-000000000002",
			Name:         "Bob",
			ClothesCount: 6,
			DateAdded:    added.Add(time.Minute),
			ReadyDate:    added.Add(time.Minute).AddDate(0, 0, 1),
		},
		{
			ID:           "0190a1b2-0000-7000-8000-000000000003",
			Name:         "Carol",
			ClothesCount: 1,
			DateAdded:    added.Add(2 * time.Minute),
			ReadyDate:    added.Add(2 * time.Minute).AddDate(0, 0, 1),
		},
	}
}

func assertSameOrders(t *testing.T, want, got []domain.Order) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Name, g.Name)
		assert.Equal(t, w.ClothesCount, g.ClothesCount)
		assert.True(t, w.DateAdded.Equal(g.DateAdded), "dateAdded of %s", w.ID)
		assert.True(t, w.ReadyDate.Equal(g.ReadyDate), "readyDate of %s", w.ID)
		assert.Equal(t, w.Completed, g.Completed)
		if w.CompletedDate == nil {
			assert.Nil(t, g.CompletedDate)
		} else {
			require.NotNil(t, g.CompletedDate)
			assert.True(t, w.CompletedDate.Equal(*g.CompletedDate))
		}
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t, filepath.Join(t.TempDir(), "queue.db"))

	orders := sampleOrders()
	require.NoError(t, repo.SaveAll(ctx, orders))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assertSameOrders(t, orders, loaded)
}

func TestSQLiteSaveAllOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t, filepath.Join(t.TempDir(), "queue.db"))

	orders := sampleOrders()
	require.NoError(t, repo.SaveAll(ctx, orders))
	require.NoError(t, repo.SaveAll(ctx, orders[1:2]))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assertSameOrders(t, orders[1:2], loaded)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "queue.db")

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.SaveAll(ctx, sampleOrders()))
	require.NoError(t, first.Close())

	second := openTestSQLite(t, path)
	loaded, err := second.LoadAll(ctx)
	require.NoError(t, err)
	assertSameOrders(t, sampleOrders(), loaded)
}

func TestSQLiteClear(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t, filepath.Join(t.TempDir(), "queue.db"))

	require.NoError(t, repo.SaveAll(ctx, sampleOrders()))
	require.NoError(t, repo.Clear(ctx))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSQLiteLoadEmpty(t *testing.T) {
	repo := openTestSQLite(t, filepath.Join(t.TempDir(), "queue.db"))

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func TestMemoryRepositoryIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	orders := sampleOrders()
	require.NoError(t, repo.SaveAll(ctx, orders))
	orders[0].Name = "changed"
	*orders[0].CompletedDate = orders[0].CompletedDate.Add(time.Hour)

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assertSameOrders(t, sampleOrders(), loaded)
	assert.Equal(t, 1, repo.Saves())

	require.NoError(t, repo.Clear(ctx))
	loaded, err = repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
