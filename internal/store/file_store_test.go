package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	perrors "github.com/shopanalyser/backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewFileStore(path, logger)
	require.NoError(t, err)
	return s, path
}

func testProduct(name string) Product {
	return Product{
		Name:          name,
		Category:      "Electronics",
		WholesaleCost: 8000,
		RetailCost:    15000,
		Stock:         45,
		Sold:          230,
		ProfitMargin:  Margin(8000, 15000),
		LastRestock:   "2024-01-15",
		ReorderPoint:  20,
	}
}

func Test_FileStore_CreateAssignsMonotonicIDs(t *testing.T) {
	// given
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	// when
	first, err := s.Create(ctx, testProduct("Phone Case"))
	require.NoError(t, err)
	second, err := s.Create(ctx, testProduct("Soap Bar"))
	require.NoError(t, err)
	// then
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func Test_FileStore_IDsNotReusedAfterDelete(t *testing.T) {
	// given
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	first, err := s.Create(ctx, testProduct("Phone Case"))
	require.NoError(t, err)
	second, err := s.Create(ctx, testProduct("Soap Bar"))
	require.NoError(t, err)
	// when: delete the newest product, then create another
	_, err = s.Delete(ctx, second.ID)
	require.NoError(t, err)
	third, err := s.Create(ctx, testProduct("Notebook"))
	require.NoError(t, err)
	// then: the freed ID is not handed out again
	assert.Equal(t, int64(3), third.ID)
	assert.Greater(t, third.ID, first.ID)
}

func Test_FileStore_RoundTripAcrossRestart(t *testing.T) {
	// given
	s, path := newTestFileStore(t)
	ctx := context.Background()
	created := make([]Product, 0, 3)
	for _, name := range []string{"Phone Case", "Soap Bar", "Notebook"} {
		p, err := s.Create(ctx, testProduct(name))
		require.NoError(t, err)
		created = append(created, *p)
	}
	// when: reopen the store from the same file
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reopened, err := NewFileStore(path, logger)
	require.NoError(t, err)
	// then: field-for-field equal, same order
	list, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, created, list)
	// and the ID counter survived too
	next, err := reopened.Create(ctx, testProduct("Pen"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), next.ID)
}

func Test_FileStore_MissingFileStartsEmpty(t *testing.T) {
	s, _ := newTestFileStore(t)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func Test_FileStore_CorruptFileStartsEmpty(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// when
	s, err := NewFileStore(path, logger)
	// then
	require.NoError(t, err)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func Test_FileStore_LoadsLegacyBareArray(t *testing.T) {
	// given: an older data file holding just the product array
	path := filepath.Join(t.TempDir(), "products.json")
	legacy := `[{"id":7,"name":"Phone Case","wholesaleCost":8000,"retailCost":15000,"stock":45,"sold":230,"profitMargin":46.67}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// when
	s, err := NewFileStore(path, logger)
	require.NoError(t, err)
	// then: records load and the counter resumes past the highest ID
	found, err := s.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Phone Case", found.Name)
	created, err := s.Create(context.Background(), testProduct("Soap Bar"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), created.ID)
}

func Test_FileStore_FindByID_NotFound(t *testing.T) {
	s, _ := newTestFileStore(t)
	found, err := s.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
	assert.Nil(t, found)
}

func Test_FileStore_Update(t *testing.T) {
	// given
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, testProduct("Phone Case"))
	require.NoError(t, err)

	name := "Phone Case Pro"
	wholesale := int64(9000)
	// when
	updated, err := s.Update(ctx, created.ID, ProductPatch{Name: &name, WholesaleCost: &wholesale})
	// then
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Phone Case Pro", updated.Name)
	// margin recomputed from the new wholesale cost
	assert.InDelta(t, Margin(9000, 15000), updated.ProfitMargin, 0.001)
	// untouched fields survive
	assert.Equal(t, created.Stock, updated.Stock)
}

func Test_FileStore_Update_IgnoresIDOverwrite(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, testProduct("Phone Case"))
	require.NoError(t, err)

	stock := int64(99)
	updated, err := s.Update(ctx, created.ID, ProductPatch{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
}

func Test_FileStore_Delete(t *testing.T) {
	// given
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, testProduct("Phone Case"))
	require.NoError(t, err)
	// when
	removed, err := s.Delete(ctx, created.ID)
	// then
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)
	_, err = s.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
	// deleting again is a not-found, not a crash
	_, err = s.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
}

func Test_FileStore_AdjustStock_Sale(t *testing.T) {
	// given
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	draft := testProduct("Phone Case")
	draft.Stock = 150
	draft.Sold = 89
	created, err := s.Create(ctx, draft)
	require.NoError(t, err)
	// when
	updated, err := s.AdjustStock(ctx, created.ID, 5, ReasonSale)
	// then
	require.NoError(t, err)
	assert.Equal(t, int64(145), updated.Stock)
	assert.Equal(t, int64(94), updated.Sold)
}

func Test_FileStore_AdjustStock_SaleExceedingStock(t *testing.T) {
	// given
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	draft := testProduct("Phone Case")
	draft.Stock = 3
	draft.Sold = 10
	created, err := s.Create(ctx, draft)
	require.NoError(t, err)
	// when
	_, err = s.AdjustStock(ctx, created.ID, 4, ReasonSale)
	// then: error, and no partial mutation
	assert.ErrorIs(t, err, perrors.ErrInsufficientStock)
	found, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.Stock)
	assert.Equal(t, int64(10), found.Sold)
}

func Test_FileStore_AdjustStock_RestockRefreshesLastRestock(t *testing.T) {
	// given
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, testProduct("Phone Case"))
	require.NoError(t, err)
	require.Equal(t, "2024-01-15", created.LastRestock)
	// when
	updated, err := s.AdjustStock(ctx, created.ID, 10, ReasonRestock)
	// then
	require.NoError(t, err)
	assert.Equal(t, int64(55), updated.Stock)
	assert.NotEqual(t, "2024-01-15", updated.LastRestock)
}

func Test_FileStore_CreatesMissingDataDirectory(t *testing.T) {
	// given: a path whose parent directories do not exist yet
	path := filepath.Join(t.TempDir(), "data", "nested", "products.json")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// when
	s, err := NewFileStore(path, logger)
	require.NoError(t, err)
	created, err := s.Create(context.Background(), testProduct("Phone Case"))
	// then: the first mutation persists instead of failing
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func Test_FileStore_ConcurrentCreates(t *testing.T) {
	// given
	s, path := newTestFileStore(t)
	ctx := context.Background()
	const writers = 20

	// when: concurrent writers race on the ID counter and the file
	var wg sync.WaitGroup
	ids := make(chan int64, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := s.Create(ctx, testProduct("Phone Case"))
			assert.NoError(t, err)
			if created != nil {
				ids <- created.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	// then: every writer got a distinct ID and no create was dropped
	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "ID %d handed out twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, writers)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reopened, err := NewFileStore(path, logger)
	require.NoError(t, err)
	list, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, writers)
}

func Test_FileStore_ConcurrentSales(t *testing.T) {
	// given
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	draft := testProduct("Phone Case")
	draft.Stock = 100
	draft.Sold = 0
	created, err := s.Create(ctx, draft)
	require.NoError(t, err)

	// when: concurrent sales of one unit each
	const sales = 10
	var wg sync.WaitGroup
	for i := 0; i < sales; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AdjustStock(ctx, created.ID, 1, ReasonSale)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// then: no sale was lost to an interleaved read-modify-write
	found, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(90), found.Stock)
	assert.Equal(t, int64(10), found.Sold)
}

func Test_FileStore_FailedPersistLeavesStateUntouched(t *testing.T) {
	// given: a store with one record, then a path whose parent is a
	// regular file, so every temp-file creation fails
	s, _ := newTestFileStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, testProduct("Phone Case"))
	require.NoError(t, err)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	s.path = filepath.Join(blocker, "products.json")

	// when / then: each mutating operation fails with ErrPersistence
	// and the in-memory state stays at the pre-failure snapshot
	_, err = s.Create(ctx, testProduct("Soap Bar"))
	assert.ErrorIs(t, err, perrors.ErrPersistence)

	name := "Renamed"
	_, err = s.Update(ctx, created.ID, ProductPatch{Name: &name})
	assert.ErrorIs(t, err, perrors.ErrPersistence)

	_, err = s.AdjustStock(ctx, created.ID, 1, ReasonSale)
	assert.ErrorIs(t, err, perrors.ErrPersistence)

	_, err = s.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, perrors.ErrPersistence)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "Phone Case", list[0].Name)
	assert.Equal(t, created.Stock, list[0].Stock)
	assert.Equal(t, created.Sold, list[0].Sold)
}

func Test_FileStore_LoadsEnvelopeWithoutProducts(t *testing.T) {
	// given: an envelope carrying only the counter
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"next_id":7}`), 0o644))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// when
	s, err := NewFileStore(path, logger)
	require.NoError(t, err)
	// then: empty collection, but the counter survives
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	created, err := s.Create(context.Background(), testProduct("Phone Case"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
}

func Test_FileStore_PersistedFileIsEnvelope(t *testing.T) {
	// given
	s, path := newTestFileStore(t)
	_, err := s.Create(context.Background(), testProduct("Phone Case"))
	require.NoError(t, err)
	// then: on-disk document carries the counter next to the records
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"next_id": 2`)
	assert.Contains(t, string(data), `"Phone Case"`)
}
