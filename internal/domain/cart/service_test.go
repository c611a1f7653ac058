package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
)

var (
	ada   = &user.Identity{ID: 1, Email: "ada@example.com", Role: user.RoleUser}
	grace = &user.Identity{ID: 2, Email: "grace@example.com", Role: user.RoleUser}
)

type fixture struct {
	svc      *Service
	repo     *memoryRepository
	cache    *memoryCache
	catalog  *memoryCatalog
	sessions *fakeSessions
	notifier *recordingNotifier
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  newMemoryRepository(),
		cache: newMemoryCache(),
		catalog: newMemoryCatalog(
			&product.Product{ID: 1, Name: "Linen Shirt", Price: 1000, Stock: 4},
			&product.Product{ID: 2, Name: "Canvas Tote", Price: 500, Stock: 9},
			&product.Product{ID: 3, Name: "Wool Scarf", Price: 2500, Stock: 1},
		),
		sessions: &fakeSessions{},
		notifier: &recordingNotifier{},
	}
	cfg := &config.Config{Store: config.StoreConfig{MaxQuantityPerItem: 10}}
	f.svc = NewService(f.repo, f.cache, NewHydrator(f.catalog, logger.Discard()), f.sessions, f.notifier, cfg, logger.Discard())
	f.svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(f.svc.Close)
	return f
}

func TestAdd_RequiresIdentity(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.Add(context.Background(), nil, 1, 1, nil)
	assert.ErrorIs(t, err, errs.ErrAuthRequired)

	_, err = f.svc.Get(context.Background(), nil)
	assert.ErrorIs(t, err, errs.ErrAuthRequired)
	assert.ErrorIs(t, f.svc.Clear(context.Background(), nil), errs.ErrAuthRequired)
}

func TestAdd_SumsSameVariant(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 2, nil)
	require.NoError(t, err)
	view, err := f.svc.Add(ctx, ada, 1, 3, Variant{})
	require.NoError(t, err)

	require.Len(t, view.Entries, 1)
	assert.Equal(t, 5, view.Entries[0].Quantity)
	assert.Equal(t, 5, view.ItemCount)
	assert.Equal(t, int64(5000), view.Total)
}

func TestAdd_DistinctVariantsAreSeparateEntries(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 1, Variant{"size": "M"})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, ada, 1, 1, Variant{"size": "L"})
	require.NoError(t, err)
	view, err := f.svc.Add(ctx, ada, 1, 2, Variant{"size": "M"})
	require.NoError(t, err)

	require.Len(t, view.Entries, 2)
	assert.Equal(t, 3, view.Entries[0].Quantity)
	assert.Equal(t, Variant{"size": "M"}, view.Entries[0].Variant)
	assert.Equal(t, 1, view.Entries[1].Quantity)
	assert.Len(t, view.Items, 2)
}

func TestAdd_Validation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 0, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.Add(ctx, ada, 1, 11, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.Add(ctx, ada, 99, 1, nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.Add(ctx, ada, 1, 8, nil)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, ada, 1, 3, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)

	assert.Equal(t, 8, f.repo.stored(1).Entries[0].Quantity)
}

func TestAdd_StampsTimes(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	_, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return later }
	view, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, first, view.Entries[0].AddedAt)
	assert.Equal(t, later, view.Entries[0].UpdatedAt)
}

func TestRemove(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 1, Variant{"color": "red"})
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, ada, 2, 1, nil)
	require.NoError(t, err)

	view, err := f.svc.Remove(ctx, ada, 1, Variant{"color": "blue"})
	require.NoError(t, err)
	assert.Len(t, view.Entries, 2)

	view, err = f.svc.Remove(ctx, ada, 1, Variant{"color": "red"})
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, uint(2), view.Entries[0].ProductID)
}

func TestRemove_MissingEntryDoesNotWrite(t *testing.T) {
	f := setupService(t)

	view, err := f.svc.Remove(context.Background(), ada, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, view.Entries)
	assert.Equal(t, 0, f.repo.saves)
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		want     []int
	}{
		{"replace", 4, []int{4, 1}},
		{"zero removes", 0, []int{1}},
		{"negative removes", -1, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupService(t)
			ctx := context.Background()
			_, err := f.svc.Add(ctx, ada, 1, 2, nil)
			require.NoError(t, err)
			_, err = f.svc.Add(ctx, ada, 2, 1, nil)
			require.NoError(t, err)

			view, err := f.svc.UpdateQuantity(ctx, ada, 1, tt.quantity, nil)
			require.NoError(t, err)

			var got []int
			for _, e := range view.Entries {
				got = append(got, e.Quantity)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpdateQuantity_AboveLimit(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.UpdateQuantity(context.Background(), ada, 1, 11, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestMutations_NeverDuplicateKeys(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	variants := []Variant{nil, {"size": "S"}, {"size": "L"}}

	for i := range 30 {
		id := uint(i%3 + 1)
		v := variants[i%len(variants)]
		var err error
		switch i % 4 {
		case 0, 1:
			_, err = f.svc.Add(ctx, ada, id, 1, v)
		case 2:
			_, err = f.svc.UpdateQuantity(ctx, ada, id, i%5-1, v)
		case 3:
			_, err = f.svc.Remove(ctx, ada, id, v)
		}
		require.NoError(t, err)

		doc := f.repo.stored(1)
		if doc == nil {
			continue
		}
		for a := range doc.Entries {
			assert.GreaterOrEqual(t, doc.Entries[a].Quantity, 1)
			for b := a + 1; b < len(doc.Entries); b++ {
				assert.False(t, doc.Entries[a].Matches(doc.Entries[b].ProductID, doc.Entries[b].Variant))
			}
		}
	}
}

func TestItemCountAndTotal(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 2, nil)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, ada, 2, 1, nil)
	require.NoError(t, err)

	count, err := f.svc.ItemCount(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	total, err := f.svc.Total(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), total)
}

func TestClear(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 2, nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.AddToWishlist(ctx, ada, 3))

	require.NoError(t, f.svc.Clear(ctx, ada))

	view, err := f.svc.Get(ctx, ada)
	require.NoError(t, err)
	assert.Empty(t, view.Entries)
	assert.Equal(t, []uint{3}, f.repo.stored(1).Wishlist)
}

func TestMutation_FailureLeavesStateUnchanged(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, ada)
	require.NoError(t, err)
	require.True(t, f.cache.has(1))

	f.repo.saveErr = errs.Persistence("save cart", errors.New("connection reset"))
	_, err = f.svc.Add(ctx, ada, 2, 1, nil)
	assert.ErrorIs(t, err, errs.ErrPersistence)

	assert.True(t, f.cache.has(1))
	view, err := f.svc.Get(ctx, ada)
	require.NoError(t, err)
	assert.Len(t, view.Entries, 1)
}

func TestGet_WriteDuringReadIsNotHiddenByCache(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)
	require.NoError(t, f.cache.Delete(ctx, 1))

	f.repo.afterLoad = func() {
		f.repo.afterLoad = nil
		_, err := f.svc.Add(ctx, ada, 2, 1, nil)
		require.NoError(t, err)
	}

	view, err := f.svc.Get(ctx, ada)
	require.NoError(t, err)
	assert.Len(t, view.Entries, 1)

	view, err = f.svc.Get(ctx, ada)
	require.NoError(t, err)
	stored := f.repo.stored(1)
	assert.Len(t, view.Entries, 2)
	assert.Equal(t, stored.Entries, view.Entries)
	assert.Equal(t, stored.Version, f.cache.version(1))
}

func TestMutations_WriteThroughCache(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.cache.version(1))

	require.NoError(t, f.svc.AddToWishlist(ctx, ada, 2))
	assert.Equal(t, f.repo.stored(1).Version, f.cache.version(1))

	view, err := f.svc.Remove(ctx, ada, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, view.Entries)
	assert.Equal(t, f.repo.stored(1).Version, f.cache.version(1))
	assert.Empty(t, f.cache.deletes)
}

func TestClearIfUnchanged(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	view, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, ada, 2, 1, nil)
	require.NoError(t, err)

	err = f.svc.ClearIfUnchanged(ctx, ada, view.Version)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Len(t, f.repo.stored(1).Entries, 2)

	current, err := f.svc.Get(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, f.svc.ClearIfUnchanged(ctx, ada, current.Version))
	assert.Empty(t, f.repo.stored(1).Entries)
	assert.ErrorIs(t, f.svc.ClearIfUnchanged(ctx, nil, 0), errs.ErrAuthRequired)
}

func TestNotifications(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []notify.Level{notify.LevelSuccess}, f.notifier.levels())
	assert.Equal(t, uint(1), f.notifier.last().recipient)
	assert.Equal(t, "Product added to cart!", f.notifier.last().message)

	f.notifier.reset()
	_, err = f.svc.Add(ctx, ada, 1, 0, nil)
	require.Error(t, err)
	_, err = f.svc.Add(ctx, ada, 99, 1, nil)
	require.Error(t, err)
	assert.Equal(t, []notify.Level{notify.LevelError, notify.LevelError}, f.notifier.levels())
	assert.Equal(t, "Product not found", f.notifier.last().message)

	f.notifier.reset()
	_, err = f.svc.UpdateQuantity(ctx, ada, 1, 11, nil)
	require.Error(t, err)
	assert.Equal(t, "quantity cannot exceed 10", f.notifier.last().message)

	f.repo.saveErr = errs.Persistence("save cart", errors.New("connection reset"))
	_, err = f.svc.UpdateQuantity(ctx, ada, 1, 3, nil)
	require.Error(t, err)
	assert.Equal(t, "Failed to update cart", f.notifier.last().message)

	_, err = f.svc.Remove(ctx, ada, 1, nil)
	require.Error(t, err)
	assert.Equal(t, "Failed to remove item from cart", f.notifier.last().message)
	assert.Equal(t, []notify.Level{notify.LevelError, notify.LevelError, notify.LevelError}, f.notifier.levels())

	f.notifier.reset()
	f.repo.saveErr = nil
	f.repo.beforeSave = func() { f.repo.bump(1) }
	_, err = f.svc.Add(ctx, ada, 2, 1, nil)
	require.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, "Your cart was changed elsewhere. Please try again.", f.notifier.last().message)

	f.notifier.reset()
	f.repo.beforeSave = nil
	_, err = f.svc.Remove(ctx, ada, 3, nil)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, ada)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.levels())
}

func TestLoad_BackendFailure(t *testing.T) {
	f := setupService(t)
	f.repo.loadErr = errs.Persistence("load cart", errors.New("no reachable servers"))

	_, err := f.svc.Get(context.Background(), ada)
	assert.ErrorIs(t, err, errs.ErrPersistence)
}

func TestAdd_ConcurrentWriteIsRejected(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)

	f.repo.beforeSave = func() { f.repo.bump(1) }
	_, err = f.svc.Add(ctx, ada, 2, 1, nil)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.ErrorIs(t, err, errs.ErrPersistence)

	f.repo.beforeSave = nil
	doc := f.repo.stored(1)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, uint(1), doc.Entries[0].ProductID)
}

func TestGet_ConcurrentReadsShareOneLoad(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := f.svc.Get(ctx, ada)
			assert.NoError(t, err)
			assert.Len(t, view.Entries, 1)
		}()
	}
	wg.Wait()
}

func TestGet_DropsDeletedProducts(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 2, nil)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, ada, 3, 1, nil)
	require.NoError(t, err)
	f.catalog.remove(3)

	view, err := f.svc.Get(ctx, ada)
	require.NoError(t, err)
	assert.Len(t, view.Entries, 2)
	require.Len(t, view.Items, 1)
	require.Len(t, view.Dropped, 1)
	assert.Equal(t, uint(3), view.Dropped[0].ProductID)
	assert.Equal(t, int64(2000), view.Total)
	assert.Len(t, f.repo.stored(1).Entries, 2)
}

func TestIdentityChange(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ada, 1, 1, nil)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, ada)
	require.NoError(t, err)
	require.True(t, f.cache.has(1))

	f.sessions.emit(ctx, session.Transition{SessionID: "s1", Previous: ada})
	assert.False(t, f.cache.has(1))
	assert.Len(t, f.repo.stored(1).Entries, 1)

	f.sessions.emit(ctx, session.Transition{SessionID: "s2", Current: grace})
	assert.True(t, f.cache.has(2))

	f.sessions.emit(ctx, session.Transition{SessionID: "s3", Current: ada})
	assert.True(t, f.cache.has(1))
}

func TestClose_Unsubscribes(t *testing.T) {
	f := setupService(t)
	require.Equal(t, 1, f.sessions.count())

	f.svc.Close()
	f.svc.Close()
	assert.Equal(t, 0, f.sessions.count())
}

func TestWishlist(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AddToWishlist(ctx, ada, 2))
	require.NoError(t, f.svc.AddToWishlist(ctx, ada, 2))
	require.NoError(t, f.svc.AddToWishlist(ctx, ada, 3))
	assert.ErrorIs(t, f.svc.AddToWishlist(ctx, ada, 42), errs.ErrNotFound)

	items, err := f.svc.Wishlist(ctx, ada)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Canvas Tote", items[0].Name)

	f.catalog.remove(3)
	items, err = f.svc.Wishlist(ctx, ada)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, f.svc.RemoveFromWishlist(ctx, ada, 2))
	items, err = f.svc.Wishlist(ctx, ada)
	require.NoError(t, err)
	assert.Empty(t, items)
}
