package cart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-storefront-checkout/internal/kv"
)

// failingStorage wraps a MemoryStore and fails writes on demand.
type failingStorage struct {
	*kv.MemoryStore
	mu      sync.Mutex
	failPut bool
	puts    int
}

func newFailingStorage() *failingStorage {
	return &failingStorage{MemoryStore: kv.NewMemoryStore()}
}

func (f *failingStorage) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPut {
		return errors.New("disk full")
	}
	return f.MemoryStore.Put(ctx, key, value)
}

func fakeItem(maxQty int) Item {
	return Item{
		ProductID:   gofakeit.UUID(),
		Name:        gofakeit.ProductName(),
		UnitPrice:   decimal.NewFromFloat(gofakeit.Price(100, 50000)).Round(2),
		MaxQuantity: maxQty,
		ImageRef:    gofakeit.URL() + "," + gofakeit.URL(),
	}
}

func openCart(t *testing.T, storage kv.Store) *Store {
	t.Helper()
	s, err := Open(context.Background(), storage, "cart-1", nil)
	require.NoError(t, err)
	return s
}

func TestAddItem_ClampsAtMaxQuantity(t *testing.T) {
	ctx := context.Background()
	s := openCart(t, kv.NewMemoryStore())
	item := Item{ProductID: "P1", Name: "Ankara tote", UnitPrice: decimal.NewFromInt(1000), MaxQuantity: 3}

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddItem(ctx, item))
	}

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 3, s.TotalItems())
}

func TestAddItem_MergesByProductID(t *testing.T) {
	ctx := context.Background()
	s := openCart(t, kv.NewMemoryStore())
	item := fakeItem(10)

	require.NoError(t, s.AddItem(ctx, item))
	require.NoError(t, s.AddItem(ctx, item))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddItem_DefaultsMaxQuantity(t *testing.T) {
	ctx := context.Background()
	s := openCart(t, kv.NewMemoryStore())
	item := fakeItem(0)
	require.NoError(t, s.AddItem(ctx, item))
	assert.Equal(t, DefaultMaxQuantity, s.Items()[0].MaxQuantity)
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	s := openCart(t, kv.NewMemoryStore())
	item := fakeItem(5)
	require.NoError(t, s.AddItem(ctx, item))

	require.NoError(t, s.UpdateQuantity(ctx, item.ProductID, 4))
	assert.Equal(t, 4, s.Quantity(item.ProductID))

	require.NoError(t, s.UpdateQuantity(ctx, item.ProductID, 40))
	assert.Equal(t, 5, s.Quantity(item.ProductID))

	require.NoError(t, s.UpdateQuantity(ctx, "missing", 2))
	assert.Len(t, s.Items(), 1)

	require.NoError(t, s.UpdateQuantity(ctx, item.ProductID, 0))
	assert.Empty(t, s.Items())
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	storage := newFailingStorage()
	s := openCart(t, storage)

	require.NoError(t, s.RemoveItem(ctx, "nope"))
	assert.Zero(t, storage.puts)
}

func TestRandomMutations_KeepInvariants(t *testing.T) {
	ctx := context.Background()
	s := openCart(t, kv.NewMemoryStore())
	rng := rand.New(rand.NewSource(42))
	catalog := []Item{fakeItem(1), fakeItem(3), fakeItem(7), fakeItem(0)}

	for step := 0; step < 500; step++ {
		item := catalog[rng.Intn(len(catalog))]
		switch rng.Intn(3) {
		case 0, 1:
			require.NoError(t, s.AddItem(ctx, item))
		default:
			require.NoError(t, s.UpdateQuantity(ctx, item.ProductID, rng.Intn(12)-2))
		}

		seen := map[string]bool{}
		want := decimal.Zero
		for _, it := range s.Items() {
			require.False(t, seen[it.ProductID], "duplicate line for %s", it.ProductID)
			seen[it.ProductID] = true
			require.GreaterOrEqual(t, it.Quantity, 1)
			require.LessOrEqual(t, it.Quantity, it.MaxQuantity)
			want = want.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		require.True(t, want.Equal(s.TotalPrice()), "total %s != %s", s.TotalPrice(), want)
	}
}

func TestPersistence_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStore()
	s := openCart(t, storage)
	a, b := fakeItem(4), fakeItem(9)
	a.Variant = &Variant{Size: "M"}
	require.NoError(t, s.AddItem(ctx, a))
	require.NoError(t, s.AddItem(ctx, b))
	require.NoError(t, s.AddItem(ctx, b))

	reopened := openCart(t, storage)
	if diff := cmp.Diff(s.Items(), reopened.Items()); diff != "" {
		t.Fatalf("reopened cart mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, s.TotalPrice().Equal(reopened.TotalPrice()))
}

func TestPersistFailure_LeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	storage := newFailingStorage()
	s := openCart(t, storage)
	item := fakeItem(5)
	require.NoError(t, s.AddItem(ctx, item))

	storage.failPut = true
	err := s.AddItem(ctx, item)
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, s.Quantity(item.ProductID))

	err = s.AddItem(ctx, fakeItem(2))
	require.Error(t, err)
	assert.Len(t, s.Items(), 1)

	storage.failPut = false
	reopened := openCart(t, storage)
	assert.Equal(t, 1, reopened.Quantity(item.ProductID))
}

func TestClear_RemovesPersistedEntry(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStore()
	s := openCart(t, storage)
	require.NoError(t, s.AddItem(ctx, fakeItem(2)))

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.Items())
	assert.True(t, s.TotalPrice().IsZero())

	_, found, err := storage.Get(ctx, StorageKey("cart-1"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOpen_DiscardsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemoryStore()
	require.NoError(t, storage.Put(ctx, StorageKey("cart-1"), []byte("{not json")))

	s := openCart(t, storage)
	assert.Empty(t, s.Items())
}

func TestOpen_RejectsEmptyID(t *testing.T) {
	_, err := Open(context.Background(), kv.NewMemoryStore(), "  ", nil)
	require.Error(t, err)
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := openCart(t, kv.NewMemoryStore())
	item := fakeItem(50)

	var wg sync.WaitGroup
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddItem(ctx, item)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Quantity(item.ProductID))
}

func TestPrimaryImage(t *testing.T) {
	assert.Equal(t, "a.jpg", Item{ImageRef: " ,a.jpg, b.jpg"}.PrimaryImage())
	assert.Equal(t, "", Item{}.PrimaryImage())
}
