package address

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-storefront-checkout/internal/domain"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

type fakeBackend struct {
	mu        sync.Mutex
	addresses map[string][]domain.Address
	nextID    int64
	listErr   error
	createErr error
	lists     int
	created   []domain.Address
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{addresses: map[string][]domain.Address{}, nextID: 100}
}

func (f *fakeBackend) ListAddresses(ctx context.Context, ownerID string) ([]domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Address(nil), f.addresses[ownerID]...), nil
}

func (f *fakeBackend) CreateAddress(ctx context.Context, addr domain.Address) (domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.Address{}, f.createErr
	}
	f.nextID++
	addr.ID = f.nextID
	f.created = append(f.created, addr)
	f.addresses[addr.OwnerID] = append(f.addresses[addr.OwnerID], addr)
	return addr, nil
}

func fakeAddress(ownerID string, id int64, isDefault bool) domain.Address {
	return domain.Address{
		ID:        id,
		OwnerID:   ownerID,
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Phone:     gofakeit.Phone(),
		Line1:     gofakeit.Street(),
		City:      gofakeit.City(),
		State:     gofakeit.State(),
		IsDefault: isDefault,
	}
}

func TestSelectDefaultOrFirst(t *testing.T) {
	assert.Nil(t, SelectDefaultOrFirst(nil))

	a, b, c := fakeAddress("u", 1, false), fakeAddress("u", 2, true), fakeAddress("u", 3, true)
	got := SelectDefaultOrFirst([]domain.Address{a, b, c})
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)

	got = SelectDefaultOrFirst([]domain.Address{c, a})
	assert.Equal(t, int64(3), got.ID)

	got = SelectDefaultOrFirst([]domain.Address{a, fakeAddress("u", 9, false)})
	assert.Equal(t, int64(1), got.ID)
}

func TestList_EmptyIsValid(t *testing.T) {
	r := NewResolver(newFakeBackend(), nil)
	addrs, err := r.List(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Empty(t, addrs)

	cached, ok := r.Cached("u-1")
	assert.True(t, ok)
	assert.Empty(t, cached)
}

func TestList_PropagatesErrors(t *testing.T) {
	be := newFakeBackend()
	be.listErr = errors.New("connection refused")
	r := NewResolver(be, nil)

	_, err := r.List(context.Background(), "u-1")
	require.ErrorIs(t, err, be.listErr)

	_, err = r.Resolve(context.Background(), "u-1", 0)
	require.ErrorIs(t, err, be.listErr)
}

func TestCreate_FirstAddressBecomesDefaultAndSelected(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	r := NewResolver(be, nil)

	first, err := r.Create(ctx, "u-1", fakeAddress("", 0, false))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "u-1", first.OwnerID)
	assert.Equal(t, domain.DefaultCountry, first.Country)

	second, err := r.Create(ctx, "u-1", fakeAddress("", 0, false))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	sel, ok := r.Selected("u-1")
	require.True(t, ok)
	assert.Equal(t, second.ID, sel.ID)

	cached, _ := r.Cached("u-1")
	assert.Len(t, cached, 2)
}

func TestCreate_FailureIsSurfaced(t *testing.T) {
	be := newFakeBackend()
	be.createErr = errors.New("503")
	r := NewResolver(be, nil)

	_, err := r.Create(context.Background(), "u-1", fakeAddress("", 0, false))
	require.ErrorIs(t, err, be.createErr)
	_, ok := r.Selected("u-1")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	be := newFakeBackend()
	be.addresses["u-1"] = []domain.Address{fakeAddress("u-1", 1, false), fakeAddress("u-1", 2, true)}
	r := NewResolver(be, nil)

	got, err := r.Resolve(ctx, "u-1", 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)

	got, err = r.Resolve(ctx, "u-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	// the explicit choice sticks
	lists := be.lists
	got, err = r.Resolve(ctx, "u-1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, lists, be.lists)

	got, err = r.Resolve(ctx, "u-1", 77)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "address_id", verr.Field)
	assert.Nil(t, got)

	got, err = r.Resolve(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPrefill(t *testing.T) {
	id := domain.Identity{ID: "u", FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Phone: "0801"}
	f := Prefill(id, nil)
	assert.Equal(t, "Ada", f.FirstName)
	assert.Equal(t, "ada@example.com", f.Email)
	assert.Empty(t, f.Address)

	addr := domain.Address{FirstName: "Chidi", Phone: "0902", Line1: "5 Broad St", City: "Lagos", State: "Lagos"}
	f = Prefill(id, &addr)
	assert.Equal(t, "Chidi", f.FirstName)
	assert.Equal(t, "Obi", f.LastName)
	assert.Equal(t, "0902", f.Phone)
	assert.Equal(t, "5 Broad St", f.Address)
}
