package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSuccessBannerExpires(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	n := NewNotices(clock.Now)

	n.setSuccess("Client créé avec succès")
	assert.Equal(t, "Client créé avec succès", n.Success())

	clock.Advance(2999 * time.Millisecond)
	assert.NotEmpty(t, n.Success())

	clock.Advance(time.Millisecond)
	assert.Empty(t, n.Success())
}

func TestErrorBannersAreSeparate(t *testing.T) {
	n := NewNotices(nil)

	n.setError("ICE déjà utilisé")
	n.setPDFError("disk full")
	n.DismissError()

	assert.Empty(t, n.Error())
	assert.Equal(t, "disk full", n.PDFError())

	n.DismissPDFError()
	assert.Empty(t, n.PDFError())
}

func TestHeaderEditClearsBanners(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	e := New(Deps{}, WithClock(clock.Now))

	_, err := e.Submit(context.Background())
	require.Error(t, err)
	require.NotEmpty(t, e.Notices().Error())

	require.NoError(t, e.SetClient("Atlas", "", ""))
	assert.Empty(t, e.Notices().Error())
}

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) ListProducts(ctx context.Context, search string) ([]Product, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]Product), args.Error(1)
}

func (m *mockCatalog) CreateProduct(ctx context.Context, p Product) (Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(Product), args.Error(1)
}

func (m *mockCatalog) UpdateProduct(ctx context.Context, id string, p Product) (Product, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(Product), args.Error(1)
}

func (m *mockCatalog) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalog) ListClients(ctx context.Context) ([]Client, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Client), args.Error(1)
}

func (m *mockCatalog) SearchClients(ctx context.Context, query string) ([]Client, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]Client), args.Error(1)
}

func (m *mockCatalog) CreateClient(ctx context.Context, c Client) (Client, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(Client), args.Error(1)
}

func (m *mockCatalog) UpdateClient(ctx context.Context, id string, c Client) (Client, error) {
	args := m.Called(ctx, id, c)
	return args.Get(0).(Client), args.Error(1)
}

func (m *mockCatalog) DeleteClient(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestCatalogReportsThroughNotices(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	notices := NewNotices(clock.Now)
	store := &mockCatalog{}
	catalog := NewCatalog(store, notices)

	in := Client{Name: "Rif Matériaux", ICE: validICE, City: "Nador"}
	store.On("CreateClient", mock.Anything, in).Return(in, nil).Once()
	store.On("CreateClient", mock.Anything, in).Return(Client{}, errors.New("a client with ICE 001234567000089 already exists")).Once()

	_, err := catalog.CreateClient(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Client Rif Matériaux créé avec succès", notices.Success())

	_, err = catalog.CreateClient(ctx, in)
	require.Error(t, err)
	assert.Contains(t, notices.Error(), "already exists")
	assert.Empty(t, notices.Success())

	store.On("DeleteProduct", mock.Anything, "p-1").Return(nil)
	require.NoError(t, catalog.DeleteProduct(ctx, "p-1"))
	assert.Empty(t, notices.Error())
	assert.Equal(t, "Produit supprimé", notices.Success())

	clock.Advance(SuccessTTL)
	assert.Empty(t, notices.Success())
}

func TestCatalogEmptySearchListsAll(t *testing.T) {
	store := &mockCatalog{}
	catalog := NewCatalog(store, NewNotices(nil))
	all := []Client{{Name: "A"}, {Name: "B"}}
	store.On("ListClients", mock.Anything).Return(all, nil)

	got, err := catalog.SearchClients(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, all, got)
	store.AssertNotCalled(t, "SearchClients", mock.Anything, mock.Anything)
}
