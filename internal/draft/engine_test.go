package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTotals struct{ mock.Mock }

func (m *mockTotals) CalculateTotals(ctx context.Context, ttc decimal.Decimal) (Totals, error) {
	args := m.Called(ctx, ttc)
	return args.Get(0).(Totals), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) CreateInvoice(ctx context.Context, req Request) (Saved, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Saved), args.Error(1)
}

func (m *mockStore) UpdateInvoice(ctx context.Context, id string, req Request) (Saved, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(Saved), args.Error(1)
}

func (m *mockStore) GetInvoice(ctx context.Context, id string) (Draft, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Draft), args.Error(1)
}

type mockPDF struct{ mock.Mock }

func (m *mockPDF) GeneratePDF(ctx context.Context, invoiceID string) (string, error) {
	args := m.Called(ctx, invoiceID)
	return args.String(0), args.Error(1)
}

func (m *mockPDF) OpenPDF(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *mockPDF) PrintPDF(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decEq(want string) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(dec(want)) })
}

const validICE = "001234567000089"

func fillValid(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.SetClient("Atlas Distribution", "Casablanca", validICE))
	require.NoError(t, e.SetDescription(ctx, 0, "Prestation"))
	require.NoError(t, e.SetUnitPrice(ctx, 0, "1200"))
}

func TestNewEngineStartsEmpty(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	e := New(Deps{}, WithClock(func() time.Time { return now }))

	d := e.Snapshot()
	assert.Equal(t, Empty, e.State().Phase)
	assert.Equal(t, "09-03-2026", d.Date)
	assert.Equal(t, Cash{}, d.Payment)
	require.Len(t, d.Lines, 1)
	assert.True(t, d.Lines[0].Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, d.Lines[0].Total.IsZero())
	assert.True(t, e.Totals().IsZero())
}

func TestLineTotalFollowsQuantityAndPrice(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		qty, price string
		want       string
	}{
		{"3", "12.50", "37.5"},
		{"abc", "10", "0"},
		{"", "10", "0"},
		{"2", "not a price", "0"},
		{"2,5", "4", "10"},
		{"0.333", "3", "0.999"},
	}
	for _, tc := range cases {
		e := New(Deps{})
		require.NoError(t, e.SetQuantity(ctx, 0, tc.qty))
		require.NoError(t, e.SetUnitPrice(ctx, 0, tc.price))

		l := e.Snapshot().Lines[0]
		assert.True(t, l.Total.Equal(l.Quantity.Mul(l.UnitPrice)), "%s x %s", tc.qty, tc.price)
		assert.True(t, l.Total.Equal(dec(tc.want)), "%s x %s = %s", tc.qty, tc.price, l.Total)
	}
}

func TestRemoveLineKeepsAtLeastOne(t *testing.T) {
	ctx := context.Background()
	e := New(Deps{})

	assert.False(t, e.RemoveLine(ctx, 0))
	assert.Len(t, e.Snapshot().Lines, 1)

	require.NoError(t, e.AddLine(ctx))
	require.NoError(t, e.SetDescription(ctx, 1, "second"))
	assert.False(t, e.RemoveLine(ctx, 5))
	assert.True(t, e.RemoveLine(ctx, 0))

	lines := e.Snapshot().Lines
	require.Len(t, lines, 1)
	assert.Equal(t, "second", lines[0].Description)
	assert.False(t, e.RemoveLine(ctx, 0))
}

func TestSetterOutOfRange(t *testing.T) {
	e := New(Deps{})
	assert.ErrorIs(t, e.SetQuantity(context.Background(), 3, "1"), ErrNoSuchLine)
	assert.ErrorIs(t, e.SetUnitPrice(context.Background(), -1, "1"), ErrNoSuchLine)
}

func TestZeroSumResetsPreviewWithoutCall(t *testing.T) {
	ctx := context.Background()
	totals := &mockTotals{}
	totals.On("CalculateTotals", mock.Anything, decEq("100")).
		Return(Totals{HT: dec("83.33"), TVA: dec("16.67"), TTC: dec("100"), Words: "Cent dirhams"}, nil).Once()
	e := New(Deps{Totals: totals})

	require.NoError(t, e.SetUnitPrice(ctx, 0, "100"))
	assert.False(t, e.Totals().IsZero())

	require.NoError(t, e.SetUnitPrice(ctx, 0, "0"))
	assert.True(t, e.Totals().IsZero())
	assert.Equal(t, "", e.Totals().Words)

	require.NoError(t, e.AddLine(ctx))
	totals.AssertNumberOfCalls(t, "CalculateTotals", 1)
	totals.AssertExpectations(t)
}

func TestPreviewIsCollaboratorResult(t *testing.T) {
	ctx := context.Background()
	// deliberately not what a 20% rate would give
	want := Totals{HT: dec("1"), TVA: dec("2"), TTC: dec("3"), Words: "opaque"}
	totals := &mockTotals{}
	totals.On("CalculateTotals", mock.Anything, decEq("1000")).Return(want, nil)
	e := New(Deps{Totals: totals})

	require.NoError(t, e.SetQuantity(ctx, 0, "4"))
	require.NoError(t, e.SetUnitPrice(ctx, 0, "250"))

	assert.Equal(t, want, e.Totals())
	totals.AssertCalled(t, "CalculateTotals", mock.Anything, decEq("1000"))
}

func TestPreviewErrorKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	first := Totals{HT: dec("83.33"), TVA: dec("16.67"), TTC: dec("100"), Words: "Cent dirhams"}
	totals := &mockTotals{}
	totals.On("CalculateTotals", mock.Anything, decEq("100")).Return(first, nil)
	totals.On("CalculateTotals", mock.Anything, decEq("200")).Return(Totals{}, errors.New("offline"))
	e := New(Deps{Totals: totals})

	require.NoError(t, e.SetUnitPrice(ctx, 0, "100"))
	require.NoError(t, e.SetQuantity(ctx, 0, "2"))

	assert.Equal(t, first, e.Totals())
	assert.Empty(t, e.Notices().Error())
}

// gatedTotals holds its first call until release is closed.
type gatedTotals struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (g *gatedTotals) CalculateTotals(_ context.Context, ttc decimal.Decimal) (Totals, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if n == 1 {
		<-g.release
	}
	return Totals{TTC: ttc, Words: ttc.String()}, nil
}

func (g *gatedTotals) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestLatestPreviewWins(t *testing.T) {
	ctx := context.Background()
	gate := &gatedTotals{release: make(chan struct{})}
	e := New(Deps{Totals: gate})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.SetUnitPrice(ctx, 0, "100")
	}()
	require.Eventually(t, func() bool { return gate.callCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, e.SetUnitPrice(ctx, 0, "250"))
	assert.True(t, e.Totals().TTC.Equal(dec("250")))

	close(gate.release)
	<-done
	assert.True(t, e.Totals().TTC.Equal(dec("250")), "stale preview must be dropped")
}

func TestSelectProductCopiesCatalogData(t *testing.T) {
	ctx := context.Background()
	e := New(Deps{})
	p := Product{ID: uuid.New(), Name: "Câble 2.5mm", PriceTTC: dec("45.50"), Stock: 3}

	require.NoError(t, e.SelectProduct(ctx, 0, p))
	require.NoError(t, e.SetQuantity(ctx, 0, "5"))

	l := e.Snapshot().Lines[0]
	assert.Equal(t, p.ID, l.ProductID)
	assert.Equal(t, "Câble 2.5mm", l.Description)
	assert.True(t, l.Total.Equal(dec("227.5")))
	assert.Equal(t, 3, l.StockHint)
	assert.True(t, l.ExceedsStock())
	assert.Equal(t, EditingNew, e.State().Phase)
}

func TestSwitchingPaymentDropsOldFields(t *testing.T) {
	e := New(Deps{})

	require.NoError(t, e.SetPayment(Cheque{Number: "123", Bank: "BMCE"}))
	require.NoError(t, e.SetPayment(Effet{City: "Rabat", DueDate: "30-06-2026"}))
	p := e.Snapshot().Payment
	assert.Equal(t, MethodEffet, p.Method())
	assert.Equal(t, Effet{City: "Rabat", DueDate: "30-06-2026"}, p)

	require.NoError(t, e.SetPayment(nil))
	assert.Equal(t, Cash{}, e.Snapshot().Payment)
}

func newSubmitEngine(t *testing.T) (*Engine, *mockStore, *mockPDF) {
	t.Helper()
	store := &mockStore{}
	pdf := &mockPDF{}
	e := New(Deps{Invoices: store, PDF: pdf, Viewer: pdf})
	return e, store, pdf
}

func TestSubmitNewCallsCreate(t *testing.T) {
	ctx := context.Background()
	e, store, pdf := newSubmitEngine(t)
	fillValid(t, e)

	store.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(r Request) bool {
		return r.ClientICE == validICE && len(r.Lines) == 1 && r.Lines[0].UnitPrice.Equal(dec("1200"))
	})).Return(Saved{ID: "inv-1", DisplayID: "0001 - 2026"}, nil).Once()
	pdf.On("GeneratePDF", mock.Anything, "inv-1").Return("/tmp/Facture_0001_2026.pdf", nil).Once()
	pdf.On("OpenPDF", mock.Anything, "/tmp/Facture_0001_2026.pdf").Return(nil).Once()

	saved, err := e.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/Facture_0001_2026.pdf", saved.PDFPath)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "UpdateInvoice", mock.Anything, mock.Anything, mock.Anything)
	pdf.AssertExpectations(t)

	assert.Equal(t, Empty, e.State().Phase)
	assert.Empty(t, e.Snapshot().ClientName)
	assert.Contains(t, e.Notices().Success(), "0001 - 2026")
}

func TestSubmitLoadedCallsUpdate(t *testing.T) {
	ctx := context.Background()
	e, store, pdf := newSubmitEngine(t)

	loaded := Draft{
		Date:       "14-03-2025",
		ClientName: "Atlas Distribution",
		ClientCity: "Casablanca",
		ClientICE:  validICE,
		Payment:    Cheque{Number: "CH-1", Bank: "BMCE"},
		Lines:      []Line{{Description: "Prestation", Quantity: dec("2"), UnitPrice: dec("600")}},
	}
	store.On("GetInvoice", mock.Anything, "inv-9").Return(loaded, nil)
	require.NoError(t, e.Load(ctx, "inv-9"))

	assert.Equal(t, State{Phase: EditingExisting, InvoiceID: "inv-9"}, e.State())
	assert.True(t, e.Snapshot().Lines[0].Total.Equal(dec("1200")))

	store.On("UpdateInvoice", mock.Anything, "inv-9", mock.Anything).Return(Saved{ID: "inv-9", DisplayID: "0004 - 2025"}, nil).Once()
	pdf.On("GeneratePDF", mock.Anything, "inv-9").Return("/tmp/a.pdf", nil)
	pdf.On("OpenPDF", mock.Anything, "/tmp/a.pdf").Return(nil)

	_, err := e.Submit(ctx)
	require.NoError(t, err)
	store.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
	assert.Equal(t, Empty, e.State().Phase)
}

func TestSubmitInvalidMakesNoCalls(t *testing.T) {
	e, store, pdf := newSubmitEngine(t)
	require.NoError(t, e.SetClient("Atlas", "Casablanca", "12345"))

	_, err := e.Submit(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, RuleClientICE, verr.Rule)
	assert.Equal(t, EditingNew, e.State().Phase)
	assert.Equal(t, verr.Message, e.Notices().Error())
	store.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
	pdf.AssertNotCalled(t, "GeneratePDF", mock.Anything, mock.Anything)
}

func TestSubmitSaveFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	e, store, pdf := newSubmitEngine(t)
	fillValid(t, e)
	store.On("CreateInvoice", mock.Anything, mock.Anything).Return(Saved{}, errors.New("stock insuffisant"))

	_, err := e.Submit(ctx)
	require.Error(t, err)

	assert.Equal(t, EditingNew, e.State().Phase)
	assert.Equal(t, "Atlas Distribution", e.Snapshot().ClientName)
	assert.Equal(t, "stock insuffisant", e.Notices().Error())
	pdf.AssertNotCalled(t, "GeneratePDF", mock.Anything, mock.Anything)
}

func TestSubmitPDFFailureKeepsPersistedInvoice(t *testing.T) {
	ctx := context.Background()
	e, store, pdf := newSubmitEngine(t)
	fillValid(t, e)
	store.On("CreateInvoice", mock.Anything, mock.Anything).Return(Saved{ID: "inv-1", DisplayID: "0001 - 2026"}, nil).Once()
	pdf.On("GeneratePDF", mock.Anything, "inv-1").Return("", errors.New("disk full"))

	saved, err := e.Submit(ctx)
	require.Error(t, err)

	assert.Equal(t, "inv-1", saved.ID)
	assert.Equal(t, EditingNew, e.State().Phase)
	assert.Equal(t, "Atlas Distribution", e.Snapshot().ClientName)
	assert.Contains(t, e.Notices().PDFError(), "disk full")
	assert.Empty(t, e.Notices().Error())
	store.AssertNumberOfCalls(t, "CreateInvoice", 1)
	store.AssertNotCalled(t, "UpdateInvoice", mock.Anything, mock.Anything, mock.Anything)
	pdf.AssertNotCalled(t, "OpenPDF", mock.Anything, mock.Anything)
}

func TestSubmitOpenFailureStillResets(t *testing.T) {
	ctx := context.Background()
	e, store, pdf := newSubmitEngine(t)
	fillValid(t, e)
	store.On("CreateInvoice", mock.Anything, mock.Anything).Return(Saved{ID: "inv-1", DisplayID: "0001 - 2026"}, nil)
	pdf.On("GeneratePDF", mock.Anything, "inv-1").Return("/tmp/a.pdf", nil)
	pdf.On("OpenPDF", mock.Anything, "/tmp/a.pdf").Return(errors.New("no viewer"))

	_, err := e.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, Empty, e.State().Phase)
	assert.Contains(t, e.Notices().PDFError(), "no viewer")
}

func TestSubmitWithoutViewerSkipsOpen(t *testing.T) {
	store := &mockStore{}
	pdf := &mockPDF{}
	e := New(Deps{Invoices: store, PDF: pdf})
	fillValid(t, e)
	store.On("CreateInvoice", mock.Anything, mock.Anything).Return(Saved{ID: "inv-1"}, nil)
	pdf.On("GeneratePDF", mock.Anything, "inv-1").Return("/tmp/a.pdf", nil)

	_, err := e.Submit(context.Background())
	require.NoError(t, err)
	pdf.AssertNotCalled(t, "OpenPDF", mock.Anything, mock.Anything)
}

func TestSecondSubmitFailsFast(t *testing.T) {
	ctx := context.Background()
	e, store, pdf := newSubmitEngine(t)
	fillValid(t, e)

	entered := make(chan struct{})
	release := make(chan struct{})
	store.On("CreateInvoice", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(Saved{ID: "inv-1", DisplayID: "0001 - 2026"}, nil).Once()
	pdf.On("GeneratePDF", mock.Anything, "inv-1").Return("/tmp/a.pdf", nil)
	pdf.On("OpenPDF", mock.Anything, "/tmp/a.pdf").Return(nil)

	errc := make(chan error, 1)
	go func() {
		_, err := e.Submit(ctx)
		errc <- err
	}()
	<-entered

	assert.Equal(t, Submitting, e.State().Phase)
	_, err := e.Submit(ctx)
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.ErrorIs(t, e.SetClient("x", "y", "z"), ErrSubmitInProgress)
	assert.ErrorIs(t, e.AddLine(ctx), ErrSubmitInProgress)
	assert.ErrorIs(t, e.Reset(), ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-errc)
	store.AssertNumberOfCalls(t, "CreateInvoice", 1)
	assert.Equal(t, Empty, e.State().Phase)
}

func TestLoadFailureSetsError(t *testing.T) {
	e, store, _ := newSubmitEngine(t)
	store.On("GetInvoice", mock.Anything, "missing").Return(Draft{}, errors.New("invoice not found"))

	err := e.Load(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, Empty, e.State().Phase)
	assert.Contains(t, e.Notices().Error(), "invoice not found")
}

func TestResetDiscardsDraft(t *testing.T) {
	e := New(Deps{})
	fillValid(t, e)
	require.NoError(t, e.AddLine(context.Background()))

	require.NoError(t, e.Reset())
	d := e.Snapshot()
	assert.Equal(t, Empty, e.State().Phase)
	assert.Empty(t, d.ClientName)
	assert.Len(t, d.Lines, 1)
}

func TestPrintUsesViewer(t *testing.T) {
	e, _, pdf := newSubmitEngine(t)
	pdf.On("PrintPDF", mock.Anything, "/tmp/a.pdf").Return(errors.New("no printer"))

	err := e.Print(context.Background(), "/tmp/a.pdf")
	require.Error(t, err)
	assert.Contains(t, e.Notices().PDFError(), "no printer")
}
