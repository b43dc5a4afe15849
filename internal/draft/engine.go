package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrSubmitInProgress rejects edits and submits while a submit is running.
	ErrSubmitInProgress = errors.New("submit already in progress")
	ErrNoSuchLine       = errors.New("no such line")
)

// TotalsCalculator computes HT, TVA and the amount in words for a TTC sum.
type TotalsCalculator interface {
	CalculateTotals(ctx context.Context, ttc decimal.Decimal) (Totals, error)
}

// InvoiceStore persists invoices and loads them back for editing.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, req Request) (Saved, error)
	UpdateInvoice(ctx context.Context, id string, req Request) (Saved, error)
	GetInvoice(ctx context.Context, id string) (Draft, error)
}

type PDFGenerator interface {
	GeneratePDF(ctx context.Context, invoiceID string) (string, error)
}

// PDFViewer hands a generated file to the desktop.
type PDFViewer interface {
	OpenPDF(ctx context.Context, path string) error
	PrintPDF(ctx context.Context, path string) error
}

// Deps are the engine collaborators. A nil Viewer skips opening the PDF after submit.
type Deps struct {
	Totals   TotalsCalculator
	Invoices InvoiceStore
	PDF      PDFGenerator
	Viewer   PDFViewer
}

type Phase int

const (
	Empty Phase = iota
	EditingNew
	EditingExisting
	Submitting
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case EditingNew:
		return "editing_new"
	case EditingExisting:
		return "editing_existing"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State is the lifecycle position; InvoiceID is set while editing a persisted invoice.
type State struct {
	Phase     Phase
	InvoiceID string
}

type Option func(*Engine)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock sets the time source for default dates and banner expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine owns one draft. It is safe for concurrent use; collaborators are
// always called without holding the lock.
type Engine struct {
	deps    Deps
	log     *zap.Logger
	now     func() time.Time
	notices *Notices

	mu     sync.Mutex
	draft  Draft
	state  State
	totals Totals
	gen    uint64 // bumped on every change; only the latest preview is kept
}

func New(deps Deps, opts ...Option) *Engine {
	e := &Engine{
		deps: deps,
		log:  zap.NewNop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.notices = NewNotices(e.now)
	e.draft = newDraft(e.today())
	return e
}

func (e *Engine) today() string {
	return e.now().Format(DateLayout)
}

// Snapshot returns a copy of the current draft.
func (e *Engine) Snapshot() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.clone()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totals
}

func (e *Engine) Notices() *Notices {
	return e.notices
}

// edit applies fn to the draft under the lock. Lines changes are followed by
// a totals recomputation outside the lock.
func (e *Engine) edit(ctx context.Context, linesChanged bool, fn func(d *Draft) error) error {
	e.mu.Lock()
	if e.state.Phase == Submitting {
		e.mu.Unlock()
		return ErrSubmitInProgress
	}
	if err := fn(&e.draft); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.state.Phase == Empty {
		e.state = State{Phase: EditingNew}
	}
	if !linesChanged {
		e.mu.Unlock()
		e.notices.clear()
		return nil
	}
	gen, sum := e.beginRecompute()
	e.mu.Unlock()

	e.finishRecompute(ctx, gen, sum)
	return nil
}

// beginRecompute must run under the lock. A sum that is not positive resets
// the preview without asking the collaborator.
func (e *Engine) beginRecompute() (uint64, decimal.Decimal) {
	e.gen++
	sum := e.draft.Sum()
	if !sum.IsPositive() {
		e.totals = Totals{}
	}
	return e.gen, sum
}

func (e *Engine) finishRecompute(ctx context.Context, gen uint64, sum decimal.Decimal) {
	if !sum.IsPositive() || e.deps.Totals == nil {
		return
	}

	totals, err := e.deps.Totals.CalculateTotals(ctx, sum)
	if err != nil {
		e.log.Warn("totals preview failed", zap.String("ttc", sum.String()), zap.Error(err))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.log.Debug("stale totals preview dropped", zap.Uint64("gen", gen), zap.Uint64("latest", e.gen))
		return
	}
	e.totals = totals
}

func lineAt(d *Draft, i int) (*Line, error) {
	if i < 0 || i >= len(d.Lines) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchLine, i)
	}
	return &d.Lines[i], nil
}

// AddLine appends an empty line (quantity 1, price 0).
func (e *Engine) AddLine(ctx context.Context) error {
	return e.edit(ctx, true, func(d *Draft) error {
		d.Lines = append(d.Lines, newLine())
		return nil
	})
}

// RemoveLine deletes line i. It does nothing and returns false when i is out
// of range or when only one line is left.
func (e *Engine) RemoveLine(ctx context.Context, i int) bool {
	removed := false
	err := e.edit(ctx, true, func(d *Draft) error {
		if len(d.Lines) <= 1 || i < 0 || i >= len(d.Lines) {
			return ErrNoSuchLine
		}
		d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
		removed = true
		return nil
	})
	return err == nil && removed
}

// SetQuantity parses raw (invalid or empty input counts as 0) and recomputes the line total.
func (e *Engine) SetQuantity(ctx context.Context, i int, raw string) error {
	return e.edit(ctx, true, func(d *Draft) error {
		l, err := lineAt(d, i)
		if err != nil {
			return err
		}
		l.Quantity = parseAmount(raw)
		l.recompute()
		return nil
	})
}

// SetUnitPrice parses raw (invalid or empty input counts as 0) and recomputes the line total.
func (e *Engine) SetUnitPrice(ctx context.Context, i int, raw string) error {
	return e.edit(ctx, true, func(d *Draft) error {
		l, err := lineAt(d, i)
		if err != nil {
			return err
		}
		l.UnitPrice = parseAmount(raw)
		l.recompute()
		return nil
	})
}

func (e *Engine) SetDescription(ctx context.Context, i int, s string) error {
	return e.edit(ctx, true, func(d *Draft) error {
		l, err := lineAt(d, i)
		if err != nil {
			return err
		}
		l.Description = s
		return nil
	})
}

// SelectProduct fills line i from a catalog product. The stock is kept as a
// hint only; quantities above it are still accepted here.
func (e *Engine) SelectProduct(ctx context.Context, i int, p Product) error {
	return e.edit(ctx, true, func(d *Draft) error {
		l, err := lineAt(d, i)
		if err != nil {
			return err
		}
		l.ProductID = p.ID
		l.Description = p.Name
		l.UnitPrice = p.PriceTTC
		l.StockHint = p.Stock
		l.recompute()
		return nil
	})
}

func (e *Engine) SetDate(date string) error {
	return e.edit(context.Background(), false, func(d *Draft) error {
		d.Date = date
		return nil
	})
}

func (e *Engine) SetCustomID(id string) error {
	return e.edit(context.Background(), false, func(d *Draft) error {
		d.CustomID = id
		return nil
	})
}

func (e *Engine) SetClient(name, city, ice string) error {
	return e.edit(context.Background(), false, func(d *Draft) error {
		d.ClientName = name
		d.ClientCity = city
		d.ClientICE = ice
		return nil
	})
}

// SelectClient copies name, city and ICE from an address book entry.
func (e *Engine) SelectClient(c Client) error {
	return e.SetClient(c.Name, c.City, c.ICE)
}

// SetPayment replaces the payment variant. A nil payment means cash.
func (e *Engine) SetPayment(p Payment) error {
	if p == nil {
		p = Cash{}
	}
	return e.edit(context.Background(), false, func(d *Draft) error {
		d.Payment = p
		return nil
	})
}

// Load replaces the draft with a persisted invoice for editing.
func (e *Engine) Load(ctx context.Context, id string) error {
	if e.State().Phase == Submitting {
		return ErrSubmitInProgress
	}

	loaded, err := e.deps.Invoices.GetInvoice(ctx, id)
	if err != nil {
		e.notices.setError(fmt.Sprintf("Impossible de charger la facture : %v", err))
		return fmt.Errorf("load invoice %s: %w", id, err)
	}
	if loaded.Payment == nil {
		loaded.Payment = Cash{}
	}
	if len(loaded.Lines) == 0 {
		loaded.Lines = []Line{newLine()}
	}
	for i := range loaded.Lines {
		loaded.Lines[i].recompute()
	}

	e.mu.Lock()
	if e.state.Phase == Submitting {
		e.mu.Unlock()
		return ErrSubmitInProgress
	}
	e.draft = loaded
	e.state = State{Phase: EditingExisting, InvoiceID: id}
	gen, sum := e.beginRecompute()
	e.mu.Unlock()

	e.notices.clear()
	e.finishRecompute(ctx, gen, sum)
	return nil
}

// Reset discards the draft and starts over with one empty line.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase == Submitting {
		return ErrSubmitInProgress
	}
	e.resetLocked()
	return nil
}

func (e *Engine) resetLocked() {
	e.draft = newDraft(e.today())
	e.state = State{}
	e.totals = Totals{}
	e.gen++
}

// Submit validates the draft, then creates or updates the invoice, generates
// its PDF and opens it. On success the draft is reset.
//
// A failed save or PDF generation returns the engine to its previous editing
// state. The invoice is not rolled back when only the PDF step fails; Saved is
// returned alongside the error in that case. A failure to open the PDF is
// reported in the PDF banner but does not keep the draft.
func (e *Engine) Submit(ctx context.Context) (Saved, error) {
	e.mu.Lock()
	if e.state.Phase == Submitting {
		e.mu.Unlock()
		return Saved{}, ErrSubmitInProgress
	}
	if err := Validate(e.draft); err != nil {
		e.mu.Unlock()
		e.notices.setError(err.Error())
		return Saved{}, err
	}
	prior := e.state
	req := e.draft.request()
	e.state = State{Phase: Submitting, InvoiceID: prior.InvoiceID}
	e.mu.Unlock()

	e.notices.clear()
	e.notices.DismissPDFError()

	var (
		saved Saved
		err   error
		verb  = "créée"
	)
	if prior.Phase == EditingExisting {
		verb = "mise à jour"
		saved, err = e.deps.Invoices.UpdateInvoice(ctx, prior.InvoiceID, req)
	} else {
		saved, err = e.deps.Invoices.CreateInvoice(ctx, req)
	}
	if err != nil {
		e.restore(prior)
		e.notices.setError(err.Error())
		return Saved{}, fmt.Errorf("save invoice: %w", err)
	}
	e.notices.setSuccess(fmt.Sprintf("Facture %s %s avec succès!", saved.DisplayID, verb))

	path, err := e.deps.PDF.GeneratePDF(ctx, saved.ID)
	if err != nil {
		e.restore(prior)
		e.notices.setPDFError(fmt.Sprintf("Erreur lors de la génération du PDF : %v", err))
		return saved, fmt.Errorf("generate pdf for %s: %w", saved.ID, err)
	}
	saved.PDFPath = path

	if e.deps.Viewer != nil {
		if err := e.deps.Viewer.OpenPDF(ctx, path); err != nil {
			e.log.Warn("opening pdf failed", zap.String("path", path), zap.Error(err))
			e.notices.setPDFError(fmt.Sprintf("Impossible d'ouvrir le PDF : %v", err))
		}
	}

	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()
	return saved, nil
}

func (e *Engine) restore(prior State) {
	e.mu.Lock()
	e.state = prior
	e.mu.Unlock()
}

// Print sends an already generated PDF to the printer.
func (e *Engine) Print(ctx context.Context, path string) error {
	if e.deps.Viewer == nil {
		return errors.New("no pdf viewer configured")
	}
	if err := e.deps.Viewer.PrintPDF(ctx, path); err != nil {
		e.notices.setPDFError(fmt.Sprintf("Impossible d'imprimer le PDF : %v", err))
		return fmt.Errorf("print %s: %w", path, err)
	}
	return nil
}
