// Package draft holds the client-side invoice form: line editing, the live
// totals preview, validation and the submit lifecycle. Persistence, tax
// computation and PDF rendering live behind the collaborator interfaces.
package draft

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the DD-MM-YYYY layout invoice dates travel in.
const DateLayout = "02-01-2006"

// ICELength is the number of digits of a Moroccan company tax id.
const ICELength = 15

// Line is one invoice row. Total is derived from Quantity and UnitPrice and
// only changes through the engine setters.
type Line struct {
	ProductID   uuid.UUID // uuid.Nil for free-text lines
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	StockHint   int // stock of the selected product when it was picked
}

func newLine() Line {
	return Line{
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.Zero,
		Total:     decimal.Zero,
	}
}

func (l *Line) recompute() {
	l.Total = l.Quantity.Mul(l.UnitPrice)
}

// ExceedsStock reports whether a product line asks for more than the stock
// seen when the product was selected. The server has the final word.
func (l Line) ExceedsStock() bool {
	return l.ProductID != uuid.Nil && l.Quantity.GreaterThan(decimal.NewFromInt(int64(l.StockHint)))
}

// Draft is the invoice being edited.
type Draft struct {
	Date       string // DD-MM-YYYY
	CustomID   string // optional display number override
	ClientName string
	ClientCity string
	ClientICE  string
	Payment    Payment
	Lines      []Line
}

func newDraft(date string) Draft {
	return Draft{
		Date:    date,
		Payment: Cash{},
		Lines:   []Line{newLine()},
	}
}

// Sum is the TTC total of all lines.
func (d Draft) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range d.Lines {
		sum = sum.Add(l.Total)
	}
	return sum
}

func (d Draft) clone() Draft {
	c := d
	c.Lines = append([]Line(nil), d.Lines...)
	return c
}

func (d Draft) request() Request {
	req := Request{
		Date:       d.Date,
		CustomID:   strings.TrimSpace(d.CustomID),
		ClientName: strings.TrimSpace(d.ClientName),
		ClientCity: strings.TrimSpace(d.ClientCity),
		ClientICE:  strings.TrimSpace(d.ClientICE),
		Payment:    d.Payment,
		Lines:      make([]RequestLine, 0, len(d.Lines)),
	}
	for _, l := range d.Lines {
		req.Lines = append(req.Lines, RequestLine{
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return req
}

// Totals is the invoice-level preview returned by the totals collaborator.
type Totals struct {
	HT    decimal.Decimal
	TVA   decimal.Decimal
	TTC   decimal.Decimal
	Words string
}

func (t Totals) IsZero() bool {
	return t.HT.IsZero() && t.TVA.IsZero() && t.TTC.IsZero() && t.Words == ""
}

// Request is what gets persisted on submit. Line totals are recomputed server-side.
type Request struct {
	Date       string
	CustomID   string
	ClientName string
	ClientCity string
	ClientICE  string
	Payment    Payment
	Lines      []RequestLine
}

type RequestLine struct {
	ProductID   uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Saved identifies a persisted invoice.
type Saved struct {
	ID        string
	DisplayID string
	PDFPath   string
}

// Product is a catalog entry as seen by the form.
type Product struct {
	ID          uuid.UUID
	Reference   string
	Name        string
	Category    string
	BuyingPrice decimal.Decimal
	PriceTTC    decimal.Decimal
	Stock       int
	MinStock    int
	LowStock    bool
}

// Client is an address book entry as seen by the form.
type Client struct {
	ID      uuid.UUID
	Name    string
	ICE     string
	City    string
	Address string
	Phone   string
	Email   string
}

// parseAmount coerces user input to a decimal; anything unparsable is zero.
// A comma is accepted as the decimal separator.
func parseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
