package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"facture/internal/draft"
	"facture/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculateTotals implements draft.TotalsCalculator.
func (c *Client) CalculateTotals(ctx context.Context, ttc decimal.Decimal) (draft.Totals, error) {
	var res service.TotalsResponse
	if err := c.do(ctx, http.MethodPost, "/api/invoices/totals", nil, service.TotalsRequest{TotalTTC: ttc}, &res); err != nil {
		return draft.Totals{}, err
	}
	return draft.Totals{HT: res.TotalHT, TVA: res.TotalTVA, TTC: res.TotalTTC, Words: res.TotalInWords}, nil
}

func (c *Client) CreateInvoice(ctx context.Context, req draft.Request) (draft.Saved, error) {
	var res service.InvoiceResponse
	if err := c.do(ctx, http.MethodPost, "/api/invoices", nil, toInvoiceRequest(req), &res); err != nil {
		return draft.Saved{}, err
	}
	return draft.Saved{ID: res.ID, DisplayID: res.DisplayID}, nil
}

func (c *Client) UpdateInvoice(ctx context.Context, id string, req draft.Request) (draft.Saved, error) {
	var res service.InvoiceResponse
	if err := c.do(ctx, http.MethodPut, "/api/invoices/"+url.PathEscape(id), nil, toInvoiceRequest(req), &res); err != nil {
		return draft.Saved{}, err
	}
	return draft.Saved{ID: res.ID, DisplayID: res.DisplayID}, nil
}

// GetInvoice loads a persisted invoice as an editable draft.
func (c *Client) GetInvoice(ctx context.Context, id string) (draft.Draft, error) {
	res, err := c.Invoice(ctx, id)
	if err != nil {
		return draft.Draft{}, err
	}
	return toDraft(res), nil
}

func (c *Client) Invoice(ctx context.Context, id string) (service.InvoiceResponse, error) {
	var res service.InvoiceResponse
	err := c.do(ctx, http.MethodGet, "/api/invoices/"+url.PathEscape(id), nil, nil, &res)
	return res, err
}

// ListInvoices returns the invoices of year; 0 means the current year.
func (c *Client) ListInvoices(ctx context.Context, year int) ([]service.InvoiceResponse, error) {
	var q url.Values
	if year > 0 {
		q = url.Values{"year": {strconv.Itoa(year)}}
	}
	var res []service.InvoiceResponse
	err := c.do(ctx, http.MethodGet, "/api/invoices", q, nil, &res)
	return res, err
}

// Years lists the years having invoices, newest first.
func (c *Client) Years(ctx context.Context) ([]int, error) {
	var years []int
	err := c.do(ctx, http.MethodGet, "/api/invoices/years", nil, nil, &years)
	return years, err
}

// GeneratePDF implements draft.PDFGenerator and returns the server-side path.
func (c *Client) GeneratePDF(ctx context.Context, invoiceID string) (string, error) {
	var res service.PDFResponse
	if err := c.do(ctx, http.MethodPost, "/api/invoices/"+url.PathEscape(invoiceID)+"/pdf", nil, nil, &res); err != nil {
		return "", err
	}
	return res.Path, nil
}

func (c *Client) DownloadPDF(ctx context.Context, invoiceID string, w io.Writer) error {
	return c.download(ctx, "/api/invoices/"+url.PathEscape(invoiceID)+"/pdf", nil, w)
}

func (c *Client) ExportYear(ctx context.Context, year int, w io.Writer) error {
	return c.download(ctx, "/api/invoices/export", url.Values{"year": {strconv.Itoa(year)}}, w)
}

func toInvoiceRequest(req draft.Request) service.InvoiceRequest {
	out := service.InvoiceRequest{
		Date:              req.Date,
		CustomFormattedID: req.CustomID,
		ClientName:        req.ClientName,
		ClientCity:        req.ClientCity,
		ClientICE:         req.ClientICE,
		PaymentMethod:     draft.MethodCash,
		Items:             make([]service.InvoiceItemRequest, 0, len(req.Lines)),
	}

	switch p := req.Payment.(type) {
	case draft.Cheque:
		out.PaymentMethod = p.Method()
		out.Cheque = &service.ChequeInfo{Number: p.Number, Bank: p.Bank, City: p.City, Reference: p.Reference}
	case draft.Effet:
		out.PaymentMethod = p.Method()
		out.Effet = &service.EffetInfo{City: p.City, DueDate: p.DueDate, Bank: p.Bank, Reference: p.Reference}
	}

	for _, l := range req.Lines {
		item := service.InvoiceItemRequest{
			Description:  l.Description,
			Quantity:     l.Quantity,
			UnitPriceTTC: l.UnitPrice,
		}
		if l.ProductID != uuid.Nil {
			item.ProductID = l.ProductID.String()
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func toDraft(res service.InvoiceResponse) draft.Draft {
	d := draft.Draft{
		Date:       res.Date,
		CustomID:   res.CustomFormattedID,
		ClientName: res.ClientName,
		ClientCity: res.ClientCity,
		ClientICE:  res.ClientICE,
		Payment:    draft.Cash{},
		Lines:      make([]draft.Line, 0, len(res.Items)),
	}

	switch res.PaymentMethod {
	case draft.MethodCheque:
		p := draft.Cheque{}
		if res.Cheque != nil {
			p = draft.Cheque{Number: res.Cheque.Number, Bank: res.Cheque.Bank, City: res.Cheque.City, Reference: res.Cheque.Reference}
		}
		d.Payment = p
	case draft.MethodEffet:
		p := draft.Effet{}
		if res.Effet != nil {
			p = draft.Effet{City: res.Effet.City, DueDate: res.Effet.DueDate, Bank: res.Effet.Bank, Reference: res.Effet.Reference}
		}
		d.Payment = p
	}

	for _, it := range res.Items {
		line := draft.Line{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPriceTTC,
			Total:       it.TotalTTC,
		}
		if it.ProductID != nil {
			if id, err := uuid.Parse(*it.ProductID); err == nil {
				line.ProductID = id
				// the quantity already on the invoice is restored before an update withdraws again
				line.StockHint = int(it.Quantity.Ceil().IntPart())
			}
		}
		d.Lines = append(d.Lines, line)
	}
	return d
}

// Summary renders an invoice as one terminal line.
func Summary(inv service.InvoiceResponse) string {
	return fmt.Sprintf("%s  %s  %-30s  %s", inv.DisplayID, inv.Date, inv.ClientName, inv.TotalTTC.StringFixed(2))
}
