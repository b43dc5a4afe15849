package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"facture/internal/metrics"
	"facture/internal/model"
	"facture/internal/repository"
	ws "facture/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DateLayout is the DD-MM-YYYY format used for invoice and due dates.
const DateLayout = "02-01-2006"

var iceRe = regexp.MustCompile(`^[0-9]{15}$`)

// --- DTOs ---

type ChequeInfo struct {
	Number    string `json:"number"`
	Bank      string `json:"bank"`
	City      string `json:"city"`
	Reference string `json:"reference"`
}

type EffetInfo struct {
	City      string `json:"city"`
	DueDate   string `json:"due_date"` // DD-MM-YYYY
	Bank      string `json:"bank"`
	Reference string `json:"reference"`
}

type InvoiceItemRequest struct {
	ProductID    string          `json:"product_id"` // empty for free-text lines
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPriceTTC decimal.Decimal `json:"unit_price_ttc"`
}

type InvoiceRequest struct {
	Date              string               `json:"date" binding:"required"` // DD-MM-YYYY
	CustomFormattedID string               `json:"custom_formatted_id"`
	ClientName        string               `json:"client_name" binding:"required"`
	ClientCity        string               `json:"client_city" binding:"required"`
	ClientICE         string               `json:"client_ice" binding:"required"`
	PaymentMethod     string               `json:"payment_method" binding:"required,oneof=ESPECE CHEQUE EFFET"`
	Cheque            *ChequeInfo          `json:"cheque,omitempty"`
	Effet             *EffetInfo           `json:"effet,omitempty"`
	Items             []InvoiceItemRequest `json:"items" binding:"required,min=1"`
}

type TotalsRequest struct {
	TotalTTC decimal.Decimal `json:"total_ttc"`
}

type InvoiceItemResponse struct {
	ID           string          `json:"id"`
	ProductID    *string         `json:"product_id"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPriceTTC decimal.Decimal `json:"unit_price_ttc"`
	TotalTTC     decimal.Decimal `json:"total_ttc"`
}

type InvoiceResponse struct {
	ID                string                `json:"id"`
	FormattedID       string                `json:"formatted_id"`
	CustomFormattedID string                `json:"custom_formatted_id,omitempty"`
	DisplayID         string                `json:"display_id"`
	Year              int                   `json:"year"`
	Date              string                `json:"date"`
	ClientName        string                `json:"client_name"`
	ClientCity        string                `json:"client_city"`
	ClientICE         string                `json:"client_ice"`
	TaxRate           decimal.Decimal       `json:"tax_rate"`
	TotalHT           decimal.Decimal       `json:"total_ht"`
	TotalTVA          decimal.Decimal       `json:"total_tva"`
	TotalTTC          decimal.Decimal       `json:"total_ttc"`
	TotalInWords      string                `json:"total_in_words"`
	PaymentMethod     string                `json:"payment_method"`
	Cheque            *ChequeInfo           `json:"cheque,omitempty"`
	Effet             *EffetInfo            `json:"effet,omitempty"`
	Items             []InvoiceItemResponse `json:"items"`
	CreatedAt         string                `json:"created_at"`
}

// InvoiceEvent is the websocket payload of invoice changes.
type InvoiceEvent struct {
	ID         string          `json:"id"`
	DisplayID  string          `json:"display_id"`
	ClientName string          `json:"client_name"`
	TotalTTC   decimal.Decimal `json:"total_ttc"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, actor string, req InvoiceRequest) (InvoiceResponse, error)
	UpdateInvoice(ctx context.Context, actor, id string, req InvoiceRequest) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, year int) ([]InvoiceResponse, error)
	GetAvailableYears(ctx context.Context) ([]int, error)
	CalculateTotals(ctx context.Context, ttc decimal.Decimal) (TotalsResponse, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	inventory   InventoryService
	tax         TaxService
	hub         *ws.Hub
	metrics     *metrics.Metrics
	log         *zap.Logger
	now         func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	inventory InventoryService,
	tax TaxService,
	hub *ws.Hub,
	m *metrics.Metrics,
	log *zap.Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		inventory:   inventory,
		tax:         tax,
		hub:         hub,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, actor string, req InvoiceRequest) (InvoiceResponse, error) {
	invoice, items, err := s.build(req)
	if err != nil {
		s.metrics.InvoiceSaved(metrics.OpCreate, err)
		return InvoiceResponse{}, err
	}

	var touched []*model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		seq, err := s.invoiceRepo.MaxSequence(txCtx, invoice.Year)
		if err != nil {
			return fmt.Errorf("failed to compute invoice number: %w", err)
		}
		invoice.ID = uuid.New()
		invoice.SequenceNumber = seq + 1
		invoice.FormattedID = fmt.Sprintf("%04d - %d", invoice.SequenceNumber, invoice.Year)

		if err := s.applyTotals(txCtx, invoice, items); err != nil {
			return err
		}

		touched, err = s.withdrawStock(txCtx, invoice.ID, invoice.FormattedID, items)
		if err != nil {
			return err
		}

		invoice.Items = items
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateInvoice, invoice.ID.String(), invoice.FormattedID, req)
	})
	s.metrics.InvoiceSaved(metrics.OpCreate, err)
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("formatted_id", invoice.FormattedID),
		zap.String("total_ttc", invoice.TotalTTC.StringFixed(2)))
	s.inventory.NotifyStock(touched)
	s.hub.Publish(ws.EventInvoiceCreated, toInvoiceEvent(invoice))

	return toInvoiceResponse(invoice), nil
}

// UpdateInvoice rewrites an invoice in place. Stock of the previous lines is
// returned before the new lines are withdrawn. The number and year never change.
func (s *invoiceService) UpdateInvoice(ctx context.Context, actor, id string, req InvoiceRequest) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, invalidf("invalid invoice id")
	}

	draft, items, err := s.build(req)
	if err != nil {
		s.metrics.InvoiceSaved(metrics.OpUpdate, err)
		return InvoiceResponse{}, err
	}

	var invoice *model.Invoice
	var touched []*model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err = s.invoiceRepo.FindByID(txCtx, invoiceID)
		if err != nil {
			return lookupErr("invoice", err)
		}

		restored, err := s.restoreStock(txCtx, invoice)
		if err != nil {
			return err
		}

		draft.ID = invoice.ID
		draft.SequenceNumber = invoice.SequenceNumber
		draft.Year = invoice.Year
		draft.FormattedID = invoice.FormattedID
		draft.CreatedAt = invoice.CreatedAt

		if err := s.applyTotals(txCtx, draft, items); err != nil {
			return err
		}

		withdrawn, err := s.withdrawStock(txCtx, draft.ID, draft.FormattedID, items)
		if err != nil {
			return err
		}
		touched = mergeProducts(restored, withdrawn)

		if err := s.invoiceRepo.ReplaceItems(txCtx, draft.ID, items); err != nil {
			return fmt.Errorf("failed to replace invoice items: %w", err)
		}
		if err := s.invoiceRepo.UpdateHeader(txCtx, draft); err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		draft.Items = items
		invoice = draft

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateInvoice, invoice.ID.String(), invoice.FormattedID, req)
	})
	s.metrics.InvoiceSaved(metrics.OpUpdate, err)
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.log.Info("invoice updated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("formatted_id", invoice.FormattedID))
	s.inventory.NotifyStock(touched)
	s.hub.Publish(ws.EventInvoiceUpdated, toInvoiceEvent(invoice))

	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, invalidf("invalid invoice id")
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, lookupErr("invoice", err)
	}
	return toInvoiceResponse(invoice), nil
}

// ListInvoices returns the invoices of year, the current year when year is 0.
func (s *invoiceService) ListInvoices(ctx context.Context, year int) ([]InvoiceResponse, error) {
	if year <= 0 {
		year = s.now().Year()
	}
	invoices, err := s.invoiceRepo.ListByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		res = append(res, toInvoiceResponse(&invoices[i]))
	}
	return res, nil
}

// GetAvailableYears lists years having invoices, newest first, always including the current year.
func (s *invoiceService) GetAvailableYears(ctx context.Context) ([]int, error) {
	years, err := s.invoiceRepo.Years(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice years: %w", err)
	}

	current := s.now().Year()
	for _, y := range years {
		if y == current {
			return years, nil
		}
	}
	// years is sorted descending and the current year is the newest possible one
	return append([]int{current}, years...), nil
}

func (s *invoiceService) CalculateTotals(ctx context.Context, ttc decimal.Decimal) (TotalsResponse, error) {
	if ttc.IsNegative() {
		return TotalsResponse{}, invalidf("total cannot be negative")
	}
	rate, err := s.tax.RateOn(ctx, model.TaxTypeVAT, s.now())
	if err != nil {
		return TotalsResponse{}, err
	}
	return ComputeTotals(ttc, rate), nil
}

// --- Helpers ---

// build validates the request and maps it to an unsaved invoice and its lines.
func (s *invoiceService) build(req InvoiceRequest) (*model.Invoice, []model.InvoiceItem, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, nil, invalidf("invalid date %q (expected DD-MM-YYYY)", req.Date)
	}

	invoice := &model.Invoice{
		Date:              date,
		Year:              date.Year(),
		CustomFormattedID: strings.TrimSpace(req.CustomFormattedID),
		ClientName:        strings.TrimSpace(req.ClientName),
		ClientCity:        strings.TrimSpace(req.ClientCity),
		ClientICE:         strings.TrimSpace(req.ClientICE),
		PaymentMethod:     req.PaymentMethod,
	}

	switch {
	case invoice.ClientName == "":
		return nil, nil, invalidf("client name is required")
	case invoice.ClientCity == "":
		return nil, nil, invalidf("client city is required")
	case !iceRe.MatchString(invoice.ClientICE):
		return nil, nil, invalidf("client ICE must be exactly %d digits", model.ICELength)
	case len(req.Items) == 0:
		return nil, nil, invalidf("at least one line is required")
	}

	switch req.PaymentMethod {
	case model.PaymentCash:
	case model.PaymentCheque:
		c := req.Cheque
		if c == nil || strings.TrimSpace(c.Number) == "" || strings.TrimSpace(c.Bank) == "" {
			return nil, nil, invalidf("cheque number and bank are required")
		}
		invoice.ChequeNumber = strings.TrimSpace(c.Number)
		invoice.ChequeBank = strings.TrimSpace(c.Bank)
		invoice.ChequeCity = strings.TrimSpace(c.City)
		invoice.ChequeReference = strings.TrimSpace(c.Reference)
	case model.PaymentEffet:
		e := req.Effet
		if e == nil || strings.TrimSpace(e.City) == "" || strings.TrimSpace(e.DueDate) == "" {
			return nil, nil, invalidf("effet city and due date are required")
		}
		if _, err := time.Parse(DateLayout, strings.TrimSpace(e.DueDate)); err != nil {
			return nil, nil, invalidf("invalid effet due date %q (expected DD-MM-YYYY)", e.DueDate)
		}
		invoice.EffetCity = strings.TrimSpace(e.City)
		invoice.EffetDueDate = strings.TrimSpace(e.DueDate)
		invoice.EffetBank = strings.TrimSpace(e.Bank)
		invoice.EffetReference = strings.TrimSpace(e.Reference)
	default:
		return nil, nil, invalidf("unknown payment method %q", req.PaymentMethod)
	}

	items := make([]model.InvoiceItem, 0, len(req.Items))
	for i, it := range req.Items {
		desc := strings.TrimSpace(it.Description)
		switch {
		case !it.Quantity.IsPositive():
			return nil, nil, invalidf("line %d: quantity must be greater than zero", i+1)
		case !it.UnitPriceTTC.IsPositive():
			return nil, nil, invalidf("line %d: unit price must be greater than zero", i+1)
		}

		item := model.InvoiceItem{
			Position:     i + 1,
			Description:  desc,
			Quantity:     it.Quantity,
			UnitPriceTTC: it.UnitPriceTTC.Round(2),
			TotalTTC:     it.Quantity.Mul(it.UnitPriceTTC).Round(2),
			BuyingPrice:  decimal.Zero,
		}
		if it.ProductID != "" {
			pid, err := uuid.Parse(it.ProductID)
			if err != nil {
				return nil, nil, invalidf("line %d: invalid product id", i+1)
			}
			if _, err := wholeQuantity(it.Quantity); err != nil {
				return nil, nil, invalidf("line %d: %s", i+1, err)
			}
			item.ProductID = &pid
		}
		items = append(items, item)
	}

	return invoice, items, nil
}

func (s *invoiceService) applyTotals(ctx context.Context, invoice *model.Invoice, items []model.InvoiceItem) error {
	rate, err := s.tax.RateOn(ctx, model.TaxTypeVAT, invoice.Date)
	if err != nil {
		return err
	}

	ttc := decimal.Zero
	for _, it := range items {
		ttc = ttc.Add(it.TotalTTC)
	}

	totals := ComputeTotals(ttc, rate)
	invoice.TaxRate = rate
	invoice.TotalHT = totals.TotalHT
	invoice.TotalTVA = totals.TotalTVA
	invoice.TotalTTC = totals.TotalTTC
	invoice.TotalInWords = totals.TotalInWords
	return nil
}

// withdrawStock removes stock for catalog lines and snapshots their buying price.
func (s *invoiceService) withdrawStock(ctx context.Context, invoiceID uuid.UUID, label string, items []model.InvoiceItem) ([]*model.Product, error) {
	var touched []*model.Product
	for i := range items {
		if items[i].ProductID == nil {
			continue
		}
		qty, err := wholeQuantity(items[i].Quantity)
		if err != nil {
			return nil, invalidf("line %d: %s", i+1, err)
		}
		product, err := s.inventory.Withdraw(ctx, *items[i].ProductID, qty, &invoiceID, "invoice "+label)
		if err != nil {
			return nil, err
		}
		items[i].BuyingPrice = product.BuyingPrice
		touched = append(touched, product)
	}
	return touched, nil
}

func (s *invoiceService) restoreStock(ctx context.Context, invoice *model.Invoice) ([]*model.Product, error) {
	var touched []*model.Product
	for _, it := range invoice.Items {
		if it.ProductID == nil {
			continue
		}
		qty, err := wholeQuantity(it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("stored line %d: %w", it.Position, err)
		}
		product, err := s.inventory.Restock(ctx, *it.ProductID, qty, &invoice.ID, "invoice "+invoice.FormattedID+" edited")
		if err != nil {
			return nil, err
		}
		touched = append(touched, product)
	}
	return touched, nil
}

// mergeProducts keeps the latest state of each product.
func mergeProducts(lists ...[]*model.Product) []*model.Product {
	seen := make(map[uuid.UUID]int)
	var out []*model.Product
	for _, list := range lists {
		for _, p := range list {
			if i, ok := seen[p.ID]; ok {
				out[i] = p
				continue
			}
			seen[p.ID] = len(out)
			out = append(out, p)
		}
	}
	return out
}

func toInvoiceEvent(inv *model.Invoice) InvoiceEvent {
	return InvoiceEvent{
		ID:         inv.ID.String(),
		DisplayID:  inv.DisplayID(),
		ClientName: inv.ClientName,
		TotalTTC:   inv.TotalTTC,
	}
}

func toInvoiceResponse(inv *model.Invoice) InvoiceResponse {
	res := InvoiceResponse{
		ID:                inv.ID.String(),
		FormattedID:       inv.FormattedID,
		CustomFormattedID: inv.CustomFormattedID,
		DisplayID:         inv.DisplayID(),
		Year:              inv.Year,
		Date:              inv.Date.Format(DateLayout),
		ClientName:        inv.ClientName,
		ClientCity:        inv.ClientCity,
		ClientICE:         inv.ClientICE,
		TaxRate:           inv.TaxRate,
		TotalHT:           inv.TotalHT,
		TotalTVA:          inv.TotalTVA,
		TotalTTC:          inv.TotalTTC,
		TotalInWords:      inv.TotalInWords,
		PaymentMethod:     inv.PaymentMethod,
		Items:             make([]InvoiceItemResponse, 0, len(inv.Items)),
		CreatedAt:         inv.CreatedAt.Format(time.RFC3339),
	}

	switch inv.PaymentMethod {
	case model.PaymentCheque:
		res.Cheque = &ChequeInfo{Number: inv.ChequeNumber, Bank: inv.ChequeBank, City: inv.ChequeCity, Reference: inv.ChequeReference}
	case model.PaymentEffet:
		res.Effet = &EffetInfo{City: inv.EffetCity, DueDate: inv.EffetDueDate, Bank: inv.EffetBank, Reference: inv.EffetReference}
	}

	for _, it := range inv.Items {
		var productID *string
		if it.ProductID != nil {
			ref := it.ProductID.String()
			productID = &ref
		}
		res.Items = append(res.Items, InvoiceItemResponse{
			ID:           it.ID.String(),
			ProductID:    productID,
			Description:  it.Description,
			Quantity:     it.Quantity,
			UnitPriceTTC: it.UnitPriceTTC,
			TotalTTC:     it.TotalTTC,
		})
	}
	return res
}
