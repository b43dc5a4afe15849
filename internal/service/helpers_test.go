package service

import (
	"context"
	"testing"

	"facture/internal/metrics"
	"facture/internal/repository"
	"facture/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServices struct {
	db        *gorm.DB
	metrics   *metrics.Metrics
	invoices  InvoiceService
	inventory InventoryService
	clients   ClientService
	tax       TaxService
	stats     StatisticsService
	audit     AuditService
	export    ExportService
	repos     struct {
		invoice repository.InvoiceRepository
		stats   repository.StatisticsRepository
	}
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := testutil.NewDB(t)
	log := zap.NewNop()
	m := metrics.New()

	txm := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	invTxRepo := repository.NewInventoryTxRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	taxRepo := repository.NewTaxRuleRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	ts := &testServices{db: db, metrics: m}
	ts.tax = NewTaxService(taxRepo, auditRepo, txm, decimal.RequireFromString("0.20"))
	ts.inventory = NewInventoryService(productRepo, invTxRepo, auditRepo, txm, nil, m, log)
	ts.invoices = NewInvoiceService(invoiceRepo, auditRepo, txm, ts.inventory, ts.tax, nil, m, log)
	ts.clients = NewClientService(clientRepo, invoiceRepo, auditRepo, txm, nil)
	ts.stats = NewStatisticsService(statsRepo, productRepo)
	ts.audit = NewAuditService(auditRepo)
	ts.export = NewExportService(statsRepo)
	ts.repos.invoice = invoiceRepo
	ts.repos.stats = statsRepo
	return ts
}

func (ts *testServices) product(t *testing.T, ref string, stock int, price string) ProductResponse {
	t.Helper()
	p, err := ts.inventory.CreateProduct(context.Background(), "tester", ProductRequest{
		Reference:       ref,
		Name:            "Product " + ref,
		Category:        "Général",
		BuyingPrice:     decimal.RequireFromString("10"),
		SellingPriceTTC: decimal.RequireFromString(price),
		CurrentStock:    stock,
		MinStockLevel:   2,
	})
	require.NoError(t, err)
	return p
}

func validRequest(items ...InvoiceItemRequest) InvoiceRequest {
	if len(items) == 0 {
		items = []InvoiceItemRequest{{
			Description:  "Prestation",
			Quantity:     decimal.NewFromInt(1),
			UnitPriceTTC: decimal.RequireFromString("1200"),
		}}
	}
	return InvoiceRequest{
		Date:          "14-03-2025",
		ClientName:    "Atlas Distribution",
		ClientCity:    "Casablanca",
		ClientICE:     "001234567000089",
		PaymentMethod: "ESPECE",
		Items:         items,
	}
}
