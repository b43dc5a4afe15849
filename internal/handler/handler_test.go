package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"facture/internal/repository"
	"facture/internal/service"
	"facture/internal/testutil"
	"facture/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	log := zap.NewNop()
	txm := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	tax := service.NewTaxService(repository.NewTaxRuleRepository(db), auditRepo, txm, decimal.RequireFromString("0.20"))
	inventory := service.NewInventoryService(productRepo, repository.NewInventoryTxRepository(db), auditRepo, txm, nil, nil, log)
	invoices := service.NewInvoiceService(invoiceRepo, auditRepo, txm, inventory, tax, nil, nil, log)
	clients := service.NewClientService(repository.NewClientRepository(db), invoiceRepo, auditRepo, txm, nil)

	r := gin.New()
	api := r.Group("")
	NewInvoiceHandler(invoices, nil, service.NewExportService(statsRepo)).RegisterRoutes(api)
	NewClientHandler(clients).RegisterRoutes(api)
	NewInventoryHandler(inventory).RegisterRoutes(api)
	NewTaxHandler(tax).RegisterRoutes(api)
	NewStatisticsHandler(service.NewStatisticsService(statsRepo, productRepo)).RegisterRoutes(api)
	NewAuditHandler(service.NewAuditService(auditRepo)).RegisterRoutes(api)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res response.Response
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	}
	return w, res
}

func invoicePayload(items ...map[string]interface{}) map[string]interface{} {
	if len(items) == 0 {
		items = []map[string]interface{}{{"description": "Prestation", "quantity": "1", "unit_price_ttc": "1200"}}
	}
	return map[string]interface{}{
		"date":           "14-03-2025",
		"client_name":    "Atlas Distribution",
		"client_city":    "Casablanca",
		"client_ice":     "001234567000089",
		"payment_method": "ESPECE",
		"items":          items,
	}
}

func TestInvoiceEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w, res := do(t, r, http.MethodPost, "/api/invoices", invoicePayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := res.Data.(map[string]interface{})
	assert.Equal(t, "0001 - 2025", data["formatted_id"])
	id := data["id"].(string)

	w, _ = do(t, r, http.MethodGet, "/api/invoices/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, res = do(t, r, http.MethodGet, "/api/invoices?year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, res.Data, 1)

	w, _ = do(t, r, http.MethodGet, "/api/invoices?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/invoices/6f1c1c3e-6e43-4d6c-9f0f-5e2b8d5b2a11", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, res = do(t, r, http.MethodPost, "/api/invoices/totals", map[string]string{"total_ttc": "1200"})
	require.Equal(t, http.StatusOK, w.Code)
	totals := res.Data.(map[string]interface{})
	assert.Equal(t, "1000", totals["total_ht"])

	w, _ = do(t, r, http.MethodGet, "/api/invoices/export?year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Factures_2025.xlsx")
}

func TestInvoiceEndpointErrors(t *testing.T) {
	r := newTestRouter(t)

	bad := invoicePayload()
	bad["client_ice"] = "12345"
	w, res := do(t, r, http.MethodPost, "/api/invoices", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", res.Status)

	w, res = do(t, r, http.MethodPost, "/api/products", map[string]interface{}{
		"reference": "CAB-01", "name": "Câble", "current_stock": 1, "selling_price_ttc": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	productID := res.Data.(map[string]interface{})["id"].(string)

	w, _ = do(t, r, http.MethodPost, "/api/invoices", invoicePayload(map[string]interface{}{
		"product_id": productID, "description": "Câble", "quantity": "3", "unit_price_ttc": "10",
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/products", map[string]interface{}{"reference": "CAB-01", "name": "Copie"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClientEndpoints(t *testing.T) {
	r := newTestRouter(t)
	payload := map[string]string{"name": "Sahara Négoce", "ice": "000111222333444", "city": "Rabat"}

	w, res := do(t, r, http.MethodPost, "/api/clients", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := res.Data.(map[string]interface{})["id"].(string)

	w, _ = do(t, r, http.MethodPost, "/api/clients", payload)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, res = do(t, r, http.MethodGet, "/api/clients/search?q=3334", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, res.Data, 1)

	w, _ = do(t, r, http.MethodPost, "/api/clients", map[string]string{"name": "X", "ice": "1", "city": "Fès", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/api/clients/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, res = do(t, r, http.MethodGet, "/api/audit-logs?action=CREATE_CLIENT", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, res.Data.(map[string]interface{})["total"])
}

func TestDashboardAndTaxEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w, res := do(t, r, http.MethodGet, "/api/dashboard?year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2025, res.Data.(map[string]interface{})["year"])

	w, res = do(t, r, http.MethodGet, "/api/tax-rules/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0.2000", res.Data.(map[string]interface{})["rate"])

	w, _ = do(t, r, http.MethodPost, "/api/tax-rules", map[string]string{"tax_type": "TVA", "rate": "0.14", "effective_from": "2030-01-01"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
