package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.InvoiceSaved(OpCreate, nil)
	m.InvoiceSaved(OpCreate, nil)
	m.InvoiceSaved(OpUpdate, errors.New("boom"))
	m.PDFRendered(nil)
	m.StockLow("REF-1")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.invoiceSaves.WithLabelValues(OpCreate, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invoiceSaves.WithLabelValues(OpUpdate, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pdfRenders.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockLow.WithLabelValues("REF-1")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.InvoiceSaved(OpCreate, nil)
		m.PDFRendered(errors.New("x"))
		m.StockLow("REF")
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/ping", "200")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "facture_http_requests_total")
}
