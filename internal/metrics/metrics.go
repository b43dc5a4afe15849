// Package metrics exposes the Prometheus instruments of the API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facture"

// Invoice save operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
)

// Metrics owns a private registry so tests can build as many as they need.
// All recording methods are safe on a nil receiver.
type Metrics struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	invoiceSaves *prometheus.CounterVec
	pdfRenders   *prometheus.CounterVec
	stockLow     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		invoiceSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_saves_total",
			Help:      "Invoice create and update attempts by outcome.",
		}, []string{"op", "result"}),
		pdfRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_renders_total",
			Help:      "Invoice PDF renders by outcome.",
		}, []string{"result"}),
		stockLow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_low_alerts_total",
			Help:      "Products that crossed their minimum stock level.",
		}, []string{"reference"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.invoiceSaves,
		m.pdfRenders,
		m.stockLow,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency by matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) InvoiceSaved(op string, err error) {
	if m == nil {
		return
	}
	m.invoiceSaves.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) PDFRendered(err error) {
	if m == nil {
		return
	}
	m.pdfRenders.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) StockLow(reference string) {
	if m == nil {
		return
	}
	m.stockLow.WithLabelValues(reference).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
