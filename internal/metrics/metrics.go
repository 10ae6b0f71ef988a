package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg             *prometheus.Registry
	SessionsOpened  prometheus.Counter
	Searches        prometheus.Counter
	StockViolations prometheus.Counter
	CatalogLoadErrs prometheus.Counter
	CatalogSize     prometheus.Gauge

	SubmitOK         prometheus.Counter
	SubmitFailed     prometheus.Counter
	SubmitLatencySec prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	opened := prometheus.NewCounter(prometheus.CounterOpts{Name: "posales_sessions_opened_total"})
	searches := prometheus.NewCounter(prometheus.CounterOpts{Name: "posales_catalog_searches_total"})
	violations := prometheus.NewCounter(prometheus.CounterOpts{Name: "posales_stock_violations_total"})
	loadErrs := prometheus.NewCounter(prometheus.CounterOpts{Name: "posales_catalog_load_errors_total"})
	size := prometheus.NewGauge(prometheus.GaugeOpts{Name: "posales_catalog_products"})

	submitOK := prometheus.NewCounter(prometheus.CounterOpts{Name: "posales_po_submitted_total"})
	submitFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "posales_po_submit_failed_total"})
	submitLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "posales_po_submit_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(opened, searches, violations, loadErrs, size, submitOK, submitFailed, submitLatency)
	return &Registry{
		reg:              r,
		SessionsOpened:   opened,
		Searches:         searches,
		StockViolations:  violations,
		CatalogLoadErrs:  loadErrs,
		CatalogSize:      size,
		SubmitOK:         submitOK,
		SubmitFailed:     submitFailed,
		SubmitLatencySec: submitLatency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
