package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Intent resolution
	QuestionsTotal *prometheus.CounterVec
	MatchScore     prometheus.Histogram

	// Order-status lookups
	OrderLookupsTotal   *prometheus.CounterVec
	OrderLookupDuration prometheus.Histogram

	// Intent catalog
	CatalogReloadsTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates a Metrics instance registered on registry.
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		QuestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_questions_total",
				Help: "Questions answered, by how the intent was found",
			},
			[]string{"source"}, // exact, fuzzy, none
		),
		MatchScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatbot_match_score",
			Help:    "Best similarity score per question",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		OrderLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_order_lookups_total",
				Help: "Order-status replies by outcome",
			},
			[]string{"result"}, // found, not_found, failure, not_configured, missing_code
		),
		OrderLookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatbot_order_lookup_duration_seconds",
			Help:    "ERP order lookup latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),
		CatalogReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_catalog_reloads_total",
				Help: "Intent catalog reloads by status",
			},
			[]string{"status"}, // success, error
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
	}
}
