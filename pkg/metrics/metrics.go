// Package metrics declares the Prometheus instruments shared across the application.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

var (
	// LLMRequests counts language model calls by mode and result
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_llm_requests_total",
		Help: "Total language model requests by mode and result",
	}, []string{"mode", "result"})

	// LLMDuration tracks language model latency
	LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mindmap_llm_request_duration_seconds",
		Help:    "Language model request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
	}, []string{"mode"})

	EditorCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_editor_commands_total",
		Help: "Total editor commands by scope, operation and result",
	}, []string{"scope", "operation", "result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mindmap_active_sessions",
		Help: "Number of open editor sessions",
	})

	StaleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_stale_responses_total",
		Help: "AI results discarded because the map changed while they were in flight",
	}, []string{"mode"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mindmap_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CreditEvents counts credit purchases and usage
	CreditEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_credit_events_total",
		Help: "Credit balance changes by transaction type",
	}, []string{"type"})

	CreditAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_credit_amount_total",
		Help: "Credits moved by transaction type",
	}, []string{"type"})
)

// Result labels an outcome for the result dimension of the counters.
func Result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, model.ErrLLMRateLimited):
		return "rate_limited"
	case errors.Is(err, model.ErrLLMMalformedResponse), errors.Is(err, model.ErrInvalidFormat):
		return "malformed"
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrNotFound):
		return "rejected"
	case errors.Is(err, model.ErrStaleResponse):
		return "stale"
	default:
		return "error"
	}
}
