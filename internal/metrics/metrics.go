// Package metrics declares the prometheus collectors shared by the
// provider adapters and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerateTotal counts generation calls by provider and outcome.
	// Outcome is "success" or the error kind of a failed call.
	GenerateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llmrevise_generate_total",
		Help: "Generation calls by provider and outcome.",
	}, []string{"provider", "outcome"})

	// GenerateDuration tracks the provider round trip per model.
	GenerateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llmrevise_generate_duration_seconds",
		Help:    "Time spent waiting on a provider for one generation.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider", "model"})

	// TokensTotal accumulates token usage reported by providers.
	TokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llmrevise_tokens_total",
		Help: "Tokens reported by providers, by direction (input/output).",
	}, []string{"provider", "model", "direction"})

	// ModelSubstitutions counts requests whose model identifier did not
	// resolve and fell back to the provider default.
	ModelSubstitutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llmrevise_model_substitutions_total",
		Help: "Requests that fell back to the provider's default model.",
	}, []string{"provider"})

	// CostUSD accumulates estimated spend for priced models.
	CostUSD = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llmrevise_estimated_cost_usd_total",
		Help: "Estimated USD spend for completed revisions.",
	}, []string{"provider", "model"})

	// ProviderReady tracks the last connection probe result per provider.
	ProviderReady = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "llmrevise_provider_ready",
		Help: "Whether the last connection probe succeeded (1) or not (0).",
	}, []string{"provider"})

	// HTTPRequests counts API requests by method, chi route pattern and
	// status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llmrevise_http_requests_total",
		Help: "HTTP API requests by method, route and status.",
	}, []string{"method", "route", "status"})
)
