// Package probe checks whether configured providers answer a minimal
// request.
package probe

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/howard-nolan/llmrevise/internal/catalog"
	"github.com/howard-nolan/llmrevise/internal/metrics"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

// DefaultLimit caps concurrent probes when All is given no limit.
const DefaultLimit = 4

// Result is the outcome of probing one adapter.
type Result struct {
	Provider catalog.Provider `json:"provider"`
	OK       bool             `json:"ok"`
	Duration time.Duration    `json:"duration_ns"`
}

// Run probes a single adapter. The readiness gauge for its provider is
// updated with the outcome.
func Run(ctx context.Context, a provider.Adapter) Result {
	start := time.Now()
	ok := a.TestConnection(ctx)

	ready := 0.0
	if ok {
		ready = 1
	}
	metrics.ProviderReady.WithLabelValues(string(a.Name())).Set(ready)

	return Result{
		Provider: a.Name(),
		OK:       ok,
		Duration: time.Since(start),
	}
}

// All probes adapters concurrently, at most limit at a time, and returns
// results in the same order as adapters. A limit <= 0 means DefaultLimit.
func All(ctx context.Context, adapters []provider.Adapter, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]Result, len(adapters))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, a := range adapters {
		g.Go(func() error {
			results[i] = Run(ctx, a)
			return nil
		})
	}
	_ = g.Wait() // probes report failure in their Result, never as an error

	return results
}
