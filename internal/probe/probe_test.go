package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howard-nolan/llmrevise/internal/catalog"
	"github.com/howard-nolan/llmrevise/internal/metrics"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

// stubAdapter answers TestConnection with a fixed value after an
// optional delay, tracking how many probes run at once.
type stubAdapter struct {
	name  catalog.Provider
	ok    bool
	delay time.Duration

	running *atomic.Int32
	peak    *atomic.Int32
}

func (s stubAdapter) Name() catalog.Provider { return s.name }
func (s stubAdapter) Configure(provider.Settings) provider.Adapter { return s }
func (s stubAdapter) IsReady() bool { return true }
func (s stubAdapter) ListAvailableModelIdentifiers() []string { return nil }

func (s stubAdapter) Generate(context.Context, provider.GenerateRequest) provider.GenerateResult {
	return provider.GenerateResult{}
}

func (s stubAdapter) TestConnection(context.Context) bool {
	if s.running != nil {
		n := s.running.Add(1)
		for {
			p := s.peak.Load()
			if n <= p || s.peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer s.running.Add(-1)
	}
	time.Sleep(s.delay)
	return s.ok
}

func TestRun(t *testing.T) {
	res := Run(context.Background(), stubAdapter{name: catalog.Google, ok: true})

	assert.Equal(t, catalog.Google, res.Provider)
	assert.True(t, res.OK)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderReady.WithLabelValues("google")))

	res = Run(context.Background(), stubAdapter{name: catalog.Google, ok: false})
	assert.False(t, res.OK)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ProviderReady.WithLabelValues("google")))
}

func TestAll_PreservesOrder(t *testing.T) {
	// Earlier adapters finish last, so completion order is reversed.
	adapters := []provider.Adapter{
		stubAdapter{name: catalog.OpenRouter, ok: true, delay: 30 * time.Millisecond},
		stubAdapter{name: catalog.OpenAI, ok: false, delay: 20 * time.Millisecond},
		stubAdapter{name: catalog.Anthropic, ok: true, delay: 10 * time.Millisecond},
		stubAdapter{name: catalog.Local, ok: false},
	}

	results := All(context.Background(), adapters, 0)

	require.Len(t, results, 4)
	assert.Equal(t, catalog.OpenRouter, results[0].Provider)
	assert.True(t, results[0].OK)
	assert.Equal(t, catalog.OpenAI, results[1].Provider)
	assert.False(t, results[1].OK)
	assert.Equal(t, catalog.Anthropic, results[2].Provider)
	assert.Equal(t, catalog.Local, results[3].Provider)
}

func TestAll_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32

	var adapters []provider.Adapter
	for range 6 {
		adapters = append(adapters, stubAdapter{
			name: catalog.OpenRouter, ok: true, delay: 20 * time.Millisecond,
			running: &running, peak: &peak,
		})
	}

	results := All(context.Background(), adapters, 2)

	assert.Len(t, results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestAll_Empty(t *testing.T) {
	assert.Empty(t, All(context.Background(), nil, 3))
}

func TestAll_RealAdapters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"OK"}}]}`))
	}))
	t.Cleanup(srv.Close)

	up := provider.NewOpenRouter(provider.Settings{APIKey: "k", BaseURL: srv.URL})
	unconfigured := provider.NewAnthropic(provider.Settings{})

	results := All(context.Background(), []provider.Adapter{up, unconfigured}, 2)

	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, catalog.Anthropic, results[1].Provider)
}
