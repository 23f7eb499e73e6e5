package provider

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howard-nolan/llmrevise/internal/catalog"
	"github.com/howard-nolan/llmrevise/internal/metrics"
)

// readySettings returns settings that make every variant ready and point
// it at baseURL.
func readySettings(baseURL string) Settings {
	return Settings{APIKey: "k", BaseURL: baseURL, LocalModel: "local-model"}
}

func allAdapters(s Settings, opts ...Option) []Adapter {
	var out []Adapter
	for _, name := range Names() {
		a, err := New(string(name), s, opts...)
		if err != nil {
			panic(err)
		}
		out = append(out, a)
	}
	return out
}

func TestAdapters_NotReadyNeverCallsOut(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, chatOK)

	for _, a := range allAdapters(Settings{BaseURL: f.URL}) {
		t.Run(string(a.Name()), func(t *testing.T) {
			assert.False(t, a.IsReady())
			assert.False(t, a.TestConnection(context.Background()))

			res := a.Generate(context.Background(), GenerateRequest{Instructions: "x", SelectedText: "y"})
			assert.False(t, res.Succeeded)
			assert.Equal(t, KindNotConfigured, res.ErrorKind)
			assert.Nil(t, res.Usage)
		})
	}

	assert.Zero(t, f.calls())
}

func TestAdapters_ConfigureDoesNotMutate(t *testing.T) {
	for _, a := range allAdapters(Settings{}) {
		t.Run(string(a.Name()), func(t *testing.T) {
			b := a.Configure(readySettings("http://example.invalid"))

			assert.False(t, a.IsReady())
			assert.True(t, b.IsReady())
			assert.Equal(t, a.Name(), b.Name())

			// Configuring twice with the same settings is idempotent.
			c := b.Configure(readySettings("http://example.invalid"))
			assert.Equal(t, b.IsReady(), c.IsReady())
			assert.Equal(t, b.ListAvailableModelIdentifiers(), c.ListAvailableModelIdentifiers())
		})
	}
}

func TestAdapters_TransportFailure(t *testing.T) {
	for _, a := range allAdapters(readySettings(closedServerURL())) {
		t.Run(string(a.Name()), func(t *testing.T) {
			res := a.Generate(context.Background(), GenerateRequest{Instructions: "x", SelectedText: "y"})

			assert.Equal(t, KindTransportFailure, res.ErrorKind)
			assert.NotEmpty(t, res.ErrorMessage)
			assert.False(t, a.TestConnection(context.Background()))
		})
	}
}

func TestAdapters_ListedModelsResolve(t *testing.T) {
	for _, a := range allAdapters(readySettings("http://example.invalid")) {
		w := a.(wire)
		for _, id := range a.ListAvailableModelIdentifiers() {
			_, ok := w.resolveModel(id)
			assert.True(t, ok, "%s lists %q but cannot resolve it", a.Name(), id)
		}
	}
}

func TestGenerate_RecordsMetrics(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, chatOK)
	a := NewOpenRouter(readySettings(f.URL))

	success := metrics.GenerateTotal.WithLabelValues("openrouter", "success")
	input := metrics.TokensTotal.WithLabelValues("openrouter", "anthropic/claude-3.5-sonnet", "input")
	beforeSuccess, beforeInput := testutil.ToFloat64(success), testutil.ToFloat64(input)

	res := a.Generate(context.Background(), GenerateRequest{Instructions: "x", SelectedText: "y"})
	require.True(t, res.Succeeded)

	assert.Equal(t, beforeSuccess+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeInput+42, testutil.ToFloat64(input))

	rejected := metrics.GenerateTotal.WithLabelValues("anthropic", string(KindNotConfigured))
	beforeRejected := testutil.ToFloat64(rejected)
	NewAnthropic(Settings{}).Generate(context.Background(), GenerateRequest{})
	assert.Equal(t, beforeRejected+1, testutil.ToFloat64(rejected))
}

func TestGenerate_CustomCatalog(t *testing.T) {
	cat, err := catalog.Load([]byte(`
version: test
providers:
  - name: openrouter
    models:
      - display_name: Tiny
        api_identifier: vendor/tiny
        context_window: 1000
        max_output_tokens: 64
`))
	require.NoError(t, err)

	f := newFakeProvider(t, http.StatusOK, chatOK)
	a := NewOpenRouter(readySettings(f.URL), WithCatalog(cat))

	assert.Equal(t, []string{"vendor/tiny"}, a.ListAvailableModelIdentifiers())

	res := a.Generate(context.Background(), GenerateRequest{Model: "anthropic/claude-3.5-sonnet", Instructions: "x", SelectedText: "y"})
	require.True(t, res.Succeeded)
	assert.True(t, res.ModelSubstituted)
	assert.Equal(t, "vendor/tiny", f.last(t).Body["model"])
	assert.Equal(t, float64(64), f.last(t).Body["max_tokens"])
}

func TestGenerate_EmptyCatalogSlice(t *testing.T) {
	cat, err := catalog.Load([]byte(`
version: test
providers:
  - name: google
    models:
      - display_name: G
        api_identifier: g
        context_window: 1000
        max_output_tokens: 64
`))
	require.NoError(t, err)

	f := newFakeProvider(t, http.StatusOK, chatOK)
	a := NewOpenRouter(readySettings(f.URL), WithCatalog(cat))

	res := a.Generate(context.Background(), GenerateRequest{Instructions: "x", SelectedText: "y"})
	assert.Equal(t, KindInvalidModel, res.ErrorKind)
	assert.False(t, a.TestConnection(context.Background()))
	assert.Zero(t, f.calls())
}

func TestGenerate_LogsOutcome(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, chatOK)

	var buf bytes.Buffer
	a := NewOpenRouter(Settings{APIKey: "sk-or-secret", BaseURL: f.URL}, WithLogger(zerolog.New(&buf)))

	res := a.Generate(context.Background(), GenerateRequest{Instructions: "x", SelectedText: "y"})
	require.True(t, res.Succeeded)

	out := buf.String()
	assert.Contains(t, out, `"provider":"openrouter"`)
	assert.Contains(t, out, `"call_id":"`+res.CallID+`"`)
	assert.Contains(t, out, "generation completed")
	assert.NotContains(t, out, "sk-or-secret")
}

func TestNormalizeUsage(t *testing.T) {
	assert.Equal(t, Usage{1, 2, 3}, normalizeUsage(1, 2, 0))
	assert.Equal(t, Usage{1, 2, 10}, normalizeUsage(1, 2, 10))
	assert.Equal(t, Usage{}, normalizeUsage(0, 0, 0))
}
