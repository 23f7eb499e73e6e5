// Package provider defines the Adapter interface and the LLM provider
// adapters that implement it.
//
// Every backend (OpenRouter, a local inference server, OpenAI, Anthropic,
// Google) implements Adapter. Callers work with the normalized
// GenerateRequest / GenerateResult types and never see a provider's wire
// format, auth scheme or error envelope.
package provider

import (
	"context"
	"time"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// Adapter is the contract every LLM backend satisfies. Adapters are
// immutable: Configure returns a new adapter instead of mutating the
// receiver, so a generation already in flight never observes a
// half-updated credential.
type Adapter interface {
	// Name returns the provider identifier, e.g. "openrouter".
	Name() catalog.Provider

	// Configure returns a copy of the adapter using the given settings.
	// The copy shares the receiver's HTTP transport, so reconfiguring
	// repeatedly does not leak connections.
	Configure(s Settings) Adapter

	// IsReady reports whether the adapter has the minimum configuration
	// to attempt a call. It never touches the network.
	IsReady() bool

	// Generate performs exactly one provider call. It never panics and
	// never returns an error: failures come back as a GenerateResult
	// with Succeeded=false and a provider-agnostic ErrorKind.
	Generate(ctx context.Context, req GenerateRequest) GenerateResult

	// TestConnection runs a minimal probe generation. It returns true
	// only when the call succeeds and produces non-empty text.
	TestConnection(ctx context.Context) bool

	// ListAvailableModelIdentifiers returns the model identifiers this
	// adapter can serve, default first.
	ListAvailableModelIdentifiers() []string
}

// Settings holds the user-supplied configuration for one adapter. Fields
// that do not apply to a provider are ignored.
type Settings struct {
	APIKey string // empty for local inference

	// BaseURL overrides the provider's API root (e.g. a proxy). For the
	// local provider it replaces http://<host>:<port>/v1.
	BaseURL string

	// Referer and AppName are OpenRouter's attribution headers.
	Referer string
	AppName string

	// LocalHost, LocalPort and LocalModel address a local OpenAI-compatible
	// inference server (LM Studio, llama.cpp, Ollama's /v1 endpoint).
	LocalHost  string
	LocalPort  int
	LocalModel string
}

// ---------------------------------------------------------------------------
// Normalized request / result types
// ---------------------------------------------------------------------------

// GenerateRequest is one revision (or probe) request.
type GenerateRequest struct {
	Model        string `json:"model"`        // API identifier; unresolved values fall back to the default model
	Instructions string `json:"instructions"` // what the user wants changed
	SelectedText string `json:"selected_text"`

	// FullContext is the surrounding document, sent ahead of the selection
	// so the model can match terminology and tone. Optional.
	FullContext string `json:"full_context,omitempty"`

	Temperature     float64 `json:"temperature"`       // clamped to [0, 1]
	MaxOutputTokens int     `json:"max_output_tokens"` // 0 = default; clamped to the model limit

	// IsProbe sends Instructions verbatim as the whole prompt, with no
	// system directive. Only connectivity checks set it.
	IsProbe bool `json:"is_probe,omitempty"`
}

// Usage holds normalized token counts. Counters a provider did not
// report are zero.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// GenerateResult is the outcome of one Generate call.
type GenerateResult struct {
	Succeeded bool   `json:"succeeded"`
	Text      string `json:"text,omitempty"`  // present iff Succeeded
	Usage     *Usage `json:"usage,omitempty"` // non-nil iff Succeeded

	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StatusCode   int       `json:"status_code,omitempty"` // provider HTTP status, when one was received

	Provider       catalog.Provider `json:"provider"`
	RequestedModel string           `json:"requested_model"`
	Model          string           `json:"model,omitempty"` // the model actually sent on the wire

	// ModelSubstituted is true when RequestedModel did not resolve for
	// this provider and the provider's default model was used instead.
	ModelSubstituted bool `json:"model_substituted"`

	CallID   string        `json:"call_id"` // matches the call_id field in log lines
	Duration time.Duration `json:"duration_ns"`
}

// Err converts a failed result into an *Error. It returns nil for a
// successful result.
func (r GenerateResult) Err() error {
	if r.Succeeded {
		return nil
	}
	return &Error{
		Kind:       r.ErrorKind,
		Provider:   r.Provider,
		StatusCode: r.StatusCode,
		Message:    r.ErrorMessage,
	}
}
