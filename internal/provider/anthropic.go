package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// ---------------------------------------------------------------------------
// Anthropic struct + constructor
// ---------------------------------------------------------------------------

const anthropicBaseURL = "https://api.anthropic.com/v1"

// anthropicAPIVersion pins the Anthropic API behavior. Anthropic requires
// this header on every request; they version by date header rather than
// by URL path.
const anthropicAPIVersion = "2023-06-01"

// Anthropic implements Adapter for Anthropic's Messages API. Same pattern
// as every other variant: generate translates the request into
// Anthropic's format through body, makes the HTTP call, and parse
// translates the answer back.
type Anthropic struct {
	client
}

// NewAnthropic creates an Anthropic adapter.
func NewAnthropic(s Settings, opts ...Option) *Anthropic {
	return &Anthropic{client: newClient(catalog.Anthropic, s, opts)}
}

// Configure returns a new Anthropic adapter with s.
func (a *Anthropic) Configure(s Settings) Adapter {
	return &Anthropic{client: a.client.withSettings(s)}
}

// IsReady reports whether an API key is set.
func (a *Anthropic) IsReady() bool {
	return a.settings.APIKey != ""
}

func (a *Anthropic) Generate(ctx context.Context, req GenerateRequest) GenerateResult {
	return generate(ctx, a, req)
}

func (a *Anthropic) TestConnection(ctx context.Context) bool {
	return testConnection(ctx, a)
}

// ---------------------------------------------------------------------------
// Anthropic API types (unexported)
// ---------------------------------------------------------------------------

// anthropicRequest is the request body for /v1/messages.
//
// Key differences from chat completions:
//   - "system" is a top-level string, not a message
//   - "max_tokens" is REQUIRED
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	Stream      bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the response from /v1/messages. "content" is an
// array of blocks because responses can mix text and tool_use; only text
// blocks matter here.
type anthropicResponse struct {
	ID         string                  `json:"id"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      *anthropicUsage         `json:"usage"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// anthropicUsage has no total; we compute it.
type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ---------------------------------------------------------------------------
// Translation
// ---------------------------------------------------------------------------

func (a *Anthropic) endpoint(string) string {
	root := a.settings.BaseURL
	if root == "" {
		root = anthropicBaseURL
	}
	return strings.TrimRight(root, "/") + "/messages"
}

// headers: Anthropic authenticates with x-api-key rather than a bearer
// token.
func (a *Anthropic) headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.settings.APIKey,
		"anthropic-version": anthropicAPIVersion,
	}
}

// body builds the Messages request. The system directive moves out of
// the message list into the top-level "system" field; for probes it is
// empty and omitted.
func (a *Anthropic) body(call wireCall) any {
	return anthropicRequest{
		Model:       call.Model,
		MaxTokens:   call.MaxTokens,
		System:      call.Prompt.System,
		Messages:    []anthropicMessage{{Role: "user", Content: call.Prompt.User}},
		Temperature: call.Temperature,
	}
}

// parse joins every text block in order. Thinking and tool_use blocks
// can sit before, between or after them and are skipped.
func (a *Anthropic) parse(raw []byte) (string, Usage, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", Usage{}, malformed("decoding anthropic response: %v", err)
	}

	var text strings.Builder
	found := false
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		text.WriteString(block.Text)
		found = true
	}
	if !found {
		return "", Usage{}, malformed("anthropic response has no text content block")
	}

	var usage Usage
	if resp.Usage != nil {
		usage = normalizeUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens, 0)
	}

	return text.String(), usage, nil
}

var _ wire = (*Anthropic)(nil)
