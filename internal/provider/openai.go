package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// ---------------------------------------------------------------------------
// OpenAI struct + constructor
// ---------------------------------------------------------------------------

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAI implements Adapter for OpenAI's Responses API (/v1/responses).
// Unlike chat completions, the system directive travels separately as
// "instructions" and the user turn is a plain "input" string.
type OpenAI struct {
	client
}

// NewOpenAI creates an OpenAI adapter.
func NewOpenAI(s Settings, opts ...Option) *OpenAI {
	return &OpenAI{client: newClient(catalog.OpenAI, s, opts)}
}

// Configure returns a new OpenAI adapter with s.
func (a *OpenAI) Configure(s Settings) Adapter {
	return &OpenAI{client: a.client.withSettings(s)}
}

// IsReady reports whether an API key is set.
func (a *OpenAI) IsReady() bool {
	return a.settings.APIKey != ""
}

func (a *OpenAI) Generate(ctx context.Context, req GenerateRequest) GenerateResult {
	return generate(ctx, a, req)
}

func (a *OpenAI) TestConnection(ctx context.Context) bool {
	return testConnection(ctx, a)
}

// ---------------------------------------------------------------------------
// Responses API wire types (unexported)
// ---------------------------------------------------------------------------

// responsesRequest is the POST body. Instructions is omitted for probes.
// Temperature is a pointer because reasoning models reject the field
// outright; for them it is left out.
type responsesRequest struct {
	Model           string   `json:"model"`
	Instructions    string   `json:"instructions,omitempty"`
	Input           string   `json:"input"`
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty"`
	Stream          bool     `json:"stream"`
}

// responsesResponse covers both ways the text can come back: the
// aggregated top-level output_text, or the structured output[] array.
type responsesResponse struct {
	ID         string                `json:"id"`
	Model      string                `json:"model"`
	Status     string                `json:"status"`
	OutputText *string               `json:"output_text"`
	Output     []responsesOutputItem `json:"output"`
	Usage      *responsesUsage       `json:"usage"`
	Error      *openai.APIError      `json:"error"`
}

// responsesOutputItem is one entry of output[]. Reasoning models emit a
// "reasoning" item before the "message" item, so we look for the type
// rather than taking index 0.
type responsesOutputItem struct {
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []responsesContent `json:"content"`
}

type responsesContent struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

type responsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ---------------------------------------------------------------------------
// Translation
// ---------------------------------------------------------------------------

func (a *OpenAI) endpoint(string) string {
	root := a.settings.BaseURL
	if root == "" {
		root = openAIBaseURL
	}
	return strings.TrimRight(root, "/") + "/responses"
}

func (a *OpenAI) headers() map[string]string {
	return map[string]string{"Authorization": bearer(a.settings.APIKey)}
}

// body maps the prompt onto instructions + input. Stream is sent as an
// explicit false so the API answers with one JSON document.
func (a *OpenAI) body(call wireCall) any {
	req := responsesRequest{
		Model:           call.Model,
		Instructions:    call.Prompt.System,
		Input:           call.Prompt.User,
		MaxOutputTokens: call.MaxTokens,
		Stream:          false,
	}
	if !call.Spec.Capabilities.Has(catalog.CapThinking) {
		t := call.Temperature
		req.Temperature = &t
	}
	return req
}

// parse prefers the top-level output_text. Failing that, it takes the
// first output_text content of the first message-typed output item.
func (a *OpenAI) parse(raw []byte) (string, Usage, error) {
	var resp responsesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", Usage{}, malformed("decoding response: %v", err)
	}

	if resp.Error != nil && resp.Error.Message != "" {
		return "", Usage{}, &Error{Kind: KindProviderRejected, Message: resp.Error.Message}
	}

	text, ok := responsesText(resp)
	if !ok {
		return "", Usage{}, malformed("response has neither output_text nor a message output item with output_text content")
	}

	var usage Usage
	if resp.Usage != nil {
		usage = normalizeUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens)
	}

	return text, usage, nil
}

// responsesText finds the answer text. ok is false only when neither
// place holds any text field at all.
func responsesText(resp responsesResponse) (string, bool) {
	if resp.OutputText != nil && *resp.OutputText != "" {
		return *resp.OutputText, true
	}

	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" && c.Text != nil {
				return *c.Text, true
			}
		}
		break // only the first message item counts
	}

	// An explicitly empty output_text is still a well-formed answer.
	if resp.OutputText != nil {
		return "", true
	}
	return "", false
}

var _ wire = (*OpenAI)(nil)
