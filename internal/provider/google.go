package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// ---------------------------------------------------------------------------
// Google struct + constructor
// ---------------------------------------------------------------------------

const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Google implements Adapter for Gemini's generateContent API.
//
// Key differences from the other hosted APIs:
//   - the model goes in the URL path, not the body
//   - roles are "user"/"model" rather than "user"/"assistant"
//   - token counts live under usageMetadata
type Google struct {
	client
}

// NewGoogle creates a Google adapter.
func NewGoogle(s Settings, opts ...Option) *Google {
	return &Google{client: newClient(catalog.Google, s, opts)}
}

// Configure returns a new Google adapter with s.
func (g *Google) Configure(s Settings) Adapter {
	return &Google{client: g.client.withSettings(s)}
}

// IsReady reports whether an API key is set.
func (g *Google) IsReady() bool {
	return g.settings.APIKey != ""
}

func (g *Google) Generate(ctx context.Context, req GenerateRequest) GenerateResult {
	return generate(ctx, g, req)
}

func (g *Google) TestConnection(ctx context.Context) bool {
	return testConnection(ctx, g)
}

// ---------------------------------------------------------------------------
// Gemini API types (unexported)
// ---------------------------------------------------------------------------

// geminiRequest is the request body for generateContent. The system
// directive goes in systemInstruction, not in contents.
type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// geminiContent is one turn. Gemini uses a parts array for multimodal
// input; for text we always send a single part.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is one piece of a turn. Thinking models return their
// reasoning as parts flagged Thought, which are not part of the answer.
type geminiPart struct {
	Text    string `json:"text"`
	Thought bool   `json:"thought,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	UsageMetadata  *geminiUsageMetadata  `json:"usageMetadata"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// geminiPromptFeedback is set when Gemini refuses the prompt itself; the
// response then has a 200 status and no candidates.
type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

// ---------------------------------------------------------------------------
// Translation
// ---------------------------------------------------------------------------

// endpoint puts the model in the URL path; the request body has no model
// field.
func (g *Google) endpoint(model string) string {
	root := g.settings.BaseURL
	if root == "" {
		root = googleBaseURL
	}
	return fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(root, "/"), url.PathEscape(model))
}

// headers sends the key as a header instead of the ?key= query parameter
// so it never shows up in logged URLs.
func (g *Google) headers() map[string]string {
	return map[string]string{"x-goog-api-key": g.settings.APIKey}
}

func (g *Google) body(call wireCall) any {
	gr := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: call.Prompt.User}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     call.Temperature,
			MaxOutputTokens: call.MaxTokens,
		},
	}
	if call.Prompt.System != "" {
		gr.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: call.Prompt.System}}}
	}
	return gr
}

func (g *Google) parse(raw []byte) (string, Usage, error) {
	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", Usage{}, malformed("decoding gemini response: %v", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", Usage{}, &Error{
				Kind:    KindProviderRejected,
				Message: fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason),
			}
		}
		return "", Usage{}, malformed("gemini returned no candidates")
	}

	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", Usage{}, malformed("gemini candidate has no content parts")
	}

	var usage Usage
	if m := resp.UsageMetadata; m != nil {
		usage = normalizeUsage(m.PromptTokenCount, m.CandidatesTokenCount, m.TotalTokenCount)
	}

	// A candidate's answer may arrive split across several parts; the
	// text is their concatenation in order.
	var text strings.Builder
	for _, p := range parts {
		if p.Thought {
			continue
		}
		text.WriteString(p.Text)
	}

	return text.String(), usage, nil
}

var _ wire = (*Google)(nil)
