package provider

import (
	"context"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// ---------------------------------------------------------------------------
// OpenRouter struct + constructor
// ---------------------------------------------------------------------------

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	// Attribution headers OpenRouter uses for its app rankings. Both are
	// optional on their side; we always send them.
	defaultReferer = "https://github.com/howard-nolan/llmrevise"
	defaultAppName = "llmrevise"
)

// OpenRouter implements Adapter for OpenRouter's hosted chat completions
// API. Model identifiers are vendor-prefixed, e.g. "openai/gpt-4o-mini".
//
// OpenRouter speaks the OpenAI chat completions format, so the request
// and response types are the shared ones in chat.go; this file only
// supplies the URL, the headers and the auth.
type OpenRouter struct {
	client
}

// NewOpenRouter creates an OpenRouter adapter.
func NewOpenRouter(s Settings, opts ...Option) *OpenRouter {
	return &OpenRouter{client: newClient(catalog.OpenRouter, s, opts)}
}

// Configure returns a new OpenRouter with s. The receiver is untouched
// and both share one resty client.
func (a *OpenRouter) Configure(s Settings) Adapter {
	return &OpenRouter{client: a.client.withSettings(s)}
}

// IsReady reports whether an API key is set.
func (a *OpenRouter) IsReady() bool {
	return a.settings.APIKey != ""
}

func (a *OpenRouter) Generate(ctx context.Context, req GenerateRequest) GenerateResult {
	return generate(ctx, a, req)
}

func (a *OpenRouter) TestConnection(ctx context.Context) bool {
	return testConnection(ctx, a)
}

// ---------------------------------------------------------------------------
// Translation
// ---------------------------------------------------------------------------

// endpoint ignores the model: OpenRouter routes on the "model" body field.
func (a *OpenRouter) endpoint(string) string {
	root := a.settings.BaseURL
	if root == "" {
		root = openRouterBaseURL
	}
	return chatCompletionsURL(root)
}

// headers authenticates with a bearer token and adds the attribution
// pair, falling back to llmrevise's own values.
func (a *OpenRouter) headers() map[string]string {
	referer := a.settings.Referer
	if referer == "" {
		referer = defaultReferer
	}
	appName := a.settings.AppName
	if appName == "" {
		appName = defaultAppName
	}
	return map[string]string{
		"Authorization": bearer(a.settings.APIKey),
		"HTTP-Referer":  referer,
		"X-Title":       appName,
	}
}

func (a *OpenRouter) body(call wireCall) any {
	return newChatRequest(call)
}

// parse also handles OpenRouter's habit of answering 200 with an error
// object when the upstream model fails; see parseChatCompletion.
func (a *OpenRouter) parse(raw []byte) (string, Usage, error) {
	return parseChatCompletion(raw)
}

var _ wire = (*OpenRouter)(nil)
