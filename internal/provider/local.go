package provider

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

const defaultLocalHost = "localhost"

// Local implements Adapter for a local OpenAI-compatible inference server
// (LM Studio, llama.cpp's llama-server, Ollama's /v1 endpoint). There is
// no authentication, and the model name comes from configuration rather
// than the catalog: the catalog's local entry only supplies limits.
type Local struct {
	client
}

// NewLocal creates a Local adapter.
func NewLocal(s Settings, opts ...Option) *Local {
	return &Local{client: newClient(catalog.Local, s, opts)}
}

func (a *Local) Configure(s Settings) Adapter {
	return &Local{client: a.client.withSettings(s)}
}

// IsReady needs an address and a model name. Whether anything is
// actually listening is left to TestConnection.
func (a *Local) IsReady() bool {
	if a.settings.LocalModel == "" {
		return false
	}
	return a.settings.BaseURL != "" || a.settings.LocalPort > 0
}

func (a *Local) Generate(ctx context.Context, req GenerateRequest) GenerateResult {
	return generate(ctx, a, req)
}

func (a *Local) TestConnection(ctx context.Context) bool {
	return testConnection(ctx, a)
}

// ListAvailableModelIdentifiers returns the single configured model.
func (a *Local) ListAvailableModelIdentifiers() []string {
	if a.settings.LocalModel == "" {
		return []string{}
	}
	return []string{a.settings.LocalModel}
}

// resolveModel accepts the configured local model name as an alias of
// the catalog's default local entry.
func (a *Local) resolveModel(id string) (catalog.ModelSpec, bool) {
	if id != "" && id == a.settings.LocalModel {
		return a.catalog.DefaultModel(catalog.Local)
	}
	return a.client.resolveModel(id)
}

// wireModel always sends the configured name; the server decides what
// it is.
func (a *Local) wireModel(catalog.ModelSpec) string {
	return a.settings.LocalModel
}

func (a *Local) endpoint(string) string {
	if a.settings.BaseURL != "" {
		return chatCompletionsURL(a.settings.BaseURL)
	}
	host := a.settings.LocalHost
	if host == "" {
		host = defaultLocalHost
	}
	return chatCompletionsURL(fmt.Sprintf("http://%s/v1", net.JoinHostPort(host, strconv.Itoa(a.settings.LocalPort))))
}

func (a *Local) headers() map[string]string {
	return nil
}

func (a *Local) body(call wireCall) any {
	return newChatRequest(call)
}

func (a *Local) parse(raw []byte) (string, Usage, error) {
	return parseChatCompletion(raw)
}

var _ wire = (*Local)(nil)
