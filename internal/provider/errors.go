package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// ErrorKind classifies a failed generation. Callers branch on the kind,
// never on provider-specific error shapes.
type ErrorKind string

const (
	// KindNotConfigured: a credential or endpoint is missing. Prompt the
	// user for settings; retrying will not help.
	KindNotConfigured ErrorKind = "not_configured"

	// KindInvalidModel: the requested model is unknown for this provider.
	// Only returned in strict mode; the default policy substitutes the
	// provider's default model instead.
	KindInvalidModel ErrorKind = "invalid_model"

	// KindTransportFailure: network, DNS or timeout failure. The message
	// is the transport error verbatim.
	KindTransportFailure ErrorKind = "transport_failure"

	// KindMalformedResponse: a 2xx response whose envelope lacks the
	// expected content. Never coerced into empty text.
	KindMalformedResponse ErrorKind = "malformed_response"

	// KindProviderRejected: non-2xx status (or an error envelope). The
	// provider's message is kept unmodified.
	KindProviderRejected ErrorKind = "provider_rejected"
)

// ErrUnknownProvider is wrapped by the factory's error for names it does
// not recognize.
var ErrUnknownProvider = errors.New("unknown provider")

// Error is a classified provider failure.
type Error struct {
	Kind       ErrorKind
	Provider   catalog.Provider
	StatusCode int
	Message    string
	Err        error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

func malformed(format string, args ...any) *Error {
	return &Error{Kind: KindMalformedResponse, Message: fmt.Sprintf(format, args...)}
}

// ---------------------------------------------------------------------------
// Provider error envelopes
// ---------------------------------------------------------------------------

// providerMessage extracts the human-readable message from an error
// response body. OpenAI, OpenRouter, Anthropic and Gemini all use the
// {"error": {"message": "..."}} envelope, which go-openai's ErrorResponse
// decodes (including numeric codes and array-valued messages). Some local
// servers send {"error": "..."} instead. Anything else is returned as the
// raw body so nothing the provider said is lost.
func providerMessage(body []byte, status string) string {
	var envelope openai.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}

	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}

	if raw := strings.TrimSpace(string(body)); raw != "" {
		return raw
	}
	return status
}

// statusText formats a status code the way net/http reports it, for
// responses that came back without a body.
func statusText(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}
