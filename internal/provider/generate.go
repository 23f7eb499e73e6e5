package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/howard-nolan/llmrevise/internal/catalog"
	"github.com/howard-nolan/llmrevise/internal/metrics"
)

var tracer = otel.Tracer("github.com/howard-nolan/llmrevise/internal/provider")

// wire is what a variant supplies on top of the Adapter contract: how
// to address, authenticate, encode and decode one provider's API. The
// shared generate pipeline drives it.
type wire interface {
	Adapter

	base() *client
	resolveModel(id string) (catalog.ModelSpec, bool)
	wireModel(spec catalog.ModelSpec) string

	endpoint(model string) string
	headers() map[string]string
	body(call wireCall) any

	// parse decodes a 2xx body. Failures must be *Errors of kind
	// KindMalformedResponse or KindProviderRejected.
	parse(raw []byte) (string, Usage, error)
}

// wireCall is everything a variant needs to encode one request.
type wireCall struct {
	Spec        catalog.ModelSpec
	Model       string // wire model string
	Prompt      prompt
	Temperature float64
	MaxTokens   int
}

// Probe parameters used by TestConnection.
const (
	probePrompt    = "Reply with the single word OK."
	probeMaxTokens = 16
)

// generate is the pipeline shared by every variant:
//
//	resolve model → build prompt → POST → classify failure or parse success
//
// It always returns a result; nothing below this boundary escapes as a
// panic or error.
func generate(ctx context.Context, w wire, req GenerateRequest) GenerateResult {
	c := w.base()
	start := time.Now()

	res := GenerateResult{
		Provider:       w.Name(),
		RequestedModel: req.Model,
		CallID:         uuid.NewString(),
	}
	log := c.log.With().Str("call_id", res.CallID).Logger()

	ctx, span := tracer.Start(ctx, "provider.generate", trace.WithAttributes(
		attribute.String("llm.provider", string(res.Provider)),
		attribute.String("llm.requested_model", req.Model),
		attribute.Bool("llm.probe", req.IsProbe),
	))
	defer span.End()

	// finish stamps the duration and records the outcome in every sink
	// (log, metrics, span) exactly once.
	finish := func(res GenerateResult) GenerateResult {
		res.Duration = time.Since(start)
		record(res, span)
		if res.Succeeded {
			log.Info().
				Str("model", res.Model).
				Int("input_tokens", res.Usage.InputTokens).
				Int("output_tokens", res.Usage.OutputTokens).
				Dur("duration", res.Duration).
				Msg("generation completed")
		} else {
			log.Warn().
				Str("model", res.Model).
				Str("error_kind", string(res.ErrorKind)).
				Int("status", res.StatusCode).
				Str("error", res.ErrorMessage).
				Dur("duration", res.Duration).
				Msg("generation failed")
		}
		return res
	}

	// Step 1: Refuse early if the adapter cannot possibly succeed.
	if !w.IsReady() {
		return finish(fail(res, &Error{
			Kind:    KindNotConfigured,
			Message: fmt.Sprintf("%s is not configured", res.Provider),
		}))
	}

	// Step 2: Resolve the model against this provider's catalog slice.
	// An empty identifier asks for the provider default and is not a
	// substitution; only a named model that misses is flagged.
	spec, ok := w.resolveModel(req.Model)
	if !ok {
		if req.Model != "" && c.strict {
			return finish(fail(res, &Error{
				Kind:    KindInvalidModel,
				Message: fmt.Sprintf("model %q is not available for %s", req.Model, res.Provider),
			}))
		}
		def, found := c.catalog.DefaultModel(res.Provider)
		if !found {
			return finish(fail(res, &Error{
				Kind:    KindInvalidModel,
				Message: fmt.Sprintf("catalog has no models for %s", res.Provider),
			}))
		}
		spec = def
	}
	if !ok && req.Model != "" {
		res.ModelSubstituted = true
		metrics.ModelSubstitutions.WithLabelValues(string(res.Provider)).Inc()
		log.Warn().
			Str("requested_model", req.Model).
			Str("model", spec.APIIdentifier).
			Msg("model not in catalog, using provider default")
	}
	res.Model = w.wireModel(spec)
	span.SetAttributes(attribute.String("llm.model", res.Model))

	// Step 3: Build the prompt and the provider-neutral call description.
	call := wireCall{
		Spec:        spec,
		Model:       res.Model,
		Prompt:      buildPrompt(req),
		Temperature: clampTemperature(req.Temperature),
		MaxTokens:   outputCeiling(req.MaxOutputTokens, spec),
	}
	if spec.ContextWindow > 0 && call.Prompt.approxTokens()+call.MaxTokens > spec.ContextWindow {
		log.Warn().
			Int("approx_prompt_tokens", call.Prompt.approxTokens()).
			Int("context_window", spec.ContextWindow).
			Msg("prompt may exceed the model's context window")
	}

	// Step 4: One HTTP call, no retry.
	raw, status, err := c.post(ctx, w.endpoint(call.Model), w.headers(), w.body(call))
	res.StatusCode = status
	if err != nil {
		return finish(fail(res, err))
	}

	// Step 5: Decode the provider envelope into text + usage.
	text, usage, err := w.parse(raw)
	if err != nil {
		return finish(fail(res, err))
	}

	res.Succeeded = true
	res.Text = text
	res.Usage = &usage
	return finish(res)
}

// fail fills the error fields of res from err. Unclassified errors are
// treated as malformed responses, since every other kind is assigned
// explicitly where it is detected.
func fail(res GenerateResult, err error) GenerateResult {
	var pe *Error
	if !errors.As(err, &pe) {
		pe = &Error{Kind: KindMalformedResponse, Message: err.Error()}
	}
	res.Succeeded = false
	res.Text = ""
	res.Usage = nil
	res.ErrorKind = pe.Kind
	res.ErrorMessage = pe.Message
	if pe.StatusCode != 0 {
		res.StatusCode = pe.StatusCode
	}
	return res
}

// record exports the outcome to prometheus and the trace span.
func record(res GenerateResult, span trace.Span) {
	p := string(res.Provider)
	outcome := "success"
	if !res.Succeeded {
		outcome = string(res.ErrorKind)
	}
	metrics.GenerateTotal.WithLabelValues(p, outcome).Inc()

	if res.Model != "" {
		metrics.GenerateDuration.WithLabelValues(p, res.Model).Observe(res.Duration.Seconds())
	}

	if !res.Succeeded {
		span.SetStatus(codes.Error, res.ErrorMessage)
		span.SetAttributes(attribute.String("llm.error_kind", string(res.ErrorKind)))
		return
	}

	metrics.TokensTotal.WithLabelValues(p, res.Model, "input").Add(float64(res.Usage.InputTokens))
	metrics.TokensTotal.WithLabelValues(p, res.Model, "output").Add(float64(res.Usage.OutputTokens))
	span.SetAttributes(
		attribute.Int("llm.usage.input_tokens", res.Usage.InputTokens),
		attribute.Int("llm.usage.output_tokens", res.Usage.OutputTokens),
		attribute.Bool("llm.model_substituted", res.ModelSubstituted),
	)
}

// testConnection is the shared TestConnection body: no network call when
// the adapter is not ready, otherwise a probe against the default model.
func testConnection(ctx context.Context, a Adapter) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	if !a.IsReady() {
		return false
	}

	var model string
	if ids := a.ListAvailableModelIdentifiers(); len(ids) > 0 {
		model = ids[0]
	}

	res := a.Generate(ctx, GenerateRequest{
		Model:           model,
		Instructions:    probePrompt,
		MaxOutputTokens: probeMaxTokens,
		IsProbe:         true,
	})
	return res.Succeeded && res.Text != ""
}

// normalizeUsage fills TotalTokens from its parts when the provider left
// it out. Absent counters are already zero.
func normalizeUsage(input, output, total int) Usage {
	if total == 0 {
		total = input + output
	}
	return Usage{InputTokens: input, OutputTokens: output, TotalTokens: total}
}
