package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/howard-nolan/llmrevise/internal/catalog"
	"github.com/howard-nolan/llmrevise/internal/cost"
	"github.com/howard-nolan/llmrevise/internal/metrics"
	"github.com/howard-nolan/llmrevise/internal/probe"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

// ---------------------------------------------------------------------------
// Request / response bodies
// ---------------------------------------------------------------------------

// reviseRequest is the body of POST /v1/revise. Provider and Model are
// optional: an empty provider means the configured default_provider, and
// an empty model means that provider's first catalog model.
//
// The validate tags are read by go-playground/validator in decode.
type reviseRequest struct {
	Provider        string  `json:"provider"`
	Model           string  `json:"model"`
	Instructions    string  `json:"instructions" validate:"required"`
	SelectedText    string  `json:"selected_text" validate:"required"`
	FullContext     string  `json:"full_context"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens" validate:"gte=0"`
}

// reviseResponse is the generation result plus, for priced models, what
// the call cost.
type reviseResponse struct {
	provider.GenerateResult
	Cost *cost.Estimate `json:"cost,omitempty"`
}

// costRequest is the body of POST /v1/cost: a model and token counts,
// priced from the catalog with no provider call.
type costRequest struct {
	Model        string `json:"model" validate:"required"`
	InputTokens  int    `json:"input_tokens" validate:"gte=0"`
	OutputTokens int    `json:"output_tokens" validate:"gte=0"`
}

// modelsResponse carries the catalog version so clients can tell when
// the model list changed under them.
type modelsResponse struct {
	Version string              `json:"version"`
	Models  []catalog.ModelSpec `json:"models"`
}

// errorResponse is the body of every non-generation error, e.g. bad
// JSON or an unknown provider.
type errorResponse struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// handleHealth is a liveness probe. It never calls out to providers; use
// the probe endpoint for that.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "ok",
		"catalog_version": s.catalog.Version(),
	})
}

// handleModels lists the catalog, optionally filtered with ?provider=.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	resp := modelsResponse{Version: s.catalog.Version(), Models: []catalog.ModelSpec{}}

	if name := r.URL.Query().Get("provider"); name != "" {
		p := catalog.Provider(strings.ToLower(name))
		models := s.catalog.ListModels(p)
		if len(models) == 0 {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown provider %q", name))
			return
		}
		resp.Models = models
	} else {
		for _, p := range s.catalog.Providers() {
			resp.Models = append(resp.Models, s.catalog.ListModels(p)...)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRevise runs one generation. Failed generations still answer with
// the full result body, under a status derived from the error kind, so a
// client always sees error_kind and error_message next to the model that
// was tried.
//
// The flow:
//  1. Decode and validate the JSON body
//  2. Pick the adapter (request's provider, or the configured default)
//  3. Run exactly one generation
//  4. On success, attach the cost estimate for priced models
func (s *Server) handleRevise(w http.ResponseWriter, r *http.Request) {
	// Step 1: Decode. decode has already answered if this fails.
	var req reviseRequest
	if !s.decode(w, r, &req) {
		return
	}

	// Step 2: Pick the adapter.
	name := req.Provider
	if name == "" {
		name = s.cfg.DefaultProvider
	}
	a, ok := s.adapter(name)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown provider %q", name))
		return
	}

	// Step 3: Generate. r.Context() is canceled if the client goes away,
	// which aborts the outbound call too.
	res := a.Generate(r.Context(), provider.GenerateRequest{
		Model:           req.Model,
		Instructions:    req.Instructions,
		SelectedText:    req.SelectedText,
		FullContext:     req.FullContext,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	})

	resp := reviseResponse{GenerateResult: res}
	if !res.Succeeded {
		writeJSON(w, statusFor(res.ErrorKind), resp)
		return
	}

	// Step 4: Price it. Unpriced models (local ones, say) simply get no
	// cost field.
	if est, ok := s.estimator.Estimate(*res.Usage, res.Model); ok {
		resp.Cost = &est
		metrics.CostUSD.WithLabelValues(string(res.Provider), res.Model).Add(est.TotalCostUSD.InexactFloat64())
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleProbe tests one provider's connection. It always answers 200:
// an unreachable provider is a probe result with ok=false, not an HTTP
// error. Only an unknown provider name is a 404.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	a, ok := s.adapter(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown provider %q", name))
		return
	}

	writeJSON(w, http.StatusOK, probe.Run(r.Context(), a))
}

// handleCost prices a token count without calling any provider.
func (s *Server) handleCost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	if !s.decode(w, r, &req) {
		return
	}

	est, ok := s.estimator.Estimate(provider.Usage{
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		TotalTokens:  req.InputTokens + req.OutputTokens,
	}, req.Model)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no pricing for model %q", req.Model))
		return
	}

	writeJSON(w, http.StatusOK, est)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// adapter looks up a provider by name, ignoring case and surrounding
// whitespace.
func (s *Server) adapter(name string) (provider.Adapter, bool) {
	a, ok := s.adapters[catalog.Provider(strings.ToLower(strings.TrimSpace(name)))]
	return a, ok
}

// decode reads a JSON body into dst and validates it. On failure it has
// already written the error response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage renders validator errors as "field: rule" pairs using
// JSON field names.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must be %s %s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// statusFor maps an error kind to the HTTP status the API answers with.
func statusFor(kind provider.ErrorKind) int {
	switch kind {
	case provider.KindNotConfigured:
		return http.StatusServiceUnavailable
	case provider.KindInvalidModel:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// writeJSON sets the header and status before encoding; once the body
// starts, the status can no longer change.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
