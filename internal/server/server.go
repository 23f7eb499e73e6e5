// Package server sets up the HTTP router, middleware, and request handlers.
package server

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/howard-nolan/llmrevise/internal/catalog"
	"github.com/howard-nolan/llmrevise/internal/config"
	"github.com/howard-nolan/llmrevise/internal/cost"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

// maxBodyBytes bounds request bodies. Documents sent as full_context can
// be large, but not unbounded.
const maxBodyBytes = 4 << 20

// Server holds the HTTP router and all dependencies that handlers need.
// Handlers are methods on Server, so each one reaches its adapters,
// catalog and estimator through the receiver instead of globals.
//
// Nothing here is mutated after New returns, which is what lets chi run
// handlers for concurrent requests against the same Server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	adapters  map[catalog.Provider]provider.Adapter // one per provider name
	catalog   *catalog.Catalog
	estimator *cost.Estimator
	validate  *validator.Validate
	log       zerolog.Logger
}

// New creates a Server, wires up routes and middleware, and returns it
// ready to use as an http.Handler. adapters holds one adapter per
// provider the API should serve; unconfigured ones are fine and simply
// report not_configured.
func New(cfg *config.Config, adapters map[catalog.Provider]provider.Adapter, log zerolog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		adapters:  adapters,
		catalog:   catalog.Default(),
		estimator: cost.NewEstimator(nil),
		validate:  newValidator(),
		log:       log,
	}
	s.routes()
	return s
}

// newValidator reports fields by their JSON names so validation errors
// match what clients sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// routes builds the chi router with all middleware and route definitions,
// gathered in one method so the routing table is easy to scan.
//
// Everything under /v1 is the JSON API. /health and /metrics sit at the
// root because load balancers and Prometheus scrape them by fixed path.
func (s *Server) routes() {
	r := chi.NewRouter()

	// --- Global middleware ---
	// Middleware runs in the order it is registered, wrapping everything
	// registered after it.
	//
	// RequestID runs first so the logger can tag every line with it.
	// requestLogger writes one zerolog line and one counter increment per
	// request. Recoverer turns a handler panic into a 500 instead of
	// crashing the process.
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	// --- Routes ---
	// promhttp.Handler serves the default registry, which is where the
	// promauto collectors in internal/metrics register themselves.
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// r.Route mounts a sub-router: every pattern inside is relative to
	// /v1, and {provider} is read back with chi.URLParam.
	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Post("/revise", s.handleRevise)
		r.Post("/cost", s.handleCost)
		r.Post("/providers/{provider}/probe", s.handleProbe)
	})

	s.router = r
}

// ServeHTTP makes Server satisfy the http.Handler interface. Every incoming
// request flows through this method, and we just delegate to chi's router.
//
// This is what lets the serve command pass a Server straight to
// http.Server{Handler: srv}.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
