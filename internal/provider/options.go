package provider

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// Option customizes an adapter at construction time.
type Option func(*options)

type options struct {
	httpClient *http.Client
	log        zerolog.Logger
	catalog    *catalog.Catalog
	strict     bool
}

func defaultOptions() options {
	return options{
		log:     zerolog.Nop(),
		catalog: catalog.Default(),
	}
}

// WithHTTPClient sets the HTTP client used for provider calls. Tests pass
// an httptest or cassette-backed client; main passes one with the
// configured timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithCatalog replaces the default model catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithStrictModels makes an unresolved model identifier fail with
// KindInvalidModel instead of falling back to the provider's default.
func WithStrictModels() Option {
	return func(o *options) { o.strict = true }
}

// NewHTTPClient returns a client with connect and header timeouts suited
// to slow LLM responses. timeout bounds the whole request; zero means
// 120s.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second, // connect timeout
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}
