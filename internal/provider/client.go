package provider

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// client is the state every adapter variant shares: its settings and the
// collaborators injected through Options. Variants embed it by value, so
// copying an adapter copies its settings while the resty client (and
// therefore the connection pool) stays shared.
type client struct {
	provider catalog.Provider
	settings Settings
	http     *resty.Client
	catalog  *catalog.Catalog
	log      zerolog.Logger
	strict   bool
}

func newClient(p catalog.Provider, s Settings, opts []Option) client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if hc == nil {
		hc = NewHTTPClient(0)
	}

	rc := resty.NewWithClient(hc).SetLogger(restyLogger{o.log})

	return client{
		provider: p,
		settings: s,
		http:     rc,
		catalog:  o.catalog,
		log:      o.log.With().Str("provider", string(p)).Logger(),
		strict:   o.strict,
	}
}

// withSettings returns a copy of c using s. This is the whole of
// copy-on-configure: nothing else about the adapter changes.
func (c client) withSettings(s Settings) client {
	c.settings = s
	return c
}

func (c *client) base() *client { return c }

// Name returns the provider identifier.
func (c *client) Name() catalog.Provider { return c.provider }

// ListAvailableModelIdentifiers projects the provider's catalog slice.
func (c *client) ListAvailableModelIdentifiers() []string {
	models := c.catalog.ListModels(c.provider)
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.APIIdentifier)
	}
	return ids
}

// resolveModel looks the identifier up in this provider's catalog slice.
func (c *client) resolveModel(id string) (catalog.ModelSpec, bool) {
	return c.catalog.Lookup(c.provider, id)
}

// wireModel is the model string sent to the provider.
func (c *client) wireModel(spec catalog.ModelSpec) string {
	return spec.APIIdentifier
}

// post sends one JSON request. It performs no retries. Transport errors
// and non-2xx statuses come back as classified *Errors; on success the
// raw body is returned for the variant to parse.
func (c *client) post(ctx context.Context, url string, headers map[string]string, body any) ([]byte, int, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers).
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransportFailure, Message: err.Error(), Err: err}
	}

	if !resp.IsSuccess() {
		return nil, resp.StatusCode(), &Error{
			Kind:       KindProviderRejected,
			StatusCode: resp.StatusCode(),
			Message:    providerMessage(resp.Body(), statusText(resp.StatusCode())),
		}
	}

	return resp.Body(), resp.StatusCode(), nil
}

// bearer builds the Authorization header value for hosted APIs.
func bearer(apiKey string) string {
	return fmt.Sprintf("Bearer %s", apiKey)
}

// restyLogger routes resty's internal warnings into zerolog.
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
