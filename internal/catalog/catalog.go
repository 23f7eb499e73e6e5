// Package catalog holds the static model registry: every supported model,
// its wire identifier, limits, price and capabilities.
//
// The registry is declarative data (models.yaml, embedded at build time)
// parsed once at startup. After that it is read-only, so any number of
// goroutines can query it without locking.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM backend. The string value is the name used
// in configuration files, CLI flags and HTTP payloads.
type Provider string

const (
	OpenRouter Provider = "openrouter"
	Local      Provider = "local"
	OpenAI     Provider = "openai"
	Anthropic  Provider = "anthropic"
	Google     Provider = "google"
)

// known reports whether p is one of the providers above.
func (p Provider) known() bool {
	switch p {
	case OpenRouter, Local, OpenAI, Anthropic, Google:
		return true
	}
	return false
}

// ModelSpec describes one model. Values are never mutated after the
// catalog is loaded; callers get copies.
type ModelSpec struct {
	Provider        Provider `json:"provider"`
	DisplayName     string   `json:"display_name"`
	APIIdentifier   string   `json:"api_identifier"`
	ContextWindow   int      `json:"context_window"`
	MaxOutputTokens int      `json:"max_output_tokens"`

	// Prices are USD per million tokens. Both are nil when the model has
	// no published pricing (local models, for example). A nil price is
	// not the same thing as a zero price.
	InputCostPerMillion  *decimal.Decimal `json:"input_cost_per_million,omitempty"`
	OutputCostPerMillion *decimal.Decimal `json:"output_cost_per_million,omitempty"`

	Capabilities Capabilities `json:"capabilities"`
}

// HasPricing reports whether both input and output prices are published.
func (m ModelSpec) HasPricing() bool {
	return m.InputCostPerMillion != nil && m.OutputCostPerMillion != nil
}

// Catalog is an ordered, indexed set of ModelSpecs.
type Catalog struct {
	version    string
	providers  []Provider
	byProvider map[Provider][]ModelSpec
	byID       map[string]ModelSpec
}

// ---------------------------------------------------------------------------
// YAML shape, read only by Load.
// ---------------------------------------------------------------------------

// Providers are a list rather than a map so declaration order survives
// decoding; order is what makes the first model the default.
type catalogFile struct {
	Version   string         `yaml:"version"`
	Providers []providerFile `yaml:"providers"`
}

type providerFile struct {
	Name   string      `yaml:"name"`
	Models []modelFile `yaml:"models"`
}

// Prices are decoded as strings and parsed with decimal.NewFromString so
// "0.15" stays exactly 0.15 instead of passing through a float64.
type modelFile struct {
	DisplayName          string   `yaml:"display_name"`
	APIIdentifier        string   `yaml:"api_identifier"`
	ContextWindow        int      `yaml:"context_window"`
	MaxOutputTokens      int      `yaml:"max_output_tokens"`
	InputCostPerMillion  *string  `yaml:"input_cost_per_million"`
	OutputCostPerMillion *string  `yaml:"output_cost_per_million"`
	Capabilities         []string `yaml:"capabilities"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

//go:embed models.yaml
var embeddedModels []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the process-wide catalog built from the embedded
// models.yaml. The embedded data is part of the binary, so a parse
// failure is a programming error and panics (like regexp.MustCompile).
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(embeddedModels)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded models.yaml: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load parses catalog YAML. It rejects providers outside the Provider
// constants, duplicate API identifiers, models without an identifier,
// providers without models, and unknown capability names.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		version:    f.Version,
		byProvider: make(map[Provider][]ModelSpec),
		byID:       make(map[string]ModelSpec),
	}

	for _, pf := range f.Providers {
		p := Provider(pf.Name)
		if !p.known() {
			return nil, fmt.Errorf("unknown provider %q", pf.Name)
		}
		if _, dup := c.byProvider[p]; dup {
			return nil, fmt.Errorf("provider %q declared twice", p)
		}
		if len(pf.Models) == 0 {
			return nil, fmt.Errorf("provider %q has no models", p)
		}

		specs := make([]ModelSpec, 0, len(pf.Models))
		for _, mf := range pf.Models {
			spec, err := mf.toSpec(p)
			if err != nil {
				return nil, fmt.Errorf("provider %q: %w", p, err)
			}
			if existing, dup := c.byID[spec.APIIdentifier]; dup {
				return nil, fmt.Errorf("model %q declared by both %q and %q",
					spec.APIIdentifier, existing.Provider, p)
			}
			c.byID[spec.APIIdentifier] = spec
			specs = append(specs, spec)
		}

		c.providers = append(c.providers, p)
		c.byProvider[p] = specs
	}

	return c, nil
}

func (mf modelFile) toSpec(p Provider) (ModelSpec, error) {
	if mf.APIIdentifier == "" {
		return ModelSpec{}, fmt.Errorf("model %q has no api_identifier", mf.DisplayName)
	}

	spec := ModelSpec{
		Provider:        p,
		DisplayName:     mf.DisplayName,
		APIIdentifier:   mf.APIIdentifier,
		ContextWindow:   mf.ContextWindow,
		MaxOutputTokens: mf.MaxOutputTokens,
	}

	var err error
	if spec.InputCostPerMillion, err = parsePrice(mf.InputCostPerMillion); err != nil {
		return ModelSpec{}, fmt.Errorf("model %q input price: %w", mf.APIIdentifier, err)
	}
	if spec.OutputCostPerMillion, err = parsePrice(mf.OutputCostPerMillion); err != nil {
		return ModelSpec{}, fmt.Errorf("model %q output price: %w", mf.APIIdentifier, err)
	}

	if spec.Capabilities, err = ParseCapabilities(mf.Capabilities); err != nil {
		return ModelSpec{}, fmt.Errorf("model %q: %w", mf.APIIdentifier, err)
	}

	return spec, nil
}

func parsePrice(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative price %s", d)
	}
	return &d, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Version returns the catalog data version string.
func (c *Catalog) Version() string {
	return c.version
}

// Providers returns every provider in declaration order.
func (c *Catalog) Providers() []Provider {
	return append([]Provider(nil), c.providers...)
}

// ListModels returns the provider's models in declaration order, most
// preferred first. The slice is a copy; unknown providers yield nil.
func (c *Catalog) ListModels(p Provider) []ModelSpec {
	return append([]ModelSpec(nil), c.byProvider[p]...)
}

// FindByAPIIdentifier looks a model up by its wire identifier across all
// providers.
func (c *Catalog) FindByAPIIdentifier(id string) (ModelSpec, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Lookup is FindByAPIIdentifier restricted to one provider: a model that
// exists but belongs to another provider is reported as not found.
func (c *Catalog) Lookup(p Provider, id string) (ModelSpec, bool) {
	m, ok := c.byID[id]
	if !ok || m.Provider != p {
		return ModelSpec{}, false
	}
	return m, true
}

// DefaultModel returns the provider's first model.
func (c *Catalog) DefaultModel(p Provider) (ModelSpec, bool) {
	models := c.byProvider[p]
	if len(models) == 0 {
		return ModelSpec{}, false
	}
	return models[0], true
}
