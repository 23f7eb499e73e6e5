package provider

import (
	"fmt"
	"strings"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// constructor builds a configured adapter. Storing constructors in a map
// keyed by provider name keeps New free of an if/else chain: supporting
// another provider means adding one entry here.
type constructor func(s Settings, opts ...Option) Adapter

var constructors = map[catalog.Provider]constructor{
	catalog.OpenRouter: func(s Settings, opts ...Option) Adapter { return NewOpenRouter(s, opts...) },
	catalog.Local:      func(s Settings, opts ...Option) Adapter { return NewLocal(s, opts...) },
	catalog.OpenAI:     func(s Settings, opts ...Option) Adapter { return NewOpenAI(s, opts...) },
	catalog.Anthropic:  func(s Settings, opts ...Option) Adapter { return NewAnthropic(s, opts...) },
	catalog.Google:     func(s Settings, opts ...Option) Adapter { return NewGoogle(s, opts...) },
}

// New returns the adapter for the named provider, configured with s.
// Names are matched case-insensitively. An unknown name yields an
// *Error of kind KindNotConfigured wrapping ErrUnknownProvider, so the
// caller can surface it without treating it as a crash.
func New(name string, s Settings, opts ...Option) (Adapter, error) {
	p := catalog.Provider(strings.ToLower(strings.TrimSpace(name)))

	build, ok := constructors[p]
	if !ok {
		return nil, &Error{
			Kind:    KindNotConfigured,
			Message: fmt.Sprintf("unknown provider %q (supported: %s)", name, strings.Join(namesAsStrings(), ", ")),
			Err:     ErrUnknownProvider,
		}
	}

	return build(s, opts...), nil
}

// Names lists the supported providers in catalog order.
func Names() []catalog.Provider {
	names := make([]catalog.Provider, 0, len(constructors))
	for _, p := range catalog.Default().Providers() {
		if _, ok := constructors[p]; ok {
			names = append(names, p)
		}
	}
	return names
}

func namesAsStrings() []string {
	var out []string
	for _, p := range Names() {
		out = append(out, string(p))
	}
	return out
}
