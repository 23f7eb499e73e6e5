package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want any
	}{
		{"openrouter", &OpenRouter{}},
		{"local", &Local{}},
		{"openai", &OpenAI{}},
		{"anthropic", &Anthropic{}},
		{"google", &Google{}},
		{"  OpenRouter ", &OpenRouter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.name, Settings{APIKey: "k"})
			require.NoError(t, err)
			assert.IsType(t, tt.want, a)
		})
	}
}

func TestNew_PassesSettings(t *testing.T) {
	a, err := New("openai", Settings{APIKey: "k"})
	require.NoError(t, err)
	assert.True(t, a.IsReady())
	assert.Equal(t, catalog.OpenAI, a.Name())
}

func TestNew_UnknownProvider(t *testing.T) {
	a, err := New("mistral", Settings{APIKey: "k"})

	assert.Nil(t, a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
	assert.True(t, IsKind(err, KindNotConfigured))
	assert.Contains(t, err.Error(), `"mistral"`)
	assert.Contains(t, err.Error(), "openrouter")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []catalog.Provider{
		catalog.OpenRouter,
		catalog.OpenAI,
		catalog.Anthropic,
		catalog.Google,
		catalog.Local,
	}, Names())
}
