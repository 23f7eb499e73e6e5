package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with args against an env-only configuration.
func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("LLMREVISE_LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	root := newRootCmd(&app{})
	root.SetArgs(append([]string{"--config", ""}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)

	err = root.Execute()
	return out.String(), errOut.String(), err
}

func fakeOpenRouter(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Could you send the report?"}}],
			"usage":{"prompt_tokens":120,"completion_tokens":8}}`)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("LLMREVISE_PROVIDERS_OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("LLMREVISE_PROVIDERS_OPENROUTER_BASE_URL", srv.URL)
	return srv
}

func TestReviseCommand(t *testing.T) {
	fakeOpenRouter(t)

	stdout, stderr, err := run(t, "", "revise", "-i", "Make it polite", "send report")

	require.NoError(t, err)
	assert.Equal(t, "Could you send the report?\n", stdout)
	assert.Contains(t, stderr, "anthropic/claude-3.5-sonnet")
	assert.Contains(t, stderr, "120 in / 8 out tokens")
	assert.NotContains(t, stderr, "is not available")
}

func TestReviseCommand_UnknownModelWarns(t *testing.T) {
	fakeOpenRouter(t)

	_, stderr, err := run(t, "", "revise", "-i", "x", "-m", "gpt-4o", "y")

	require.NoError(t, err)
	assert.Contains(t, stderr, `model "gpt-4o" is not available for openrouter`)
}

func TestReviseCommand_Stdin(t *testing.T) {
	fakeOpenRouter(t)

	stdout, _, err := run(t, "send report\n", "revise", "-i", "Make it polite")

	require.NoError(t, err)
	assert.Equal(t, "Could you send the report?\n", stdout)
}

func TestReviseCommand_JSON(t *testing.T) {
	fakeOpenRouter(t)

	stdout, _, err := run(t, "", "--json", "revise", "-i", "x", "-m", "openai/gpt-4o-mini", "y")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, true, res["succeeded"])
	assert.Equal(t, "openai/gpt-4o-mini", res["model"])
	assert.NotNil(t, res["cost"])
}

func TestReviseCommand_NotConfigured(t *testing.T) {
	_, _, err := run(t, "", "revise", "-p", "anthropic", "-i", "x", "y")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_configured")
}

func TestReviseCommand_Validation(t *testing.T) {
	_, _, err := run(t, "", "revise", "text without instructions")
	assert.Error(t, err)

	_, _, err = run(t, "   ", "revise", "-i", "x")
	assert.ErrorContains(t, err, "nothing to revise")

	_, _, err = run(t, "", "revise", "-p", "cohere", "-i", "x", "y")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestModelsCommand(t *testing.T) {
	stdout, _, err := run(t, "", "models", "-p", "anthropic")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PROVIDER")
	assert.Contains(t, lines[1], "claude-3-5-sonnet-latest")

	_, _, err = run(t, "", "models", "-p", "cohere")
	assert.Error(t, err)
}

func TestCostCommand(t *testing.T) {
	stdout, _, err := run(t, "", "cost", "anthropic/claude-3.5-sonnet", "--input", "1000000")

	require.NoError(t, err)
	assert.Contains(t, stdout, "input   $3")
	assert.Contains(t, stdout, "total   $3.00")

	_, _, err = run(t, "", "cost", "local-model", "--input", "10")
	assert.ErrorContains(t, err, "no pricing")
}

func TestProbeCommand(t *testing.T) {
	fakeOpenRouter(t)

	stdout, _, err := run(t, "", "--json", "probe", "openrouter", "google")
	require.NoError(t, err)

	var results []struct {
		Provider string `json:"provider"`
		OK       bool   `json:"ok"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "openrouter", results[0].Provider)
	assert.True(t, results[0].OK)
	assert.Equal(t, "google", results[1].Provider)
	assert.False(t, results[1].OK)
}
