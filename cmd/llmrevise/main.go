// Package main is the entry point for the llmrevise CLI and HTTP API.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/howard-nolan/llmrevise/internal/catalog"
	"github.com/howard-nolan/llmrevise/internal/config"
	"github.com/howard-nolan/llmrevise/internal/logging"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

var version = "dev"

// app is the state shared by every subcommand, populated from config in
// the root command's PersistentPreRunE.
type app struct {
	configPath string
	jsonOut    bool

	cfg      *config.Config
	log      zerolog.Logger
	adapters map[catalog.Provider]provider.Adapter
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "llmrevise",
		Short: "Revise text with hosted or local LLMs",
		Long: `llmrevise sends a passage plus editing instructions to an LLM provider
and prints the revised text.

Providers: openrouter, openai, anthropic, google, local.
Credentials come from the config file (--config) or LLMREVISE_ environment
variables, e.g. LLMREVISE_PROVIDERS_OPENROUTER_API_KEY.

Examples:
  llmrevise revise -i "Make it formal" "hey, can u send the report"
  echo "draft text" | llmrevise revise -p local -i "Fix grammar"
  llmrevise probe
  llmrevise models -p openai
  llmrevise cost anthropic/claude-3.5-sonnet --input 12000 --output 800
  llmrevise serve`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath(), "Path to config file (empty for env only)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Output as JSON")

	root.AddCommand(
		reviseCmd(a),
		probeCmd(a),
		modelsCmd(a),
		costCmd(a),
		serveCmd(a),
	)

	return root
}

// load reads config, builds the logger and one adapter per provider.
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	log, err := logging.Stderr(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	adapters, err := buildAdapters(cfg, log)
	if err != nil {
		return err
	}

	a.cfg, a.log, a.adapters = cfg, log, adapters
	return nil
}

// buildAdapters creates one adapter per supported provider. Providers
// missing from config still get an adapter; it reports not_configured.
// All adapters share one HTTP client and therefore one connection pool.
func buildAdapters(cfg *config.Config, log zerolog.Logger) (map[catalog.Provider]provider.Adapter, error) {
	opts := []provider.Option{
		provider.WithHTTPClient(provider.NewHTTPClient(cfg.HTTP.Timeout)),
		provider.WithLogger(log),
	}
	if cfg.StrictModels {
		opts = append(opts, provider.WithStrictModels())
	}

	adapters := make(map[catalog.Provider]provider.Adapter)
	for _, name := range provider.Names() {
		a, err := provider.New(string(name), cfg.Providers[string(name)].Settings(), opts...)
		if err != nil {
			return nil, err
		}
		adapters[name] = a
	}
	return adapters, nil
}

// adapter looks up a provider by name, defaulting to the configured one.
func (a *app) adapter(name string) (provider.Adapter, error) {
	if name == "" {
		name = a.cfg.DefaultProvider
	}
	ad, ok := a.adapters[catalog.Provider(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		// provider.New produces the canonical unknown-provider error.
		_, err := provider.New(name, provider.Settings{})
		if err == nil {
			err = fmt.Errorf("provider %q is not available", name)
		}
		return nil, err
	}
	return ad, nil
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// defaultConfigPath uses ./config.yaml when it exists and otherwise runs
// from environment variables alone.
func defaultConfigPath() string {
	if _, err := os.Stat("config.yaml"); errors.Is(err, os.ErrNotExist) {
		return ""
	}
	return "config.yaml"
}
