// Package config handles loading and validating llmrevise configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/howard-nolan/llmrevise/internal/provider"
)

// EnvPrefix marks environment variables that override config values.
const EnvPrefix = "LLMREVISE_"

// Config is the top-level configuration for llmrevise.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	HTTP      HTTPConfig      `koanf:"http"`
	Telemetry TelemetryConfig `koanf:"telemetry"`

	// DefaultProvider is used when a request names none.
	DefaultProvider string `koanf:"default_provider"`

	// StrictModels rejects unknown model identifiers instead of falling
	// back to the provider's default model.
	StrictModels bool `koanf:"strict_models"`

	Providers map[string]ProviderConfig `koanf:"providers" validate:"dive"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// HTTPConfig tunes the outbound client shared by all adapters.
type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
}

// TelemetryConfig enables OTLP trace export when OTLPEndpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	ServiceName  string `koanf:"service_name"`
	Insecure     bool   `koanf:"insecure"`
}

// ProviderConfig holds the settings for a single LLM provider. Only the
// fields relevant to a provider need to be set.
type ProviderConfig struct {
	APIKey     string `koanf:"api_key"`
	BaseURL    string `koanf:"base_url" validate:"omitempty,url"`
	Referer    string `koanf:"referer"`
	AppName    string `koanf:"app_name"`
	LocalHost  string `koanf:"local_host"`
	LocalPort  int    `koanf:"local_port" validate:"min=0,max=65535"`
	LocalModel string `koanf:"local_model"`
}

// Settings converts the provider section into adapter settings.
func (p ProviderConfig) Settings() provider.Settings {
	return provider.Settings{
		APIKey:     p.APIKey,
		BaseURL:    p.BaseURL,
		Referer:    p.Referer,
		AppName:    p.AppName,
		LocalHost:  p.LocalHost,
		LocalPort:  p.LocalPort,
		LocalModel: p.LocalModel,
	}
}

// Load reads configuration from a YAML file, layers environment variable
// overrides on top, and returns a fully populated Config. An empty path
// skips the file, leaving defaults plus environment.
func Load(path string) (*Config, error) {
	// Load .env file into the process environment (ignored if not present).
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Layer environment variables on top:
	//   LLMREVISE_SERVER_PORT             -> server.port
	//   LLMREVISE_SERVER_READ_TIMEOUT     -> server.read_timeout
	//   LLMREVISE_PROVIDERS_OPENAI_API_KEY -> providers.openai.api_key
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	// Expand ${VAR_NAME} placeholders. koanf doesn't do this itself.
	for name, p := range cfg.Providers {
		p.APIKey = expandEnv(p.APIKey)
		p.BaseURL = expandEnv(p.BaseURL)
		cfg.Providers[name] = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and that every configured provider
// is one llmrevise supports.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for name := range c.Providers {
		if !supported(name) {
			return fmt.Errorf("invalid config: providers.%s: %w", name, provider.ErrUnknownProvider)
		}
	}
	if c.DefaultProvider != "" && !supported(c.DefaultProvider) {
		return fmt.Errorf("invalid config: default_provider %q: %w", c.DefaultProvider, provider.ErrUnknownProvider)
	}

	return nil
}

func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 180 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 120 * time.Second
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "llmrevise"
	}
	if c.DefaultProvider == "" {
		c.DefaultProvider = "openrouter"
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
}

// envKey maps an environment variable name to a koanf key path. The
// first segment is the section; under providers the second segment is
// the provider name. Everything after that is one key, underscores kept.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))

	switch key {
	case "default_provider", "strict_models":
		return key
	}

	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	if section == "providers" {
		name, field, ok := strings.Cut(rest, "_")
		if !ok {
			return section + "." + rest
		}
		return section + "." + name + "." + field
	}
	return section + "." + rest
}

// expandEnv resolves a value of the exact form ${VAR} from the process
// environment. Anything else is returned unchanged.
func expandEnv(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(v[2 : len(v)-1])
	}
	return v
}

func supported(name string) bool {
	for _, p := range provider.Names() {
		if string(p) == name {
			return true
		}
	}
	return false
}
