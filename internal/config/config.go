// Package config parses service configuration from the environment and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Providers.
const (
	ProviderDeepSeek   = "deepseek"
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderEcho       = "echo"
)

// FallbackModelID is used for providers with no configured model.
const FallbackModelID = "deepseek-r1:7b"

// Default base URLs for the OpenAI-compatible providers.
const (
	DeepSeekBaseURL   = "https://api.deepseek.com/v1"
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Config holds service configuration.
type Config struct {
	Transport string `env:"SEQUENT_TRANSPORT" envDefault:"stdio" validate:"oneof=stdio http"`
	Host      string `env:"HOST"              envDefault:"0.0.0.0"`
	Port      int    `env:"PORT"              envDefault:"8090" validate:"gte=1,lte=65535"`
	LogFolder string `env:"LOG_FOLDER"        envDefault:"logs"`
	Debug     bool   `env:"DEBUG"             envDefault:"false"`

	Provider string `env:"LLM_PROVIDER" envDefault:"ollama"`
	BaseURL  string `env:"LLM_BASE_URL"`

	DeepSeekTeamModelID    string `env:"DEEPSEEK_TEAM_MODEL_ID"    envDefault:"deepseek-chat"`
	DeepSeekAgentModelID   string `env:"DEEPSEEK_AGENT_MODEL_ID"   envDefault:"deepseek-chat"`
	GroqTeamModelID        string `env:"GROQ_TEAM_MODEL_ID"        envDefault:"deepseek-r1-distill-llama-70b"`
	GroqAgentModelID       string `env:"GROQ_AGENT_MODEL_ID"       envDefault:"qwen-2.5-32b"`
	OpenRouterTeamModelID  string `env:"OPENROUTER_TEAM_MODEL_ID"  envDefault:"deepseek/deepseek-chat-v3-0324"`
	OpenRouterAgentModelID string `env:"OPENROUTER_AGENT_MODEL_ID" envDefault:"deepseek/deepseek-r1"`
	OllamaTeamModelID      string `env:"OLLAMA_TEAM_MODEL_ID"      envDefault:"hf-tool-thinking-qween3-14b-32k:latest"`
	OllamaAgentModelID     string `env:"OLLAMA_AGENT_MODEL_ID"     envDefault:"hf-tool-thinking-qween3-14b-32k:latest"`

	DeepSeekAPIKey   string `env:"DEEPSEEK_API_KEY"`
	GroqAPIKey       string `env:"GROQ_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	OllamaBaseURL    string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434/v1"`

	DatabaseURL string `env:"DATABASE_URL"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"1h" validate:"gt=0"`
	DelegateTimeout    time.Duration `env:"DELEGATE_TIMEOUT"     envDefault:"2m" validate:"gte=0"`
	DelegateAttempts   int           `env:"DELEGATE_ATTEMPTS"    envDefault:"1" validate:"gte=1"`
	SessionWindow      int           `env:"SESSION_WINDOW"       envDefault:"20" validate:"gte=0"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

var validate = validator.New()

// FromEnv reads the environment into a Config without validating it. A nil
// environ reads the process environment.
func FromEnv(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ParseConfig parses the environment, then lets flags override it. A nil
// environ reads the process environment.
func ParseConfig(fs *pflag.FlagSet, args []string, environ map[string]string) (Config, error) {
	cfg, err := FromEnv(environ)
	if err != nil {
		return Config{}, err
	}

	Bind(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Bind registers flags for the settings worth overriding per invocation.
// Current values become the flag defaults.
func Bind(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.Transport, "transport", "t", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP bind host (for HTTP transport)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP port (for HTTP transport)")
	fs.StringVar(&cfg.LogFolder, "log-folder", cfg.LogFolder, "Directory for rotated log files")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "LLM provider: deepseek, groq, openrouter, ollama or echo")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL URL for the step journal")
	fs.DurationVar(&cfg.DelegateTimeout, "delegate-timeout", cfg.DelegateTimeout, "Deadline for one coordinator call")
	fs.IntVar(&cfg.DelegateAttempts, "delegate-attempts", cfg.DelegateAttempts, "Coordinator attempts per step")
	fs.IntVar(&cfg.SessionWindow, "session-window", cfg.SessionWindow, "Coordinator conversation window in messages")
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid config: %s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TeamModelID returns the coordinator model for the configured provider.
func (c Config) TeamModelID() string {
	switch c.Provider {
	case ProviderDeepSeek:
		return c.DeepSeekTeamModelID
	case ProviderGroq:
		return c.GroqTeamModelID
	case ProviderOpenRouter:
		return c.OpenRouterTeamModelID
	case ProviderOllama:
		return c.OllamaTeamModelID
	default:
		return FallbackModelID
	}
}

// AgentModelID returns the specialist model for the configured provider.
func (c Config) AgentModelID() string {
	switch c.Provider {
	case ProviderDeepSeek:
		return c.DeepSeekAgentModelID
	case ProviderGroq:
		return c.GroqAgentModelID
	case ProviderOpenRouter:
		return c.OpenRouterAgentModelID
	case ProviderOllama:
		return c.OllamaAgentModelID
	default:
		return FallbackModelID
	}
}

// ProviderBaseURL returns the API base for the configured provider.
// LLM_BASE_URL overrides every provider.
func (c Config) ProviderBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	switch c.Provider {
	case ProviderDeepSeek:
		return DeepSeekBaseURL
	case ProviderGroq:
		return GroqBaseURL
	case ProviderOpenRouter:
		return OpenRouterBaseURL
	default:
		return c.OllamaBaseURL
	}
}

// APIKey returns the credential for the configured provider. Ollama needs
// none.
func (c Config) APIKey() string {
	switch c.Provider {
	case ProviderDeepSeek:
		return c.DeepSeekAPIKey
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	default:
		return ""
	}
}

// UsesModel reports whether steps are answered by a model rather than the
// echo coordinator.
func (c Config) UsesModel() bool {
	return c.Provider != ProviderEcho
}
