// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. .env file in the working directory (loaded once, never overrides real env)
//  3. Config file (./config.yaml, optional)
//  4. Default values
//
// Main configuration categories:
//   - Model: OpenAI model selection, temperature, max tokens, embedder
//   - Storage: PostgreSQL connection (see storage.go)
//   - Knowledge: ingestion source list (see knowledge.go)
//   - Server: HTTP port, environment tag, CORS, rate limiting
//   - Observability: OTLP trace export endpoint
//
// Error Handling:
//   - Sentinel errors for Go-idiomatic checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
//
// Security: sensitive fields are masked in MarshalJSON/String.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the OpenAI API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidHistoryRuns indicates the history depth is out of range.
	ErrInvalidHistoryRuns = errors.New("invalid history runs")

	// ErrInvalidMaxTurns indicates the tool-turn limit is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidKnowledgeSource indicates a knowledge source entry is malformed.
	ErrInvalidKnowledgeSource = errors.New("invalid knowledge source")
)

const (
	// EnvDevelopment is the default deployment environment tag.
	EnvDevelopment = "development"

	// EnvProduction enables the permissive CORS policy on the HTTP server.
	EnvProduction = "production"
)

const (
	// DefaultModelName is the chat model used for benchmarking conversations.
	DefaultModelName = "gpt-4o"

	// DefaultEmbedderModel produces 1536-dimension vectors matching the
	// documents table schema; see knowledge.VectorDimension.
	DefaultEmbedderModel = "text-embedding-3-small"

	// DefaultHistoryRuns is how many prior request/response exchanges the
	// agent loads into context for each turn.
	DefaultHistoryRuns = 20

	// MaxAllowedHistoryRuns bounds history loading to prevent OOM on
	// pathological sessions.
	MaxAllowedHistoryRuns = 100
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys, tokens), update MarshalJSON.
type Config struct {
	// Model configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"` // OpenAI model identifier (e.g. "gpt-4o")
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Conversation configuration
	HistoryRuns int `mapstructure:"history_runs" json:"history_runs"`
	MaxTurns    int `mapstructure:"max_turns" json:"max_turns"`

	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// RAG configuration
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Knowledge ingestion (see knowledge.go). KnowledgeSourcesJSON, when set,
	// replaces the built-in source list; parsed in Load.
	KnowledgeSourcesJSON string   `mapstructure:"knowledge_sources" json:"-"`
	KnowledgeSources     []Source `mapstructure:"-" json:"knowledge_sources"`

	// Fetcher configuration for knowledge ingestion
	FetchParallelism int `mapstructure:"fetch_parallelism" json:"fetch_parallelism"`
	FetchDelayMs     int `mapstructure:"fetch_delay_ms" json:"fetch_delay_ms"`
	FetchTimeoutMs   int `mapstructure:"fetch_timeout_ms" json:"fetch_timeout_ms"`

	// Server configuration
	Environment string  `mapstructure:"environment" json:"environment"` // "development" or "production"
	Port        int     `mapstructure:"port" json:"port"`
	TrustProxy  bool    `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For (set true behind reverse proxy)
	RateLimit   float64 `mapstructure:"rate_limit" json:"rate_limit"`   // Requests per second per IP
	RateBurst   int     `mapstructure:"rate_burst" json:"rate_burst"`

	// Observability configuration. Empty endpoint disables trace export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`
}

// Load loads configuration.
// Priority: Environment variables > .env file > config file > default values.
func Load() (*Config, error) {
	// Load .env if present. Real environment variables always win; a missing
	// file is not an error (matches local-dev and container deployments).
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults", "config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Parse DATABASE_URL if set (highest priority for PostgreSQL config)
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Resolve the knowledge source list (env JSON override or built-ins)
	sources, err := parseKnowledgeSources(cfg.KnowledgeSourcesJSON)
	if err != nil {
		return nil, fmt.Errorf("parsing knowledge sources: %w", err)
	}
	cfg.KnowledgeSources = sources

	// CRITICAL: Validate immediately (fail-fast, before any listener binds)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Model defaults
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("temperature", 0.1)
	viper.SetDefault("max_tokens", 4096)
	viper.SetDefault("history_runs", DefaultHistoryRuns)
	viper.SetDefault("max_turns", 5)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "swimbench")
	viper.SetDefault("postgres_password", "swimbench_dev_password")
	viper.SetDefault("postgres_db_name", "swimbench")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// RAG defaults
	viper.SetDefault("embedder_model", DefaultEmbedderModel)

	// Knowledge fetcher defaults
	viper.SetDefault("fetch_parallelism", 2)
	viper.SetDefault("fetch_delay_ms", 1000)
	viper.SetDefault("fetch_timeout_ms", 30000)

	// Server defaults
	viper.SetDefault("environment", EnvDevelopment)
	viper.SetDefault("port", 8000)
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_limit", 10.0)
	viper.SetDefault("rate_burst", 30)

	// Observability defaults (empty endpoint = tracing disabled)
	viper.SetDefault("otlp_endpoint", "")
	viper.SetDefault("service_name", "swimbench")
}

// bindEnvVariables binds environment variables explicitly.
//
// The unprefixed names (DATABASE_*, ENV, PORT) are the deployment contract;
// SWIMBENCH_-prefixed names cover tuning knobs. OPENAI_API_KEY is read
// directly by the Genkit OpenAI plugin, not via Viper; Validate() checks its
// presence so the process refuses to start without it.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	// If this panics, it's a BUG in our code, not a runtime error
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	// Deployment contract
	mustBind("environment", "ENV")
	mustBind("port", "PORT")
	mustBind("postgres_host", "DATABASE_HOST")
	mustBind("postgres_port", "DATABASE_PORT")
	mustBind("postgres_user", "DATABASE_USER")
	mustBind("postgres_password", "DATABASE_PASSWORD")
	mustBind("postgres_db_name", "DATABASE_NAME")

	// Tuning knobs
	mustBind("model_name", "SWIMBENCH_MODEL_NAME")
	mustBind("temperature", "SWIMBENCH_TEMPERATURE")
	mustBind("max_tokens", "SWIMBENCH_MAX_TOKENS")
	mustBind("history_runs", "SWIMBENCH_HISTORY_RUNS")
	mustBind("max_turns", "SWIMBENCH_MAX_TURNS")
	mustBind("embedder_model", "SWIMBENCH_EMBEDDER_MODEL")
	mustBind("knowledge_sources", "SWIMBENCH_KNOWLEDGE_SOURCES")
	mustBind("fetch_parallelism", "SWIMBENCH_FETCH_PARALLELISM")
	mustBind("fetch_delay_ms", "SWIMBENCH_FETCH_DELAY_MS")
	mustBind("fetch_timeout_ms", "SWIMBENCH_FETCH_TIMEOUT_MS")
	mustBind("postgres_ssl_mode", "SWIMBENCH_POSTGRES_SSL_MODE")
	mustBind("trust_proxy", "SWIMBENCH_TRUST_PROXY")
	mustBind("rate_limit", "SWIMBENCH_RATE_LIMIT")
	mustBind("rate_burst", "SWIMBENCH_RATE_BURST")
	mustBind("otlp_endpoint", "SWIMBENCH_OTLP_ENDPOINT")
	mustBind("service_name", "SWIMBENCH_SERVICE_NAME")

	// NOTE: OPENAI_API_KEY is read directly by the Genkit OpenAI plugin.
	// NOTE: DATABASE_URL is read in parseDatabaseURL and overrides DATABASE_*.
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid substring matching against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Shows first 2 and last 2 characters, masks the rest.
// SECURITY: secrets <=8 chars are fully masked to prevent substring attacks.
//
// THREAT MODEL: this defends against accidental logging of real secrets.
// It is not cryptographically secure - if logs are compromised, rotate secrets.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	prefix := make([]byte, 2)
	suffix := make([]byte, 2)
	copy(prefix, s[:2])
	copy(suffix, s[len(s)-2:])
	return string(prefix) + "<" + maskedValue + ">" + string(suffix)
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - PostgresPassword
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "openai/gpt-4o". A ModelName already containing "/" is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return "openai/" + c.ModelName
}

// IsProduction reports whether the deployment environment tag is production.
// The permissive CORS policy is enabled only in this mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
