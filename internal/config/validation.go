package config

import (
	"fmt"
	"log/slog"
	"os"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
//
// The API key check makes startup fail before any listener binds or any
// store dials out; the model and conversation knobs are range checked because
// bad values would otherwise surface as confusing provider errors mid-request.
// Database settings and the HTTP port pass through unchecked - a wrong host,
// port, or credential surfaces as a connection error from the pool, and a bad
// listener port surfaces at bind time.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. API key validation (required for all model and embedding operations).
	// The Genkit OpenAI plugin reads this variable itself; checking here keeps
	// the failure at process start instead of on the first request.
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required\n"+
			"Create an API key at: https://platform.openai.com/api-keys",
			ErrMissingAPIKey)
	}

	// 2. Model configuration validation
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 128000 {
		return fmt.Errorf("%w: must be between 1 and 128,000, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.HistoryRuns < 1 || c.HistoryRuns > MaxAllowedHistoryRuns {
		return fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidHistoryRuns, MaxAllowedHistoryRuns, c.HistoryRuns)
	}

	if c.MaxTurns < 1 || c.MaxTurns > 10 {
		return fmt.Errorf("%w: must be between 1 and 10, got %d", ErrInvalidMaxTurns, c.MaxTurns)
	}

	// 3. RAG configuration validation
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// 4. Database settings are not rejected here. Empty passwords are allowed
	// (local trust auth); the default dev password only gets a warning so
	// development stays frictionless.
	if c.PostgresPassword == "swimbench_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"hint", "set DATABASE_PASSWORD for production deployments")
	}

	// 5. Knowledge source validation
	for i, src := range c.KnowledgeSources {
		if err := src.validate(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}

	return nil
}
