package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/swimbench/swimbench/internal/session"
)

const (
	// Name is the unique identifier for the benchmarking agent.
	Name = "swimbench"

	// Description describes the agent's capabilities.
	Description = "Benchmarks swim times against motivational standards and explains where a swimmer stands."

	// fallbackResponseMessage is returned when the model produces an empty response.
	fallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
)

// StreamCallback is called for each chunk of a streaming response.
// Return an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Config contains all required parameters for the agent.
type Config struct {
	Genkit   *genkit.Genkit
	Sessions *session.Store
	Logger   *slog.Logger
	Tools    []ai.Tool // Pre-registered tools from Register* helpers

	// Generation settings
	ModelName   string  // Provider-qualified model name (e.g., "openai/gpt-4o")
	Temperature float64 // Sampling temperature
	MaxTurns    int     // Maximum agentic loop turns
	HistoryRuns int     // Conversation runs loaded as context per request

	// Resilience configuration
	RetryConfig          RetryConfig          // Model retry settings (zero-value uses defaults)
	CircuitBreakerConfig CircuitBreakerConfig // Circuit breaker settings (zero-value uses defaults)
	RateLimiter          *rate.Limiter        // Optional: proactive rate limiting (nil = use default)

	// Token management
	TokenBudget TokenBudget // Token budget for the context window (zero-value uses defaults)
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Agent is the conversational benchmarking assistant.
//
// Agent is stateless between requests; conversation context lives in the
// session store. All configuration values are captured immutably at
// construction time so concurrent requests share the agent safely.
type Agent struct {
	modelName   string
	temperature float64
	maxTurns    int
	historyRuns int

	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter

	tokenBudget TokenBudget

	g         *genkit.Genkit
	sessions  *session.Store
	logger    *slog.Logger
	tools     []ai.Tool
	toolRefs  []ai.ToolRef // Cached at construction (ai.Tool implements ai.ToolRef)
	toolNames string       // Cached as comma-separated for logging
}

// New creates an Agent with required configuration.
//
// Tools must already be registered with the Genkit instance; the agent only
// references them. The system prompt is a compiled-in constant.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	historyRuns := cfg.HistoryRuns
	if historyRuns <= 0 {
		historyRuns = 20
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	cbConfig := cfg.CircuitBreakerConfig
	if cbConfig.FailureThreshold == 0 {
		cbConfig = DefaultCircuitBreakerConfig()
	}

	tokenBudget := cfg.TokenBudget
	if tokenBudget.MaxHistoryTokens == 0 {
		tokenBudget = DefaultTokenBudget()
	}

	// Default: 10 requests/sec sustained, burst of 30.
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	// Cache tool refs and names at construction.
	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	a := &Agent{
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		maxTurns:    maxTurns,
		historyRuns: historyRuns,

		retryConfig:    retryConfig,
		circuitBreaker: NewCircuitBreaker(cbConfig),
		rateLimiter:    rl,

		tokenBudget: tokenBudget,

		g:         cfg.Genkit,
		sessions:  cfg.Sessions,
		logger:    cfg.Logger,
		tools:     cfg.Tools,
		toolRefs:  toolRefs,
		toolNames: strings.Join(names, ", "),
	}

	a.logger.Info("agent initialized",
		"model", a.modelName,
		"totalTools", len(a.tools),
		"maxTurns", a.maxTurns,
		"historyRuns", a.historyRuns,
	)

	return a, nil
}

// ModelName returns the provider-qualified model name the agent generates with.
func (a *Agent) ModelName() string {
	return a.modelName
}

// Chat runs one conversation turn (non-streaming).
// This is a convenience wrapper around ChatStream with nil callback.
func (a *Agent) Chat(ctx context.Context, sessionID uuid.UUID, message string) (string, error) {
	return a.ChatStream(ctx, sessionID, message, nil)
}

// ChatStream runs one conversation turn with optional streaming output.
// If callback is non-nil, it is called for each chunk as it is generated.
//
// The turn loads recent history from the session store, generates a reply
// with the system prompt plus tools, and persists the user and model
// messages. Persistence is best-effort: a storage failure is logged but the
// reply is still returned.
func (a *Agent) ChatStream(ctx context.Context, sessionID uuid.UUID, message string, callback StreamCallback) (string, error) {
	a.logger.Debug("running conversation turn",
		"session_id", sessionID,
		"streaming", callback != nil)

	history, err := a.sessions.History(ctx, sessionID, a.historyRuns)
	if err != nil {
		return "", fmt.Errorf("getting history: %w", err)
	}

	resp, err := a.generateResponse(ctx, message, history, callback)
	if err != nil {
		return "", err
	}

	responseText := resp.Text()

	// Only fall back when truly empty: no text and no tool requests.
	// An empty text with pending tool requests is valid agentic behavior.
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response with no tool requests",
			"session_id", sessionID)
		responseText = fallbackResponseMessage
	}

	newMessages := []*session.Message{
		{
			Role:    string(ai.RoleUser),
			Content: []*ai.Part{ai.NewTextPart(message)},
		},
		{
			Role:    string(ai.RoleModel),
			Content: []*ai.Part{ai.NewTextPart(responseText)},
		},
	}
	if err := a.sessions.AddMessages(ctx, sessionID, newMessages); err != nil {
		a.logger.Warn("persisting conversation turn", "error", err) // best-effort: don't fail the request
	}

	return responseText, nil
}

// generateResponse is the unified generation logic for both streaming and
// non-streaming modes.
func (a *Agent) generateResponse(ctx context.Context, message string, history []*ai.Message, callback StreamCallback) (*ai.ModelResponse, error) {
	// Deep copy history before generation. Genkit's renderMessages modifies
	// message content in place, so concurrent turns sharing message structs
	// would race without independent copies.
	messages := deepCopyMessages(history)

	// Apply the token budget before appending the new user turn so the
	// request never exceeds the context window.
	messages = a.truncateHistory(messages, a.tokenBudget.MaxHistoryTokens)

	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(message)))

	opts := []ai.GenerateOption{
		ai.WithModelName(a.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
		ai.WithTools(a.toolRefs...),
		ai.WithMaxTurns(a.maxTurns),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature: a.temperature,
		}),
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(callback))
	}

	a.logger.Debug("generating response",
		"toolCount", len(a.tools),
		"tools", a.toolNames,
		"maxTurns", a.maxTurns,
		"messageLength", len(message),
	)

	if err := a.circuitBreaker.Allow(); err != nil {
		a.logger.Warn("circuit breaker is open, rejecting request",
			"state", a.circuitBreaker.State().String())
		return nil, fmt.Errorf("service unavailable: %w", err)
	}

	resp, err := a.generateWithRetry(ctx, opts)
	if err != nil {
		a.circuitBreaker.Failure()
		return nil, err
	}

	a.circuitBreaker.Success()
	return resp, nil
}

// deepCopyMessages creates independent copies of Message and Part structs.
//
// WORKAROUND: Genkit's renderMessages() modifies msg.Content in-place,
// causing data races in concurrent executions. This function creates
// independent struct copies to prevent the race.
//
// Tested version: github.com/firebase/genkit/go v1.4.0
//
// To remove this workaround:
// 1. Upgrade Genkit: go get -u github.com/firebase/genkit/go@latest
// 2. Run: go test -race ./internal/agent/...
// 3. If race detector passes, remove deepCopyMessages() calls
// 4. If race still fails, update version in this comment
func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	if msgs == nil {
		return nil // Preserve nil vs empty slice semantics
	}
	copied := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		parts := make([]*ai.Part, len(msg.Content))
		for j, part := range msg.Content {
			parts[j] = deepCopyPart(part)
		}
		copied[i] = &ai.Message{
			Role:     msg.Role,
			Content:  parts,
			Metadata: shallowCopyMap(msg.Metadata),
		}
	}
	return copied
}

// deepCopyPart creates an independent copy of an ai.Part struct.
//
// ToolRequest.Input and ToolResponse.Output are type any and copied by
// reference: renderMessages only mutates the Content slice, not tool data.
func deepCopyPart(p *ai.Part) *ai.Part {
	if p == nil {
		return nil
	}
	cp := &ai.Part{
		Kind:        p.Kind,
		ContentType: p.ContentType,
		Text:        p.Text,
		Custom:      shallowCopyMap(p.Custom),
		Metadata:    shallowCopyMap(p.Metadata),
	}
	if p.ToolRequest != nil {
		cp.ToolRequest = &ai.ToolRequest{
			Input: p.ToolRequest.Input,
			Name:  p.ToolRequest.Name,
			Ref:   p.ToolRequest.Ref,
		}
	}
	if p.ToolResponse != nil {
		cp.ToolResponse = &ai.ToolResponse{
			Name:   p.ToolResponse.Name,
			Output: p.ToolResponse.Output,
			Ref:    p.ToolResponse.Ref,
		}
	}
	if p.Resource != nil {
		cp.Resource = &ai.ResourcePart{Uri: p.Resource.Uri}
	}
	return cp
}

// shallowCopyMap copies map keys and values but not nested structures.
func shallowCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
