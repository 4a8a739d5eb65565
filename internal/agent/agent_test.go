package agent

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/swimbench/swimbench/internal/session"
)

// defineEchoTool registers a trivial tool so New has something to reference.
func defineEchoTool(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, "echo",
		"Echoes the input back.",
		func(_ *ai.ToolContext, input struct {
			Text string `json:"text"`
		}) (string, error) {
			return input.Text, nil
		})
}

// TestConfig_validate tests that each validation check fires independently.
// Each case provides enough deps to pass prior checks.
func TestConfig_validate(t *testing.T) {
	t.Parallel()

	// Minimal non-nil stubs; validate() only checks nil, never dereferences.
	stubG := new(genkit.Genkit)
	stubS := new(session.Store)
	stubL := slog.New(slog.DiscardHandler)
	stubTools := make([]ai.Tool, 1)

	tests := []struct {
		name        string
		cfg         Config
		errContains string
	}{
		{
			name:        "nil genkit",
			cfg:         Config{},
			errContains: "genkit instance is required",
		},
		{
			name: "nil session store",
			cfg: Config{
				Genkit: stubG,
			},
			errContains: "session store is required",
		},
		{
			name: "nil logger",
			cfg: Config{
				Genkit:   stubG,
				Sessions: stubS,
			},
			errContains: "logger is required",
		},
		{
			name: "empty tools",
			cfg: Config{
				Genkit:   stubG,
				Sessions: stubS,
				Logger:   stubL,
				Tools:    []ai.Tool{},
			},
			errContains: "at least one tool is required",
		},
		{
			name: "empty model name",
			cfg: Config{
				Genkit:   stubG,
				Sessions: stubS,
				Logger:   stubL,
				Tools:    stubTools,
			},
			errContains: "model name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.validate()
			if err == nil {
				t.Fatal("validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("validate() error = %q, want to contain %q", err.Error(), tt.errContains)
			}
		})
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	t.Parallel()

	g := genkit.Init(context.Background())
	tool := defineEchoTool(g)

	agent, err := New(Config{
		Genkit:    g,
		Sessions:  new(session.Store),
		Logger:    slog.New(slog.DiscardHandler),
		Tools:     []ai.Tool{tool},
		ModelName: "openai/gpt-4o",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if agent.maxTurns != 5 {
		t.Errorf("maxTurns = %d, want 5", agent.maxTurns)
	}
	if agent.historyRuns != 20 {
		t.Errorf("historyRuns = %d, want 20", agent.historyRuns)
	}
	if agent.retryConfig != DefaultRetryConfig() {
		t.Errorf("retryConfig = %+v, want defaults", agent.retryConfig)
	}
	if agent.tokenBudget != DefaultTokenBudget() {
		t.Errorf("tokenBudget = %+v, want defaults", agent.tokenBudget)
	}
	if agent.circuitBreaker == nil {
		t.Error("circuitBreaker should be created")
	}
	if agent.rateLimiter == nil {
		t.Error("rateLimiter should get a default")
	}
	if len(agent.toolRefs) != 1 {
		t.Errorf("toolRefs len = %d, want 1", len(agent.toolRefs))
	}
	if agent.toolNames != "echo" {
		t.Errorf("toolNames = %q, want %q", agent.toolNames, "echo")
	}
}

func TestNew_KeepsExplicitSettings(t *testing.T) {
	t.Parallel()

	g := genkit.Init(context.Background())
	tool := defineEchoTool(g)

	agent, err := New(Config{
		Genkit:      g,
		Sessions:    new(session.Store),
		Logger:      slog.New(slog.DiscardHandler),
		Tools:       []ai.Tool{tool},
		ModelName:   "openai/gpt-4o",
		Temperature: 0.1,
		MaxTurns:    7,
		HistoryRuns: 3,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if agent.temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1", agent.temperature)
	}
	if agent.maxTurns != 7 {
		t.Errorf("maxTurns = %d, want 7", agent.maxTurns)
	}
	if agent.historyRuns != 3 {
		t.Errorf("historyRuns = %d, want 3", agent.historyRuns)
	}
}

func TestDeepCopyMessages_NilInput(t *testing.T) {
	t.Parallel()
	if got := deepCopyMessages(nil); got != nil {
		t.Errorf("deepCopyMessages(nil) = %v, want nil", got)
	}
}

func TestDeepCopyMessages_MutateOriginalText(t *testing.T) {
	t.Parallel()

	original := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hello world")),
	}

	copied := deepCopyMessages(original)
	original[0].Content[0].Text = "MUTATED"

	if copied[0].Content[0].Text != "hello world" {
		t.Errorf("deepCopyMessages() copy was affected by original mutation: got %q, want %q",
			copied[0].Content[0].Text, "hello world")
	}
}

func TestDeepCopyMessages_MutateOriginalContentSlice(t *testing.T) {
	t.Parallel()

	original := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("first"), ai.NewTextPart("second")),
	}

	copied := deepCopyMessages(original)
	original[0].Content = append(original[0].Content, ai.NewTextPart("third"))

	if len(copied[0].Content) != 2 {
		t.Errorf("deepCopyMessages() copy content len = %d, want 2", len(copied[0].Content))
	}
}

func TestDeepCopyMessages_PreservesRole(t *testing.T) {
	t.Parallel()

	original := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("q")),
		ai.NewModelMessage(ai.NewTextPart("a")),
	}

	copied := deepCopyMessages(original)

	if copied[0].Role != ai.RoleUser {
		t.Errorf("deepCopyMessages()[0].Role = %q, want %q", copied[0].Role, ai.RoleUser)
	}
	if copied[1].Role != ai.RoleModel {
		t.Errorf("deepCopyMessages()[1].Role = %q, want %q", copied[1].Role, ai.RoleModel)
	}
}

func TestDeepCopyPart_ToolRequest(t *testing.T) {
	t.Parallel()

	original := &ai.Part{
		Kind: ai.PartToolRequest,
		ToolRequest: &ai.ToolRequest{
			Name:  "query_database",
			Input: map[string]any{"query": "SELECT 1"},
		},
	}

	copied := deepCopyPart(original)
	original.ToolRequest.Name = "MUTATED"

	if copied.ToolRequest.Name != "query_database" {
		t.Errorf("deepCopyPart() ToolRequest.Name affected by mutation: got %q, want %q",
			copied.ToolRequest.Name, "query_database")
	}
}

func TestDeepCopyPart_Metadata(t *testing.T) {
	t.Parallel()

	original := &ai.Part{
		Kind:     ai.PartText,
		Text:     "test",
		Custom:   map[string]any{"c": "custom"},
		Metadata: map[string]any{"m": "meta"},
	}

	copied := deepCopyPart(original)
	original.Custom["c"] = "MUTATED"
	original.Metadata["m"] = "MUTATED"

	if copied.Custom["c"] != "custom" {
		t.Errorf("deepCopyPart() Custom map affected: got %q, want %q", copied.Custom["c"], "custom")
	}
	if copied.Metadata["m"] != "meta" {
		t.Errorf("deepCopyPart() Metadata map affected: got %q, want %q", copied.Metadata["m"], "meta")
	}
}

func TestShallowCopyMap_IndependentKeys(t *testing.T) {
	t.Parallel()

	original := map[string]any{"a": "1", "b": "2"}
	copied := shallowCopyMap(original)

	original["c"] = "3"

	if _, ok := copied["c"]; ok {
		t.Error("shallowCopyMap() new key in original appeared in copy")
	}
	if len(copied) != 2 {
		t.Errorf("shallowCopyMap() copy len = %d, want 2", len(copied))
	}
}
