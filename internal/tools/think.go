package tools

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ThinkName is the Genkit tool name for the reasoning scratchpad.
const ThinkName = "think"

// MaxThoughtLength caps a single scratchpad entry.
const MaxThoughtLength = 10_000

// ThinkInput defines input for the think tool.
type ThinkInput struct {
	Title      string  `json:"title,omitempty" jsonschema_description:"Short label for this reasoning step"`
	Thought    string  `json:"thought" jsonschema_description:"The reasoning to record before acting"`
	Action     string  `json:"action,omitempty" jsonschema_description:"The action this reasoning leads to"`
	Confidence float64 `json:"confidence,omitempty" jsonschema_description:"Confidence in the plan (0.0-1.0)"`
}

// Think holds dependencies for the scratchpad handler.
// The tool performs no side effects beyond logging: its value is giving the
// model a place to externalize multi-step reasoning between tool calls.
type Think struct {
	logger *slog.Logger
}

// NewThink creates a Think instance.
func NewThink(logger *slog.Logger) (*Think, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Think{logger: logger}, nil
}

// RegisterThink registers the think tool with Genkit.
func RegisterThink(g *genkit.Genkit, tt *Think) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if tt == nil {
		return nil, fmt.Errorf("Think is required")
	}

	return []ai.Tool{
		genkit.DefineTool(g, ThinkName,
			"Record a reasoning step before taking an action. "+
				"Use this to plan multi-step analysis: which tables to query, "+
				"how to interpret benchmark times, what to verify before answering. "+
				"Nothing is executed; the thought is only recorded.",
			WithEvents(ThinkName, tt.Think)),
	}, nil
}

// Think records a reasoning step. Always succeeds for non-empty thoughts.
func (t *Think) Think(_ *ai.ToolContext, input ThinkInput) (Result, error) {
	if strings.TrimSpace(input.Thought) == "" {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "thought is required",
			},
		}, nil
	}
	if len(input.Thought) > MaxThoughtLength {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("thought length %d exceeds maximum %d bytes", len(input.Thought), MaxThoughtLength),
			},
		}, nil
	}

	t.logger.Debug("Think recorded",
		"title", input.Title,
		"thought", input.Thought,
		"action", input.Action,
		"confidence", input.Confidence)

	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"recorded": true,
			"guidance": "Thought recorded. Proceed with the planned action.",
		},
	}, nil
}
