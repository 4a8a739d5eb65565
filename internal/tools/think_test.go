package tools

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

func TestNewThink(t *testing.T) {
	t.Parallel()

	t.Run("nil logger", func(t *testing.T) {
		if _, err := NewThink(nil); err == nil {
			t.Error("NewThink(nil) expected error")
		}
	})

	t.Run("valid", func(t *testing.T) {
		tt, err := NewThink(slog.New(slog.DiscardHandler))
		if err != nil {
			t.Fatalf("NewThink() unexpected error: %v", err)
		}
		if tt == nil {
			t.Fatal("NewThink() returned nil instance")
		}
	})
}

func TestRegisterThink(t *testing.T) {
	t.Parallel()

	g := genkit.Init(context.Background())
	tk, err := NewThink(slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewThink() error: %v", err)
	}

	t.Run("nil genkit", func(t *testing.T) {
		if _, err := RegisterThink(nil, tk); err == nil {
			t.Error("RegisterThink(nil, tk) expected error")
		}
	})

	t.Run("nil think", func(t *testing.T) {
		if _, err := RegisterThink(g, nil); err == nil {
			t.Error("RegisterThink(g, nil) expected error")
		}
	})

	t.Run("registers think tool", func(t *testing.T) {
		registered, err := RegisterThink(g, tk)
		if err != nil {
			t.Fatalf("RegisterThink() error: %v", err)
		}
		if len(registered) != 1 {
			t.Fatalf("RegisterThink() returned %d tools, want 1", len(registered))
		}
		if got := registered[0].Name(); got != ThinkName {
			t.Errorf("tool name = %q, want %q", got, ThinkName)
		}
	})
}

func TestThink(t *testing.T) {
	t.Parallel()

	tk, err := NewThink(slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewThink() error: %v", err)
	}
	toolCtx := &ai.ToolContext{Context: context.Background()}

	t.Run("records thought", func(t *testing.T) {
		result, err := tk.Think(toolCtx, ThinkInput{
			Title:      "plan query",
			Thought:    "Need AAA cuts for 11-12 girls. Query motivational_standards filtered by age_group and gender first.",
			Action:     "queryDatabase",
			Confidence: 0.9,
		})
		if err != nil {
			t.Fatalf("Think() unexpected Go error: %v", err)
		}
		if result.Status != StatusSuccess {
			t.Fatalf("Status = %q, want %q (error: %+v)", result.Status, StatusSuccess, result.Error)
		}

		data, ok := result.Data.(map[string]any)
		if !ok {
			t.Fatalf("Data type = %T, want map[string]any", result.Data)
		}
		if data["recorded"] != true {
			t.Errorf("recorded = %v, want true", data["recorded"])
		}
		if guidance, _ := data["guidance"].(string); guidance == "" {
			t.Error("guidance should not be empty")
		}
	})

	t.Run("thought alone is enough", func(t *testing.T) {
		result, err := tk.Think(toolCtx, ThinkInput{Thought: "Check units: standards are in seconds."})
		if err != nil {
			t.Fatalf("Think() unexpected Go error: %v", err)
		}
		if result.Status != StatusSuccess {
			t.Errorf("Status = %q, want %q", result.Status, StatusSuccess)
		}
	})

	t.Run("empty thought rejected", func(t *testing.T) {
		result, err := tk.Think(toolCtx, ThinkInput{Title: "no content"})
		if err != nil {
			t.Fatalf("Think() unexpected Go error: %v", err)
		}
		if result.Status != StatusError || result.Error.Code != ErrCodeValidation {
			t.Errorf("expected validation error, got %+v", result)
		}
	})

	t.Run("whitespace thought rejected", func(t *testing.T) {
		result, err := tk.Think(toolCtx, ThinkInput{Thought: " \n\t "})
		if err != nil {
			t.Fatalf("Think() unexpected Go error: %v", err)
		}
		if result.Status != StatusError || result.Error.Code != ErrCodeValidation {
			t.Errorf("expected validation error, got %+v", result)
		}
	})

	t.Run("oversized thought rejected", func(t *testing.T) {
		result, err := tk.Think(toolCtx, ThinkInput{Thought: strings.Repeat("x", MaxThoughtLength+1)})
		if err != nil {
			t.Fatalf("Think() unexpected Go error: %v", err)
		}
		if result.Status != StatusError || result.Error.Code != ErrCodeValidation {
			t.Errorf("expected validation error, got %+v", result)
		}
	})
}
