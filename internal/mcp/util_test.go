package mcp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/swimbench/swimbench/internal/tools"
)

func TestResultToMCP_Success(t *testing.T) {
	t.Parallel()

	result := tools.Result{
		Status: tools.StatusSuccess,
		Data: map[string]any{
			"row_count": 3,
			"truncated": false,
		},
	}

	converted := resultToMCP(result, discardLogger())
	if converted.IsError {
		t.Fatal("success result converted to IsError")
	}

	text := resultText(t, converted)
	var decoded map[string]any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("success text is not JSON: %v", err)
	}
	if decoded["row_count"] != float64(3) {
		t.Errorf("row_count = %v, want 3", decoded["row_count"])
	}
}

func TestResultToMCP_Error(t *testing.T) {
	t.Parallel()

	result := tools.Result{
		Status: tools.StatusError,
		Error: &tools.Error{
			Code:    tools.ErrCodeSecurity,
			Message: "only a single SQL statement is allowed per call",
		},
	}

	converted := resultToMCP(result, discardLogger())
	if !converted.IsError {
		t.Fatal("error result not converted to IsError")
	}

	text := resultText(t, converted)
	if !strings.HasPrefix(text, "[SecurityError]") {
		t.Errorf("error text = %q, want [SecurityError] prefix", text)
	}
	if !strings.Contains(text, "single SQL statement") {
		t.Errorf("error text = %q, want original message preserved", text)
	}
}

func TestResultToMCP_ErrorWithDetails(t *testing.T) {
	t.Parallel()

	result := tools.Result{
		Status: tools.StatusError,
		Error: &tools.Error{
			Code:    tools.ErrCodeExecution,
			Message: "executing query: syntax error",
			Details: map[string]any{"position": 14},
		},
	}

	text := resultText(t, resultToMCP(result, discardLogger()))
	if !strings.Contains(text, "Details:") {
		t.Errorf("error text = %q, want Details section", text)
	}
	if !strings.Contains(text, `"position":14`) {
		t.Errorf("error text = %q, want details serialized as JSON", text)
	}
}

func TestResultToMCP_NilLogger(t *testing.T) {
	t.Parallel()

	result := tools.Result{Status: tools.StatusSuccess, Data: "ok"}
	converted := resultToMCP(result, nil)
	if converted == nil || converted.IsError {
		t.Fatal("nil logger should not affect conversion")
	}
}

func TestDataToMCP_Nil(t *testing.T) {
	t.Parallel()

	converted := dataToMCP(nil)
	if converted.IsError {
		t.Fatal("nil data should not be an error result")
	}
	if text := resultText(t, converted); text != "" {
		t.Errorf("nil data text = %q, want empty", text)
	}
}

func TestDataToMCP_String(t *testing.T) {
	t.Parallel()

	converted := dataToMCP("loaded 42 documents")
	if text := resultText(t, converted); text != `"loaded 42 documents"` {
		t.Errorf("string data text = %q, want JSON-quoted string", text)
	}
}
