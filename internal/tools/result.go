// Package tools provides the Genkit tools the benchmarking agent can call.
//
// # Tool Categories
//
//  1. Database tools (3): queryDatabase, listTables, describeTable. SQL access
//     restricted to the ai schema.
//  2. Knowledge tool (1): searchKnowledge. Semantic retrieval over the
//     indexed knowledge base.
//  3. Reasoning tool (1): think. A structured scratchpad for planning
//     multi-step analysis.
//
// # Design Principles
//
//   - Dependency Injection: pools, retrievers, and loggers passed to
//     constructors; no package-level state.
//   - Business errors travel in Result.Error so the model can read and
//     correct them; only infrastructure failures (context cancellation)
//     surface as Go errors.
//   - Every registered tool is wrapped with WithEvents for lifecycle
//     observability.
package tools

// Status indicates whether a tool call succeeded.
type Status string

// Tool result statuses.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorCode classifies tool failures for model consumption.
type ErrorCode string

// Error codes returned in Result.Error.
const (
	ErrCodeSecurity   ErrorCode = "SecurityError"
	ErrCodeNotFound   ErrorCode = "NotFound"
	ErrCodePermission ErrorCode = "PermissionDenied"
	ErrCodeIO         ErrorCode = "IOError"
	ErrCodeExecution  ErrorCode = "ExecutionError"
	ErrCodeTimeout    ErrorCode = "TimeoutError"
	ErrCodeNetwork    ErrorCode = "NetworkError"
	ErrCodeValidation ErrorCode = "ValidationError"
)

// Error is a structured tool failure the model can understand and act on.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// Result is the uniform envelope returned by every tool handler.
// Status is always set; exactly one of Data and Error is populated.
type Result struct {
	Status Status `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  *Error `json:"error,omitempty"`
}
