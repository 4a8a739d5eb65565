package tools

import (
	"context"
	"log/slog"
)

// emitterKey uses empty struct for zero-allocation context key.
type emitterKey struct{}

// Emitter receives tool lifecycle events.
// Interface is minimal - only tool name, no presentation concerns.
//
// Usage:
//  1. Caller creates an emitter and stores it via ContextWithEmitter()
//  2. Wrapped tools retrieve it via EmitterFromContext()
//  3. WithEvents calls OnToolStart/Complete/Error around execution
type Emitter interface {
	// OnToolStart signals that a tool has started execution.
	OnToolStart(name string)

	// OnToolComplete signals that a tool completed successfully.
	OnToolComplete(name string)

	// OnToolError signals that a tool execution failed.
	OnToolError(name string)
}

// EmitterFromContext retrieves the Emitter from context.
// Returns nil if not set, allowing graceful degradation (no events emitted).
func EmitterFromContext(ctx context.Context) Emitter {
	emitter, _ := ctx.Value(emitterKey{}).(Emitter)
	return emitter
}

// ContextWithEmitter stores an Emitter in context for per-request binding.
func ContextWithEmitter(ctx context.Context, emitter Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}

// SlogEmitter logs tool lifecycle events through a structured logger.
// The chat handler binds one per server so agent tool calls surface in logs.
type SlogEmitter struct {
	logger *slog.Logger
}

// NewSlogEmitter creates an emitter backed by the given logger.
// A nil logger falls back to slog.Default().
func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEmitter{logger: logger}
}

// OnToolStart implements Emitter.
func (e *SlogEmitter) OnToolStart(name string) {
	e.logger.Debug("tool started", "tool", name)
}

// OnToolComplete implements Emitter.
func (e *SlogEmitter) OnToolComplete(name string) {
	e.logger.Debug("tool completed", "tool", name)
}

// OnToolError implements Emitter.
func (e *SlogEmitter) OnToolError(name string) {
	e.logger.Warn("tool failed", "tool", name)
}
