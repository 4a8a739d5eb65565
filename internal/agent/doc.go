// Package agent implements the conversational benchmarking assistant.
//
// The agent is stateless between requests: each [Agent.Chat] call loads
// recent history from the session store, generates a reply through Genkit
// with the compiled-in system prompt and the registered tools, and persists
// the new turn.
//
//	Chat(ctx, sessionID, message)
//	     |
//	     +-- Load recent history (session.Store.History)
//	     |
//	     +-- Deep copy + truncate to token budget
//	     |
//	     +-- genkit.Generate with system prompt, tools, max turns
//	     |        (rate limited, retried, circuit broken)
//	     |
//	     +-- Persist user + model messages (best-effort)
//	     |
//	     v
//	   markdown reply
//
// # Resilience
//
// Model calls pass through three layers, outermost first: a token-bucket
// rate limiter ([golang.org/x/time/rate]), a [CircuitBreaker] that stops
// hammering a failing provider, and exponential-backoff retries for
// transient errors. All three have working defaults and are tunable
// through [Config].
//
// # Thread Safety
//
// Agent is safe for concurrent use. All configuration is captured at
// construction and history messages are deep-copied before generation.
package agent
