// Package mcp implements a Model Context Protocol (MCP) server over the
// swimming benchmark data.
//
// The server exposes two tools so external MCP clients (agent hosts, IDE
// integrations, the Genkit CLI) can use SwimBench's data directly without
// going through the chat agent:
//
//   - queryStandards: run a single SQL statement against the benchmark
//     schema (motivational time standards).
//   - searchKnowledge: semantic search over the indexed knowledge base.
//
// Both tools reuse the same toolset implementations the conversational agent
// calls, so schema restrictions, row caps and filter whitelists apply
// identically on both surfaces.
//
// # Error handling
//
// The server distinguishes two error kinds:
//
//   - System errors (context cancellation, transport failures) propagate as
//     Go errors and become MCP protocol errors.
//   - Business errors (invalid SQL, bad filter values) are returned as tool
//     results with IsError=true, so the calling model can read the message
//     and correct its input.
//
// # Transport
//
// Run takes any mcp.Transport; the serve command uses stdio, tests use
// in-memory transports.
package mcp
