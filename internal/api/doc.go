// Package api provides the JSON HTTP server for the benchmarking service.
//
// Routes:
//
//	GET    /health                        liveness probe, always 200, no I/O
//	GET    /ready                         readiness probe, 200 when the DB pings
//	GET    /events                        fixed list of benchmarkable events
//	POST   /loadknowledge                 clear-then-reload of knowledge sources
//	POST   /api/v1/chat                   one conversation turn with the agent
//	POST   /api/v1/sessions               create a session
//	GET    /api/v1/sessions               list sessions (limit/offset)
//	GET    /api/v1/sessions/{id}/messages conversation history
//	DELETE /api/v1/sessions/{id}          delete a session and its messages
//
// The middleware stack (outermost first) is recovery, request ID, logging,
// CORS, and per-IP rate limiting. CORS allows all origins, methods, and
// headers but is mounted only in production; development serves without
// CORS headers. Health probes are mounted outside the stack so schedulers
// never see throttled or logged probe traffic.
//
// Responses are JSON. Errors use a {"error":{"code","message"}} envelope
// written by WriteError; payloads are encoded into a buffer before headers
// go out so encoding failures surface as clean 500s.
//
// # Knowledge reload
//
// POST /loadknowledge clears the knowledge base and reloads every configured
// source. The operation has no retry and no rollback, and concurrent calls
// are not serialized: two racing reloads end with one racer's content set.
package api
