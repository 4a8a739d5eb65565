package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swimbench/swimbench/internal/agent"
	"github.com/swimbench/swimbench/internal/knowledge"
	"github.com/swimbench/swimbench/internal/session"
	"github.com/swimbench/swimbench/internal/tools"
)

// ServerConfig contains dependencies for the API server.
type ServerConfig struct {
	Logger       *slog.Logger
	Agent        *agent.Agent       // Optional: nil disables the chat endpoint
	Knowledge    *knowledge.Store   // Required
	Sessions     *session.Store     // Required
	Pool         *pgxpool.Pool      // Optional: nil skips the database check in /ready
	Sources      []knowledge.Source // Sources reloaded by POST /loadknowledge
	IsProduction bool               // Enables allow-all CORS headers
	TrustProxy   bool               // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateLimit    float64            // Tokens per second per IP (0 = default 1)
	RateBurst    int                // Rate limiter burst per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Knowledge == nil {
		return nil, errors.New("knowledge store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	kh := &knowledgeHandler{store: cfg.Knowledge, sources: cfg.Sources, logger: logger}
	mux.HandleFunc("POST /loadknowledge", kh.loadKnowledge)

	mux.HandleFunc("GET /events", listEvents(logger))

	sh := &sessionHandler{store: cfg.Sessions, logger: logger}
	mux.HandleFunc("POST /api/v1/sessions", sh.createSession)
	mux.HandleFunc("GET /api/v1/sessions", sh.listSessions)
	mux.HandleFunc("GET /api/v1/sessions/{id}/messages", sh.getSessionMessages)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", sh.deleteSession)

	if cfg.Agent != nil {
		ch := &chatHandler{
			agent:    cfg.Agent,
			sessions: cfg.Sessions,
			emitter:  tools.NewSlogEmitter(logger),
			logger:   logger,
		}
		mux.HandleFunc("POST /api/v1/chat", ch.send)
	} else {
		logger.Warn("agent not configured, chat endpoint disabled")
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 1.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(limit, burst)

	// Middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID runs before Logging so request_id appears in log attributes.
	// CORS runs before RateLimit so even throttled responses carry CORS
	// headers. CORS is mounted only in production.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	if cfg.IsProduction {
		handler = corsMiddleware()(handler)
	}
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack; they must stay cheap and
	// rate-limit-exempt for container schedulers.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.HandleFunc("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
