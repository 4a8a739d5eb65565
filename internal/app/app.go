// Package app wires configuration, storage, Genkit and the agent into a
// single owned object with an explicit lifecycle. Nothing in this package is
// process-global: Setup returns an *App and Close releases everything it
// acquired, so entry points (HTTP server, MCP server, CLI commands) and tests
// can each own an independent instance.
package app

import (
	"log/slog"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/postgresql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swimbench/swimbench/internal/agent"
	"github.com/swimbench/swimbench/internal/config"
	"github.com/swimbench/swimbench/internal/knowledge"
	"github.com/swimbench/swimbench/internal/session"
	"github.com/swimbench/swimbench/internal/tools"
)

// App is the application container. Fields are populated by Setup and valid
// until Close.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Core services
	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	Pool      *pgxpool.Pool
	DocStore  *postgresql.DocStore
	Retriever ai.Retriever

	// Domain components
	Sessions  *session.Store
	Knowledge *knowledge.Store
	Agent     *agent.Agent

	// Sources is the knowledge source list served to the reload endpoint.
	Sources []knowledge.Source

	// Concrete toolsets, exposed for the MCP server which invokes them
	// directly instead of through the model.
	Postgres       *tools.Postgres
	KnowledgeTools *tools.Knowledge

	// Tools holds every Genkit-registered tool, passed to the agent.
	Tools []ai.Tool

	otelCleanup func()
	dbCleanup   func()
	closeOnce   sync.Once
}

// Close releases all resources in reverse acquisition order: the database
// pool first, then the trace exporter so shutdown spans still flush.
// Close is idempotent and safe on a partially initialized App.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		if a.Logger != nil {
			a.Logger.Info("shutting down application")
		}

		if a.dbCleanup != nil {
			a.dbCleanup()
		}
		if a.otelCleanup != nil {
			a.otelCleanup()
		}
	})
	return nil
}
