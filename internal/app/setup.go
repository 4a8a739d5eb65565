package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/postgresql"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/swimbench/swimbench/db"
	"github.com/swimbench/swimbench/internal/agent"
	"github.com/swimbench/swimbench/internal/config"
	"github.com/swimbench/swimbench/internal/knowledge"
	"github.com/swimbench/swimbench/internal/session"
	"github.com/swimbench/swimbench/internal/tools"
)

// Setup creates and initializes the application: tracing, migrations, the
// connection pool, Genkit with the OpenAI and PostgreSQL plugins, the
// retriever, stores, tools and the agent. Returns an App with embedded
// cleanup; call Close() to release.
//
// The OpenAI plugin reads OPENAI_API_KEY from the environment; config.Load
// has already verified it is set before Setup runs.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideTracing(ctx, cfg, logger)

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.Pool = pool

	postgres, err := providePostgresPlugin(ctx, pool, cfg)
	if err != nil {
		return nil, err
	}

	g, err := provideGenkit(ctx, cfg, postgres, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	docStore, retriever, err := provideRAGComponents(ctx, g, postgres, embedder)
	if err != nil {
		return nil, err
	}
	a.DocStore = docStore
	a.Retriever = retriever

	sessions, err := session.New(pool, logger.With("component", "session"))
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	a.Sessions = sessions

	fetcher := knowledge.NewFetcher(knowledge.FetchConfig{
		Parallelism: cfg.FetchParallelism,
		Delay:       time.Duration(cfg.FetchDelayMs) * time.Millisecond,
		Timeout:     time.Duration(cfg.FetchTimeoutMs) * time.Millisecond,
	}, logger.With("component", "knowledge"))

	kstore, err := knowledge.NewStore(pool, docStore, fetcher, logger.With("component", "knowledge"))
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}
	a.Knowledge = kstore
	a.Sources = knowledgeSources(cfg.KnowledgeSources)

	if err := provideTools(a, g, pool, retriever, logger); err != nil {
		return nil, err
	}

	ag, err := agent.New(agent.Config{
		Genkit:      g,
		Sessions:    sessions,
		Logger:      logger.With("component", "agent"),
		Tools:       a.Tools,
		ModelName:   cfg.FullModelName(),
		Temperature: float64(cfg.Temperature),
		MaxTurns:    cfg.MaxTurns,
		HistoryRuns: cfg.HistoryRuns,
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	a.Agent = ag

	return a, nil
}

// provideTracing sets up OTLP trace export before Genkit initialization so
// the span processor is registered on Genkit's TracerProvider from the first
// span. An empty endpoint disables export; the returned cleanup is always
// callable.
func provideTracing(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	if cfg.OTLPEndpoint == "" {
		logger.Debug("trace export disabled, no OTLP endpoint configured")
		return func() {}
	}

	// SAFETY: os.Setenv is not concurrent-safe, but Setup runs exactly once
	// at startup before any goroutines are spawned.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("trace export enabled",
		"endpoint", cfg.OTLPEndpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	shutdown := tracing.TracerProvider().Shutdown

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations, then creates the PostgreSQL connection pool
// and verifies connectivity.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// providePostgresPlugin wraps the connection pool in the Genkit PostgreSQL
// plugin. WithDatabase is required even when using WithPool.
func providePostgresPlugin(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config) (*postgresql.Postgres, error) {
	pEngine, err := postgresql.NewPostgresEngine(ctx,
		postgresql.WithPool(pool),
		postgresql.WithDatabase(cfg.PostgresDBName),
	)
	if err != nil {
		return nil, fmt.Errorf("creating postgres engine: %w", err)
	}

	return &postgresql.Postgres{Engine: pEngine}, nil
}

// provideGenkit initializes Genkit with the OpenAI and PostgreSQL plugins.
// Call ordering in Setup ensures tracing is set up first.
func provideGenkit(ctx context.Context, cfg *config.Config, postgres *postgresql.Postgres, logger *slog.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx,
		genkit.WithPlugins(&openai.OpenAI{}, postgres),
	)
	if g == nil {
		return nil, errors.New("initializing genkit with openai provider")
	}

	logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)
	return g, nil
}

// provideRAGComponents creates the Genkit PostgreSQL DocStore and Retriever.
// DocStore is used for indexing documents, Retriever for searching.
func provideRAGComponents(ctx context.Context, g *genkit.Genkit, postgres *postgresql.Postgres, embedder ai.Embedder) (*postgresql.DocStore, ai.Retriever, error) {
	cfg := knowledge.NewDocStoreConfig(embedder)
	docStore, retriever, err := postgresql.DefineRetriever(ctx, g, postgres, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("defining retriever: %w", err)
	}

	return docStore, retriever, nil
}

// provideTools creates the toolsets, registers them with Genkit, and stores
// both the concrete toolsets and the registered references on a.
func provideTools(a *App, g *genkit.Genkit, pool *pgxpool.Pool, retriever ai.Retriever, logger *slog.Logger) error {
	toolsLogger := logger.With("component", "tools")
	var allTools []ai.Tool

	pt, err := tools.NewPostgres(pool, toolsLogger)
	if err != nil {
		return fmt.Errorf("creating postgres tools: %w", err)
	}
	a.Postgres = pt
	postgresTools, err := tools.RegisterPostgres(g, pt)
	if err != nil {
		return fmt.Errorf("registering postgres tools: %w", err)
	}
	allTools = append(allTools, postgresTools...)

	kt, err := tools.NewKnowledge(retriever, toolsLogger)
	if err != nil {
		return fmt.Errorf("creating knowledge tools: %w", err)
	}
	a.KnowledgeTools = kt
	knowledgeTools, err := tools.RegisterKnowledge(g, kt)
	if err != nil {
		return fmt.Errorf("registering knowledge tools: %w", err)
	}
	allTools = append(allTools, knowledgeTools...)

	tt, err := tools.NewThink(toolsLogger)
	if err != nil {
		return fmt.Errorf("creating think tool: %w", err)
	}
	thinkTools, err := tools.RegisterThink(g, tt)
	if err != nil {
		return fmt.Errorf("registering think tool: %w", err)
	}
	allTools = append(allTools, thinkTools...)

	a.Tools = allTools
	logger.Info("tools registered at construction", "count", len(allTools))
	return nil
}

// knowledgeSources converts configured source entries into the ingestion
// package's source type.
func knowledgeSources(configured []config.Source) []knowledge.Source {
	sources := make([]knowledge.Source, len(configured))
	for i, src := range configured {
		sources[i] = knowledge.Source{
			Name:     src.Name,
			URL:      src.URL,
			Metadata: src.Metadata,
		}
	}
	return sources
}
