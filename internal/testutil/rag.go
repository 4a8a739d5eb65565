package testutil

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/postgresql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swimbench/swimbench/internal/knowledge"
)

// EmbeddingDim matches the vector(1536) column created by db/migrations.
const EmbeddingDim = 1536

// RAGSetup contains all resources needed for vector-store integration tests.
// Embeddings come from a deterministic mock, so these tests need Docker but
// no model API key.
type RAGSetup struct {
	// Genkit instance with the PostgreSQL plugin and mock embedder
	Genkit *genkit.Genkit

	// Embedder reference registered in Genkit
	Embedder ai.Embedder

	// Mock behind Embedder, for explicit vector control
	Mock *MockEmbedder

	// DocStore for indexing documents (from Genkit PostgreSQL plugin)
	DocStore *postgresql.DocStore

	// Retriever for semantic search (from Genkit PostgreSQL plugin)
	Retriever ai.Retriever
}

// SetupRAG creates a vector-store test environment over the given pool.
//
// The pool must come from SetupTestDB so the documents table and the
// pgvector extension already exist.
//
// Example:
//
//	db, cleanup := testutil.SetupTestDB(t)
//	defer cleanup()
//	rag := testutil.SetupRAG(t, db.Pool)
//
//	doc := ai.DocumentFromText("FINA A standard for 100m freestyle", map[string]any{
//	    "id":          "chunk_test",
//	    "source_type": "standards",
//	})
//	_ = rag.DocStore.Index(ctx, []*ai.Document{doc})
func SetupRAG(tb testing.TB, pool *pgxpool.Pool) *RAGSetup {
	tb.Helper()

	ctx := context.Background()

	pEngine, err := postgresql.NewPostgresEngine(ctx,
		postgresql.WithPool(pool),
		postgresql.WithDatabase("swimbench_test"),
	)
	if err != nil {
		tb.Fatalf("creating PostgresEngine: %v", err)
	}

	postgres := &postgresql.Postgres{Engine: pEngine}

	g := genkit.Init(ctx, genkit.WithPlugins(postgres))
	if g == nil {
		tb.Fatal("genkit.Init with PostgreSQL plugin returned nil")
	}

	mock := NewMockEmbedder(EmbeddingDim)
	embedder := mock.RegisterEmbedder(g)

	cfg := knowledge.NewDocStoreConfig(embedder)
	docStore, retriever, err := postgresql.DefineRetriever(ctx, g, postgres, cfg)
	if err != nil {
		tb.Fatalf("defining retriever: %v", err)
	}

	return &RAGSetup{
		Genkit:    g,
		Embedder:  embedder,
		Mock:      mock,
		DocStore:  docStore,
		Retriever: retriever,
	}
}
