package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/plugins/postgresql"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store composes the vector document store and the relational bookkeeping
// table into one ingestion surface. Reads for retrieval go through the
// Genkit retriever; Store owns writes and bookkeeping.
//
// Store is safe for concurrent use, but Clear and Load are not serialized
// against each other: concurrent reloads race and the last writer wins.
type Store struct {
	pool     *pgxpool.Pool
	docStore *postgresql.DocStore
	fetcher  *Fetcher
	logger   *slog.Logger
}

// NewStore creates a knowledge Store.
func NewStore(pool *pgxpool.Pool, docStore *postgresql.DocStore, fetcher *Fetcher, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if docStore == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{pool: pool, docStore: docStore, fetcher: fetcher, logger: logger}, nil
}

// Clear removes every vector document and every content record.
// Documents go first so a failure midway leaves bookkeeping rows pointing at
// nothing rather than orphaned vectors with no record.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM knowledge_contents`); err != nil {
		return fmt.Errorf("clearing knowledge contents: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clear transaction: %w", err)
	}

	s.logger.Info("knowledge base cleared")
	return nil
}

// Load fetches, extracts, chunks and indexes every source, then records one
// bookkeeping row per source. Returns the total number of chunks indexed.
//
// There is no rollback: a failure after Clear leaves the knowledge base
// empty or partially loaded. Callers decide whether to retry.
func (s *Store) Load(ctx context.Context, sources []Source) (int, error) {
	if len(sources) == 0 {
		return 0, fmt.Errorf("no knowledge sources configured")
	}

	urls := make([]string, 0, len(sources))
	for _, src := range sources {
		urls = append(urls, src.URL)
	}

	fetched, err := s.fetcher.FetchAll(ctx, urls)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, src := range sources {
		result, ok := fetched[src.URL]
		if !ok {
			return total, fmt.Errorf("source %q: no response for %s", src.Name, src.URL)
		}

		count, err := s.loadSource(ctx, src, result)
		if err != nil {
			return total, fmt.Errorf("source %q: %w", src.Name, err)
		}
		total += count
	}

	s.logger.Info("knowledge base loaded", "sources", len(sources), "chunks", total)
	return total, nil
}

// loadSource indexes one fetched source and records its bookkeeping row.
func (s *Store) loadSource(ctx context.Context, src Source, fetched FetchResult) (int, error) {
	text, err := extractText(ctx, fetched.Body, fetched.ContentType, src.URL)
	if err != nil {
		return 0, err
	}

	chunks := chunkText(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no extractable text")
	}

	docs := make([]*ai.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, ai.DocumentFromText(chunk, chunkMetadata(src, i)))
	}

	if err := s.docStore.Index(ctx, docs); err != nil {
		return 0, fmt.Errorf("indexing %d chunks: %w", len(docs), err)
	}

	if err := s.recordContent(ctx, src, len(chunks)); err != nil {
		return 0, err
	}

	s.logger.Debug("source loaded", "name", src.Name, "url", src.URL, "chunks", len(chunks))
	return len(chunks), nil
}

// chunkMetadata builds the per-chunk metadata map. The "id" key is the
// document ID the vector store persists; "source_type" feeds the filterable
// column used by retrieval.
func chunkMetadata(src Source, index int) map[string]any {
	metadata := map[string]any{
		"id":          chunkID(src.URL, index),
		"source_name": src.Name,
		"source_url":  src.URL,
		"chunk_index": index,
	}
	for k, v := range src.Metadata {
		if k == "content_type" {
			metadata["source_type"] = v
			continue
		}
		metadata[k] = v
	}
	return metadata
}

// chunkID derives a stable document ID from the source URL and chunk index.
func chunkID(sourceURL string, index int) string {
	hash := sha256.Sum256([]byte(sourceURL + "#" + strconv.Itoa(index)))
	return "chunk_" + hex.EncodeToString(hash[:16])
}

// recordContent inserts the bookkeeping row for a loaded source.
func (s *Store) recordContent(ctx context.Context, src Source, chunkCount int) error {
	metadataJSON, err := json.Marshal(src.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling source metadata: %w", err)
	}

	var description *string
	if d := strings.TrimSpace(src.Metadata["description"]); d != "" {
		description = &d
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO knowledge_contents (name, description, source_url, metadata, chunk_count)
		 VALUES ($1, $2, $3, $4, $5)`,
		src.Name, description, src.URL, metadataJSON, chunkCount)
	if err != nil {
		return fmt.Errorf("recording content: %w", err)
	}
	return nil
}

// Count returns the number of vector documents currently indexed.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// List returns the bookkeeping records of all loaded sources, newest first.
func (s *Store) List(ctx context.Context) ([]Content, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), source_url, metadata, chunk_count, created_at
		 FROM knowledge_contents
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing contents: %w", err)
	}
	defer rows.Close()

	var contents []Content
	for rows.Next() {
		var c Content
		var metadataJSON []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.SourceURL, &metadataJSON, &c.ChunkCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning content row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &c.Metadata); err != nil {
				s.logger.Warn("failed to parse content metadata", "content_id", c.ID, "error", err)
				c.Metadata = nil
			}
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing contents: %w", err)
	}
	return contents, nil
}
