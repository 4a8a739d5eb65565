// Package knowledge manages the swimming knowledge base: fetching configured
// sources, extracting and chunking their text, and indexing the chunks into
// the pgvector-backed document store.
//
// # Ingestion Flow
//
//	Source (name + URL + metadata)
//	     |
//	     v
//	Fetch (colly collector, bounded parallelism)
//	     |
//	     v
//	Extract (PDF / HTML / plain text)
//	     |
//	     v
//	Chunk (~8KB, paragraph boundaries)
//	     |
//	     v
//	Index (Genkit DocStore embeds and persists)
//	     |
//	     v
//	Record (one knowledge_contents row per source)
//
// Retrieval does not go through this package: searches run against the
// Genkit retriever defined over the same documents table.
//
// # Reload Semantics
//
// The service reloads by calling Clear then Load. There is no rollback: if
// Load fails after Clear, the knowledge base stays empty until the next
// successful reload. Concurrent reloads are not serialized.
package knowledge
