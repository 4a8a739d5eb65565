package knowledge

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/plugins/postgresql"
)

// Content type constants for knowledge chunks.
// A source's "content_type" metadata value becomes each chunk's source_type.
const (
	// ContentTypeStandards represents time standards (motivational, championship cuts).
	ContentTypeStandards = "standards"

	// ContentTypeRecords represents swimming records (NAG, team, world).
	ContentTypeRecords = "records"

	// ContentTypeArticles represents general swimming articles and guides.
	ContentTypeArticles = "articles"
)

// Table schema constants for the Genkit PostgreSQL plugin.
// These match the documents table in db/migrations.
const (
	DocumentsTableName    = "documents"
	DocumentsSchemaName   = "public"
	DocumentsIDColumn     = "id"
	DocumentsContentCol   = "content"
	DocumentsEmbeddingCol = "embedding"
	DocumentsMetadataCol  = "metadata"
)

// NewDocStoreConfig creates a postgresql.Config for the documents table.
// This factory ensures consistent configuration across production and tests.
func NewDocStoreConfig(embedder ai.Embedder) *postgresql.Config {
	return &postgresql.Config{
		TableName:          DocumentsTableName,
		SchemaName:         DocumentsSchemaName,
		IDColumn:           DocumentsIDColumn,
		ContentColumn:      DocumentsContentCol,
		EmbeddingColumn:    DocumentsEmbeddingCol,
		MetadataJSONColumn: DocumentsMetadataCol,
		MetadataColumns:    []string{"source_type"}, // For filtering by type
		Embedder:           embedder,
	}
}
