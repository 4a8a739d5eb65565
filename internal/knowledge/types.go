package knowledge

import (
	"time"

	"github.com/google/uuid"
)

// Source describes one knowledge source to ingest: a named URL plus the
// metadata attached to every chunk produced from it. The metadata key
// "content_type" becomes the filterable source_type of each chunk.
type Source struct {
	Name     string
	URL      string
	Metadata map[string]string
}

// Content is the bookkeeping record kept per loaded source.
type Content struct {
	ID          uuid.UUID
	Name        string
	Description string
	SourceURL   string
	Metadata    map[string]string
	ChunkCount  int
	CreatedAt   time.Time
}
