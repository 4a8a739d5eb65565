package config

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Source describes one remote document the knowledge base ingests on reload.
// The metadata map travels with every indexed chunk and is queryable through
// the retriever's metadata filter.
type Source struct {
	Name     string            `json:"name"`
	URL      string            `json:"url"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DefaultKnowledgeSources returns the built-in source list used when
// SWIMBENCH_KNOWLEDGE_SOURCES is not set: the published USA Swimming
// motivational time standards document on the product's public bucket.
func DefaultKnowledgeSources() []Source {
	return []Source{
		{
			Name: "USA Swimming Motivational Standards",
			URL:  "https://swimbench-public.s3.amazonaws.com/standards/motivational-standards-2028.pdf",
			Metadata: map[string]string{
				"user_tag":     "Motivational Standards",
				"content_type": "standards",
				"source":       "PDF",
			},
		},
	}
}

// parseKnowledgeSources resolves the ingestion source list.
// An empty override returns the built-in defaults; otherwise the override
// must be a JSON array of Source objects.
func parseKnowledgeSources(raw string) ([]Source, error) {
	if raw == "" {
		return DefaultKnowledgeSources(), nil
	}

	var sources []Source
	if err := json.Unmarshal([]byte(raw), &sources); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKnowledgeSource, err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: override list is empty", ErrInvalidKnowledgeSource)
	}
	return sources, nil
}

// validate checks a single source entry.
func (s Source) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidKnowledgeSource)
	}
	if s.URL == "" {
		return fmt.Errorf("%w: url cannot be empty", ErrInvalidKnowledgeSource)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKnowledgeSource, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https, got %q", ErrInvalidKnowledgeSource, u.Scheme)
	}
	return nil
}
