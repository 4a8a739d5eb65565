package config

import (
	"errors"
	"testing"
)

// TestDefaultKnowledgeSources tests the built-in source list.
func TestDefaultKnowledgeSources(t *testing.T) {
	sources := DefaultKnowledgeSources()

	if len(sources) != 1 {
		t.Fatalf("expected 1 built-in source, got %d", len(sources))
	}

	src := sources[0]
	if src.Name != "USA Swimming Motivational Standards" {
		t.Errorf("unexpected source name %q", src.Name)
	}
	if err := src.validate(); err != nil {
		t.Errorf("built-in source should validate, got: %v", err)
	}
	for _, key := range []string{"user_tag", "content_type", "source"} {
		if src.Metadata[key] == "" {
			t.Errorf("built-in source missing metadata key %q", key)
		}
	}
}

// TestParseKnowledgeSources tests override resolution.
func TestParseKnowledgeSources(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCount int
		wantErr   bool
	}{
		{
			name:      "empty uses defaults",
			raw:       "",
			wantCount: 1,
		},
		{
			name:      "valid override",
			raw:       `[{"name":"A","url":"https://a.example.com"},{"name":"B","url":"http://b.example.com"}]`,
			wantCount: 2,
		},
		{
			name:    "malformed JSON",
			raw:     `{not json`,
			wantErr: true,
		},
		{
			name:    "empty array",
			raw:     `[]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources, err := parseKnowledgeSources(tt.raw)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidKnowledgeSource) {
					t.Errorf("error should be ErrInvalidKnowledgeSource, got: %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(sources) != tt.wantCount {
				t.Errorf("got %d sources, want %d", len(sources), tt.wantCount)
			}
		})
	}
}

// TestSourceValidate tests per-source validation.
func TestSourceValidate(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		wantErr bool
	}{
		{
			name:   "valid https",
			source: Source{Name: "Standards", URL: "https://example.com/doc.pdf"},
		},
		{
			name:   "valid http",
			source: Source{Name: "Records", URL: "http://example.com/records.html"},
		},
		{
			name:    "missing name",
			source:  Source{URL: "https://example.com/doc.pdf"},
			wantErr: true,
		},
		{
			name:    "missing url",
			source:  Source{Name: "Standards"},
			wantErr: true,
		},
		{
			name:    "ftp scheme",
			source:  Source{Name: "Standards", URL: "ftp://example.com/doc.pdf"},
			wantErr: true,
		},
		{
			name:    "no scheme",
			source:  Source{Name: "Standards", URL: "example.com/doc.pdf"},
			wantErr: true,
		},
		{
			name:    "unparseable url",
			source:  Source{Name: "Standards", URL: "://bad"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.validate()
			if tt.wantErr && err == nil {
				t.Errorf("validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validate() unexpected error: %v", err)
			}
			if tt.wantErr && err != nil && !errors.Is(err, ErrInvalidKnowledgeSource) {
				t.Errorf("error should be ErrInvalidKnowledgeSource, got: %v", err)
			}
		})
	}
}
