package knowledge

import (
	"strings"
	"unicode/utf8"
)

// MaxChunkSize is the maximum chunk size that can be reliably embedded.
// Embedding models cap input around 2048 tokens, which is approximately 8KB
// of text. Chunks beyond this would be silently truncated during embedding,
// making the tail unretrievable.
const MaxChunkSize = 8 * 1024

// chunkText splits text into chunks of at most MaxChunkSize bytes,
// preferring paragraph boundaries. Paragraphs larger than the limit are
// hard-split at rune boundaries. Whitespace-only input yields no chunks.
func chunkText(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > MaxChunkSize {
			flush()
			chunks = append(chunks, hardSplit(para, MaxChunkSize)...)
			continue
		}

		// +2 accounts for the paragraph separator being re-added.
		if current.Len() > 0 && current.Len()+2+len(para) > MaxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// hardSplit slices s into pieces of at most max bytes without breaking
// UTF-8 sequences.
func hardSplit(s string, max int) []string {
	var pieces []string
	for len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = max
		}
		pieces = append(pieces, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		pieces = append(pieces, s)
	}
	return pieces
}
