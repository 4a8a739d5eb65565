package session

import (
	"errors"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// ErrNotFound indicates the requested session does not exist in the database.
var ErrNotFound = errors.New("session not found")

// Session represents one conversation between a user and the assistant.
type Session struct {
	ID           uuid.UUID
	Title        string
	ModelName    string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message represents a single conversation message (application-level type).
// Content stores Genkit's ai.Part slice, serialized as JSONB in the database,
// so tool requests and responses survive round trips intact.
type Message struct {
	ID             uuid.UUID
	SessionID      uuid.UUID
	Role           string     // "user" | "model" | "tool" | "system"
	Content        []*ai.Part // Genkit Part slice (stored as JSONB)
	SequenceNumber int
	CreatedAt      time.Time
}

// Text returns the concatenated text content of the message.
// Non-text parts (tool requests, tool responses) are skipped.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Content {
		if p.IsText() {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
