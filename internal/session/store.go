package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pagination defaults applied when callers pass non-positive values.
const (
	DefaultListLimit    = 50
	DefaultMessageLimit = 100
)

// sessionCols is the standard SELECT column list for scanSession.
const sessionCols = `id, title, model_name, message_count, created_at, updated_at`

// messageCols is the standard SELECT column list for scanMessages.
const messageCols = `id, session_id, role, content, sequence_number, created_at`

// Store manages session persistence with a PostgreSQL backend.
//
// Store is safe for concurrent use. All state lives in PostgreSQL;
// no shared Go-side state exists. AddMessages serializes writers on the
// same session with a row lock, so sequence numbers stay gapless and
// strictly increasing per session.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a session Store.
func New(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{pool: pool, logger: logger}, nil
}

// CreateSession creates a new conversation session.
// Empty title and model name are stored as NULL.
func (s *Store) CreateSession(ctx context.Context, title, modelName string) (*Session, error) {
	var titlePtr, modelNamePtr *string
	if title != "" {
		titlePtr = &title
	}
	if modelName != "" {
		modelNamePtr = &modelName
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (title, model_name)
		 VALUES ($1, $2)
		 RETURNING `+sessionCols,
		titlePtr, modelNamePtr,
	)
	session, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Debug("created session", "id", session.ID, "title", session.Title)
	return session, nil
}

// GetSession retrieves a session by ID.
// Returns ErrNotFound when no session with that ID exists.
func (s *Store) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = $1`,
		sessionID,
	)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", sessionID, err)
	}
	return session, nil
}

// ListSessions lists sessions ordered by updated_at descending, so the most
// recently active conversation comes first. Non-positive limits fall back to
// DefaultListLimit; negative offsets are treated as zero.
func (s *Store) ListSessions(ctx context.Context, limit, offset int) ([]*Session, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionCols+`
		 FROM sessions
		 ORDER BY updated_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return sessions, nil
}

// CountSessions returns the total number of sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}

// DeleteSession deletes a session and all its messages (ON DELETE CASCADE).
// Returns ErrNotFound when no session with that ID exists.
func (s *Store) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted session", "id", sessionID)
	return nil
}

// AddMessages appends messages to a session in one transaction.
//
// The session row is locked with SELECT ... FOR UPDATE before sequence
// numbers are assigned, so concurrent writers to the same session cannot
// collide on the (session_id, sequence_number) uniqueness constraint.
// If any step fails, the entire batch rolls back.
//
// Content is validated and marshaled before the transaction begins, so
// malformed input never holds the session lock.
func (s *Store) AddMessages(ctx context.Context, sessionID uuid.UUID, messages []*Message) error {
	if len(messages) == 0 {
		return nil
	}

	contents := make([][]byte, len(messages))
	for i, msg := range messages {
		if msg == nil {
			return fmt.Errorf("message %d is nil", i)
		}
		for j, part := range msg.Content {
			if part == nil {
				return fmt.Errorf("message %d has nil content at index %d", i, j)
			}
		}
		raw, err := json.Marshal(msg.Content)
		if err != nil {
			return fmt.Errorf("marshaling content of message %d: %w", i, err)
		}
		contents[i] = raw
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lockedID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM sessions WHERE id = $1 FOR UPDATE`,
		sessionID,
	).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("locking session %s: %w", sessionID, err)
	}

	var maxSeq int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM session_messages WHERE session_id = $1`,
		sessionID,
	).Scan(&maxSeq); err != nil {
		return fmt.Errorf("reading max sequence number: %w", err)
	}

	for i, msg := range messages {
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_messages (session_id, role, content, sequence_number)
			 VALUES ($1, $2, $3, $4)`,
			sessionID, msg.Role, contents[i], maxSeq+i+1,
		); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sessions
		 SET message_count = COALESCE(message_count, 0) + $2, updated_at = now()
		 WHERE id = $1`,
		sessionID, len(messages),
	); err != nil {
		return fmt.Errorf("updating session counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("added messages", "session_id", sessionID, "count", len(messages))
	return nil
}

// GetMessages retrieves messages for a session ordered by sequence number
// ascending (chronological). Non-positive limits fall back to
// DefaultMessageLimit; negative offsets are treated as zero.
func (s *Store) GetMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+messageCols+`
		 FROM session_messages
		 WHERE session_id = $1
		 ORDER BY sequence_number ASC
		 LIMIT $2 OFFSET $3`,
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("getting messages for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	return s.scanMessages(rows)
}

// History returns the most recent conversation turns as model messages,
// oldest first, ready to seed a generation request. A run is one user
// message plus the model's reply, so runs*2 messages are fetched.
// Non-positive runs return an empty history.
func (s *Store) History(ctx context.Context, sessionID uuid.UUID, runs int) ([]*ai.Message, error) {
	if runs <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+messageCols+`
		 FROM session_messages
		 WHERE session_id = $1
		 ORDER BY sequence_number DESC
		 LIMIT $2`,
		sessionID, runs*2,
	)
	if err != nil {
		return nil, fmt.Errorf("loading history for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	messages, err := s.scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Rows arrive newest first; the model expects chronological order.
	slices.Reverse(messages)

	aiMessages := make([]*ai.Message, len(messages))
	for i, msg := range messages {
		aiMessages[i] = &ai.Message{
			Role:    ai.Role(msg.Role),
			Content: msg.Content,
		}
	}
	return aiMessages, nil
}

// scanSession reads one Session from a row (standard column set).
// Nullable columns collapse to zero values.
func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	var title, modelName *string
	var messageCount *int32
	if err := row.Scan(
		&session.ID, &title, &modelName, &messageCount,
		&session.CreatedAt, &session.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if title != nil {
		session.Title = *title
	}
	if modelName != nil {
		session.ModelName = *modelName
	}
	if messageCount != nil {
		session.MessageCount = int(*messageCount)
	}
	return session, nil
}

// scanMessages reads Message structs from pgx.Rows (standard column set).
// Rows whose content no longer unmarshals are skipped with a warning rather
// than failing the whole read.
func (s *Store) scanMessages(rows pgx.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		var raw []byte
		if err := rows.Scan(
			&msg.ID, &msg.SessionID, &msg.Role, &raw,
			&msg.SequenceNumber, &msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if err := json.Unmarshal(raw, &msg.Content); err != nil {
			s.logger.Warn("skipping message with malformed content",
				"message_id", msg.ID, "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return messages, nil
}
