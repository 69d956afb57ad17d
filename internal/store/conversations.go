package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/techtribe/techtribe/internal/domain"
)

// ConversationStore persists chat conversations and their message ledgers.
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a conversation store using the given database.
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

const conversationColumns = `id, session_id, display_name, active, created_at, updated_at`

func scanConversation(row interface{ Scan(...any) error }) (domain.Conversation, error) {
	var c domain.Conversation
	var createdAt, updatedAt string
	if err := row.Scan(&c.ID, &c.SessionID, &c.DisplayName, &c.Active, &createdAt, &updatedAt); err != nil {
		return c, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

// BySession returns the conversation bound to a visitor session.
func (s *ConversationStore) BySession(ctx context.Context, sessionID string) (domain.Conversation, error) {
	row := s.db.sql.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM chat_conversations WHERE session_id = ?`, sessionID)
	c, err := scanConversation(row)
	if err != nil {
		return c, notFound(err, "conversation by session")
	}
	return c, nil
}

// Get returns a conversation by id.
func (s *ConversationStore) Get(ctx context.Context, id string) (domain.Conversation, error) {
	row := s.db.sql.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM chat_conversations WHERE id = ?`, id)
	c, err := scanConversation(row)
	if err != nil {
		return c, notFound(err, "conversation")
	}
	return c, nil
}

// Insert stores a new conversation. It returns domain.ErrConflict when the
// session id is already bound to another conversation.
func (s *ConversationStore) Insert(ctx context.Context, c domain.Conversation) error {
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO chat_conversations (`+conversationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.SessionID, c.DisplayName, c.Active, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("conversation for session %q: %w", c.SessionID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}
	s.db.log.Debug().Str("id", c.ID).Str("session", c.SessionID).Msg("conversation created")
	return nil
}

// Touch advances updated_at to at and, when displayName is non-empty, renames
// the conversation. updated_at never moves backwards.
func (s *ConversationStore) Touch(ctx context.Context, id, displayName string, at time.Time) error {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE chat_conversations
		 SET updated_at = MAX(updated_at, ?),
		     display_name = CASE WHEN ? = '' THEN display_name ELSE ? END
		 WHERE id = ?`,
		formatTime(at), displayName, displayName, id,
	)
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}
	return requireAffected(res, "touching conversation")
}

// Summaries lists conversations most recently active first, each enriched
// with its last message and message count. It never writes.
func (s *ConversationStore) Summaries(ctx context.Context, limit int) ([]domain.ConversationSummary, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT c.id, c.session_id, c.display_name, c.active, c.created_at, c.updated_at,
		        COALESCE((SELECT m.content FROM chat_messages m
		                  WHERE m.conversation_id = c.id ORDER BY m.seq DESC LIMIT 1), ''),
		        (SELECT COUNT(*) FROM chat_messages m WHERE m.conversation_id = c.id)
		 FROM chat_conversations c
		 ORDER BY c.updated_at DESC, c.rowid DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	out := []domain.ConversationSummary{}
	for rows.Next() {
		var sum domain.ConversationSummary
		var createdAt, updatedAt string
		if err := rows.Scan(
			&sum.ID, &sum.SessionID, &sum.DisplayName, &sum.Active, &createdAt, &updatedAt,
			&sum.LastMessage, &sum.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		sum.CreatedAt = parseTime(createdAt)
		sum.UpdatedAt = parseTime(updatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count returns the number of conversations.
func (s *ConversationStore) Count(ctx context.Context) (int, error) {
	return count(ctx, s.db, `SELECT COUNT(*) FROM chat_conversations`)
}

func count(ctx context.Context, db *DB, query string, args ...any) (int, error) {
	var n int
	if err := db.sql.QueryRowContext(ctx, query, args...).Scan(&n); err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("counting: %w", err)
	}
	return n, nil
}
