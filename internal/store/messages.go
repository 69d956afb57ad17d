package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/techtribe/techtribe/internal/domain"
)

// Append adds a message to a conversation's ledger in a single statement.
// created_at is the current time clamped to the newest existing entry, so
// ledger order (seq) and created_at order always agree. Appending to an
// unknown conversation fails with domain.ErrNotFound and writes nothing.
// The conversation's updated_at is left to the caller.
func (s *ConversationStore) Append(ctx context.Context, conversationID string, sender domain.Sender, content string) (domain.Message, error) {
	if !sender.Valid() {
		return domain.Message{}, fmt.Errorf("%w: sender %q", domain.ErrInvalidInput, sender)
	}

	msg := domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
	}

	var createdAt string
	err := s.db.sql.QueryRowContext(ctx,
		`INSERT INTO chat_messages (id, conversation_id, sender, content, created_at)
		 SELECT ?, ?, ?, ?, MAX(?, COALESCE(
		     (SELECT MAX(created_at) FROM chat_messages WHERE conversation_id = ?), ''))
		 RETURNING seq, created_at`,
		msg.ID, conversationID, string(sender), content, formatTime(s.db.now()), conversationID,
	).Scan(&msg.Seq, &createdAt)
	if isForeignKeyViolation(err) {
		return domain.Message{}, fmt.Errorf("appending to conversation %q: %w", conversationID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Message{}, fmt.Errorf("appending message: %w", err)
	}
	msg.CreatedAt = parseTime(createdAt)

	s.db.log.Debug().
		Str("conversation", conversationID).
		Str("sender", string(sender)).
		Int64("seq", msg.Seq).
		Msg("message appended")
	return msg, nil
}

// History returns up to limit of the most recent messages of a conversation,
// oldest first. An unknown conversation yields an empty slice.
func (s *ConversationStore) History(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT seq, id, conversation_id, sender, content, created_at FROM (
		     SELECT seq, id, conversation_id, sender, content, created_at
		     FROM chat_messages WHERE conversation_id = ?
		     ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return scanMessages(rows)
}

// HistoryBefore is History restricted to messages stored before seq.
func (s *ConversationStore) HistoryBefore(ctx context.Context, conversationID string, seq int64, limit int) ([]domain.Message, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT seq, id, conversation_id, sender, content, created_at FROM (
		     SELECT seq, id, conversation_id, sender, content, created_at
		     FROM chat_messages WHERE conversation_id = ? AND seq < ?
		     ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`,
		conversationID, seq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		var sender, createdAt string
		var err error
		if err := rows.Scan(&m.Seq, &m.ID, &m.ConversationID, &sender, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if m.Sender, err = domain.ParseSender(sender); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountMessages returns the number of messages in a conversation.
func (s *ConversationStore) CountMessages(ctx context.Context, conversationID string) (int, error) {
	return count(ctx, s.db, `SELECT COUNT(*) FROM chat_messages WHERE conversation_id = ?`, conversationID)
}
