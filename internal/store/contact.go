package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/techtribe/techtribe/internal/domain"
)

// ContactStore persists contact-form submissions.
type ContactStore struct {
	db *DB
}

// NewContactStore creates a contact store using the given database.
func NewContactStore(db *DB) *ContactStore {
	return &ContactStore{db: db}
}

// Create stores a new, unread submission.
func (s *ContactStore) Create(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	m.ID = uuid.New().String()
	m.IsRead = false
	m.CreatedAt = s.db.now().UTC()

	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, email, phone, subject, message, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		m.ID, m.Name, m.Email, m.Phone, m.Subject, m.Message, formatTime(m.CreatedAt),
	)
	if err != nil {
		return domain.ContactMessage{}, fmt.Errorf("inserting contact message: %w", err)
	}
	return m, nil
}

// List returns submissions newest first.
func (s *ContactStore) List(ctx context.Context, limit int) ([]domain.ContactMessage, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, name, email, phone, subject, message, is_read, created_at
		 FROM contact_messages ORDER BY created_at DESC, rowid DESC LIMIT ?`, limitOr(limit, 100))
	if err != nil {
		return nil, fmt.Errorf("listing contact messages: %w", err)
	}
	defer rows.Close()

	out := []domain.ContactMessage{}
	for rows.Next() {
		var m domain.ContactMessage
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.IsRead, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning contact message: %w", err)
		}
		m.CreatedAt = parseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead flags a submission as read.
func (s *ContactStore) MarkRead(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, `UPDATE contact_messages SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking contact message read: %w", err)
	}
	return requireAffected(res, "marking contact message read")
}

// Delete removes a submission.
func (s *ContactStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact message: %w", err)
	}
	return requireAffected(res, "deleting contact message")
}

// Counts returns the total and unread number of submissions.
func (s *ContactStore) Counts(ctx context.Context) (total, unread int, err error) {
	err = s.db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0) FROM contact_messages`,
	).Scan(&total, &unread)
	if err != nil {
		return 0, 0, fmt.Errorf("counting contact messages: %w", err)
	}
	return total, unread, nil
}
