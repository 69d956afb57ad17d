package chat

import (
	"context"

	"github.com/techtribe/techtribe/internal/domain"
)

// Directory lists conversations for operators, most recently active first.
type Directory struct {
	store Store
	limit int
}

// NewDirectory creates a directory capped at limit entries.
func NewDirectory(store Store, limit int) *Directory {
	if limit <= 0 {
		limit = 100
	}
	return &Directory{store: store, limit: limit}
}

// List returns up to the configured number of summaries ordered by
// updated_at descending.
func (d *Directory) List(ctx context.Context) ([]domain.ConversationSummary, error) {
	return d.store.Summaries(ctx, d.limit)
}
