// Package chat implements the support chat: session resolution, the
// append-only message ledger, the automated responder with its fallback,
// the operator directory, and operator takeover.
package chat

import (
	"context"
	"time"

	"github.com/techtribe/techtribe/internal/domain"
)

// Store is the persistence the chat core needs. *store.ConversationStore
// satisfies it.
type Store interface {
	BySession(ctx context.Context, sessionID string) (domain.Conversation, error)
	Get(ctx context.Context, id string) (domain.Conversation, error)
	Insert(ctx context.Context, c domain.Conversation) error
	Touch(ctx context.Context, id, displayName string, at time.Time) error
	Append(ctx context.Context, conversationID string, sender domain.Sender, content string) (domain.Message, error)
	History(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	HistoryBefore(ctx context.Context, conversationID string, seq int64, limit int) ([]domain.Message, error)
	Summaries(ctx context.Context, limit int) ([]domain.ConversationSummary, error)
}
