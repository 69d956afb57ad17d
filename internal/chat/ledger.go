package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/hooks"
	"github.com/techtribe/techtribe/internal/logging"
)

// Ledger is the append-only, ordered record of every conversation. All
// three writers go through Append.
type Ledger struct {
	store  Store
	events hooks.Emitter
	log    *logging.Logger
}

// NewLedger creates a ledger. events may be nil.
func NewLedger(store Store, events hooks.Emitter, log *logging.Logger) *Ledger {
	return &Ledger{store: store, events: events, log: log.Sub("chat.ledger")}
}

// Append stores one message. Visitor and admin content must be non-blank.
// It does not touch the conversation's updated_at.
func (l *Ledger) Append(ctx context.Context, conversationID string, sender domain.Sender, content string) (domain.Message, error) {
	if !sender.Valid() {
		return domain.Message{}, fmt.Errorf("%w: sender %q", domain.ErrInvalidInput, sender)
	}
	if sender != domain.SenderBot && strings.TrimSpace(content) == "" {
		return domain.Message{}, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}

	msg, err := l.store.Append(ctx, conversationID, sender, content)
	if err != nil {
		return domain.Message{}, err
	}

	if l.events != nil {
		l.events.Emit(ctx, hooks.EventMessageAppended, map[string]any{hooks.KeyMessage: msg})
	}
	return msg, nil
}

// History returns up to limit of the newest messages, oldest first.
// Repeated calls without an intervening append return the same sequence.
func (l *Ledger) History(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	return l.store.History(ctx, conversationID, limit)
}

// VisitorHistory is what a visitor sees for their own session.
type VisitorHistory struct {
	Messages       []domain.Message `json:"messages"`
	ConversationID *string          `json:"conversation_id"`
}

// ForSession reads history through the visitor's session token. A session
// with no conversation yet is a normal state and yields an empty result.
func (l *Ledger) ForSession(ctx context.Context, sessionID string, limit int) (VisitorHistory, error) {
	conv, err := l.store.BySession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return VisitorHistory{Messages: []domain.Message{}}, nil
	}
	if err != nil {
		return VisitorHistory{}, err
	}

	msgs, err := l.History(ctx, conv.ID, limit)
	if err != nil {
		return VisitorHistory{}, err
	}
	return VisitorHistory{Messages: msgs, ConversationID: &conv.ID}, nil
}

// ForAdmin reads history by conversation id. An unknown id yields an empty
// list rather than an error.
func (l *Ledger) ForAdmin(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	return l.History(ctx, conversationID, limit)
}
