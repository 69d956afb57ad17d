package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/hooks"
	"github.com/techtribe/techtribe/internal/logging"
)

// Resolver maps a visitor session id to exactly one conversation, creating
// it on first contact.
type Resolver struct {
	store  Store
	events hooks.Emitter
	now    func() time.Time
	log    *logging.Logger
}

// NewResolver creates a session resolver. events may be nil.
func NewResolver(store Store, events hooks.Emitter, log *logging.Logger) *Resolver {
	return &Resolver{store: store, events: events, now: time.Now, log: log.Sub("chat.resolver")}
}

// Resolve returns the conversation for sessionID. An existing conversation
// is renamed to displayName and its updated_at advanced; otherwise a new one
// is created. created reports which happened.
//
// Concurrent first contacts race on the unique session index. The loser
// sees domain.ErrConflict and adopts the winner's conversation.
func (r *Resolver) Resolve(ctx context.Context, sessionID, displayName string) (domain.Conversation, bool, error) {
	return r.resolve(ctx, sessionID, displayName, true)
}

// Open is Resolve without touching an existing conversation. The caller
// owns the rename and the updated_at advance, typically folded into the
// touch that closes an exchange.
func (r *Resolver) Open(ctx context.Context, sessionID, displayName string) (domain.Conversation, bool, error) {
	return r.resolve(ctx, sessionID, displayName, false)
}

func (r *Resolver) resolve(ctx context.Context, sessionID, displayName string, touch bool) (conv domain.Conversation, created bool, err error) {
	if displayName == "" {
		displayName = domain.DefaultDisplayName
	}

	conv, err = r.store.BySession(ctx, sessionID)
	if err == nil {
		if touch {
			conv, err = r.refresh(ctx, conv, displayName)
		}
		return conv, false, err
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Conversation{}, false, fmt.Errorf("resolving session: %w", err)
	}

	now := r.now().UTC()
	conv = domain.Conversation{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		DisplayName: displayName,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = r.store.Insert(ctx, conv)
	if errors.Is(err, domain.ErrConflict) {
		winner, err := r.store.BySession(ctx, sessionID)
		if err != nil {
			return domain.Conversation{}, false, fmt.Errorf("re-fetching conversation after conflict: %w", err)
		}
		r.log.Debug().Str("session", sessionID).Str("conversation", winner.ID).Msg("lost creation race")
		if touch {
			winner, err = r.refresh(ctx, winner, displayName)
		}
		return winner, false, err
	}
	if err != nil {
		return domain.Conversation{}, false, fmt.Errorf("creating conversation: %w", err)
	}

	r.log.Info().Str("session", sessionID).Str("conversation", conv.ID).Msg("conversation started")
	if r.events != nil {
		r.events.Emit(ctx, hooks.EventConversationStarted, map[string]any{hooks.KeyConversation: conv})
	}
	return conv, true, nil
}

func (r *Resolver) refresh(ctx context.Context, conv domain.Conversation, displayName string) (domain.Conversation, error) {
	now := r.now().UTC()
	if err := r.store.Touch(ctx, conv.ID, displayName, now); err != nil {
		return domain.Conversation{}, fmt.Errorf("updating conversation: %w", err)
	}
	conv.DisplayName = displayName
	if now.After(conv.UpdatedAt) {
		conv.UpdatedAt = now
	}
	return conv, nil
}
