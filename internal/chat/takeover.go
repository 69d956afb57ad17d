package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/logging"
)

// Takeover lets an operator post into a visitor's conversation. It does not
// suspend the automated responder.
type Takeover struct {
	store  Store
	ledger *Ledger
	log    *logging.Logger
}

// NewTakeover creates the operator reply path.
func NewTakeover(store Store, ledger *Ledger, log *logging.Logger) *Takeover {
	return &Takeover{store: store, ledger: ledger, log: log.Sub("chat.takeover")}
}

// Reply appends content as an admin message and advances the
// conversation's updated_at. operatorID is recorded in the log only.
func (t *Takeover) Reply(ctx context.Context, operatorID, conversationID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	if _, err := t.store.Get(ctx, conversationID); err != nil {
		return domain.Message{}, err
	}

	msg, err := t.ledger.Append(ctx, conversationID, domain.SenderAdmin, content)
	if err != nil {
		return domain.Message{}, err
	}
	if err := t.store.Touch(ctx, conversationID, "", msg.CreatedAt); err != nil {
		return domain.Message{}, fmt.Errorf("updating conversation: %w", err)
	}

	t.log.Info().
		Str("operator", operatorID).
		Str("conversation", conversationID).
		Str("message", msg.ID).
		Msg("operator replied")
	return msg, nil
}
