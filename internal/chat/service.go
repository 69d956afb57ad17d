package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/hooks"
	"github.com/techtribe/techtribe/internal/logging"
)

// Limits bounds the read projections.
type Limits struct {
	Transcript int
	Directory  int
}

// Service wires the chat components together and is what the HTTP layer
// calls.
type Service struct {
	store     Store
	resolver  *Resolver
	ledger    *Ledger
	responder *Gateway
	directory *Directory
	takeover  *Takeover
	limits    Limits
	log       *logging.Logger
}

// NewService builds the chat core on top of store. events may be nil.
func NewService(store Store, responder *Gateway, events hooks.Emitter, log *logging.Logger, limits Limits) *Service {
	if limits.Transcript <= 0 {
		limits.Transcript = 200
	}
	ledger := NewLedger(store, events, log)
	return &Service{
		store:     store,
		resolver:  NewResolver(store, events, log),
		ledger:    ledger,
		responder: responder,
		directory: NewDirectory(store, limits.Directory),
		takeover:  NewTakeover(store, ledger, log),
		limits:    limits,
		log:       log.Sub("chat"),
	}
}

// SendRequest is a visitor message.
type SendRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UserName  string `json:"user_name"`
}

// SendResult is returned to the visitor. MessageID identifies the bot reply.
type SendResult struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

// Send runs one visitor exchange: resolve the session, append the visitor
// message, obtain a reply, append it, then rename the conversation and
// advance updated_at in a single touch. Once the visitor message is stored
// the exchange completes even if ctx is cancelled, so every accepted send
// leaves exactly two messages.
func (s *Service) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return SendResult{}, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Message) == "" {
		return SendResult{}, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = domain.DefaultDisplayName
	}

	conv, _, err := s.resolver.Open(ctx, sessionID, name)
	if err != nil {
		return SendResult{}, err
	}
	visitor, err := s.ledger.Append(ctx, conv.ID, domain.SenderVisitor, req.Message)
	if err != nil {
		return SendResult{}, fmt.Errorf("storing visitor message: %w", err)
	}

	ctx = context.WithoutCancel(ctx)
	reply := s.responder.Reply(ctx, visitor)

	bot, err := s.ledger.Append(ctx, conv.ID, domain.SenderBot, reply)
	if err != nil {
		return SendResult{}, fmt.Errorf("storing reply: %w", err)
	}
	if err := s.store.Touch(ctx, conv.ID, name, bot.CreatedAt); err != nil {
		return SendResult{}, fmt.Errorf("updating conversation: %w", err)
	}

	return SendResult{Reply: reply, ConversationID: conv.ID, MessageID: bot.ID}, nil
}

// History is the visitor-facing read, keyed by session.
func (s *Service) History(ctx context.Context, sessionID string) (VisitorHistory, error) {
	return s.ledger.ForSession(ctx, sessionID, s.limits.Transcript)
}

// Conversations lists conversations for operators.
func (s *Service) Conversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	return s.directory.List(ctx)
}

// Transcript is the operator-facing read, keyed by conversation id.
func (s *Service) Transcript(ctx context.Context, conversationID string) ([]domain.Message, error) {
	return s.ledger.ForAdmin(ctx, conversationID, s.limits.Transcript)
}

// AdminReply posts an operator message into an existing conversation.
func (s *Service) AdminReply(ctx context.Context, operatorID, conversationID, content string) (domain.Message, error) {
	return s.takeover.Reply(ctx, operatorID, conversationID, content)
}
