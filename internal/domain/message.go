package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sender identifies who wrote a chat message. The set is closed; values
// outside it are rejected at every boundary.
type Sender string

const (
	SenderVisitor Sender = "user"  // anonymous site visitor
	SenderBot     Sender = "bot"   // automated responder
	SenderAdmin   Sender = "admin" // authenticated operator
)

// ParseSender converts a wire tag into a Sender.
func ParseSender(s string) (Sender, error) {
	switch Sender(s) {
	case SenderVisitor, SenderBot, SenderAdmin:
		return Sender(s), nil
	}
	return "", fmt.Errorf("%w: unknown sender %q", ErrInvalidInput, s)
}

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	_, err := ParseSender(string(s))
	return err == nil
}

// UnmarshalJSON rejects unknown sender tags.
func (s *Sender) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseSender(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Message is one entry of a conversation's append-only ledger.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         Sender    `json:"sender"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`

	// Seq is the storage insertion order, used to break created_at ties.
	Seq int64 `json:"-"`
}
