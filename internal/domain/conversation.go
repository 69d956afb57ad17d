package domain

import "time"

// DefaultDisplayName labels visitors who did not give a name ("guest").
const DefaultDisplayName = "Qonaq"

// Conversation ties an anonymous visitor session to its message ledger.
type Conversation struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	DisplayName string    `json:"user_name"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConversationSummary is a Conversation enriched for the operator directory.
type ConversationSummary struct {
	Conversation
	LastMessage  string `json:"last_message"`
	MessageCount int    `json:"message_count"`
}
