package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the database.
type User struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Chat represents a persisted conversation owned by one user.
// Model is mutable: users may switch models mid-conversation.
type Chat struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Model     string    `db:"model"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Message represents one turn in a chat. Messages are immutable once created
// and are only ever appended, or bulk-deleted together with their parent chat.
// Conversation order is creation-timestamp ascending.
type Message struct {
	ID        uuid.UUID `db:"id"`
	ChatID    uuid.UUID `db:"chat_id"`
	Role      string    `db:"role"` // "user", "assistant" or "system"
	Content   string    `db:"content"`
	Model     *string   `db:"model"` // which model produced an assistant turn
	CreatedAt time.Time `db:"created_at"`
}

// Message roles. The provider adapter translates these into whichever role
// vocabulary the selected backend expects.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// UsageRecord is the billing/metering entity associated with a chat.
// It exists here so the chat delete cascade covers it.
type UsageRecord struct {
	ID               uuid.UUID `db:"id"`
	ChatID           uuid.UUID `db:"chat_id"`
	UserID           uuid.UUID `db:"user_id"`
	Model            string    `db:"model"`
	PromptTokens     int       `db:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens"`
	CreatedAt        time.Time `db:"created_at"`
}
