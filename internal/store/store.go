package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"sinispace-backend/internal/models"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// CreateChatParams contains parameters for creating a chat.
type CreateChatParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Model  string
	Title  string
}

// UpdateChatParams contains parameters for updating a chat.
// Nil fields are left unchanged.
type UpdateChatParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Model  *string
	Title  *string
}

// CreateMessageParams contains parameters for appending one message to a chat.
type CreateMessageParams struct {
	ID      uuid.UUID
	ChatID  uuid.UUID
	Role    string
	Content string
	Model   *string
}

// CreateUsageRecordParams contains parameters for recording provider usage
// against a chat.
type CreateUsageRecordParams struct {
	ID               uuid.UUID
	ChatID           uuid.UUID
	UserID           uuid.UUID
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	// Chat operations. Every read/write is scoped by the owning user;
	// a chat belonging to someone else behaves exactly like a missing one.
	CreateChat(ctx context.Context, arg CreateChatParams) (*models.Chat, error)
	GetChatByID(ctx context.Context, id, userID uuid.UUID) (*models.Chat, error)
	ListChatsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Chat, error)
	UpdateChat(ctx context.Context, arg UpdateChatParams) (*models.Chat, error)
	// DeleteChat removes the chat together with its messages and usage
	// records in a single transaction.
	DeleteChat(ctx context.Context, id, userID uuid.UUID) error

	// Message operations. Messages are append-only; conversation order is
	// creation-timestamp ascending.
	CreateMessage(ctx context.Context, arg CreateMessageParams) (*models.Message, error)
	ListMessagesByChat(ctx context.Context, chatID, userID uuid.UUID) ([]models.Message, error)

	// Usage metering
	CreateUsageRecord(ctx context.Context, arg CreateUsageRecordParams) error
}
