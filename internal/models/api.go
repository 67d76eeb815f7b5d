package models

import (
	"time"

	"github.com/google/uuid"
)

// ErrorResponse is the standard JSON error body for non-stream endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Auth DTOs ---

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
}

// --- Chat DTOs ---

type CreateChatRequest struct {
	Model string  `json:"model"`
	Title *string `json:"title,omitempty"`
}

// UpdateChatRequest carries partial updates; nil fields are left untouched.
type UpdateChatRequest struct {
	Model *string `json:"model,omitempty"`
	Title *string `json:"title,omitempty"`
}

type ChatResponse struct {
	ID        uuid.UUID         `json:"id"`
	Model     string            `json:"model"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []MessageResponse `json:"messages,omitempty"`
}

type ListChatsResponse struct {
	Chats []ChatResponse `json:"chats"`
}

type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     *string   `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// --- Stream DTOs ---

// IncomingMessage is one element of a stream request's conversation.
// The final element must have role "user".
type IncomingMessage struct {
	ID      *string `json:"id,omitempty"`
	Role    string  `json:"role"`
	Content string  `json:"content"`
}

// StreamChatRequest is the body POSTed to /v1/chats/{chatID}/stream.
// Model, when set, overrides (and persists to) the chat's selected model.
type StreamChatRequest struct {
	Model    *string           `json:"model,omitempty"`
	Messages []IncomingMessage `json:"messages"`
}

// --- Upload DTOs ---

type UploadResponse struct {
	URL string `json:"url"`
}
