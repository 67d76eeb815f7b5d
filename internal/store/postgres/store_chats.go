package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sinispace-backend/internal/models"
	"sinispace-backend/internal/store"
)

const createChat = `-- name: CreateChat :one
INSERT INTO chats (id, user_id, model, title)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, model, title, created_at, updated_at;
`

func (s *PostgresStore) CreateChat(ctx context.Context, arg store.CreateChatParams) (*models.Chat, error) {
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := s.db.QueryRow(ctx, createChat, id, arg.UserID, arg.Model, arg.Title)

	var chat models.Chat
	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Model,
		&chat.Title,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error scanning chat: %w", err)
	}

	return &chat, nil
}

const getChatByID = `-- name: GetChatByID :one
SELECT id, user_id, model, title, created_at, updated_at
FROM chats
WHERE id = $1 AND user_id = $2;
`

// GetChatByID retrieves a chat scoped by its owning user. A chat owned by a
// different user returns store.ErrNotFound, same as a missing chat.
func (s *PostgresStore) GetChatByID(ctx context.Context, id, userID uuid.UUID) (*models.Chat, error) {
	row := s.db.QueryRow(ctx, getChatByID, id, userID)

	var chat models.Chat
	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Model,
		&chat.Title,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning chat: %w", err)
	}

	return &chat, nil
}

const listChatsByUser = `-- name: ListChatsByUser :many
SELECT id, user_id, model, title, created_at, updated_at
FROM chats
WHERE user_id = $1
ORDER BY updated_at DESC
LIMIT $2 OFFSET $3;
`

func (s *PostgresStore) ListChatsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Chat, error) {
	rows, err := s.db.Query(ctx, listChatsByUser, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying chats: %w", err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(
			&chat.ID,
			&chat.UserID,
			&chat.Model,
			&chat.Title,
			&chat.CreatedAt,
			&chat.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning chat row: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat rows: %w", err)
	}

	return chats, nil
}

const updateChat = `-- name: UpdateChat :one
UPDATE chats
SET model      = COALESCE($3, model),
    title      = COALESCE($4, title),
    updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, model, title, created_at, updated_at;
`

// UpdateChat applies a partial update (model and/or title). The model is
// deliberately mutable: users may switch models mid-conversation.
func (s *PostgresStore) UpdateChat(ctx context.Context, arg store.UpdateChatParams) (*models.Chat, error) {
	row := s.db.QueryRow(ctx, updateChat, arg.ID, arg.UserID, arg.Model, arg.Title)

	var chat models.Chat
	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Model,
		&chat.Title,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning chat: %w", err)
	}

	return &chat, nil
}

const deleteChatUsage = `-- name: DeleteChatUsage :exec
DELETE FROM usage_records WHERE chat_id = $1;
`

const deleteChatMessages = `-- name: DeleteChatMessages :exec
DELETE FROM messages WHERE chat_id = $1;
`

const deleteChat = `-- name: DeleteChat :exec
DELETE FROM chats WHERE id = $1 AND user_id = $2;
`

// DeleteChat removes a chat together with its messages and usage records in
// a single transaction. This is the only multi-row write in the system that
// requires atomicity.
func (s *PostgresStore) DeleteChat(ctx context.Context, id, userID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Ownership check first so a non-owner cannot cascade somebody else's rows.
	var owner uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT user_id FROM chats WHERE id = $1`, id).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("error verifying chat ownership: %w", err)
	}
	if owner != userID {
		return store.ErrNotFound
	}

	if _, err := tx.Exec(ctx, deleteChatUsage, id); err != nil {
		return fmt.Errorf("error deleting usage records: %w", err)
	}
	if _, err := tx.Exec(ctx, deleteChatMessages, id); err != nil {
		return fmt.Errorf("error deleting messages: %w", err)
	}

	tag, err := tx.Exec(ctx, deleteChat, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return tx.Commit(ctx)
}
