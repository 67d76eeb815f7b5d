package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"sinispace-backend/internal/models"
	"sinispace-backend/internal/store"
)

const createMessage = `-- name: CreateMessage :one
INSERT INTO messages (id, chat_id, role, content, model)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, chat_id, role, content, model, created_at;
`

// CreateMessage appends one message to a chat. Messages are immutable once
// created; there is no update path.
func (s *PostgresStore) CreateMessage(ctx context.Context, arg store.CreateMessageParams) (*models.Message, error) {
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := s.db.QueryRow(ctx, createMessage, id, arg.ChatID, arg.Role, arg.Content, arg.Model)

	var msg models.Message
	err := row.Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.Role,
		&msg.Content,
		&msg.Model,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error scanning message: %w", err)
	}

	return &msg, nil
}

const listMessagesByChat = `-- name: ListMessagesByChat :many
SELECT m.id, m.chat_id, m.role, m.content, m.model, m.created_at
FROM messages m
JOIN chats c ON c.id = m.chat_id
WHERE m.chat_id = $1 AND c.user_id = $2
ORDER BY m.created_at ASC;
`

// ListMessagesByChat returns a chat's messages in conversation order
// (creation-timestamp ascending), scoped by the owning user.
func (s *PostgresStore) ListMessagesByChat(ctx context.Context, chatID, userID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.Query(ctx, listMessagesByChat, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.Role,
			&msg.Content,
			&msg.Model,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

const createUsageRecord = `-- name: CreateUsageRecord :exec
INSERT INTO usage_records (id, chat_id, user_id, model, prompt_tokens, completion_tokens)
VALUES ($1, $2, $3, $4, $5, $6);
`

func (s *PostgresStore) CreateUsageRecord(ctx context.Context, arg store.CreateUsageRecordParams) error {
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := s.db.Exec(ctx, createUsageRecord,
		id,
		arg.ChatID,
		arg.UserID,
		arg.Model,
		arg.PromptTokens,
		arg.CompletionTokens,
	)
	if err != nil {
		return fmt.Errorf("error creating usage record: %w", err)
	}

	return nil
}
