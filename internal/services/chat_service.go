package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sinispace-backend/internal/models"
	"sinispace-backend/internal/store"
)

// ChatService handles chat CRUD. Ownership scoping lives in the store: every
// operation takes the requesting user's ID, and foreign chats surface as
// store.ErrNotFound.
type ChatService struct {
	store  store.Store
	logger *logrus.Logger
}

func NewChatService(s store.Store, logger *logrus.Logger) *ChatService {
	return &ChatService{store: s, logger: logger}
}

func mapChatToResponse(chat *models.Chat, messages []models.Message) *models.ChatResponse {
	resp := &models.ChatResponse{
		ID:        chat.ID,
		Model:     chat.Model,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
	for i := range messages {
		resp.Messages = append(resp.Messages, mapMessageToResponse(&messages[i]))
	}
	return resp
}

func mapMessageToResponse(msg *models.Message) models.MessageResponse {
	return models.MessageResponse{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		Model:     msg.Model,
		CreatedAt: msg.CreatedAt,
	}
}

// CreateChat creates a new chat for the user.
func (s *ChatService) CreateChat(ctx context.Context, userID uuid.UUID, req models.CreateChatRequest) (*models.ChatResponse, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrValidation)
	}

	title := ""
	if req.Title != nil {
		title = *req.Title
	}

	chat, err := s.store.CreateChat(ctx, store.CreateChatParams{
		ID:     uuid.New(),
		UserID: userID,
		Model:  req.Model,
		Title:  title,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat in store: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"chat_id": chat.ID, "user_id": userID, "model": chat.Model}).Info("chat created")
	return mapChatToResponse(chat, nil), nil
}

// GetChatByID retrieves a chat with its messages in conversation order.
func (s *ChatService) GetChatByID(ctx context.Context, userID, chatID uuid.UUID) (*models.ChatResponse, error) {
	chat, err := s.store.GetChatByID(ctx, chatID, userID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get chat from store: %w", err)
	}

	messages, err := s.store.ListMessagesByChat(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	return mapChatToResponse(chat, messages), nil
}

// ListChats retrieves the user's chats, most recently updated first.
func (s *ChatService) ListChats(ctx context.Context, userID uuid.UUID, limit, offset int) (*models.ListChatsResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	chats, err := s.store.ListChatsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats from store: %w", err)
	}

	resp := &models.ListChatsResponse{Chats: make([]models.ChatResponse, 0, len(chats))}
	for i := range chats {
		resp.Chats = append(resp.Chats, *mapChatToResponse(&chats[i], nil))
	}
	return resp, nil
}

// ListMessages retrieves a chat's messages in conversation order.
func (s *ChatService) ListMessages(ctx context.Context, userID, chatID uuid.UUID) (*models.ListMessagesResponse, error) {
	// Ownership check first; the join in ListMessagesByChat would silently
	// return an empty list for a foreign chat.
	if _, err := s.store.GetChatByID(ctx, chatID, userID); err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get chat from store: %w", err)
	}

	messages, err := s.store.ListMessagesByChat(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	resp := &models.ListMessagesResponse{Messages: make([]models.MessageResponse, 0, len(messages))}
	for i := range messages {
		resp.Messages = append(resp.Messages, mapMessageToResponse(&messages[i]))
	}
	return resp, nil
}

// UpdateChat applies a partial update (model and/or title).
func (s *ChatService) UpdateChat(ctx context.Context, userID, chatID uuid.UUID, req models.UpdateChatRequest) (*models.ChatResponse, error) {
	if req.Model == nil && req.Title == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if req.Model != nil && *req.Model == "" {
		return nil, fmt.Errorf("%w: model cannot be empty", ErrValidation)
	}

	chat, err := s.store.UpdateChat(ctx, store.UpdateChatParams{
		ID:     chatID,
		UserID: userID,
		Model:  req.Model,
		Title:  req.Title,
	})
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}

	return mapChatToResponse(chat, nil), nil
}

// DeleteChat removes a chat with its messages and usage records.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	if err := s.store.DeleteChat(ctx, chatID, userID); err != nil {
		if err == store.ErrNotFound {
			return err
		}
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"chat_id": chatID, "user_id": userID}).Info("chat deleted")
	return nil
}
