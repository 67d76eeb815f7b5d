package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sinispace-backend/internal/models"
	"sinispace-backend/internal/store"
)

// chatStore implements the chat/message subset of store.Store in memory.
type chatStore struct {
	store.Store

	chats      map[uuid.UUID]*models.Chat
	messages   map[uuid.UUID][]models.Message
	deleted    []uuid.UUID
	lastLimit  int
	lastOffset int
}

func newChatStore() *chatStore {
	return &chatStore{
		chats:    make(map[uuid.UUID]*models.Chat),
		messages: make(map[uuid.UUID][]models.Message),
	}
}

func (s *chatStore) CreateChat(_ context.Context, arg store.CreateChatParams) (*models.Chat, error) {
	chat := &models.Chat{ID: arg.ID, UserID: arg.UserID, Model: arg.Model, Title: arg.Title, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.chats[chat.ID] = chat
	return chat, nil
}

func (s *chatStore) GetChatByID(_ context.Context, id, userID uuid.UUID) (*models.Chat, error) {
	chat, ok := s.chats[id]
	if !ok || chat.UserID != userID {
		return nil, store.ErrNotFound
	}
	return chat, nil
}

func (s *chatStore) ListChatsByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Chat, error) {
	s.lastLimit, s.lastOffset = limit, offset
	var out []models.Chat
	for _, c := range s.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *chatStore) UpdateChat(_ context.Context, arg store.UpdateChatParams) (*models.Chat, error) {
	chat, ok := s.chats[arg.ID]
	if !ok || chat.UserID != arg.UserID {
		return nil, store.ErrNotFound
	}
	if arg.Model != nil {
		chat.Model = *arg.Model
	}
	if arg.Title != nil {
		chat.Title = *arg.Title
	}
	return chat, nil
}

func (s *chatStore) DeleteChat(_ context.Context, id, userID uuid.UUID) error {
	chat, ok := s.chats[id]
	if !ok || chat.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.chats, id)
	delete(s.messages, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *chatStore) ListMessagesByChat(_ context.Context, chatID, userID uuid.UUID) ([]models.Message, error) {
	chat, ok := s.chats[chatID]
	if !ok || chat.UserID != userID {
		return nil, nil
	}
	return s.messages[chatID], nil
}

func TestCreateChatRequiresModel(t *testing.T) {
	svc := NewChatService(newChatStore(), testLogger())

	_, err := svc.CreateChat(context.Background(), uuid.New(), models.CreateChatRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateAndGetChat(t *testing.T) {
	cs := newChatStore()
	svc := NewChatService(cs, testLogger())
	userID := uuid.New()

	created, err := svc.CreateChat(context.Background(), userID, models.CreateChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", created.Model)
	assert.Empty(t, created.Title)

	cs.messages[created.ID] = []models.Message{
		{ID: uuid.New(), ChatID: created.ID, Role: models.RoleUser, Content: "hi"},
		{ID: uuid.New(), ChatID: created.ID, Role: models.RoleAssistant, Content: "hello"},
	}

	got, err := svc.GetChatByID(context.Background(), userID, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, models.RoleUser, got.Messages[0].Role)
	assert.Equal(t, models.RoleAssistant, got.Messages[1].Role)
}

func TestGetChatScopedByOwner(t *testing.T) {
	cs := newChatStore()
	svc := NewChatService(cs, testLogger())

	created, err := svc.CreateChat(context.Background(), uuid.New(), models.CreateChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)

	_, err = svc.GetChatByID(context.Background(), uuid.New(), created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.ListMessages(context.Background(), uuid.New(), created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListChatsClampsPagination(t *testing.T) {
	cs := newChatStore()
	svc := NewChatService(cs, testLogger())
	userID := uuid.New()

	_, err := svc.ListChats(context.Background(), userID, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 20, cs.lastLimit, "zero limit defaults")
	assert.Equal(t, 0, cs.lastOffset, "negative offset clamps")

	_, err = svc.ListChats(context.Background(), userID, 1000, 5)
	require.NoError(t, err)
	assert.Equal(t, 100, cs.lastLimit, "limit caps at 100")
	assert.Equal(t, 5, cs.lastOffset)
}

func TestUpdateChatValidation(t *testing.T) {
	svc := NewChatService(newChatStore(), testLogger())
	userID := uuid.New()

	_, err := svc.UpdateChat(context.Background(), userID, uuid.New(), models.UpdateChatRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	empty := ""
	_, err = svc.UpdateChat(context.Background(), userID, uuid.New(), models.UpdateChatRequest{Model: &empty})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateChatPartial(t *testing.T) {
	cs := newChatStore()
	svc := NewChatService(cs, testLogger())
	userID := uuid.New()

	created, err := svc.CreateChat(context.Background(), userID, models.CreateChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)

	title := "France questions"
	updated, err := svc.UpdateChat(context.Background(), userID, created.ID, models.UpdateChatRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "France questions", updated.Title)
	assert.Equal(t, "gpt-4o", updated.Model, "model untouched by title-only update")
}

func TestDeleteChat(t *testing.T) {
	cs := newChatStore()
	svc := NewChatService(cs, testLogger())
	userID := uuid.New()

	created, err := svc.CreateChat(context.Background(), userID, models.CreateChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteChat(context.Background(), uuid.New(), created.ID), store.ErrNotFound)
	require.NoError(t, svc.DeleteChat(context.Background(), userID, created.ID))
	assert.Equal(t, []uuid.UUID{created.ID}, cs.deleted)

	_, err = svc.GetChatByID(context.Background(), userID, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
