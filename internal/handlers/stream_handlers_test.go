package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sinispace-backend/internal/auth"
	"sinispace-backend/internal/llm"
	"sinispace-backend/internal/models"
	"sinispace-backend/internal/services"
	"sinispace-backend/internal/store"
	"sinispace-backend/pkg/streamclient"
)

type stubStore struct {
	store.Store

	chat     *models.Chat
	messages []store.CreateMessageParams
	usage    []store.CreateUsageRecordParams
}

func (s *stubStore) GetChatByID(_ context.Context, id, userID uuid.UUID) (*models.Chat, error) {
	if s.chat == nil || s.chat.ID != id || s.chat.UserID != userID {
		return nil, store.ErrNotFound
	}
	return s.chat, nil
}

func (s *stubStore) UpdateChat(_ context.Context, arg store.UpdateChatParams) (*models.Chat, error) {
	if arg.Title != nil {
		s.chat.Title = *arg.Title
	}
	if arg.Model != nil {
		s.chat.Model = *arg.Model
	}
	return s.chat, nil
}

func (s *stubStore) CreateMessage(_ context.Context, arg store.CreateMessageParams) (*models.Message, error) {
	s.messages = append(s.messages, arg)
	return &models.Message{ID: uuid.New(), ChatID: arg.ChatID, Role: arg.Role, Content: arg.Content}, nil
}

func (s *stubStore) CreateUsageRecord(_ context.Context, arg store.CreateUsageRecordParams) error {
	s.usage = append(s.usage, arg)
	return nil
}

type stubStream struct {
	events []llm.StreamEvent
	final  error
	pos    int
}

func (s *stubStream) Recv() (*llm.StreamEvent, error) {
	if s.pos < len(s.events) {
		event := s.events[s.pos]
		s.pos++
		return &event, nil
	}
	if s.final != nil {
		return nil, s.final
	}
	return nil, io.EOF
}

func (s *stubStream) Close() {}

type stubProvider struct {
	stream *stubStream
}

func (p *stubProvider) CreateCompletionStream(context.Context, *llm.CompletionRequest) (llm.Stream, error) {
	return p.stream, nil
}

func (p *stubProvider) ClientFor(string) (llm.Client, error) { return p, nil }

type noMediaResolver struct{}

func (noMediaResolver) Resolve(context.Context, string) ([]models.InlineMedia, error) {
	return nil, nil
}

func streamTestServer(t *testing.T, userID uuid.UUID, st *stubStore, provider *stubProvider) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := services.NewStreamService(st, provider, noMediaResolver{}, logger)
	handler := NewStreamHandlers(svc, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/v1/chats/{chatID}/stream", handler.HandleStreamChat)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postStream(t *testing.T, srv *httptest.Server, chatID uuid.UUID, body models.StreamChatRequest) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/v1/chats/"+chatID.String()+"/stream", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeAll(t *testing.T, r io.Reader) []models.StreamFrame {
	t.Helper()
	d := streamclient.NewDecoder(r)
	var frames []models.StreamFrame
	for {
		frame, err := d.Next()
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, *frame)
	}
}

func TestHandleStreamChatHappyPath(t *testing.T) {
	userID := uuid.New()
	st := &stubStore{chat: &models.Chat{ID: uuid.New(), UserID: userID, Model: "gpt-4o", Title: "t"}}
	provider := &stubProvider{stream: &stubStream{events: []llm.StreamEvent{
		{Token: "Hi"},
		{Token: " there"},
		{Usage: &models.StreamUsage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7}},
	}}}
	srv := streamTestServer(t, userID, st, provider)

	resp := postStream(t, srv, st.chat.ID, models.StreamChatRequest{
		Messages: []models.IncomingMessage{{Role: models.RoleUser, Content: "hello"}},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := decodeAll(t, resp.Body)
	require.Len(t, frames, 4)
	assert.Equal(t, models.StreamFrame{Type: models.FrameDelta, Text: "Hi"}, frames[0])
	assert.Equal(t, models.StreamFrame{Type: models.FrameDelta, Text: " there"}, frames[1])
	require.NotNil(t, frames[2].Usage)
	assert.Equal(t, 7, frames[2].Usage.TotalTokens)
	assert.Equal(t, models.FrameDone, frames[3].Type)

	// One user turn and one assistant turn landed in the store.
	require.Len(t, st.messages, 2)
	assert.Equal(t, models.RoleUser, st.messages[0].Role)
	assert.Equal(t, models.RoleAssistant, st.messages[1].Role)
	assert.Equal(t, "Hi there", st.messages[1].Content)
	require.Len(t, st.usage, 1)
}

func TestHandleStreamChatValidationIsPlainHTTP(t *testing.T) {
	userID := uuid.New()
	st := &stubStore{chat: &models.Chat{ID: uuid.New(), UserID: userID, Model: "gpt-4o", Title: "t"}}
	srv := streamTestServer(t, userID, st, &stubProvider{stream: &stubStream{}})

	resp := postStream(t, srv, st.chat.ID, models.StreamChatRequest{Messages: nil})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.Empty(t, st.messages)
}

func TestHandleStreamChatForeignChatIs404(t *testing.T) {
	userID := uuid.New()
	st := &stubStore{chat: &models.Chat{ID: uuid.New(), UserID: uuid.New(), Model: "gpt-4o", Title: "t"}}
	srv := streamTestServer(t, userID, st, &stubProvider{stream: &stubStream{}})

	resp := postStream(t, srv, st.chat.ID, models.StreamChatRequest{
		Messages: []models.IncomingMessage{{Role: models.RoleUser, Content: "hello"}},
	})

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, st.messages)
}

func TestHandleStreamChatMidStreamErrorIsInBand(t *testing.T) {
	userID := uuid.New()
	st := &stubStore{chat: &models.Chat{ID: uuid.New(), UserID: userID, Model: "gpt-4o", Title: "t"}}
	provider := &stubProvider{stream: &stubStream{
		events: []llm.StreamEvent{{Token: "par"}},
		final:  errors.New("upstream exploded"),
	}}
	srv := streamTestServer(t, userID, st, provider)

	resp := postStream(t, srv, st.chat.ID, models.StreamChatRequest{
		Messages: []models.IncomingMessage{{Role: models.RoleUser, Content: "hello"}},
	})

	// Headers were already committed, so the failure arrives as a frame.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	frames := decodeAll(t, resp.Body)
	require.Len(t, frames, 2)
	assert.Equal(t, models.FrameDelta, frames[0].Type)
	assert.Equal(t, models.FrameError, frames[1].Type)
	assert.NotContains(t, frames[1].Message, "exploded", "internal detail must not leak")

	// The partial assistant text was discarded.
	require.Len(t, st.messages, 1)
	assert.Equal(t, models.RoleUser, st.messages[0].Role)
}
