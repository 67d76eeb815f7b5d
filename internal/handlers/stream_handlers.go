package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"sinispace-backend/internal/models"
	"sinispace-backend/internal/services"
	"sinispace-backend/internal/store"
	"sinispace-backend/pkg/httputil"
	"sinispace-backend/pkg/sse"
)

// StreamHandlers handles the streaming chat endpoint.
type StreamHandlers struct {
	streamService *services.StreamService
	logger        *logrus.Logger
}

func NewStreamHandlers(streamService *services.StreamService, logger *logrus.Logger) *StreamHandlers {
	return &StreamHandlers{streamService: streamService, logger: logger}
}

// sseSink adapts the SSE writer to the relay's event sink.
type sseSink struct {
	w *sse.Writer
}

func (s *sseSink) Delta(text string) error {
	return s.w.WriteEvent(models.StreamFrame{Type: models.FrameDelta, Text: text})
}

func (s *sseSink) Usage(usage models.StreamUsage) error {
	return s.w.WriteEvent(models.StreamFrame{Type: models.FrameUsage, Usage: &usage})
}

func (s *sseSink) Done() error {
	return s.w.WriteEvent(models.StreamFrame{Type: models.FrameDone})
}

func (s *sseSink) Error(message string) error {
	return s.w.WriteEvent(models.StreamFrame{Type: models.FrameError, Message: message})
}

// HandleStreamChat relays one streaming chat turn. Validation, authorization
// and the user-turn write happen before headers commit, so those failures
// are plain HTTP errors; once the SSE response is open, every failure is an
// in-band error frame and the handler never panics or writes a status.
func (h *StreamHandlers) HandleStreamChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var req models.StreamChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	run, err := h.streamService.Begin(r.Context(), userID, chatID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		default:
			h.logger.WithError(err).Error("beginning stream")
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to start stream")
		}
		return
	}

	sse.SetHeaders(w)
	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}
	w.WriteHeader(http.StatusOK)

	run.Relay(r.Context(), &sseSink{w: writer})
}
