package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sinispace-backend/internal/models"
	"sinispace-backend/internal/services"
	"sinispace-backend/internal/store"
	"sinispace-backend/pkg/httputil"
)

// ChatHandlers handles HTTP requests related to chats and their messages.
type ChatHandlers struct {
	chatService *services.ChatService
}

func NewChatHandlers(chatService *services.ChatService) *ChatHandlers {
	return &ChatHandlers{chatService: chatService}
}

// HandleCreateChat handles requests to create a new chat.
func (h *ChatHandlers) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	chat, err := h.chatService.CreateChat(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to create chat")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, chat)
}

// HandleListChats handles requests to list the user's chats.
func (h *ChatHandlers) HandleListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	chats, err := h.chatService.ListChats(r.Context(), userID, limit, offset)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list chats")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chats)
}

// HandleGetChatByID handles requests to get a chat with its messages.
func (h *ChatHandlers) HandleGetChatByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	chat, err := h.chatService.GetChatByID(r.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to get chat")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// HandleListMessages handles requests to list a chat's messages in
// conversation order.
func (h *ChatHandlers) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(r.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}

// HandleUpdateChat handles requests to update a chat's model and/or title.
func (h *ChatHandlers) HandleUpdateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var req models.UpdateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	chat, err := h.chatService.UpdateChat(r.Context(), userID, chatID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to update chat")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// HandleDeleteChat handles requests to delete a chat with its messages and
// usage records.
func (h *ChatHandlers) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	if err := h.chatService.DeleteChat(r.Context(), userID, chatID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Chat not found")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to delete chat")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
