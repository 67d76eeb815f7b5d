package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sinispace-backend/internal/auth"
	"sinispace-backend/pkg/httputil"
)

// requireUserID extracts the authenticated user from the request context,
// writing a 401 response when it is missing.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// chatIDParam parses the {chatID} URL parameter, writing a 400 response when
// it is not a valid UUID.
func chatIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid chat ID")
		return uuid.Nil, false
	}
	return chatID, true
}
