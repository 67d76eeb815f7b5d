package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"sinispace-backend/internal/models"
	"sinispace-backend/internal/services"
	"sinispace-backend/pkg/httputil"
)

// UploadHandlers handles attachment uploads into the managed upload area.
type UploadHandlers struct {
	uploadService *services.UploadService
	maxBytes      int64
	logger        *logrus.Logger
}

func NewUploadHandlers(uploadService *services.UploadService, maxBytes int64, logger *logrus.Logger) *UploadHandlers {
	return &UploadHandlers{
		uploadService: uploadService,
		maxBytes:      maxBytes,
		logger:        logger,
	}
}

// HandleUpload accepts a single multipart file under the "file" field,
// enforces the size cap and image allow-list, and returns a location usable
// inside the inline attachment syntax.
func (h *UploadHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	location, err := h.uploadService.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedUpload) {
			httputil.RespondError(w, http.StatusUnsupportedMediaType, "Unsupported file type")
			return
		}
		h.logger.WithError(err).Error("storing upload")
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, models.UploadResponse{URL: location})
}
