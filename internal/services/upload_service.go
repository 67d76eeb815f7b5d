package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedUpload is returned for files outside the image allow-list.
var ErrUnsupportedUpload = errors.New("unsupported file type")

// Extensions accepted by the upload endpoint. The managed upload area only
// ever holds chat image attachments.
var allowedUploadExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".heic": true,
}

// UploadService stores chat attachments under the managed upload area.
// Filenames are random per write, so the area is append-only shared storage
// with no locking.
type UploadService struct {
	uploadDir     string
	uploadURLPath string
	logger        *logrus.Logger
}

func NewUploadService(uploadDir, uploadURLPath string, logger *logrus.Logger) (*UploadService, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &UploadService{
		uploadDir:     uploadDir,
		uploadURLPath: uploadURLPath,
		logger:        logger,
	}, nil
}

// Save writes one uploaded file and returns the location usable inside the
// inline attachment syntax (e.g. "/uploads/<name>").
func (s *UploadService) Save(filename string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedUploadExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedUpload, ext)
	}

	// Sniff the leading bytes too; the extension alone is caller-controlled.
	// Unknown binary passes (http.DetectContentType knows no HEIC), text does not.
	head := make([]byte, 512)
	n, err := io.ReadFull(content, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]
	sniffed := http.DetectContentType(head)
	if !strings.HasPrefix(sniffed, "image/") && sniffed != "application/octet-stream" {
		return "", fmt.Errorf("%w: content looks like %s", ErrUnsupportedUpload, sniffed)
	}

	name := uuid.New().String() + ext
	full := filepath.Join(s.uploadDir, name)

	out, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, io.MultiReader(bytes.NewReader(head), content))
	if err != nil {
		os.Remove(full)
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"name": name, "bytes": written}).Info("stored upload")
	return path.Join(s.uploadURLPath, name), nil
}
