package sse

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sinispace-backend/internal/models"
)

func TestSetHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetHeaders(rec)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
}

func TestWriteEventFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvent(models.StreamFrame{Type: models.FrameDelta, Text: "Hel"}))
	require.NoError(t, w.WriteEvent(models.StreamFrame{Type: models.FrameDone}))

	want := "data: {\"type\":\"delta\",\"text\":\"Hel\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"
	assert.Equal(t, want, rec.Body.String())
	assert.True(t, rec.Flushed, "every event must be flushed immediately")
}

type noFlushWriter struct {
	http.ResponseWriter
}

func TestNewWriterRequiresFlusher(t *testing.T) {
	_, err := NewWriter(noFlushWriter{httptest.NewRecorder()})
	assert.Error(t, err)
}
