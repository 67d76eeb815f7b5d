// Package streamclient consumes the chat stream protocol: a pull-based
// decoder over the server-sent-event framing emitted by the stream endpoint.
// It is the Go counterpart of the browser-side reader and doubles as a test
// harness for the protocol.
package streamclient

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"sinispace-backend/internal/models"
)

// Decoder reads framed stream events from r. It is lazy, finite and
// non-restartable: the caller drives consumption with Next, and abandoning
// the underlying reader stops the network read.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	// bufio buffers raw bytes, so multi-byte runes split across network
	// chunks reassemble before any string conversion happens.
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next event, or io.EOF once the stream ends. Blank lines
// and SSE comments are skipped. A data line whose payload does not parse as
// an event record degrades to a delta frame carrying the raw payload rather
// than being dropped.
func (d *Decoder) Next() (*models.StreamFrame, error) {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && strings.TrimSpace(line) != "" {
				// Final line without a trailing newline.
				if frame := parseLine(line); frame != nil {
					return frame, nil
				}
			}
			return nil, err
		}
		if frame := parseLine(line); frame != nil {
			return frame, nil
		}
	}
}

func parseLine(line string) *models.StreamFrame {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, ":") {
		return nil
	}
	payload := strings.TrimPrefix(line, "data: ")

	var frame models.StreamFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil || frame.Type == "" {
		// Defensive fallback: surface unparseable lines as raw delta text.
		return &models.StreamFrame{Type: models.FrameDelta, Text: payload}
	}
	return &frame
}
