package models

import (
	"encoding/base64"
	"fmt"
)

// Stream frame types as they appear in the "type" discriminator of each
// server-sent event payload.
const (
	FrameDelta = "delta"
	FrameUsage = "usage"
	FrameDone  = "done"
	FrameError = "error"
)

// StreamFrame is the JSON payload of one server-sent event on the chat
// stream. Exactly one of the optional fields is populated, depending on Type.
type StreamFrame struct {
	Type    string       `json:"type"`
	Text    string       `json:"text,omitempty"`
	Usage   *StreamUsage `json:"usage,omitempty"`
	Message string       `json:"message,omitempty"`
}

// StreamUsage reports provider token accounting for one completed stream.
// Providers that do not report usage leave it zero-valued.
type StreamUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// InlineMedia is one resolved attachment: raw bytes plus their MIME type.
// It is resolved once per request and formatted per destination, so both
// provider encodings (inline base64 object vs. data-URL string) come from
// the same fetch.
type InlineMedia struct {
	MIME string
	Data []byte
}

// DataURL renders the media as a base64 data URL, the shape the OpenAI-style
// backend expects for inline images.
func (m InlineMedia) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", m.MIME, base64.StdEncoding.EncodeToString(m.Data))
}
