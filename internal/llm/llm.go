package llm

import (
	"context"
	"fmt"
	"strings"

	"sinispace-backend/internal/models"
)

// Message is one prior conversation turn, in the internal three-role model.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest describes one streaming text generation.
// History is the ordered prior conversation excluding the newest user turn;
// Prompt and Media together form the newest user turn, already expanded by
// the attachment resolver.
type CompletionRequest struct {
	Model   string
	History []Message
	Prompt  string
	Media   []models.InlineMedia
}

// StreamEvent is one incremental event from a provider stream.
type StreamEvent struct {
	Token        string
	FinishReason string
	// Usage is non-nil only on the provider's final accounting event,
	// for backends that report it.
	Usage *models.StreamUsage
}

// Stream is a lazy, finite, non-restartable sequence of stream events.
// Recv returns io.EOF once the provider signals completion. The caller
// drives consumption; cancelling the request context stops the underlying
// network read.
type Stream interface {
	Recv() (*StreamEvent, error)
	Close()
}

// Client is the single capability both provider backends satisfy: open a
// streaming text completion for a conversation with optional inline media.
// Implementations perform no persistence and no side effects beyond the
// outbound network call.
type Client interface {
	CreateCompletionStream(ctx context.Context, request *CompletionRequest) (Stream, error)
}

// Registry dispatches a model identifier to the backend that serves it.
// Selection is by model-name convention: "gemini*" models go to the Google
// backend, everything else goes to the OpenAI-style backend. New providers
// are added by implementing Client and extending ClientFor.
type Registry struct {
	openAI   Client
	googleAI Client
}

func NewRegistry(openAI, googleAI Client) *Registry {
	return &Registry{openAI: openAI, googleAI: googleAI}
}

// ClientFor returns the backend serving the given model identifier.
func (r *Registry) ClientFor(model string) (Client, error) {
	if model == "" {
		return nil, fmt.Errorf("model identifier is empty")
	}
	if strings.HasPrefix(model, "gemini") {
		if r.googleAI == nil {
			return nil, fmt.Errorf("no Google AI backend configured for model %q", model)
		}
		return r.googleAI, nil
	}
	if r.openAI == nil {
		return nil, fmt.Errorf("no OpenAI backend configured for model %q", model)
	}
	return r.openAI, nil
}
