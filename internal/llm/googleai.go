package llm

import (
	"context"
	"fmt"
	"io"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/schema"

	"sinispace-backend/internal/models"
)

// GoogleAIClient serves Gemini models via langchaingo's googleai backend.
type GoogleAIClient struct {
	llm *googleai.GoogleAI
}

func NewGoogleAIClient(ctx context.Context, apiKey string) (*GoogleAIClient, error) {
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating googleai client: %w", err)
	}
	return &GoogleAIClient{llm: llm}, nil
}

// googleAIStreamWrapper bridges langchaingo's push-style streaming callback
// into the pull-style Stream interface. The producer goroutine closes the
// token channel when generation ends and reports the terminal error (or nil)
// on done.
type googleAIStreamWrapper struct {
	tokens chan string
	done   chan error
	cancel context.CancelFunc
}

func (s *googleAIStreamWrapper) Close() { s.cancel() }

func (s *googleAIStreamWrapper) Recv() (*StreamEvent, error) {
	token, ok := <-s.tokens
	if ok {
		return &StreamEvent{Token: token}, nil
	}
	if err := <-s.done; err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// CreateCompletionStream opens a streaming generation. Role mapping: the
// internal "assistant" role is replayed to Gemini as the "ai" message type,
// "user" as "human", "system" as "system". Inline media rides along as
// binary parts on the newest user turn.
func (c *GoogleAIClient) CreateCompletionStream(ctx context.Context, request *CompletionRequest) (Stream, error) {
	content := make([]llms.MessageContent, 0, len(request.History)+1)
	for _, message := range request.History {
		role, err := googleAIRole(message.Role)
		if err != nil {
			return nil, err
		}
		content = append(content, llms.TextParts(role, message.Content))
	}

	latest := llms.MessageContent{
		Role:  schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(request.Prompt)},
	}
	for _, media := range request.Media {
		latest.Parts = append(latest.Parts, llms.BinaryPart(media.MIME, media.Data))
	}
	content = append(content, latest)

	streamCtx, cancel := context.WithCancel(ctx)
	wrapper := &googleAIStreamWrapper{
		tokens: make(chan string, 64),
		done:   make(chan error, 1),
		cancel: cancel,
	}

	go func() {
		_, err := c.llm.GenerateContent(streamCtx, content,
			llms.WithModel(request.Model),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				select {
				case wrapper.tokens <- string(chunk):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}),
		)
		close(wrapper.tokens)
		wrapper.done <- err
	}()

	return wrapper, nil
}

func googleAIRole(role string) (schema.ChatMessageType, error) {
	switch role {
	case models.RoleUser:
		return schema.ChatMessageTypeHuman, nil
	case models.RoleAssistant:
		return schema.ChatMessageTypeAI, nil
	case models.RoleSystem:
		return schema.ChatMessageTypeSystem, nil
	default:
		return "", fmt.Errorf("unknown message role %q", role)
	}
}
