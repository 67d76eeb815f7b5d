package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"sinispace-backend/internal/models"
)

func streamUsageFromOpenAI(u *openai.Usage) *models.StreamUsage {
	return &models.StreamUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// OpenAIClient serves OpenAI-style chat completion backends.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a client for the given API key. baseURL is optional
// and overrides the SDK default, which also makes OpenAI-compatible endpoints
// usable.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	openAIConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		openAIConfig.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(openAIConfig)}
}

// ChatCompletionStreamWrapper adapts the SDK stream to the Stream interface.
type ChatCompletionStreamWrapper struct {
	stream *openai.ChatCompletionStream
}

func (s *ChatCompletionStreamWrapper) Close() { s.stream.Close() }

func (s *ChatCompletionStreamWrapper) Recv() (*StreamEvent, error) {
	response, err := s.stream.Recv()
	if err != nil {
		// io.EOF passes through as the terminal signal.
		return nil, err
	}
	event := &StreamEvent{}
	if response.Usage != nil {
		event.Usage = streamUsageFromOpenAI(response.Usage)
	}
	if len(response.Choices) == 0 {
		// The final usage chunk carries no choices when stream usage is on.
		if event.Usage != nil {
			return event, nil
		}
		return nil, fmt.Errorf("ChatCompletionResponse returned no choice: %+v", response)
	}
	event.Token = response.Choices[0].Delta.Content
	event.FinishReason = string(response.Choices[0].FinishReason)
	return event, nil
}

// CreateCompletionStream opens a streaming chat completion. The internal
// three-role model maps onto OpenAI's role vocabulary verbatim. When the
// newest user turn carries inline media, it is sent as multi-part content
// with each image encoded as a base64 data URL.
func (c *OpenAIClient) CreateCompletionStream(ctx context.Context, request *CompletionRequest) (Stream, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(request.History)+1)
	for _, message := range request.History {
		messages = append(messages, openai.ChatCompletionMessage{Role: message.Role, Content: message.Content})
	}

	latest := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(request.Media) == 0 {
		latest.Content = request.Prompt
	} else {
		parts := make([]openai.ChatMessagePart, 0, len(request.Media)+1)
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: request.Prompt,
		})
		// Media parts follow the text part in resolution order.
		for _, media := range request.Media {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: media.DataURL()},
			})
		}
		latest.MultiContent = parts
	}
	messages = append(messages, latest)

	openAIRequest := openai.ChatCompletionRequest{
		Model:    request.Model,
		Stream:   true,
		Messages: messages,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}
	stream, err := c.client.CreateChatCompletionStream(ctx, openAIRequest)
	if err != nil {
		return nil, fmt.Errorf("creating chat completion stream: %w", err)
	}
	return &ChatCompletionStreamWrapper{stream}, nil
}
