package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sinispace-backend/internal/llm"
	"sinispace-backend/internal/models"
	"sinispace-backend/internal/store"
)

// Client-facing failure messages. Internal details stay in the server log;
// the stream protocol only ever carries these stable strings.
const (
	streamErrAttachments = "attachment resolution failed"
	streamErrProvider    = "the model provider failed to complete the response"
)

const maxTitleRunes = 64

// EventSink receives the framed events of one relay. The HTTP handler backs
// it with a server-sent-event writer; tests back it with a recorder.
type EventSink interface {
	Delta(text string) error
	Usage(usage models.StreamUsage) error
	Done() error
	Error(message string) error
}

// ProviderRegistry dispatches a model identifier to a provider client.
type ProviderRegistry interface {
	ClientFor(model string) (llm.Client, error)
}

// AttachmentResolver expands inline attachment references into media parts.
type AttachmentResolver interface {
	Resolve(ctx context.Context, text string) ([]models.InlineMedia, error)
}

// StreamService owns the per-request lifecycle of a streaming chat turn:
// authorize, persist the user turn, open a provider stream, forward deltas,
// persist the assistant turn. One instance serves all requests; each request
// gets its own StreamRun and no two runs coordinate with each other.
type StreamService struct {
	store     store.Store
	providers ProviderRegistry
	resolver  AttachmentResolver
	logger    *logrus.Logger
}

func NewStreamService(s store.Store, providers ProviderRegistry, resolver AttachmentResolver, logger *logrus.Logger) *StreamService {
	return &StreamService{
		store:     s,
		providers: providers,
		resolver:  resolver,
		logger:    logger,
	}
}

// StreamRun is one authorized, user-turn-persisted relay, ready to stream.
type StreamRun struct {
	svc     *StreamService
	client  llm.Client
	userID  uuid.UUID
	chatID  uuid.UUID
	model   string
	history []llm.Message
	prompt  string
}

// Begin performs every step that must happen before the response commits to
// streaming: request-shape validation, chat ownership authorization, model
// switch persistence, title derivation, and the user-turn write. Failures
// here map to plain HTTP errors; no provider call has been made yet.
func (s *StreamService) Begin(ctx context.Context, userID, chatID uuid.UUID, req models.StreamChatRequest) (*StreamRun, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages cannot be empty", ErrValidation)
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleUser, models.RoleAssistant, models.RoleSystem:
		default:
			return nil, fmt.Errorf("%w: unknown message role %q", ErrValidation, msg.Role)
		}
	}
	latest := req.Messages[len(req.Messages)-1]
	if latest.Role != models.RoleUser {
		return nil, fmt.Errorf("%w: final message must have role %q", ErrValidation, models.RoleUser)
	}

	chat, err := s.store.GetChatByID(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to authorize chat: %w", err)
	}

	model := chat.Model
	if req.Model != nil && *req.Model != "" {
		model = *req.Model
	}

	// Resolving the provider here keeps unknown-model failures on the plain
	// HTTP path instead of inside the committed stream.
	client, err := s.providers.ClientFor(model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	update := store.UpdateChatParams{ID: chatID, UserID: userID}
	if model != chat.Model {
		update.Model = &model
	}
	if chat.Title == "" {
		title := deriveTitle(latest.Content)
		update.Title = &title
	}
	if update.Model != nil || update.Title != nil {
		if _, err := s.store.UpdateChat(ctx, update); err != nil {
			return nil, fmt.Errorf("failed to update chat: %w", err)
		}
	}

	if _, err := s.store.CreateMessage(ctx, store.CreateMessageParams{
		ChatID:  chatID,
		Role:    models.RoleUser,
		Content: latest.Content,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	history := make([]llm.Message, 0, len(req.Messages)-1)
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	return &StreamRun{
		svc:     s,
		client:  client,
		userID:  userID,
		chatID:  chatID,
		model:   model,
		history: history,
		prompt:  latest.Content,
	}, nil
}

// Relay drives the provider stream to completion, forwarding each delta to
// the sink as it accumulates. Called after response headers are committed,
// so every failure from here on is an in-band error frame.
//
// On a provider error, or when the client disconnects mid-stream, the
// accumulated partial text is discarded: the user turn persisted by Begin
// stays, no assistant turn is written, and the next user attempt retries
// generation rather than re-submission.
func (r *StreamRun) Relay(ctx context.Context, sink EventSink) {
	s := r.svc
	log := s.logger.WithFields(logrus.Fields{"chat_id": r.chatID, "user_id": r.userID, "model": r.model})

	media, err := s.resolver.Resolve(ctx, r.prompt)
	if err != nil {
		log.WithError(err).Warn("attachment resolution failed")
		r.emitError(sink, streamErrAttachments)
		return
	}

	stream, err := r.client.CreateCompletionStream(ctx, &llm.CompletionRequest{
		Model:   r.model,
		History: r.history,
		Prompt:  r.prompt,
		Media:   media,
	})
	if err != nil {
		log.WithError(err).Error("opening provider stream")
		r.emitError(sink, streamErrProvider)
		return
	}
	defer stream.Close()

	var (
		accumulated strings.Builder
		usage       models.StreamUsage
	)
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				// Client went away; nobody is listening and the partial
				// text is discarded by design.
				log.Info("client disconnected mid-stream")
				return
			}
			log.WithError(err).Error("provider stream failed mid-stream")
			r.emitError(sink, streamErrProvider)
			return
		}
		if event.Usage != nil {
			usage = *event.Usage
		}
		if event.Token == "" {
			continue
		}
		// Accumulate before forwarding: the client must never see a delta
		// that is missing from the buffer headed for persistence.
		accumulated.WriteString(event.Token)
		if err := sink.Delta(event.Token); err != nil {
			log.WithError(err).Info("client write failed mid-stream")
			return
		}
	}

	// Exactly one assistant turn per successful stream.
	if _, err := s.store.CreateMessage(ctx, store.CreateMessageParams{
		ChatID:  r.chatID,
		Role:    models.RoleAssistant,
		Content: accumulated.String(),
		Model:   &r.model,
	}); err != nil {
		// The client already holds the full text; history reload will miss
		// this turn. Log the inconsistency and let the stream finish.
		log.WithError(err).Error("persisting assistant message failed after successful stream")
	}

	if err := s.store.CreateUsageRecord(ctx, store.CreateUsageRecordParams{
		ChatID:           r.chatID,
		UserID:           r.userID,
		Model:            r.model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	}); err != nil {
		log.WithError(err).Error("recording usage failed")
	}

	if err := sink.Usage(usage); err != nil {
		log.WithError(err).Info("client write failed on usage frame")
		return
	}
	if err := sink.Done(); err != nil {
		log.WithError(err).Info("client write failed on done frame")
	}
}

func (r *StreamRun) emitError(sink EventSink, message string) {
	if err := sink.Error(message); err != nil {
		r.svc.logger.WithError(err).Info("client write failed on error frame")
	}
}

// deriveTitle produces a chat title from the first user turn.
func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	if title == "" {
		title = "New chat"
	}
	return title
}
