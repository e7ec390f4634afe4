package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"voice-assistant/internal/domain"
)

// FallbackReply is returned by Conversation whenever the chat backend fails.
const FallbackReply = "Sorry, I couldn't process your request at the moment."

// ChatClient turns a prompt into a reply. Implementations never fail; they
// substitute fallback content instead.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) string
}

type ChatBackend interface {
	Chat(ctx context.Context, messages []domain.Message) (string, error)
}

type ConversationOptions struct {
	SystemPrompt string
	// HistoryTurns is how many previous prompt/reply pairs are sent with each
	// prompt. Zero keeps every turn independent.
	HistoryTurns int
}

// Conversation is the ChatClient used by the assistant loop.
type Conversation struct {
	backend ChatBackend
	opts    ConversationOptions
	metrics Metrics
	logger  *slog.Logger
	history []domain.Message
}

func NewConversation(backend ChatBackend, opts ConversationOptions, metrics Metrics, logger *slog.Logger) *Conversation {
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &Conversation{
		backend: backend,
		opts:    opts,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *Conversation) Complete(ctx context.Context, prompt string) string {
	reply, err := c.backend.Chat(ctx, c.messages(prompt))
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		c.logger.Error("chat completion failed", "error", err)
		c.metrics.ObserveStage(StageChat, OutcomeFallback)
		return FallbackReply
	}

	c.metrics.ObserveStage(StageChat, OutcomeOK)
	c.remember(prompt, reply)
	return reply
}

func (c *Conversation) messages(prompt string) []domain.Message {
	messages := make([]domain.Message, 0, len(c.history)+2)
	if c.opts.SystemPrompt != "" {
		messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: c.opts.SystemPrompt})
	}
	messages = append(messages, c.history...)
	return append(messages, domain.Message{Role: domain.RoleUser, Content: prompt})
}

func (c *Conversation) remember(prompt, reply string) {
	if c.opts.HistoryTurns <= 0 {
		return
	}

	c.history = append(c.history,
		domain.Message{Role: domain.RoleUser, Content: prompt},
		domain.Message{Role: domain.RoleAssistant, Content: reply},
	)
	if excess := len(c.history) - 2*c.opts.HistoryTurns; excess > 0 {
		c.history = append([]domain.Message(nil), c.history[excess:]...)
	}
}
