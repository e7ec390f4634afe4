package openai

import (
	"context"
	"errors"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra"
)

// ChatClient talks to any OpenAI-compatible chat completion endpoint.
type ChatClient struct {
	client *goopenai.Client
	model  string
	retry  infra.RetryConfig
}

func NewChatClient(apiKey, baseURL, model string, timeout time.Duration, maxAttempts int) *ChatClient {
	return &ChatClient{
		client: newClient(apiKey, baseURL, timeout),
		model:  model,
		retry:  infra.RetryConfigWithAttempts(maxAttempts),
	}
}

func (c *ChatClient) Chat(ctx context.Context, messages []domain.Message) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]goopenai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	var resp goopenai.ChatCompletionResponse
	err := infra.WithRetry(ctx, c.retry, func() error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classify("chat completion", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
