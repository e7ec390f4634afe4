package openai

import (
	"context"
	"fmt"
	"io"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-assistant/internal/domain"
)

// SpeechClient synthesizes WAV audio with the OpenAI speech endpoint. The
// voice is chosen by configuration; the language follows the input text.
type SpeechClient struct {
	client *goopenai.Client
	model  string
	voice  string
}

func NewSpeechClient(apiKey, baseURL, model, voice string) *SpeechClient {
	return &SpeechClient{
		client: newClient(apiKey, baseURL, 60*time.Second),
		model:  model,
		voice:  voice,
	}
}

func (c *SpeechClient) Synthesize(ctx context.Context, text, _ string) (*domain.SpeechAudio, error) {
	resp, err := c.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(c.model),
		Input:          text,
		Voice:          goopenai.SpeechVoice(c.voice),
		ResponseFormat: goopenai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, classify("speech synthesis", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading speech audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("speech synthesis returned no audio: %w", domain.ErrServiceUnavailable)
	}

	return &domain.SpeechAudio{
		Data:     data,
		Encoding: domain.DetectEncoding(data),
	}, nil
}
