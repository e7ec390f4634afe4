package openai

import (
	"bytes"
	"context"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-assistant/internal/domain"
)

// WhisperClient transcribes samples with the Whisper transcription endpoint.
// It makes a single attempt per sample.
type WhisperClient struct {
	client *goopenai.Client
}

func NewWhisperClient(apiKey, baseURL string) *WhisperClient {
	return &WhisperClient{
		client: newClient(apiKey, baseURL, 30*time.Second),
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, sample *domain.AudioSample, language string) (domain.Transcript, error) {
	resp, err := c.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    goopenai.Whisper1,
		FilePath: "audio" + sample.Encoding.Extension(),
		Reader:   bytes.NewReader(sample.Data),
		Language: isoLanguage(language),
	})
	if err != nil {
		return domain.Absent(domain.ReasonServiceUnavailable), classify("whisper transcription", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return domain.Absent(domain.ReasonAmbiguousAudio), nil
	}

	return domain.Present(text), nil
}

// isoLanguage reduces a BCP-47 tag such as "en-US" to the ISO-639-1 code
// Whisper expects.
func isoLanguage(tag string) string {
	lang, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(lang)
}
