package application

import (
	"context"
	"fmt"

	"voice-assistant/internal/domain"
)

// Transcriber recognizes speech in a sample. An absent transcript is a normal
// result; a non-nil error means the recognition service itself failed.
type Transcriber interface {
	Transcribe(ctx context.Context, sample *domain.AudioSample, language string) (domain.Transcript, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (*domain.SpeechAudio, error)
}

// Player plays the audio file at path and returns once playback has finished.
type Player interface {
	Play(ctx context.Context, path string) error
}

// NoopPlayer is used when no output device is configured. Every call fails so
// the speaker falls back to printing the reply.
type NoopPlayer struct{}

func (n *NoopPlayer) Play(_ context.Context, _ string) error {
	return fmt.Errorf("playback not configured: %w", domain.ErrDeviceUnavailable)
}
