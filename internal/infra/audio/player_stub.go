//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"voice-assistant/internal/domain"
)

// PortAudioPlayer stub when portaudio is not available
type PortAudioPlayer struct {
	logger *slog.Logger
}

func NewPortAudioPlayer(_ *Host, logger *slog.Logger) *PortAudioPlayer {
	return &PortAudioPlayer{logger: logger}
}

func (p *PortAudioPlayer) Play(_ context.Context, _ string) error {
	return fmt.Errorf("playback not available, rebuild with -tags portaudio: %w", domain.ErrDeviceUnavailable)
}
