//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gordonklaus/portaudio"

	"voice-assistant/internal/domain"
)

// PortAudioPlayer plays WAV and MP3 files on the default output device.
type PortAudioPlayer struct {
	host   *Host
	logger *slog.Logger
}

func NewPortAudioPlayer(host *Host, logger *slog.Logger) *PortAudioPlayer {
	return &PortAudioPlayer{host: host, logger: logger}
}

// Play blocks until the clip has been fully played. Writes block while the
// device buffer is full, and stopping the stream drains what is queued.
func (p *PortAudioPlayer) Play(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading clip: %w", err)
	}

	clip, err := DecodeClip(data)
	if err != nil {
		return err
	}

	out := make([]int16, framesPerBuffer*clip.Channels)
	stream, err := portaudio.OpenDefaultStream(0, clip.Channels, float64(clip.SampleRate), framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("opening output stream: %v: %w", err, domain.ErrDeviceUnavailable)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %v: %w", err, domain.ErrDeviceUnavailable)
	}

	p.logger.Debug("playing clip", "duration", clip.Duration(), "sample_rate", clip.SampleRate)

	for offset := 0; offset < len(clip.Samples); offset += len(out) {
		if err := ctx.Err(); err != nil {
			stream.Abort()
			return err
		}

		n := copy(out, clip.Samples[offset:])
		clear(out[n:])

		if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			stream.Abort()
			return fmt.Errorf("writing to output stream: %v: %w", err, domain.ErrDeviceUnavailable)
		}
	}

	if err := stream.Stop(); err != nil {
		return fmt.Errorf("finishing playback: %v: %w", err, domain.ErrDeviceUnavailable)
	}
	return nil
}
