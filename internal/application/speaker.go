package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// SynthSpeaker renders replies as audio. Speak never fails: when synthesis or
// playback does not work, the text is written to the fallback writer.
type SynthSpeaker struct {
	synth    Synthesizer
	player   Player
	fallback io.Writer
	tempDir  string
	metrics  Metrics
	logger   *slog.Logger
}

// NewSynthSpeaker creates a SynthSpeaker. An empty tempDir uses os.TempDir.
func NewSynthSpeaker(synth Synthesizer, player Player, fallback io.Writer, tempDir string, metrics Metrics, logger *slog.Logger) *SynthSpeaker {
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &SynthSpeaker{
		synth:    synth,
		player:   player,
		fallback: fallback,
		tempDir:  tempDir,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *SynthSpeaker) Speak(ctx context.Context, text, language string) {
	if err := s.speak(ctx, text, language); err != nil {
		s.logger.Error("speech synthesis error", "error", err)
		s.metrics.ObserveStage(StageSpeak, OutcomeFallback)
		fmt.Fprintf(s.fallback, "Response (Audio Failed): %s\n", text)
		return
	}
	s.metrics.ObserveStage(StageSpeak, OutcomeOK)
}

func (s *SynthSpeaker) speak(ctx context.Context, text, language string) error {
	speech, err := s.synth.Synthesize(ctx, text, language)
	if err != nil {
		return fmt.Errorf("synthesizing: %w", err)
	}
	if speech == nil || len(speech.Data) == 0 {
		return errors.New("synthesizing: no audio returned")
	}

	f, err := os.CreateTemp(s.tempDir, "response-*"+speech.Encoding.Extension())
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("removing temp audio", "path", path, "error", err)
		}
	}()

	if _, err := f.Write(speech.Data); err != nil {
		f.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := s.player.Play(ctx, path); err != nil {
		return fmt.Errorf("playing: %w", err)
	}

	return nil
}
