package application

import (
	"context"
	"time"

	"voice-assistant/internal/domain"
)

// AudioCapture acquires one bounded utterance per call. Start performs any
// one-time setup such as noise calibration; a Start failure is fatal.
type AudioCapture interface {
	Start(ctx context.Context) error
	Stop() error
	Capture(ctx context.Context, timeout, phraseLimit time.Duration) (*domain.AudioSample, error)
	Name() string
}
