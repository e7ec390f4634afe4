package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"voice-assistant/internal/domain"
)

// Speaker speaks a reply aloud. Implementations never fail outward.
type Speaker interface {
	Speak(ctx context.Context, text, language string)
}

type Options struct {
	ListenTimeout   time.Duration
	PhraseTimeLimit time.Duration
	// SpeechLanguage is the recognition language tag, e.g. "en-US".
	SpeechLanguage string
	// VoiceLanguage is the synthesis language, e.g. "en".
	VoiceLanguage string
	// CaptureRetryDelay is the pause after a failed capture before listening
	// again.
	CaptureRetryDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		ListenTimeout:     5 * time.Second,
		PhraseTimeLimit:   3 * time.Second,
		SpeechLanguage:    "en-US",
		VoiceLanguage:     "en",
		CaptureRetryDelay: time.Second,
	}
}

type Assistant struct {
	capture AudioCapture
	stt     Transcriber
	chat    ChatClient
	speaker Speaker
	metrics Metrics
	out     io.Writer
	opts    Options
	logger  *slog.Logger

	state atomic.Int32
}

func NewAssistant(
	capture AudioCapture,
	stt Transcriber,
	chat ChatClient,
	speaker Speaker,
	metrics Metrics,
	out io.Writer,
	opts Options,
	logger *slog.Logger,
) *Assistant {
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &Assistant{
		capture: capture,
		stt:     stt,
		chat:    chat,
		speaker: speaker,
		metrics: metrics,
		out:     out,
		opts:    opts,
		logger:  logger,
	}
}

// Run starts the capture source and then takes turns until ctx is cancelled.
// Cancellation is observed between turns; a turn in progress runs to
// completion. Only a capture start failure ends Run early.
func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting audio capture", "source", a.capture.Name())
	if err := a.capture.Start(ctx); err != nil {
		return &domain.InitError{Component: a.capture.Name(), Err: err}
	}
	defer a.capture.Stop()

	a.logger.Info("voice assistant started, press Ctrl+C to exit")

	for {
		select {
		case <-ctx.Done():
			a.setState(domain.StateStopped)
			a.logger.Info("voice assistant stopped")
			return ctx.Err()
		default:
			a.runTurn(ctx)
		}
	}
}

// State reports the stage the loop is currently in.
func (a *Assistant) State() domain.State {
	return domain.State(a.state.Load())
}

func (a *Assistant) setState(s domain.State) {
	a.state.Store(int32(s))
}

type turnResult int

const (
	turnSkipped turnResult = iota
	turnSpoken
	turnCaptureFailed
)

// runTurn runs one turn to completion regardless of ctx cancellation.
// After a capture failure it waits CaptureRetryDelay, or until ctx is done.
func (a *Assistant) runTurn(ctx context.Context) {
	start := time.Now()
	logger := a.logger.With("turn", uuid.NewString()[:8])

	defer func() {
		if r := recover(); r != nil {
			logger.Error("turn aborted", "panic", fmt.Sprint(r))
		}
		a.setState(domain.StateIdle)
	}()

	switch a.takeTurn(context.WithoutCancel(ctx), logger) {
	case turnSpoken:
		a.metrics.ObserveTurn(time.Since(start))
	case turnCaptureFailed:
		a.pause(ctx, a.opts.CaptureRetryDelay)
	}
}

func (a *Assistant) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (a *Assistant) takeTurn(ctx context.Context, logger *slog.Logger) turnResult {
	a.setState(domain.StateListening)
	logger.Info("listening")

	sample, err := a.capture.Capture(ctx, a.opts.ListenTimeout, a.opts.PhraseTimeLimit)
	if err != nil {
		if errors.Is(err, domain.ErrCaptureTimeout) {
			logger.Info("no speech before timeout", "timeout", a.opts.ListenTimeout)
			a.metrics.ObserveStage(StageCapture, OutcomeTimeout)
			return turnSkipped
		}
		logger.Error("capturing audio", "error", err, "retry_in", a.opts.CaptureRetryDelay)
		a.metrics.ObserveStage(StageCapture, OutcomeError)
		return turnCaptureFailed
	}
	a.metrics.ObserveStage(StageCapture, OutcomeOK)

	a.setState(domain.StateRecognizing)
	logger.Info("recognizing speech", "bytes", len(sample.Data), "duration", sample.Duration)

	transcript, err := a.stt.Transcribe(ctx, sample, a.opts.SpeechLanguage)
	if err != nil {
		logger.Error("speech recognition service error", "error", err)
		a.metrics.ObserveStage(StageTranscribe, OutcomeUnavailable)
		return turnSkipped
	}

	text, ok := transcript.Text()
	if !ok {
		logger.Warn("could not understand audio", "reason", transcript.Reason())
		a.metrics.ObserveStage(StageTranscribe, OutcomeAmbiguous)
		return turnSkipped
	}
	a.metrics.ObserveStage(StageTranscribe, OutcomeOK)
	logger.Info("recognized", "text", text)

	a.setState(domain.StateQuerying)
	reply := a.chat.Complete(ctx, text)
	fmt.Fprintf(a.out, "AI: %s\n", reply)

	a.setState(domain.StateSpeaking)
	a.speaker.Speak(ctx, reply, a.opts.VoiceLanguage)

	return turnSpoken
}
