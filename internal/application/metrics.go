package application

import "time"

// Stage names used when reporting outcomes.
const (
	StageCapture    = "capture"
	StageTranscribe = "transcribe"
	StageChat       = "chat"
	StageSpeak      = "speak"
)

// Outcome names used when reporting outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeTimeout     = "timeout"
	OutcomeError       = "error"
	OutcomeAmbiguous   = "ambiguous"
	OutcomeUnavailable = "unavailable"
	OutcomeFallback    = "fallback"
)

type Metrics interface {
	ObserveStage(stage, outcome string)
	ObserveTurn(duration time.Duration)
}

type NoopMetrics struct{}

func (n *NoopMetrics) ObserveStage(_, _ string) {}

func (n *NoopMetrics) ObserveTurn(_ time.Duration) {}
