//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"voice-assistant/internal/domain"
)

// MicrophoneSource records from the default input device. The device is
// opened for each calibration or capture and closed before returning.
type MicrophoneSource struct {
	host      *Host
	cfg       MicrophoneConfig
	logger    *slog.Logger
	threshold float64
}

func NewMicrophoneSource(host *Host, cfg MicrophoneConfig, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		host:      host,
		cfg:       cfg,
		logger:    logger,
		threshold: cfg.EnergyThreshold,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(ctx context.Context) error {
	if m.host == nil {
		return fmt.Errorf("no audio host: %w", domain.ErrDeviceUnavailable)
	}
	return m.Calibrate(ctx)
}

func (m *MicrophoneSource) Stop() error {
	return nil
}

// Threshold is the current speech energy threshold.
func (m *MicrophoneSource) Threshold() float64 {
	return m.threshold
}

// Calibrate samples ambient noise for the configured duration and raises the
// speech threshold above it.
func (m *MicrophoneSource) Calibrate(ctx context.Context) error {
	m.logger.Info("calibrating microphone for noise", "duration", m.cfg.Calibration)

	stream, buffer, err := m.openInput()
	if err != nil {
		return err
	}
	defer m.closeInput(stream)

	need := int(m.cfg.Calibration.Seconds() * float64(m.cfg.SampleRate))
	var frames [][]int16
	for read := 0; read < need; read += len(buffer) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := readFrame(stream); err != nil {
			return err
		}
		frame := make([]int16, len(buffer))
		copy(frame, buffer)
		frames = append(frames, frame)
	}

	m.threshold = AmbientThreshold(frames, m.cfg.EnergyThreshold)
	m.logger.Info("microphone calibrated", "threshold", m.threshold)
	return nil
}

// Capture records one phrase.
func (m *MicrophoneSource) Capture(ctx context.Context, timeout, phraseLimit time.Duration) (*domain.AudioSample, error) {
	stream, buffer, err := m.openInput()
	if err != nil {
		return nil, err
	}
	defer m.closeInput(stream)

	detector := NewPhraseDetector(DetectorConfig{
		SampleRate:     m.cfg.SampleRate,
		Threshold:      m.threshold,
		Timeout:        timeout,
		PhraseLimit:    phraseLimit,
		PauseThreshold: m.cfg.PauseThreshold,
	})

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := readFrame(stream); err != nil {
			return nil, err
		}

		done, err := detector.Feed(buffer)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	samples := detector.Samples()
	wav, err := EncodeWAV(samples, m.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("encoding capture: %w", err)
	}

	return &domain.AudioSample{
		Data:        wav,
		Encoding:    domain.EncodingWAV,
		SampleRate:  m.cfg.SampleRate,
		Duration:    time.Duration(len(samples)) * time.Second / time.Duration(m.cfg.SampleRate),
		Timeout:     timeout,
		PhraseLimit: phraseLimit,
	}, nil
}

func (m *MicrophoneSource) openInput() (*portaudio.Stream, []int16, error) {
	buffer := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(buffer), buffer)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input stream: %v: %w", err, domain.ErrDeviceUnavailable)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, nil, fmt.Errorf("starting input stream: %v: %w", err, domain.ErrDeviceUnavailable)
	}

	return stream, buffer, nil
}

func (m *MicrophoneSource) closeInput(stream *portaudio.Stream) {
	if err := stream.Stop(); err != nil {
		m.logger.Warn("stopping input stream", "error", err)
	}
	if err := stream.Close(); err != nil {
		m.logger.Warn("closing input stream", "error", err)
	}
}

// readFrame fills the stream buffer. Overflows only drop audio and are ignored.
func readFrame(stream *portaudio.Stream) error {
	err := stream.Read()
	if err == nil || errors.Is(err, portaudio.InputOverflowed) {
		return nil
	}
	return fmt.Errorf("reading from stream: %v: %w", err, domain.ErrDeviceUnavailable)
}
