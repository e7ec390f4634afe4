package audio

import "time"

const framesPerBuffer = 1024

type MicrophoneConfig struct {
	SampleRate      int
	Calibration     time.Duration
	PauseThreshold  time.Duration
	EnergyThreshold float64
}
