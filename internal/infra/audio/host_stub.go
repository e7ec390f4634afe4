//go:build !portaudio
// +build !portaudio

package audio

import (
	"fmt"

	"voice-assistant/internal/domain"
)

// Host stub when portaudio is not available
type Host struct{}

func OpenHost() (*Host, error) {
	return nil, fmt.Errorf("audio devices not available, rebuild with -tags portaudio: %w", domain.ErrDeviceUnavailable)
}

func (h *Host) Close() error {
	return nil
}

func (h *Host) DefaultDevices() (input, output string, err error) {
	return "", "", domain.ErrDeviceUnavailable
}
