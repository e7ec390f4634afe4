//go:build portaudio
// +build portaudio

package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"voice-assistant/internal/domain"
)

// Host is the initialized PortAudio library. Devices opened through it are
// only valid until Close.
type Host struct{}

func OpenHost() (*Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %v: %w", err, domain.ErrDeviceUnavailable)
	}
	return &Host{}, nil
}

func (h *Host) Close() error {
	return portaudio.Terminate()
}

// DefaultDevices names the default input and output devices.
func (h *Host) DefaultDevices() (input, output string, err error) {
	in, err := portaudio.DefaultInputDevice()
	if err != nil {
		return "", "", fmt.Errorf("default input device: %v: %w", err, domain.ErrDeviceUnavailable)
	}
	out, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return in.Name, "", fmt.Errorf("default output device: %v: %w", err, domain.ErrDeviceUnavailable)
	}
	return in.Name, out.Name, nil
}
