package domain

import (
	"errors"
	"fmt"
)

// ErrCaptureTimeout indicates no speech started within the listen timeout.
// It is part of normal operation.
var ErrCaptureTimeout = errors.New("no speech before timeout")

// ErrDeviceUnavailable indicates an audio input or output device could not be used.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// ErrServiceUnavailable indicates a remote recognition, chat or synthesis call failed.
var ErrServiceUnavailable = errors.New("service unavailable")

// InitError is a startup failure. The process does not start when one occurs.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
