package audioio

import "errors"

// Sentinel errors for capture and playback devices.
var (
	// ErrPermissionDenied is returned when microphone access was refused.
	ErrPermissionDenied = errors.New("audioio: microphone permission denied")

	// ErrNoDevice is returned when no capture device is available.
	ErrNoDevice = errors.New("audioio: no input device found")

	// ErrClosed is returned when using a source or sink after Close.
	ErrClosed = errors.New("audioio: device closed")

	// ErrBusy is returned when starting playback while another is active.
	ErrBusy = errors.New("audioio: playback already active")
)
