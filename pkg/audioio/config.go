package audioio

import "time"

// Config holds audio device parameters.
type Config struct {
	// SampleRate in Hz (default: 16000).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo (default: 1).
	Channels int

	// BufferDuration is the duration of each captured chunk (default: 100ms).
	BufferDuration time.Duration
}

// DefaultConfig returns a 16kHz mono configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:     16000,
		Channels:       1,
		BufferDuration: 100 * time.Millisecond,
	}
}

// BufferSize returns the number of samples per channel in one chunk.
func (c Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}
