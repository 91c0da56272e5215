package assistant

import "errors"

// Sentinel errors surfaced by the turn pipeline.
var (
	// ErrBusy is returned when a new turn is requested while one is
	// already in flight.
	ErrBusy = errors.New("assistant: turn already in flight")

	// ErrAudioTooShort is returned when a captured payload is below the
	// minimum size worth transcribing.
	ErrAudioTooShort = errors.New("assistant: audio too short")

	// ErrNoSpeech is returned when transcription detected no speech.
	ErrNoSpeech = errors.New("assistant: no speech detected")

	// ErrNotCapturing is returned when stopping a recording that was
	// never started. Callers usually treat it as a no-op.
	ErrNotCapturing = errors.New("assistant: not capturing")
)

// Status codes reported through the OnStatus callback. These are short
// classified strings a UI can map to user-facing copy.
const (
	StatusTooShort          = "audio_too_short"
	StatusNoSpeech          = "no_speech"
	StatusTranscribeFailed  = "transcription_failed"
	StatusCaptureDenied     = "mic_permission_denied"
	StatusCaptureNoDevice   = "mic_not_found"
	StatusCaptureFailed     = "mic_failed"
	StatusEngineFailed      = "engine_failed"
	StatusSynthesisDegraded = "synthesis_failed"
	StatusPlaybackFailed    = "playback_failed"
)
