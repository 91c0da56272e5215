// Package stt provides a unified interface for speech-to-text transcription.
//
// The package abstracts batch transcription behind a Transcriber interface.
// An empty transcript (or the provider's "no speech" sentinel) is a valid
// non-error outcome meaning no speech was detected; callers must not treat
// it as a failure.
//
// Example usage:
//
//	t, _ := stt.NewWhisper(
//	    stt.WithBaseURL("http://localhost:9000"),
//	)
//	res, err := t.Transcribe(ctx, wavBytes, "audio/wav")
//	if err == nil && res.Text != "" {
//	    fmt.Println("heard:", res.Text)
//	}
package stt

import (
	"context"
	"strings"
)

// NoSpeechSentinel is the marker some engines emit for silent audio.
// IsNoSpeech also treats blank output and bracketed non-speech tags
// (e.g. "[BLANK_AUDIO]") as no speech.
const NoSpeechSentinel = "[BLANK_AUDIO]"

// Transcriber converts captured audio into text.
type Transcriber interface {
	// Transcribe converts a complete audio payload into text.
	// Empty text is a valid result meaning no speech was detected.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (*Result, error)

	// Health checks backend connectivity.
	Health(ctx context.Context) error

	// Close releases any resources held by the transcriber.
	Close() error
}

// Result holds the transcription output.
type Result struct {
	// Text is the transcript. Empty means no speech detected.
	Text string

	// LatencyMs is the transcription round-trip time in milliseconds.
	LatencyMs int64
}

// IsNoSpeech reports whether a transcript means "nothing was said".
func IsNoSpeech(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || t == NoSpeechSentinel {
		return true
	}
	// Whisper-style non-speech tags come back bracketed or parenthesized.
	if strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
		return true
	}
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") {
		return true
	}
	return false
}
