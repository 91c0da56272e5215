// Package config provides environment configuration helpers for Voice-ai commands.
package config

import "os"

// Default service configuration.
const (
	DefaultWebPort    = "8080"
	DefaultWhisperURL = "http://localhost:9000"
	DefaultEngineURL  = "https://api.openai.com/v1"
)

// Env returns the value of key from the environment.
// Falls back to the provided default if not set.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// WebPort returns the dashboard port from WEB_PORT.
func WebPort() string {
	return Env("WEB_PORT", DefaultWebPort)
}

// LogLevel returns the log level from LOG_LEVEL.
func LogLevel() string {
	return Env("LOG_LEVEL", "info")
}

// EngineAPIKey returns the reasoning engine API key, if configured.
func EngineAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// EngineBaseURL returns the OpenAI-compatible API base URL.
func EngineBaseURL() string {
	return Env("ENGINE_BASE_URL", DefaultEngineURL)
}

// ElevenLabsKey returns the ElevenLabs API key, if configured.
func ElevenLabsKey() string {
	return os.Getenv("ELEVENLABS_API_KEY")
}

// ElevenLabsVoiceID returns the ElevenLabs voice ID, if configured.
func ElevenLabsVoiceID() string {
	return os.Getenv("ELEVENLABS_VOICE_ID")
}

// WhisperURL returns the whisper transcription server URL.
func WhisperURL() string {
	return Env("WHISPER_URL", DefaultWhisperURL)
}
