package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Svayampatel/Voice-ai/internal/httpc"
)

const providerWhisper = "whisper"

// minPayloadBytes guards against payloads too small to hold any audio.
// Requests below this are rejected locally with ErrBadAudio.
const minPayloadBytes = 44 // one WAV header

// Whisper is a client for whisper.cpp-compatible HTTP transcription servers.
// The server's /inference endpoint accepts a multipart audio file and returns
// JSON with the transcript text.
type Whisper struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// WhisperOption configures the Whisper client.
type WhisperOption func(*Whisper)

// WithBaseURL sets the whisper server URL.
func WithBaseURL(url string) WhisperOption {
	return func(w *Whisper) {
		w.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) WhisperOption {
	return func(w *Whisper) {
		w.client = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) WhisperOption {
	return func(w *Whisper) {
		w.logger = logger.With("component", "stt.whisper")
	}
}

// NewWhisper creates a new whisper transcription client.
func NewWhisper(opts ...WhisperOption) *Whisper {
	w := &Whisper{
		baseURL: "http://localhost:9000",
		client:  httpc.NewClient(60 * time.Second),
		logger:  slog.Default().With("component", "stt.whisper"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Transcribe sends the audio payload as a multipart file and returns the text.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte, mimeType string) (*Result, error) {
	if len(audio) < minPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadAudio, len(audio))
	}

	start := time.Now()

	body, contentType, err := buildMultipart(audio, mimeType)
	if err != nil {
		return nil, WrapError(providerWhisper, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.baseURL+"/inference", body)
	if err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("transcribe request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnsupportedMediaType || resp.StatusCode == http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: server rejected payload (status %d)", ErrBadAudio, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
			Provider:   providerWhisper,
		}
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("decode response: %w", err))
	}

	latency := time.Since(start).Milliseconds()

	w.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"chars", len(out.Text),
		"latency_ms", latency,
	)

	return &Result{Text: out.Text, LatencyMs: latency}, nil
}

// Health checks server connectivity.
func (w *Whisper) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", w.baseURL+"/health", nil)
	if err != nil {
		return WrapError(providerWhisper, err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return WrapError(providerWhisper, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    "health check failed",
			Provider:   providerWhisper,
		}
	}
	return nil
}

// Close releases resources.
func (w *Whisper) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

// buildMultipart wraps the audio payload as a multipart form file.
func buildMultipart(audio []byte, mimeType string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	name := "audio.wav"
	if mimeType == "audio/webm" {
		name = "audio.webm"
	}

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write audio: %w", err)
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return nil, "", fmt.Errorf("write field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}

	return buf, mw.FormDataContentType(), nil
}

// Verify Whisper implements Transcriber at compile time.
var _ Transcriber = (*Whisper)(nil)
