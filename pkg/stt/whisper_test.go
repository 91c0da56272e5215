package stt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testAudio(n int) []byte {
	return make([]byte, n)
}

func TestWhisperTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not a multipart request: %v", err)
		}
		if r.FormValue("response_format") != "json" {
			t.Errorf("expected json response_format")
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":" where is my order? "}`))
	}))
	defer server.Close()

	w := NewWhisper(WithBaseURL(server.URL))
	defer w.Close()

	res, err := w.Transcribe(context.Background(), testAudio(1024), "audio/wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != " where is my order? " {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.LatencyMs < 0 {
		t.Errorf("negative latency %d", res.LatencyMs)
	}
}

func TestWhisperRejectsTinyPayloadLocally(t *testing.T) {
	// The server must never be reached for an undersized payload.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not have been called")
	}))
	defer server.Close()

	w := NewWhisper(WithBaseURL(server.URL))

	_, err := w.Transcribe(context.Background(), testAudio(10), "audio/wav")
	if !errors.Is(err, ErrBadAudio) {
		t.Errorf("expected ErrBadAudio, got %v", err)
	}
}

func TestWhisperBadAudioStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnsupportedMediaType} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		w := NewWhisper(WithBaseURL(server.URL))
		_, err := w.Transcribe(context.Background(), testAudio(1024), "audio/wav")
		if !errors.Is(err, ErrBadAudio) {
			t.Errorf("status %d: expected ErrBadAudio, got %v", status, err)
		}
		server.Close()
	}
}

func TestWhisperServerErrorIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	w := NewWhisper(WithBaseURL(server.URL))

	_, err := w.Transcribe(context.Background(), testAudio(1024), "audio/wav")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("unexpected status %d", apiErr.StatusCode)
	}
	if errors.Is(err, ErrBadAudio) {
		t.Error("server error must not classify as bad audio")
	}
}

func TestWhisperHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := NewWhisper(WithBaseURL(server.URL))
	if err := w.Health(context.Background()); err != nil {
		t.Errorf("unexpected health error: %v", err)
	}
}
