package engine

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name:    "missing api key",
			opts:    nil,
			wantErr: ErrNoAPIKey,
		},
		{
			name:    "missing model",
			opts:    []Option{WithAPIKey("sk-test"), WithModel("")},
			wantErr: ErrNoModel,
		},
		{
			name: "valid",
			opts: []Option{WithAPIKey("sk-test")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Apply(tt.opts...)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apply(
		WithAPIKey("sk-abc"),
		WithBaseURL("http://localhost:11434/v1"),
		WithModel("llama3"),
		WithTemperature(0.2),
		WithMaxTokens(256),
		WithTimeout(5*time.Second),
	)

	if cfg.APIKey != "sk-abc" {
		t.Errorf("unexpected api key %q", cfg.APIKey)
	}
	if cfg.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.Model != "llama3" {
		t.Errorf("unexpected model %q", cfg.Model)
	}
	if cfg.Temperature != 0.2 || cfg.MaxTokens != 256 || cfg.Timeout != 5*time.Second {
		t.Errorf("unexpected generation settings: %+v", cfg)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{401, false},
		{400, false},
	}

	for _, tt := range tests {
		e := &APIError{StatusCode: tt.status, Message: "x", Provider: "test"}
		if e.IsRetryable() != tt.retryable {
			t.Errorf("status %d: expected retryable=%v", tt.status, tt.retryable)
		}
	}
}
