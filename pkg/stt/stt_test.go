package stt

import (
	"testing"
)

func TestIsNoSpeech(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"whitespace", "   \n", true},
		{"sentinel", NoSpeechSentinel, true},
		{"sentinel padded", "  [BLANK_AUDIO]  ", true},
		{"bracketed tag", "[inaudible]", true},
		{"parenthesized tag", "(wind blowing)", true},
		{"real speech", "where is my order", false},
		{"speech with brackets inside", "order [A1001] please", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNoSpeech(tt.text); got != tt.want {
				t.Errorf("IsNoSpeech(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
