package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptMessage is one exchange unit in the conversation log.
// Messages are immutable once appended.
type TranscriptMessage struct {
	// ID uniquely identifies the message.
	ID string `json:"id"`

	// Seq is a monotonic sequence number; later messages always have a
	// higher Seq even when appended within the same millisecond.
	Seq int64 `json:"seq"`

	// Role is who said it.
	Role Role `json:"role"`

	// Text is the message content.
	Text string `json:"text"`

	// CreatedAt is when the message was appended.
	CreatedAt time.Time `json:"created_at"`

	// UsedTool reports whether a backend tool fired producing this
	// message. Always false for user messages.
	UsedTool bool `json:"used_tool,omitempty"`
}

// TranscriptLog is the append-only conversation history.
type TranscriptLog struct {
	mu       sync.RWMutex
	messages []TranscriptMessage
	nextSeq  int64
}

// NewTranscriptLog creates an empty transcript log.
func NewTranscriptLog() *TranscriptLog {
	return &TranscriptLog{}
}

// Append adds a message and returns the stored copy with ID and Seq set.
func (l *TranscriptLog) Append(role Role, text string, usedTool bool) TranscriptMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextSeq++
	msg := TranscriptMessage{
		ID:        uuid.NewString(),
		Seq:       l.nextSeq,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
		UsedTool:  usedTool,
	}
	l.messages = append(l.messages, msg)
	return msg
}

// Messages returns a snapshot of the log in append order.
func (l *TranscriptLog) Messages() []TranscriptMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]TranscriptMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages appended so far.
func (l *TranscriptLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
