package engine

import (
	"context"
	"fmt"
	"sync"
)

// Mock implements Engine for testing and for running without an API key.
// Behavior is controlled through function fields; the defaults echo the
// user's text back as a canned reply.
type Mock struct {
	mu sync.Mutex

	// NewSessionFunc overrides session creation. If nil, a MockSession
	// using the Mock's reply functions is returned.
	NewSessionFunc func(opts SessionOptions) Session

	// HealthFunc is called by Health. If nil, Health returns nil.
	HealthFunc func(ctx context.Context) error

	// CloseFunc is called by Close. If nil, Close returns nil.
	CloseFunc func() error

	// ReplyFunc produces the reply for SendMessage on sessions created by
	// this mock. If nil, a canned echo reply is returned.
	ReplyFunc func(ctx context.Context, text string) (*Reply, error)

	// ToolReplyFunc produces the reply for SendToolResults on sessions
	// created by this mock. If nil, a canned summary reply is returned.
	ToolReplyFunc func(ctx context.Context, results []ToolResult) (*Reply, error)

	// Sessions records every session created.
	Sessions []*MockSession
}

// NewMock creates a mock engine with default canned behavior.
func NewMock() *Mock {
	return &Mock{}
}

// NewMockWithReply creates a mock engine whose sessions always answer with
// the given text.
func NewMockWithReply(text string) *Mock {
	return &Mock{
		ReplyFunc: func(ctx context.Context, _ string) (*Reply, error) {
			return &Reply{Text: text, LatencyMs: 1}, nil
		},
	}
}

// NewMockWithError creates a mock engine whose sessions always fail.
func NewMockWithError(err error) *Mock {
	return &Mock{
		ReplyFunc: func(ctx context.Context, _ string) (*Reply, error) {
			return nil, err
		},
		ToolReplyFunc: func(ctx context.Context, _ []ToolResult) (*Reply, error) {
			return nil, err
		},
	}
}

// NewSession creates a fresh mock dialogue context.
func (m *Mock) NewSession(opts SessionOptions) Session {
	if m.NewSessionFunc != nil {
		return m.NewSessionFunc(opts)
	}

	s := &MockSession{engine: m, opts: opts}
	if opts.SystemPrompt != "" {
		s.history = 1
	}

	m.mu.Lock()
	m.Sessions = append(m.Sessions, s)
	m.mu.Unlock()
	return s
}

// Health calls HealthFunc or returns nil.
func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close calls CloseFunc or returns nil.
func (m *Mock) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockSession records the calls made against one mock dialogue context.
type MockSession struct {
	mu      sync.Mutex
	engine  *Mock
	opts    SessionOptions
	history int

	// Messages records every text passed to SendMessage.
	Messages []string

	// ToolResults records every batch passed to SendToolResults.
	ToolResults [][]ToolResult

	pending []ToolCall
}

// SendMessage records the text and returns the mock reply.
func (s *MockSession) SendMessage(ctx context.Context, text string) (*Reply, error) {
	s.mu.Lock()
	s.Messages = append(s.Messages, text)
	s.history += 2 // user + assistant
	s.mu.Unlock()

	var reply *Reply
	var err error
	if s.engine != nil && s.engine.ReplyFunc != nil {
		reply, err = s.engine.ReplyFunc(ctx, text)
	} else {
		reply = &Reply{Text: fmt.Sprintf("You said: %s", text), LatencyMs: 1}
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending = reply.ToolCalls
	s.mu.Unlock()
	return reply, nil
}

// SendToolResults records the results and returns the mock follow-up reply.
func (s *MockSession) SendToolResults(ctx context.Context, results []ToolResult) (*Reply, error) {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return nil, ErrNoPendingToolCalls
	}
	s.pending = nil
	s.ToolResults = append(s.ToolResults, results)
	s.history += len(results) + 1
	s.mu.Unlock()

	var reply *Reply
	var err error
	if s.engine != nil && s.engine.ToolReplyFunc != nil {
		reply, err = s.engine.ToolReplyFunc(ctx, results)
	} else {
		reply = &Reply{Text: "Done, anything else?", LatencyMs: 1}
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending = reply.ToolCalls
	s.mu.Unlock()
	return reply, nil
}

// History returns the number of messages accumulated in the context.
func (s *MockSession) History() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

// Verify Mock implements Engine at compile time.
var (
	_ Engine  = (*Mock)(nil)
	_ Session = (*MockSession)(nil)
)
