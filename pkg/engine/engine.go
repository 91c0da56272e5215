// Package engine provides a unified interface for the conversational
// reasoning service behind the assistant.
//
// An Engine hands out a Session: an opaque, stateful dialogue context that
// is created once and reused for every turn. SendMessage submits the user's
// text and may come back with tool-call requests; the caller executes them
// and returns the results in a single SendToolResults round.
//
// Example usage:
//
//	eng, _ := engine.NewClient(
//	    engine.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    engine.WithModel("gpt-4o-mini"),
//	)
//	defer eng.Close()
//
//	session := eng.NewSession(engine.SessionOptions{
//	    SystemPrompt: "You are a support agent.",
//	    Tools:        toolDefs,
//	})
//
//	reply, err := session.SendMessage(ctx, "where is my order?")
//	if err == nil && len(reply.ToolCalls) > 0 {
//	    // execute tools, then session.SendToolResults(ctx, results)
//	}
package engine

import "context"

// Engine creates dialogue sessions against a reasoning backend.
type Engine interface {
	// NewSession creates a fresh dialogue context.
	// The session is stateful and not safe for concurrent use.
	NewSession(opts SessionOptions) Session

	// Health checks backend connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the engine.
	Close() error
}

// Session is one ongoing dialogue context.
type Session interface {
	// SendMessage submits user text within the existing context.
	// The reply may contain tool-call requests instead of (or alongside)
	// final text.
	SendMessage(ctx context.Context, text string) (*Reply, error)

	// SendToolResults returns tool outputs for the pending tool calls in a
	// single follow-up round and yields the engine's next reply.
	SendToolResults(ctx context.Context, results []ToolResult) (*Reply, error)

	// History returns the number of messages accumulated in the context.
	History() int
}

// Reply is the engine's response to one round.
type Reply struct {
	// Text is the natural-language response. May be empty when the engine
	// requested tool calls instead.
	Text string

	// ToolCalls are function invocations the engine wants executed.
	ToolCalls []ToolCall

	// LatencyMs is the round-trip time in milliseconds.
	LatencyMs int64
}

// ToolCall represents a function call request from the engine.
type ToolCall struct {
	// ID uniquely identifies this tool call.
	ID string

	// Name of the function to call.
	Name string

	// Arguments as a JSON string.
	Arguments string
}

// ToolResult carries one tool's output back to the engine.
type ToolResult struct {
	// CallID matches the ToolCall.ID this result corresponds to.
	CallID string

	// Content is the result text sent back to the engine.
	Content string
}

// ToolDef describes a callable function for the engine.
type ToolDef struct {
	// Name of the function.
	Name string

	// Description explains what the function does.
	Description string

	// Parameters as JSON Schema.
	Parameters map[string]interface{}
}

// SessionOptions configures a dialogue session.
type SessionOptions struct {
	// SystemPrompt is the system instruction for the session.
	SystemPrompt string

	// Tools available to the engine during this session.
	Tools []ToolDef

	// Temperature controls response randomness (0.0-2.0).
	Temperature float64

	// MaxTokens limits the response length.
	MaxTokens int
}
