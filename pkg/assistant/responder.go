package assistant

import (
	"context"
	"log/slog"
	"time"

	"github.com/Svayampatel/Voice-ai/internal/metrics"
	"github.com/Svayampatel/Voice-ai/pkg/engine"
	"github.com/Svayampatel/Voice-ai/pkg/tools"
)

// Canned replies used when the engine cannot produce usable text.
const (
	apologyReply       = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."
	clarificationReply = "I didn't quite catch that, could you rephrase?"
)

// maxToolRounds bounds the tool-call loop so a misbehaving engine cannot
// ping-pong forever.
const maxToolRounds = 4

// Answer is the success-shaped result of one reasoning exchange.
type Answer struct {
	// Text is the final natural-language reply. Never empty.
	Text string

	// ToolUsed reports whether a backend tool fired and its result made
	// it into a usable reply.
	ToolUsed bool

	// LatencyMs is the full adapter round-trip, tool execution included.
	LatencyMs int64
}

// Responder produces the assistant's reply for one user turn.
//
// Implementations are expected to absorb backend failures and answer with
// degraded canned content instead; a non-nil error therefore signals a
// contract violation and the pipeline treats it as fatal to the turn.
type Responder interface {
	Ask(ctx context.Context, userText string) (*Answer, error)
}

// EngineResponder adapts an engine session into the never-fails Responder
// the pipeline needs. Engine and transport errors are logged and converted
// into a canned apology; empty replies become a canned clarification with
// ToolUsed forced to false, since the result was not usable.
type EngineResponder struct {
	session  engine.Session
	registry *tools.Registry
	logger   *slog.Logger
}

// NewEngineResponder wraps a session and tool registry.
func NewEngineResponder(session engine.Session, registry *tools.Registry, logger *slog.Logger) *EngineResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EngineResponder{
		session:  session,
		registry: registry,
		logger:   logger.With("component", "assistant.responder"),
	}
}

// Ask runs one full reasoning exchange, executing tool calls in a bounded
// loop. It never returns a non-nil error.
func (r *EngineResponder) Ask(ctx context.Context, userText string) (*Answer, error) {
	start := time.Now()

	reply, err := r.session.SendMessage(ctx, userText)
	if err != nil {
		r.logger.Error("engine request failed", "error", err)
		metrics.Errors.WithLabelValues("reasoning", "engine").Inc()
		return r.apology(start), nil
	}

	toolUsed := false
	for round := 0; len(reply.ToolCalls) > 0; round++ {
		if round >= maxToolRounds {
			r.logger.Warn("tool loop exceeded max rounds, abandoning calls",
				"rounds", round, "pending", len(reply.ToolCalls))
			break
		}

		results := r.registry.ExecuteAll(ctx, reply.ToolCalls)
		metrics.ToolCalls.Add(float64(len(reply.ToolCalls)))
		toolUsed = true

		reply, err = r.session.SendToolResults(ctx, results)
		if err != nil {
			r.logger.Error("tool follow-up failed", "error", err)
			metrics.Errors.WithLabelValues("reasoning", "engine").Inc()
			return r.apology(start), nil
		}
	}

	text := reply.Text
	if text == "" {
		// The engine gave nothing usable; the tool flag is cleared too
		// because the caller never sees a tool-derived reply.
		r.logger.Warn("engine returned empty reply, substituting clarification")
		return &Answer{
			Text:      clarificationReply,
			ToolUsed:  false,
			LatencyMs: time.Since(start).Milliseconds(),
		}, nil
	}

	return &Answer{
		Text:      text,
		ToolUsed:  toolUsed,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

func (r *EngineResponder) apology(start time.Time) *Answer {
	return &Answer{
		Text:      apologyReply,
		ToolUsed:  false,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

var _ Responder = (*EngineResponder)(nil)
