// Package tools implements the function-calling surface the reasoning
// engine can reach during a turn. A Registry maps tool names to handlers
// and always produces a result the engine can consume, even for unknown
// names or handler failures.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Svayampatel/Voice-ai/pkg/engine"
)

// Handler executes one tool call. Arguments arrive as the raw JSON string
// from the engine; the returned string goes back verbatim as the tool
// result content.
type Handler func(ctx context.Context, arguments string) (string, error)

// Tool pairs an engine-facing definition with its handler.
type Tool struct {
	Def     engine.ToolDef
	Handler Handler
}

// Registry holds the tools available to the assistant.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger.With("component", "tools.registry"),
	}
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Def.Name] = t
}

// Defs returns the tool definitions sorted by name, for session setup.
func (r *Registry) Defs() []engine.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]engine.ToolDef, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names returns the registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	defs := r.Defs()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// Execute runs one tool call and always returns a usable result. Unknown
// names and handler errors are folded into the result content so the
// engine can recover conversationally instead of the turn failing.
func (r *Registry) Execute(ctx context.Context, call engine.ToolCall) engine.ToolResult {
	r.mu.RLock()
	t, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("unknown tool requested", "tool", call.Name)
		return engine.ToolResult{
			CallID:  call.ID,
			Content: errorContent(fmt.Sprintf("function %q not found", call.Name)),
		}
	}

	out, err := t.Handler(ctx, call.Arguments)
	if err != nil {
		r.logger.Warn("tool execution failed", "tool", call.Name, "error", err)
		return engine.ToolResult{
			CallID:  call.ID,
			Content: errorContent(err.Error()),
		}
	}

	r.logger.Debug("tool executed", "tool", call.Name, "result_bytes", len(out))
	return engine.ToolResult{CallID: call.ID, Content: out}
}

// ExecuteAll runs a batch of tool calls in order.
func (r *Registry) ExecuteAll(ctx context.Context, calls []engine.ToolCall) []engine.ToolResult {
	results := make([]engine.ToolResult, len(calls))
	for i, call := range calls {
		results[i] = r.Execute(ctx, call)
	}
	return results
}

// errorContent renders a failure as JSON the engine can read.
func errorContent(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
