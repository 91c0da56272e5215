package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Svayampatel/Voice-ai/pkg/engine"
)

func TestExecuteUnknownToolReturnsStructuredResult(t *testing.T) {
	r := NewRegistry(nil)

	result := r.Execute(context.Background(), engine.ToolCall{
		ID: "call_1", Name: "fly_to_moon", Arguments: "{}",
	})

	if result.CallID != "call_1" {
		t.Errorf("expected CallID call_1, got %q", result.CallID)
	}
	if !strings.Contains(result.Content, "not found") {
		t.Errorf("expected 'not found' in content, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "fly_to_moon") {
		t.Errorf("expected tool name in content, got %q", result.Content)
	}
}

func TestExecuteHandlerErrorBecomesContent(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(Tool{
		Def: engine.ToolDef{Name: "broken"},
		Handler: func(ctx context.Context, arguments string) (string, error) {
			return "", errors.New("database unreachable")
		},
	})

	result := r.Execute(context.Background(), engine.ToolCall{ID: "c", Name: "broken"})

	if !strings.Contains(result.Content, "database unreachable") {
		t.Errorf("expected handler error in content, got %q", result.Content)
	}
}

func TestExecuteAllPreservesOrder(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(Tool{
		Def: engine.ToolDef{Name: "echo"},
		Handler: func(ctx context.Context, arguments string) (string, error) {
			return arguments, nil
		},
	})

	calls := []engine.ToolCall{
		{ID: "a", Name: "echo", Arguments: "first"},
		{ID: "b", Name: "missing"},
		{ID: "c", Name: "echo", Arguments: "third"},
	}

	results := r.ExecuteAll(context.Background(), calls)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Content != "first" || results[2].Content != "third" {
		t.Errorf("results out of order: %+v", results)
	}
	if results[1].CallID != "b" || !strings.Contains(results[1].Content, "not found") {
		t.Errorf("expected structured miss for middle call, got %+v", results[1])
	}
}

func TestDefsSortedByName(t *testing.T) {
	r := NewSupportRegistry(NewDataset(), nil)

	names := r.Names()
	want := []string{"get_account_info", "lookup_order"}
	if len(names) != len(want) {
		t.Fatalf("expected %d tools, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %q at index %d, got %q", want[i], i, names[i])
		}
	}
}
