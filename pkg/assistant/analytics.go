package assistant

import "sync"

// TurnMetrics is the per-turn latency breakdown in milliseconds.
// TotalMillis is the sum of the three stage timings; adapter round-trip
// overhead lands in LLMMillis.
type TurnMetrics struct {
	STTMillis   int64 `json:"stt_ms"`
	LLMMillis   int64 `json:"llm_ms"`
	TTSMillis   int64 `json:"tts_ms"`
	TotalMillis int64 `json:"total_ms"`
	ToolUsed    bool  `json:"tool_used"`
}

// FoldInput is one partial update to the analytics accumulator. Zero
// values mean "absent".
type FoldInput struct {
	// Queries is the number of completed turns to add (0 or 1 normally).
	Queries int

	// TotalMillis is the turn's total latency. Only folded into the
	// running average together with a nonzero Queries.
	TotalMillis int64

	// BackendCalls is the number of turns where a tool fired.
	BackendCalls int

	// Latency replaces the last-turn breakdown when non-nil.
	Latency *TurnMetrics
}

// AnalyticsSnapshot is a read-only copy of the accumulator.
type AnalyticsSnapshot struct {
	TotalQueries          int          `json:"total_queries"`
	AvgResponseTimeMillis float64      `json:"avg_response_time_ms"`
	BackendCallCount      int          `json:"backend_call_count"`
	LastTurnMetrics       *TurnMetrics `json:"last_turn,omitempty"`
}

// Analytics maintains running totals and a weighted rolling average
// across turns. The single-flight turn guard means Fold is never raced
// by two turns, but the web layer reads snapshots concurrently, so the
// accumulator carries its own lock.
type Analytics struct {
	mu           sync.Mutex
	totalQueries int
	avgMillis    float64
	backendCalls int
	lastTurn     *TurnMetrics
}

// NewAnalytics creates an empty accumulator.
func NewAnalytics() *Analytics {
	return &Analytics{}
}

// Fold applies one partial update atomically. A FoldInput with all
// fields absent leaves the accumulator unchanged.
func (a *Analytics) Fold(in FoldInput) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if in.Queries > 0 && in.TotalMillis > 0 {
		oldCount := float64(a.totalQueries)
		a.avgMillis = (a.avgMillis*oldCount + float64(in.TotalMillis)) / (oldCount + float64(in.Queries))
	}
	a.totalQueries += in.Queries
	a.backendCalls += in.BackendCalls
	if in.Latency != nil {
		cp := *in.Latency
		a.lastTurn = &cp
	}
}

// Snapshot returns a copy of the current accumulator state.
func (a *Analytics) Snapshot() AnalyticsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := AnalyticsSnapshot{
		TotalQueries:          a.totalQueries,
		AvgResponseTimeMillis: a.avgMillis,
		BackendCallCount:      a.backendCalls,
	}
	if a.lastTurn != nil {
		cp := *a.lastTurn
		snap.LastTurnMetrics = &cp
	}
	return snap
}
