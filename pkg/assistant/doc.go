// Package assistant implements the conversation turn pipeline at the
// heart of the voice support agent.
//
// One turn moves through capture, transcription, reasoning (with tool
// calls), synthesis and playback. The Pipeline owns the state machine
// sequencing those phases, the append-only TranscriptLog, and the
// Analytics accumulator; a re-entrancy guard keeps at most one turn in
// flight. The EngineResponder wraps the reasoning backend behind a
// never-fails contract so engine outages degrade to canned replies
// instead of dead turns.
package assistant
