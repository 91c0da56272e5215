package assistant

// State is the turn pipeline's current phase.
type State int

const (
	// StateIdle means no turn is in flight.
	StateIdle State = iota

	// StateCapturing means the microphone is recording.
	StateCapturing

	// StateTranscribing means captured audio is being converted to text.
	StateTranscribing

	// StateReasoning means the response engine is producing a reply.
	StateReasoning

	// StateSynthesizing means the reply text is being converted to speech.
	StateSynthesizing

	// StatePlaying means synthesized audio is playing back.
	StatePlaying

	// StateError is a transient failure display state that auto-recovers
	// to idle after the recovery timeout.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateTranscribing:
		return "transcribing"
	case StateReasoning:
		return "reasoning"
	case StateSynthesizing:
		return "synthesizing"
	case StatePlaying:
		return "playing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
