package voice

// State is the user-visible turn-taking status.
type State int

const (
	StateIdle State = iota
	StateListening
	StateThinking
	StateSpeaking
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateThinking:
		return "thinking"
	case StateSpeaking:
		return "speaking"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Audible reports whether model speech is expected to be playing.
func (s State) Audible() bool { return s == StateSpeaking }

var inSession = map[State]bool{
	StateIdle:      true,
	StateListening: true,
	StateThinking:  true,
	StateSpeaking:  true,
	StateError:     true,
}

var transitions = map[State]map[State]bool{
	StateIdle: {
		StateIdle:      true,
		StateListening: true,
		StateError:     true,
	},
	StateListening: inSession,
	StateThinking:  inSession,
	StateSpeaking:  inSession,
	StateError: {
		StateIdle:  true,
		StateError: true,
	},
}

// CanTransition reports whether the controller may move from one status to
// another. An errored controller must go through Idle before listening again.
func CanTransition(from, to State) bool {
	return transitions[from][to]
}
