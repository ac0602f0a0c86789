// Package live models the managed bidirectional speech session: the fixed
// session configuration, the outbound realtime-input call, and the ordered
// stream of typed inbound events.
package live

import "fmt"

// Event is one inbound stream event. The concrete types form a closed union.
type Event interface {
	event()
}

// InputTranscription carries recognised caller speech. Final is false for
// partial hypotheses.
type InputTranscription struct {
	Text  string
	Final bool
}

// OutputTranscription carries the text of what the model is saying.
type OutputTranscription struct {
	Text string
}

// TurnComplete marks the end of a model turn.
type TurnComplete struct{}

// Audio is an inline synthesized speech payload: base64 LE int16 PCM.
type Audio struct {
	MIMEType string
	Data     string
}

// Error is a mid-session fault reported by the service or the transport.
type Error struct {
	Err error
}

// Closed is the final event of a stream, whether the close was local or
// remote.
type Closed struct {
	Code   int
	Reason string
}

func (InputTranscription) event()  {}
func (OutputTranscription) event() {}
func (TurnComplete) event()        {}
func (Audio) event()               {}
func (Error) event()               {}
func (Closed) event()              {}

// Describe returns a short label for logging.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case InputTranscription:
		if e.Final {
			return "input_transcription.final"
		}
		return "input_transcription.partial"
	case OutputTranscription:
		return "output_transcription"
	case TurnComplete:
		return "turn_complete"
	case Audio:
		return "audio"
	case Error:
		return "error"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%T)", ev)
	}
}
