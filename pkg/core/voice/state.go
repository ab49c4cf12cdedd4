// Package voice implements the speech capture and playback controllers.
//
// The platform speech engines are reached through the stt and tts capability
// interfaces; each controller is the sole writer of its on/off flag. Listening
// and speaking are mutually exclusive only by UI convention, so nothing here
// assumes the engines enforce exclusivity.
package voice

// State describes what the voice layer is doing.
type State int

const (
	StateIdle State = iota
	StateListening
	StateSpeaking
)

// String returns a human-readable state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}
