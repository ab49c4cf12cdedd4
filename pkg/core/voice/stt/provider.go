// Package stt provides speech-to-text capability interfaces and providers.
//
// The recognition engine is wrapped behind the Provider interface so the
// orchestration layer can run against deterministic fakes in tests and
// degrade to text-only mode when no engine is available.
package stt

import (
	"context"
	"errors"
)

// ErrNoSpeech is the recoverable condition reported when a recognition
// session ends without detecting any speech. It is surfaced to the user but
// is not treated as fatal.
var ErrNoSpeech = errors.New("no speech detected")

// Options configures a recognition session.
type Options struct {
	Model      string // provider-specific model (default: "ink-whisper")
	Language   string // ISO language code (default: "en")
	Encoding   string // audio encoding (default: "pcm_s16le")
	SampleRate int    // audio sample rate in Hz
}

// Provider is the capability interface for continuous speech recognition.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// NewStream opens a live recognition session. Audio is sent
	// incrementally and interim/final transcript segments are received on
	// the stream's Results channel.
	NewStream(ctx context.Context, opts Options) (Stream, error)
}

// Stream is one live recognition session.
//
// Results is closed when the session ends, after which Err reports the
// terminal condition: nil for a clean stop, ErrNoSpeech for the recoverable
// no-speech case, anything else for a terminal recognition error.
type Stream interface {
	// Results emits interim and final transcript segments.
	Results() <-chan Delta

	// SendAudio feeds audio in the encoding given at session start.
	SendAudio(data []byte) error

	// Finalize flushes buffered audio and asks the engine to emit any
	// pending final segment while keeping the session open.
	Finalize() error

	// Err returns the terminal error once Results is closed.
	Err() error

	// Close ends the session and releases its resources.
	Close() error
}

// Delta is a streaming transcript update.
type Delta struct {
	Text    string // transcript segment
	IsFinal bool   // true if this segment will not be revised
}
