// Package tts provides text-to-speech capability interfaces and providers.
package tts

import "context"

// Options configures synthesis.
type Options struct {
	Voice      string  // provider voice identifier
	Speed      float64 // playback rate multiplier; 0 means provider default
	Emotion    string  // optional emotion hint for expressive voices
	Format     string  // output container/encoding (default: "mp3")
	SampleRate int     // output sample rate in Hz
}

// Synthesis is the result of converting text to audio.
type Synthesis struct {
	Audio  []byte
	Format string
}

// Provider is the capability interface for speech synthesis.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, text string, opts Options) (*Synthesis, error)
}
