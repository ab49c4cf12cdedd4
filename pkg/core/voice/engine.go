package voice

import (
	"context"
	"sync"

	"github.com/tutorvoice/tutorvoice/pkg/core/voice/tts"
)

// Utterance is one in-flight playback with lifecycle reporting.
type Utterance interface {
	// Done is closed when playback ends, naturally or on error or cancel.
	Done() <-chan struct{}

	// Err returns the terminal error, nil for natural end or cancel.
	Err() error

	// Cancel stops playback immediately.
	Cancel()
}

// Engine turns text into audible speech.
type Engine interface {
	Speak(ctx context.Context, text string, opts tts.Options) (Utterance, error)
}

// PlayerFunc plays one synthesized audio clip, blocking until playback
// completes or ctx is canceled.
type PlayerFunc func(ctx context.Context, audio []byte, format string) error

// SynthesisEngine implements Engine by synthesizing the full text through a
// tts.Provider and handing the audio to a player.
type SynthesisEngine struct {
	provider tts.Provider
	play     PlayerFunc
}

// NewSynthesisEngine creates an engine from a synthesis provider and a
// player. A nil player discards the audio, which is useful in tests.
func NewSynthesisEngine(provider tts.Provider, play PlayerFunc) *SynthesisEngine {
	return &SynthesisEngine{provider: provider, play: play}
}

// Speak starts synthesis and playback. It returns immediately; the returned
// utterance reports completion.
func (e *SynthesisEngine) Speak(ctx context.Context, text string, opts tts.Options) (Utterance, error) {
	ctx, cancel := context.WithCancel(ctx)
	u := &utterance{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(u.done)

		synth, err := e.provider.Synthesize(ctx, text, opts)
		if err != nil {
			if ctx.Err() == nil {
				u.setErr(err)
			}
			return
		}
		if e.play == nil || len(synth.Audio) == 0 {
			return
		}
		if err := e.play(ctx, synth.Audio, synth.Format); err != nil && ctx.Err() == nil {
			u.setErr(err)
		}
	}()

	return u, nil
}

type utterance struct {
	done   chan struct{}
	cancel context.CancelFunc

	errMu sync.Mutex
	err   error
}

func (u *utterance) Done() <-chan struct{} { return u.done }

func (u *utterance) Err() error {
	u.errMu.Lock()
	defer u.errMu.Unlock()
	return u.err
}

func (u *utterance) Cancel() { u.cancel() }

func (u *utterance) setErr(err error) {
	u.errMu.Lock()
	defer u.errMu.Unlock()
	if u.err == nil {
		u.err = err
	}
}
