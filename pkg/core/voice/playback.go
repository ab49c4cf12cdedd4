package voice

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tutorvoice/tutorvoice/pkg/core"
	"github.com/tutorvoice/tutorvoice/pkg/core/voice/tts"
)

// SpeakRequest qualifies a Speak call.
type SpeakRequest struct {
	// Forced bypasses the auto-speak setting (explicit "read aloud").
	Forced bool
	// Toggle marks an explicit user toggle: if playback was in progress the
	// cancellation alone satisfies the call and nothing new starts.
	Toggle bool
}

// PlaybackController owns the speaking state and the playback interruption
// policy. At most one utterance is ever active: every Speak call cancels the
// current playback before deciding whether to start a new one.
type PlaybackController struct {
	engine Engine
	logger *slog.Logger

	mu        sync.Mutex
	autoSpeak bool
	speaking  bool
	current   Utterance
	gen       int
	voice     string
	rate      float64
	warned    bool

	onSpeaking func(speaking bool)
	onNotice   func(notice string)
}

// NewPlaybackController creates a playback controller. A nil engine means the
// platform has no speech synthesis; Speak then degrades to a one-time notice.
func NewPlaybackController(engine Engine, logger *slog.Logger) *PlaybackController {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaybackController{engine: engine, logger: logger, autoSpeak: true}
}

// SetCallbacks sets the event callbacks. onSpeaking fires on every speaking
// flag change and drives the avatar.
func (p *PlaybackController) SetCallbacks(onSpeaking func(bool), onNotice func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSpeaking = onSpeaking
	p.onNotice = onNotice
}

// SetAutoSpeak toggles the global auto-speak setting.
func (p *PlaybackController) SetAutoSpeak(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoSpeak = enabled
}

// AutoSpeak reports the global auto-speak setting.
func (p *PlaybackController) AutoSpeak() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoSpeak
}

// SetVoice selects the synthesis voice and rate for subsequent playback.
func (p *PlaybackController) SetVoice(voice string, rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voice = voice
	p.rate = rate
}

// IsSpeaking reports whether playback is active.
func (p *PlaybackController) IsSpeaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speaking
}

// Speak applies the playback policy:
//
//  1. an in-progress playback is canceled and the speaking flag cleared
//     before anything else;
//  2. a toggle call that found playback in progress is done after the
//     cancellation; toggle means stop;
//  3. without auto-speak and without Forced, nothing plays;
//  4. markup is stripped, and empty remaining text plays nothing;
//  5. otherwise a new utterance starts with the selected voice and rate.
func (p *PlaybackController) Speak(ctx context.Context, text string, req SpeakRequest) error {
	p.mu.Lock()
	wasSpeaking := p.speaking
	if p.current != nil {
		p.current.Cancel()
		p.current = nil
	}
	p.speaking = false
	p.gen++
	onSpeaking := p.onSpeaking

	if req.Toggle && wasSpeaking {
		p.mu.Unlock()
		if wasSpeaking && onSpeaking != nil {
			onSpeaking(false)
		}
		return nil
	}

	if !p.autoSpeak && !req.Forced {
		p.mu.Unlock()
		if wasSpeaking && onSpeaking != nil {
			onSpeaking(false)
		}
		return nil
	}

	clean := StripMarkdown(text)
	if clean == "" {
		p.mu.Unlock()
		if wasSpeaking && onSpeaking != nil {
			onSpeaking(false)
		}
		return nil
	}

	if p.engine == nil {
		warned := p.warned
		p.warned = true
		onNotice := p.onNotice
		p.mu.Unlock()
		if wasSpeaking && onSpeaking != nil {
			onSpeaking(false)
		}
		if !warned && onNotice != nil {
			onNotice("Speech synthesis is not available; replies will not be read aloud.")
		}
		return core.NewCapabilityError("no speech synthesis capability")
	}

	opts := tts.Options{Voice: p.voice, Speed: p.rate}
	utt, err := p.engine.Speak(ctx, clean, opts)
	if err != nil {
		p.mu.Unlock()
		if wasSpeaking && onSpeaking != nil {
			onSpeaking(false)
		}
		p.logger.Warn("speech playback failed to start", "error", err)
		return err
	}

	p.current = utt
	p.speaking = true
	gen := p.gen
	p.mu.Unlock()

	if wasSpeaking && onSpeaking != nil {
		onSpeaking(false)
	}
	if onSpeaking != nil {
		onSpeaking(true)
	}

	go p.watch(utt, gen)
	return nil
}

// Stop cancels any active playback without starting a new one.
func (p *PlaybackController) Stop() {
	p.mu.Lock()
	wasSpeaking := p.speaking
	if p.current != nil {
		p.current.Cancel()
		p.current = nil
	}
	p.speaking = false
	p.gen++
	onSpeaking := p.onSpeaking
	p.mu.Unlock()

	if wasSpeaking && onSpeaking != nil {
		onSpeaking(false)
	}
}

// watch clears the speaking flag when the utterance ends on its own. A
// superseded utterance (older generation) was already cleared by its
// interrupter.
func (p *PlaybackController) watch(utt Utterance, gen int) {
	<-utt.Done()

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.speaking = false
	p.current = nil
	onSpeaking := p.onSpeaking
	p.mu.Unlock()

	if onSpeaking != nil {
		onSpeaking(false)
	}
	if err := utt.Err(); err != nil {
		p.logger.Warn("speech playback ended with error", "error", err)
	}
}
