package chat

import (
	"sync"

	"github.com/tutorvoice/tutorvoice/pkg/core/types"
)

// AvatarState is the tutor avatar's presentation state: which emotion it
// shows and whether it is animated as speaking. The emotion follows the most
// recent answer; the speaking flag follows audio playback.
type AvatarState struct {
	mu       sync.Mutex
	emotion  types.Emotion
	speaking bool

	onChange func(emotion types.Emotion, speaking bool)
}

// NewAvatarState returns an avatar showing the neutral emotion.
func NewAvatarState() *AvatarState {
	return &AvatarState{emotion: types.EmotionNeutral}
}

// SetOnChange registers a callback fired on every state change, without the
// internal lock held.
func (a *AvatarState) SetOnChange(fn func(emotion types.Emotion, speaking bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// SetEmotion changes the displayed emotion.
func (a *AvatarState) SetEmotion(e types.Emotion) {
	a.mu.Lock()
	if a.emotion == e {
		a.mu.Unlock()
		return
	}
	a.emotion = e
	fn, em, sp := a.onChange, a.emotion, a.speaking
	a.mu.Unlock()
	if fn != nil {
		fn(em, sp)
	}
}

// SetSpeaking toggles the speaking animation.
func (a *AvatarState) SetSpeaking(speaking bool) {
	a.mu.Lock()
	if a.speaking == speaking {
		a.mu.Unlock()
		return
	}
	a.speaking = speaking
	fn, em, sp := a.onChange, a.emotion, a.speaking
	a.mu.Unlock()
	if fn != nil {
		fn(em, sp)
	}
}

// Emotion returns the displayed emotion.
func (a *AvatarState) Emotion() types.Emotion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.emotion
}

// Speaking reports whether the speaking animation is on.
func (a *AvatarState) Speaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speaking
}
