package types

// Emotion tags an assistant answer with the avatar expression to show.
type Emotion string

const (
	EmotionHappy       Emotion = "happy"
	EmotionExplaining  Emotion = "explaining"
	EmotionThinking    Emotion = "thinking"
	EmotionEncouraging Emotion = "encouraging"
	EmotionNeutral     Emotion = "neutral"
)

// ParseEmotion maps a backend emotion string to an Emotion. Unknown or empty
// values fall back to neutral so a new backend tag never breaks the client.
func ParseEmotion(s string) Emotion {
	switch Emotion(s) {
	case EmotionHappy, EmotionExplaining, EmotionThinking, EmotionEncouraging, EmotionNeutral:
		return Emotion(s)
	default:
		return EmotionNeutral
	}
}

func (e Emotion) String() string {
	return string(e)
}
