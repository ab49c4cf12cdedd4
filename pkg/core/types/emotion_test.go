package types

import "testing"

func TestParseEmotion(t *testing.T) {
	tests := []struct {
		in   string
		want Emotion
	}{
		{"happy", EmotionHappy},
		{"explaining", EmotionExplaining},
		{"thinking", EmotionThinking},
		{"encouraging", EmotionEncouraging},
		{"neutral", EmotionNeutral},
		{"", EmotionNeutral},
		{"confused", EmotionNeutral},
		{"HAPPY", EmotionNeutral},
	}
	for _, tt := range tests {
		if got := ParseEmotion(tt.in); got != tt.want {
			t.Errorf("ParseEmotion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
