package types

import (
	"strings"
	"testing"
)

func TestSession_Preview(t *testing.T) {
	empty := &Session{ID: "s1"}
	if got := empty.Preview(); got != "" {
		t.Errorf("empty session Preview() = %q, want empty", got)
	}

	short := &Session{Messages: []Message{NewUserMessage("What is osmosis?")}}
	if got := short.Preview(); got != "What is osmosis?" {
		t.Errorf("Preview() = %q, want full first message", got)
	}

	long := &Session{Messages: []Message{NewUserMessage(strings.Repeat("a", 200))}}
	got := long.Preview()
	if len([]rune(got)) != PreviewLength+1 { // truncated + ellipsis
		t.Errorf("Preview() length = %d runes, want %d", len([]rune(got)), PreviewLength+1)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated Preview() should end with ellipsis, got %q", got)
	}

	// Preview uses the first message, not the latest.
	multi := &Session{Messages: []Message{
		NewUserMessage("first question"),
		NewAssistantMessage("an answer", EmotionNeutral),
	}}
	if got := multi.Preview(); got != "first question" {
		t.Errorf("Preview() = %q, want first message", got)
	}
}

func TestSession_Clone(t *testing.T) {
	s := &Session{ID: "s1", Messages: []Message{NewUserMessage("hello")}}
	c := s.Clone()

	c.Messages = append(c.Messages, NewAssistantMessage("hi", EmotionHappy))
	c.Messages[0].Content = "mutated"

	if s.MessageCount() != 1 {
		t.Errorf("clone mutation leaked: original has %d messages", s.MessageCount())
	}
	if s.Messages[0].Content != "hello" {
		t.Errorf("clone mutation leaked into original content: %q", s.Messages[0].Content)
	}
}

// Accessors must work on plain Session values, including ones returned
// straight from a function, since stores hand out value snapshots.
func TestSession_AccessorsOnValueSnapshot(t *testing.T) {
	snapshot := func() Session {
		return Session{ID: "s1", Messages: []Message{NewUserMessage("value receiver")}}
	}

	if got := snapshot().MessageCount(); got != 1 {
		t.Errorf("MessageCount() on snapshot = %d, want 1", got)
	}
	if got := snapshot().Preview(); got != "value receiver" {
		t.Errorf("Preview() on snapshot = %q", got)
	}
	if got := snapshot().Summary(); got.MessageCount != 1 {
		t.Errorf("Summary() on snapshot = %+v", got)
	}
	if got := snapshot().Clone(); got.MessageCount() != 1 {
		t.Errorf("Clone() on snapshot has %d messages", got.MessageCount())
	}
}

func TestSession_Summary(t *testing.T) {
	s := &Session{ID: "s1", Messages: []Message{
		NewUserMessage("topic"),
		NewAssistantMessage("reply", EmotionExplaining),
	}}
	sum := s.Summary()
	if sum.ID != "s1" || sum.MessageCount != 2 || sum.Preview != "topic" {
		t.Errorf("unexpected summary: %+v", sum)
	}
}
