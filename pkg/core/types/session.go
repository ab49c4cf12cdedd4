package types

import "time"

// PreviewLength is the number of leading characters of a session's first
// message shown in the history catalog.
const PreviewLength = 60

// Session is a persisted, independently addressable conversation transcript.
// The identifier is opaque and globally unique; it may be empty for a session
// created implicitly before the backend has assigned one.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// MessageCount returns the number of messages in the transcript.
func (s Session) MessageCount() int {
	return len(s.Messages)
}

// Preview returns the leading substring of the first message, for history
// browsing. Empty sessions have an empty preview.
func (s Session) Preview() string {
	if len(s.Messages) == 0 {
		return ""
	}
	content := s.Messages[0].Content
	runes := []rune(content)
	if len(runes) <= PreviewLength {
		return content
	}
	return string(runes[:PreviewLength]) + "…"
}

// Summary returns the catalog entry for this session.
func (s Session) Summary() SessionSummary {
	return SessionSummary{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		MessageCount: s.MessageCount(),
		Preview:      s.Preview(),
	}
}

// Clone returns a deep copy of the session. Callers receive clones so the
// store remains the single writer of transcript data.
func (s Session) Clone() *Session {
	out := &Session{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Messages:  make([]Message, len(s.Messages)),
	}
	copy(out.Messages, s.Messages)
	return out
}

// SessionSummary is a catalog entry: session metadata without the transcript.
type SessionSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}
