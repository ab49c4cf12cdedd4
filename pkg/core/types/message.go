// Package types defines the shared data model for the tutoring chat client:
// messages, sessions, emotions, and the backend wire types.
package types

import "time"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleError marks permanent conversational error artifacts. Errors are
	// part of the transcript, not transient notifications.
	RoleError Role = "error"
)

// Message is a single transcript entry. Messages are immutable once appended;
// ordering is insertion order.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Emotion   Emotion   `json:"emotion,omitempty"` // assistant messages only
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantMessage creates an assistant message with its emotion tag.
func NewAssistantMessage(content string, emotion Emotion) Message {
	return Message{Role: RoleAssistant, Content: content, Emotion: emotion, Timestamp: time.Now()}
}

// NewErrorMessage creates an error-role message.
func NewErrorMessage(content string) Message {
	return Message{Role: RoleError, Content: content, Timestamp: time.Now()}
}
