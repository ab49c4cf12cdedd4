package chat

import "github.com/tutorvoice/tutorvoice/pkg/core/types"

// Event is something the coordinator reports to the frontend. Consumers
// switch on the concrete type; EventType exists for logging.
type Event interface {
	EventType() string
}

// TurnStartedEvent fires when a question has been accepted and dispatched.
type TurnStartedEvent struct {
	SessionID string
	Question  string
}

func (*TurnStartedEvent) EventType() string { return "turn.started" }

// MessageAppendedEvent fires for every message added to a transcript, user
// and assistant alike. Frontends re-render the conversation on it.
type MessageAppendedEvent struct {
	SessionID string
	Message   types.Message
}

func (*MessageAppendedEvent) EventType() string { return "message.appended" }

// TurnCompletedEvent fires when an answer has been applied to the session.
type TurnCompletedEvent struct {
	SessionID string
	Emotion   types.Emotion
}

func (*TurnCompletedEvent) EventType() string { return "turn.completed" }

// TurnFailedEvent fires when a turn ends in an error. RateLimited turns
// carry the retry delay that started the quota countdown.
type TurnFailedEvent struct {
	SessionID         string
	Reason            string
	RateLimited       bool
	RetryAfterSeconds int
}

func (*TurnFailedEvent) EventType() string { return "turn.failed" }

// ResponseDiscardedEvent fires when a turn finished after the user had
// already moved to a different session, so its result was dropped.
type ResponseDiscardedEvent struct {
	SessionID string
}

func (*ResponseDiscardedEvent) EventType() string { return "response.discarded" }
