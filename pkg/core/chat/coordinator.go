// Package chat coordinates a tutoring conversation turn by turn: it owns the
// single in-flight request, applies answers to the session store, drives the
// avatar and the quota notice, and hands answers to voice playback.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tutorvoice/tutorvoice/pkg/core"
	"github.com/tutorvoice/tutorvoice/pkg/core/session"
	"github.com/tutorvoice/tutorvoice/pkg/core/types"
	"github.com/tutorvoice/tutorvoice/pkg/core/voice"
)

// ErrSendInFlight is returned by Submit while a previous turn is still
// waiting on the backend.
var ErrSendInFlight = errors.New("a question is already being answered")

// genericFailureText is shown in the transcript when a turn fails for any
// reason other than rate limiting.
const genericFailureText = "Sorry, something went wrong while answering. Please try again."

// defaultSpeakDelay is how long after an answer lands before auto-speak
// starts, giving the frontend a beat to render the text first.
const defaultSpeakDelay = 150 * time.Millisecond

// Backend sends a question and returns the tutor's answer. The sdk client's
// chat service satisfies it.
type Backend interface {
	Send(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error)
}

// Config carries the coordinator's tunables.
type Config struct {
	// Model is the model name sent with every request. Empty means the
	// backend default.
	Model string

	// SpeakDelay overrides the pause before auto-speak. Zero means the
	// default.
	SpeakDelay time.Duration

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Coordinator runs the turn state machine. At most one turn is in flight at
// a time; state advances Idle -> Sending -> resolved -> Idle. All methods are
// safe for concurrent use.
type Coordinator struct {
	cfg     Config
	backend Backend
	store   *session.Store
	logger  *slog.Logger

	capture  *voice.CaptureController
	playback *voice.PlaybackController
	avatar   *AvatarState
	quota    *QuotaCountdown

	mu      sync.Mutex
	sending bool

	events chan Event
}

// NewCoordinator wires a coordinator over a backend and a session store. The
// avatar and quota trackers are created internally; attach voice controllers
// with AttachVoice.
func NewCoordinator(backend Backend, store *session.Store, cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SpeakDelay <= 0 {
		cfg.SpeakDelay = defaultSpeakDelay
	}
	return &Coordinator{
		cfg:     cfg,
		backend: backend,
		store:   store,
		logger:  cfg.Logger,
		avatar:  NewAvatarState(),
		quota:   NewQuotaCountdown(),
		events:  make(chan Event, 100),
	}
}

// AttachVoice connects the capture and playback controllers. Either may be
// nil; the coordinator degrades to text-only for whichever is missing. The
// playback speaking flag is mirrored onto the avatar.
func (c *Coordinator) AttachVoice(capture *voice.CaptureController, playback *voice.PlaybackController) {
	c.capture = capture
	c.playback = playback
	if playback != nil {
		playback.SetCallbacks(func(speaking bool) {
			c.avatar.SetSpeaking(speaking)
		}, nil)
	}
}

// Events returns the coordinator's event stream. Events are dropped, with a
// log line, if the consumer falls more than the buffer behind.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Avatar returns the avatar state driven by this coordinator.
func (c *Coordinator) Avatar() *AvatarState { return c.avatar }

// Quota returns the rate-limit countdown driven by this coordinator.
func (c *Coordinator) Quota() *QuotaCountdown { return c.quota }

// Sending reports whether a turn is in flight.
func (c *Coordinator) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Submit starts a turn for the given input. Blank input is ignored without
// error. If a turn is already in flight, Submit returns ErrSendInFlight and
// changes nothing.
//
// On acceptance the question is appended to the current session immediately,
// voice capture is force-stopped, and the request is dispatched in the
// background; Submit itself does not wait for the answer.
func (c *Coordinator) Submit(ctx context.Context, input string) error {
	question := strings.TrimSpace(input)
	if question == "" {
		return nil
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.sending = true
	c.mu.Unlock()

	if c.capture != nil {
		c.capture.StopListening()
		c.capture.Clear()
	}

	sessionID, epoch := c.store.CurrentRef()
	userMsg := types.NewUserMessage(question)
	c.store.AppendToCurrent(userMsg)
	c.emit(&MessageAppendedEvent{SessionID: sessionID, Message: userMsg})
	c.emit(&TurnStartedEvent{SessionID: sessionID, Question: question})
	c.avatar.SetEmotion(types.EmotionThinking)

	go c.dispatch(ctx, question, sessionID, epoch)
	return nil
}

func (c *Coordinator) dispatch(ctx context.Context, question, sessionID string, epoch uint64) {
	req := &types.ChatRequest{
		Question:  question,
		SessionID: sessionID,
		Model:     c.cfg.Model,
	}
	start := time.Now()
	resp, err := c.backend.Send(ctx, req)
	c.logger.Debug("turn resolved",
		"session_id", sessionID,
		"duration", time.Since(start),
		"error", err != nil)
	c.resolve(resp, err, sessionID, epoch)
}

// resolve applies a finished turn. The epoch captured at dispatch gates the
// transcript update: if the user switched sessions while the request was in
// flight, the result is discarded rather than applied to the wrong
// conversation. A rate limit still starts the quota countdown in that case,
// since the quota is account-wide, not per session.
//
// The sending flag clears only after the result has been applied or
// discarded, so a turn accepted next cannot interleave its user message
// ahead of this turn's reply.
func (c *Coordinator) resolve(resp *types.ChatResponse, err error, sessionID string, epoch uint64) {
	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	if err != nil && core.IsRateLimit(err) {
		c.quota.Activate(core.RetryAfterSeconds(err))
	}

	curID, curEpoch := c.store.CurrentRef()
	if curEpoch != epoch {
		c.logger.Info("discarding response for a session no longer current",
			"dispatched_session", sessionID, "current_session", curID)
		c.emit(&ResponseDiscardedEvent{SessionID: sessionID})
		return
	}

	if err != nil {
		c.resolveFailure(err, curID)
		return
	}

	if resp.SessionID != "" && curID == "" {
		c.store.AdoptID(resp.SessionID)
		curID = resp.SessionID
	}

	emotion := types.ParseEmotion(resp.Emotion)
	answer := types.NewAssistantMessage(resp.Answer, emotion)
	c.store.AppendToCurrent(answer)
	c.avatar.SetEmotion(emotion)
	c.emit(&MessageAppendedEvent{SessionID: curID, Message: answer})
	c.emit(&TurnCompletedEvent{SessionID: curID, Emotion: emotion})

	if c.playback != nil && c.playback.AutoSpeak() {
		text := resp.Answer
		time.AfterFunc(c.cfg.SpeakDelay, func() {
			if err := c.playback.Speak(context.Background(), text, voice.SpeakRequest{}); err != nil {
				c.logger.Warn("auto-speak failed", "error", err)
			}
		})
	}
}

func (c *Coordinator) resolveFailure(err error, sessionID string) {
	var text string
	var rateLimited bool
	var retry int

	var coreErr *core.Error
	if core.IsRateLimit(err) {
		rateLimited = true
		retry = core.RetryAfterSeconds(err)
		text = "The tutor is taking a break. Please try again in " + FormatRemaining(retry) + "."
	} else if errors.As(err, &coreErr) && coreErr.Type == core.ErrInvalidRequest {
		text = coreErr.Message
	} else {
		text = genericFailureText
	}

	c.logger.Warn("turn failed", "session_id", sessionID, "error", err)
	errMsg := types.NewErrorMessage(text)
	c.store.AppendToCurrent(errMsg)
	c.avatar.SetEmotion(types.EmotionNeutral)
	c.emit(&MessageAppendedEvent{SessionID: sessionID, Message: errMsg})
	c.emit(&TurnFailedEvent{
		SessionID:         sessionID,
		Reason:            text,
		RateLimited:       rateLimited,
		RetryAfterSeconds: retry,
	})
}

// NewSession archives the current session if it has content and opens a
// fresh one. Voice capture and playback are stopped first.
func (c *Coordinator) NewSession() string {
	c.stopVoice()
	return c.store.CreateSession()
}

// SwitchSession makes another session current. Voice capture and playback
// are stopped first; a response still in flight for the old session will be
// discarded when it lands.
func (c *Coordinator) SwitchSession(id string) error {
	c.stopVoice()
	return c.store.SwitchSession(id)
}

// DeleteSession removes a session. Deleting the current one leaves a fresh
// session open.
func (c *Coordinator) DeleteSession(id string) error {
	c.stopVoice()
	return c.store.DeleteSession(id)
}

func (c *Coordinator) stopVoice() {
	if c.capture != nil {
		c.capture.StopListening()
		c.capture.Clear()
	}
	if c.playback != nil {
		c.playback.Stop()
	}
}

func (c *Coordinator) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Debug("event dropped, consumer behind", "event", ev.EventType())
	}
}
