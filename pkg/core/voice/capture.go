package voice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/tutorvoice/tutorvoice/pkg/core"
	"github.com/tutorvoice/tutorvoice/pkg/core/voice/stt"
)

// CaptureController owns the listening state and the voice input buffer.
//
// While listening, every final recognized segment is appended to the buffer
// so the user can compose a question across several utterances. Recognition
// sessions carry a generation number; results arriving after a stop or a
// restart belong to an older generation and are dropped, so a submitted and
// cleared buffer can never be repopulated by a late callback.
type CaptureController struct {
	provider stt.Provider
	opts     stt.Options
	logger   *slog.Logger

	mu        sync.Mutex
	listening bool
	stream    stt.Stream
	segments  []string
	gen       int
	warned    bool

	onBuffer func(buffer string)
	onState  func(listening bool)
	onNotice func(notice string)
}

// NewCaptureController creates a capture controller. A nil provider means the
// platform has no speech recognition; StartListening then degrades to a
// user-visible notice.
func NewCaptureController(provider stt.Provider, opts stt.Options, logger *slog.Logger) *CaptureController {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptureController{provider: provider, opts: opts, logger: logger}
}

// SetCallbacks sets the event callbacks. onBuffer fires when the input buffer
// changes, onState when listening toggles, onNotice for user-visible notices.
func (c *CaptureController) SetCallbacks(
	onBuffer func(buffer string),
	onState func(listening bool),
	onNotice func(notice string),
) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onBuffer = onBuffer
	c.onState = onState
	c.onNotice = onNotice
}

// StartListening begins continuous recognition. It is a no-op while already
// listening.
func (c *CaptureController) StartListening(ctx context.Context) error {
	c.mu.Lock()
	if c.provider == nil {
		warned := c.warned
		c.warned = true
		notice := c.onNotice
		c.mu.Unlock()
		if !warned && notice != nil {
			notice("Speech recognition is not available; voice input is disabled.")
		}
		return core.NewCapabilityError("no speech recognition capability")
	}
	if c.listening {
		c.mu.Unlock()
		return nil
	}
	provider := c.provider
	opts := c.opts
	c.mu.Unlock()

	stream, err := provider.NewStream(ctx, opts)
	if err != nil {
		c.notify("Could not start voice capture.")
		return err
	}

	c.mu.Lock()
	c.listening = true
	c.stream = stream
	c.gen++
	gen := c.gen
	onState := c.onState
	c.mu.Unlock()

	go c.readLoop(stream, gen)

	if onState != nil {
		onState(true)
	}
	return nil
}

// StopListening force-stops capture. Late results from the closed session
// are discarded.
func (c *CaptureController) StopListening() {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		return
	}
	stream := c.stream
	c.stream = nil
	c.listening = false
	c.gen++
	onState := c.onState
	c.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	if onState != nil {
		onState(false)
	}
}

// Stream returns the active recognition stream, or nil. The caller may feed
// it audio while listening.
func (c *CaptureController) Stream() stt.Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// IsListening reports whether capture is active.
func (c *CaptureController) IsListening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Buffer returns the accumulated voice input.
func (c *CaptureController) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.segments, " ")
}

// TakeBuffer force-stops capture, then returns and clears the accumulated
// input. Used on submit so no late segment lands in a resubmitted buffer.
func (c *CaptureController) TakeBuffer() string {
	c.StopListening()

	c.mu.Lock()
	defer c.mu.Unlock()
	text := strings.Join(c.segments, " ")
	c.segments = nil
	return text
}

// Clear discards the accumulated input without stopping capture.
func (c *CaptureController) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.segments = nil
}

func (c *CaptureController) readLoop(stream stt.Stream, gen int) {
	for delta := range stream.Results() {
		if !delta.IsFinal {
			continue
		}
		text := strings.TrimSpace(delta.Text)
		if text == "" {
			continue
		}
		c.appendSegment(gen, text)
	}
	c.finish(gen, stream.Err())
}

func (c *CaptureController) appendSegment(gen int, text string) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.segments = append(c.segments, text)
	buffer := strings.Join(c.segments, " ")
	onBuffer := c.onBuffer
	c.mu.Unlock()

	if onBuffer != nil {
		onBuffer(buffer)
	}
}

// finish handles the recognition session ending on its own. On any error the
// capture stops and the state returns to idle; no-speech is reported but not
// treated as fatal.
func (c *CaptureController) finish(gen int, err error) {
	c.mu.Lock()
	if gen != c.gen {
		// Already stopped or restarted.
		c.mu.Unlock()
		return
	}
	c.listening = false
	c.stream = nil
	c.gen++
	onState := c.onState
	c.mu.Unlock()

	if onState != nil {
		onState(false)
	}

	switch {
	case err == nil:
	case errors.Is(err, stt.ErrNoSpeech):
		c.notify("No speech detected.")
	default:
		c.logger.Warn("voice capture ended with error", "error", err)
		c.notify("Voice capture stopped after an error.")
	}
}

func (c *CaptureController) notify(notice string) {
	c.mu.Lock()
	onNotice := c.onNotice
	c.mu.Unlock()
	if onNotice != nil {
		onNotice(notice)
	}
}
