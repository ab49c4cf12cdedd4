package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tutorvoice/tutorvoice/pkg/core"
	"github.com/tutorvoice/tutorvoice/pkg/core/voice/stt"
)

// fakeRecognizer is a deterministic stt.Provider for tests.
type fakeRecognizer struct {
	mu      sync.Mutex
	streams []*fakeStream
	dialErr error
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) NewStream(ctx context.Context, opts stt.Options) (stt.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	s := &fakeStream{results: make(chan stt.Delta, 16)}
	f.streams = append(f.streams, s)
	return s, nil
}

type fakeStream struct {
	results chan stt.Delta

	mu     sync.Mutex
	err    error
	closed bool
	ended  bool
}

func (s *fakeStream) Results() <-chan stt.Delta { return s.results }
func (s *fakeStream) SendAudio([]byte) error    { return nil }
func (s *fakeStream) Finalize() error           { return nil }

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close marks the stream closed without ending the results channel, so tests
// can simulate late recognition callbacks after a stop.
func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// emit pushes a delta as if the recognition service produced it.
func (s *fakeStream) emit(text string, final bool) {
	s.results <- stt.Delta{Text: text, IsFinal: final}
}

// end terminates the session from the service side with the given error.
func (s *fakeStream) end(err error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.err = err
	s.mu.Unlock()
	close(s.results)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCaptureController_NoCapability(t *testing.T) {
	var notices []string
	var mu sync.Mutex

	c := NewCaptureController(nil, stt.Options{}, nil)
	c.SetCallbacks(nil, nil, func(n string) {
		mu.Lock()
		notices = append(notices, n)
		mu.Unlock()
	})

	err := c.StartListening(context.Background())
	var apiErr *core.Error
	if !errors.As(err, &apiErr) || apiErr.Type != core.ErrCapability {
		t.Fatalf("expected capability error, got %v", err)
	}

	// The notice is reported once, not on every attempt.
	c.StartListening(context.Background())
	mu.Lock()
	defer mu.Unlock()
	if len(notices) != 1 {
		t.Errorf("notices = %v, want exactly one", notices)
	}
}

func TestCaptureController_AppendsFinalSegments(t *testing.T) {
	rec := &fakeRecognizer{}
	c := NewCaptureController(rec, stt.Options{}, nil)

	var buffers []string
	var mu sync.Mutex
	c.SetCallbacks(func(b string) {
		mu.Lock()
		buffers = append(buffers, b)
		mu.Unlock()
	}, nil, nil)

	if err := c.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}
	if !c.IsListening() {
		t.Fatal("expected listening state")
	}

	stream := rec.streams[0]
	stream.emit("what", false) // interim, ignored
	stream.emit("what is", true)
	stream.emit("osmosis", true)

	waitFor(t, "buffer to accumulate", func() bool {
		return c.Buffer() == "what is osmosis"
	})

	mu.Lock()
	if len(buffers) != 2 || buffers[1] != "what is osmosis" {
		t.Errorf("buffer callbacks = %v", buffers)
	}
	mu.Unlock()
}

func TestCaptureController_TakeBufferDiscardsLateResults(t *testing.T) {
	rec := &fakeRecognizer{}
	c := NewCaptureController(rec, stt.Options{}, nil)

	if err := c.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}
	stream := rec.streams[0]
	stream.emit("first question", true)
	waitFor(t, "segment", func() bool { return c.Buffer() == "first question" })

	got := c.TakeBuffer()
	if got != "first question" {
		t.Errorf("TakeBuffer() = %q", got)
	}
	if c.IsListening() {
		t.Error("capture should be force-stopped by TakeBuffer")
	}
	stream.mu.Lock()
	closed := stream.closed
	stream.mu.Unlock()
	if !closed {
		t.Error("stream should be closed")
	}

	// A late final segment from the old session must not repopulate the
	// cleared buffer.
	stream.emit("stale tail", true)
	time.Sleep(20 * time.Millisecond)
	if c.Buffer() != "" {
		t.Errorf("late result leaked into buffer: %q", c.Buffer())
	}
	stream.end(nil)
}

func TestCaptureController_NoSpeechIsNotFatal(t *testing.T) {
	rec := &fakeRecognizer{}
	c := NewCaptureController(rec, stt.Options{}, nil)

	var notices []string
	var states []bool
	var mu sync.Mutex
	c.SetCallbacks(nil,
		func(listening bool) {
			mu.Lock()
			states = append(states, listening)
			mu.Unlock()
		},
		func(n string) {
			mu.Lock()
			notices = append(notices, n)
			mu.Unlock()
		})

	if err := c.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}
	rec.streams[0].end(stt.ErrNoSpeech)

	waitFor(t, "capture to stop", func() bool { return !c.IsListening() })
	waitFor(t, "notice", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notices) == 1
	})

	mu.Lock()
	if notices[0] != "No speech detected." {
		t.Errorf("notice = %q", notices[0])
	}
	if len(states) != 2 || states[0] != true || states[1] != false {
		t.Errorf("state transitions = %v, want [true false]", states)
	}
	mu.Unlock()

	// Still usable after the recoverable condition.
	if err := c.StartListening(context.Background()); err != nil {
		t.Fatalf("restart after no-speech: %v", err)
	}
}

func TestCaptureController_RecognitionErrorStopsCapture(t *testing.T) {
	rec := &fakeRecognizer{}
	c := NewCaptureController(rec, stt.Options{}, nil)

	var notices []string
	var mu sync.Mutex
	c.SetCallbacks(nil, nil, func(n string) {
		mu.Lock()
		notices = append(notices, n)
		mu.Unlock()
	})

	if err := c.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}
	rec.streams[0].end(errors.New("network dropped"))

	waitFor(t, "capture to stop", func() bool { return !c.IsListening() })
	waitFor(t, "notice", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notices) == 1
	})
}

func TestCaptureController_StartWhileListeningIsNoop(t *testing.T) {
	rec := &fakeRecognizer{}
	c := NewCaptureController(rec, stt.Options{}, nil)

	if err := c.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}
	if err := c.StartListening(context.Background()); err != nil {
		t.Fatalf("second StartListening() error = %v", err)
	}
	if len(rec.streams) != 1 {
		t.Errorf("streams opened = %d, want 1", len(rec.streams))
	}
}
