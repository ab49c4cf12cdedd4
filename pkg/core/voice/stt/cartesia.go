package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	cartesiaWSURL   = "wss://api.cartesia.ai/stt/websocket"
	cartesiaVersion = "2025-04-16"
)

// Cartesia implements Provider using Cartesia's streaming STT API.
type Cartesia struct {
	apiKey string
	wsURL  string
}

// NewCartesia creates a Cartesia STT provider.
func NewCartesia(apiKey string) *Cartesia {
	return &Cartesia{apiKey: apiKey, wsURL: cartesiaWSURL}
}

// NewCartesiaWithURL creates a Cartesia STT provider against a custom
// websocket endpoint. Used in tests.
func NewCartesiaWithURL(apiKey, wsURL string) *Cartesia {
	return &Cartesia{apiKey: apiKey, wsURL: wsURL}
}

// Name returns the provider identifier.
func (c *Cartesia) Name() string {
	return "cartesia"
}

// NewStream opens a websocket recognition session.
func (c *Cartesia) NewStream(ctx context.Context, opts Options) (Stream, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket URL: %w", err)
	}

	q := u.Query()
	model := opts.Model
	if model == "" {
		model = "ink-whisper"
	}
	q.Set("model", model)

	language := opts.Language
	if language == "" {
		language = "en"
	}
	q.Set("language", language)

	encoding := opts.Encoding
	if encoding == "" {
		encoding = "pcm_s16le"
	}
	q.Set("encoding", encoding)

	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	q.Set("sample_rate", fmt.Sprintf("%d", sampleRate))

	// Low threshold to catch quiet speech while filtering background noise.
	q.Set("min_volume", "0.01")
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("X-API-Key", c.apiKey)
	headers.Set("Cartesia-Version", cartesiaVersion)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if len(body) > 0 {
				return nil, fmt.Errorf("websocket connect (status %d): %s", resp.StatusCode, string(body))
			}
			return nil, fmt.Errorf("websocket connect: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &cartesiaStream{
		conn:    conn,
		results: make(chan Delta, 100),
		ctx:     ctx,
		cancel:  cancel,
	}
	go s.readLoop()
	return s, nil
}

type cartesiaStream struct {
	conn    *websocket.Conn
	results chan Delta
	writeMu sync.Mutex
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	errMu    sync.Mutex
	err      error
	sawFinal bool
}

type cartesiaSTTMessage struct {
	Type    string `json:"type"` // "transcript", "flush_done", "done", "error"
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
	Error   string `json:"error"`
}

func (s *cartesiaStream) readLoop() {
	defer close(s.results)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.finish(nil)
			} else {
				s.finish(fmt.Errorf("recognition stream: %w", err))
			}
			return
		}

		var msg cartesiaSTTMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "transcript":
			if msg.IsFinal && msg.Text != "" {
				s.errMu.Lock()
				s.sawFinal = true
				s.errMu.Unlock()
			}
			select {
			case s.results <- Delta{Text: msg.Text, IsFinal: msg.IsFinal}:
			case <-s.ctx.Done():
				return
			}
		case "flush_done":
			continue
		case "done":
			s.finish(nil)
			return
		case "error":
			s.finish(fmt.Errorf("recognition error: %s", msg.Error))
			return
		}
	}
}

// finish records the terminal error. A session that ended cleanly without a
// single final segment is the no-speech condition.
func (s *cartesiaStream) finish(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if err == nil && !s.sawFinal && !s.closed.Load() {
		err = ErrNoSpeech
	}
	if s.err == nil {
		s.err = err
	}
}

func (s *cartesiaStream) Results() <-chan Delta {
	return s.results
}

func (s *cartesiaStream) SendAudio(data []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *cartesiaStream) Finalize() error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte("finalize"))
}

func (s *cartesiaStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *cartesiaStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()

	s.writeMu.Lock()
	s.conn.WriteMessage(websocket.TextMessage, []byte("done"))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	return s.conn.Close()
}
