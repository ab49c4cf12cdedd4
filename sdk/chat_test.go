package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tutorvoice/tutorvoice/pkg/core"
	"github.com/tutorvoice/tutorvoice/pkg/core/types"
)

func requireTCPListen(t testing.TB) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: TCP listen not permitted in this environment: %v", err)
	}
	ln.Close()
}

func TestChatService_Send(t *testing.T) {
	requireTCPListen(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat" {
			t.Errorf("expected /chat, got %s", r.URL.Path)
		}

		var req types.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Question != "What is osmosis?" {
			t.Errorf("question = %q", req.Question)
		}
		if req.Model != types.DefaultModel {
			t.Errorf("model = %q, want default", req.Model)
		}

		json.NewEncoder(w).Encode(types.ChatResponse{
			Answer:    "Osmosis is the movement of water across a membrane.",
			SessionID: "srv-session-1",
			Model:     req.Model,
			Emotion:   "explaining",
		})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	resp, err := client.Chat.Send(context.Background(), &ChatRequest{Question: "What is osmosis?"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.SessionID != "srv-session-1" {
		t.Errorf("session id = %q", resp.SessionID)
	}
	if resp.Emotion != "explaining" {
		t.Errorf("emotion = %q", resp.Emotion)
	}
}

func TestChatService_Send_RateLimit(t *testing.T) {
	requireTCPListen(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]any{
				"message":             "Daily API limit reached. Quota resets at midnight Pacific Time.",
				"retry_after_seconds": 120,
			},
		})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Chat.Send(context.Background(), &ChatRequest{Question: "hi"})
	if !core.IsRateLimit(err) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
	if got := core.RetryAfterSeconds(err); got != 120 {
		t.Errorf("RetryAfterSeconds = %d, want 120", got)
	}
}

func TestChatService_Send_RateLimit_MalformedPayload(t *testing.T) {
	requireTCPListen(t)

	bodies := []string{
		`{"detail": "too many requests"}`,
		`{"detail": {"unexpected": true}}`,
		`not json at all`,
		`{}`,
	}
	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(body))
		}))

		client := NewClient(WithBaseURL(server.URL))
		_, err := client.Chat.Send(context.Background(), &ChatRequest{Question: "hi"})
		server.Close()

		if !core.IsRateLimit(err) {
			t.Fatalf("body %q: expected rate-limit error, got %v", body, err)
		}
		if got := core.RetryAfterSeconds(err); got != core.DefaultRetryAfterSeconds {
			t.Errorf("body %q: RetryAfterSeconds = %d, want default %d", body, got, core.DefaultRetryAfterSeconds)
		}
	}
}

func TestChatService_Send_ServerError(t *testing.T) {
	requireTCPListen(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "something broke"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Chat.Send(context.Background(), &ChatRequest{Question: "hi"})

	var apiErr *core.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *core.Error, got %T: %v", err, err)
	}
	if apiErr.Type != core.ErrAPI {
		t.Errorf("type = %q, want api_error", apiErr.Type)
	}
	if apiErr.Message != "something broke" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestChatService_Send_TransportError(t *testing.T) {
	// Point at a closed port; the connection should be refused.
	client := NewClient(WithBaseURL("http://127.0.0.1:1"))
	_, err := client.Chat.Send(context.Background(), &ChatRequest{Question: "hi"})

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.Op != "POST" {
		t.Errorf("op = %q", transportErr.Op)
	}
}

func TestChatService_Send_EmptyQuestion(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:1"))
	_, err := client.Chat.Send(context.Background(), &ChatRequest{Question: "   "})

	var apiErr *core.Error
	if !errors.As(err, &apiErr) || apiErr.Type != core.ErrInvalidRequest {
		t.Fatalf("expected invalid_request_error, got %v", err)
	}
}

func TestChatService_Health(t *testing.T) {
	requireTCPListen(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("expected /, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"message": "AI Tutor API is running"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	if err := client.Chat.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}
