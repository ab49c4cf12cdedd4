package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tutorvoice/tutorvoice/pkg/core"
	"github.com/tutorvoice/tutorvoice/pkg/core/types"
)

// ChatService sends chat turns to the backend.
type ChatService struct {
	client *Client
}

// ChatRequest is an alias for the core types.ChatRequest.
type ChatRequest = types.ChatRequest

// ChatResponse is an alias for the core types.ChatResponse.
type ChatResponse = types.ChatResponse

// Send posts one question to the chat endpoint and returns the answer with
// its emotion tag and session identifier.
//
// Rate-limit responses are returned as *core.Error with Type rate_limit_error
// and the backend's retry delay; a malformed rate-limit payload falls back to
// core.DefaultRetryAfterSeconds. Transport failures are wrapped in
// *TransportError.
func (s *ChatService) Send(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, core.NewInvalidRequestError("request must not be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, core.NewInvalidRequestError(err.Error())
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := s.client.baseURL + "/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.client.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.client.apiKey)
	}

	resp, err := s.client.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "POST", URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "POST", URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp.StatusCode, raw)
	}

	var out ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	s.client.logger.Debug("chat turn completed",
		"session_id", out.SessionID,
		"emotion", out.Emotion,
		"answer_len", len(out.Answer))
	return &out, nil
}

// Health probes the backend root endpoint.
func (s *ChatService) Health(ctx context.Context) error {
	url := s.client.baseURL + "/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.httpClient.Do(httpReq)
	if err != nil {
		return &TransportError{Op: "GET", URL: url, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return core.NewAPIError(fmt.Sprintf("backend unhealthy: status %d", resp.StatusCode))
	}
	return nil
}

// errorEnvelope is the backend's error body. The detail field is either a
// plain string or a structured rate-limit payload.
type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

type rateLimitDetail struct {
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

func parseErrorResponse(status int, raw []byte) error {
	var envelope errorEnvelope
	detail := ""
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Detail) > 0 {
		// Structured detail first, then plain string.
		var structured rateLimitDetail
		if err := json.Unmarshal(envelope.Detail, &structured); err == nil && structured.Message != "" {
			if status == http.StatusTooManyRequests {
				retry := structured.RetryAfterSeconds
				if retry <= 0 {
					retry = core.DefaultRetryAfterSeconds
				}
				return core.NewRateLimitError(structured.Message, retry)
			}
			detail = structured.Message
		} else {
			var s string
			if err := json.Unmarshal(envelope.Detail, &s); err == nil {
				detail = s
			}
		}
	}

	switch status {
	case http.StatusTooManyRequests:
		// Rate limited without a usable payload.
		if detail == "" {
			detail = "rate limit exceeded"
		}
		return core.NewRateLimitError(detail, core.DefaultRetryAfterSeconds)
	case http.StatusBadRequest:
		if detail == "" {
			detail = "invalid request"
		}
		return core.NewInvalidRequestError(detail)
	case http.StatusServiceUnavailable:
		if detail == "" {
			detail = "backend overloaded"
		}
		return core.NewOverloadedError(detail)
	default:
		if detail == "" {
			detail = fmt.Sprintf("unexpected status %d", status)
		}
		return core.NewAPIError(detail)
	}
}
