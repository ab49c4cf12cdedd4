package types

import (
	"fmt"
	"strings"
)

// Available tutor models.
const (
	ModelGeminiFlash = "gemini-2.5-flash"
	ModelGeminiPro   = "gemini-pro"
)

// DefaultModel is used when no model is configured.
const DefaultModel = ModelGeminiFlash

// MaxQuestionLength is the backend's query length cap.
const MaxQuestionLength = 2000

// ChatRequest is the backend chat endpoint request body.
type ChatRequest struct {
	Question string `json:"question"`
	// SessionID maintains conversation context across turns. Empty means the
	// backend should start a new conversation and return its identifier.
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model"`
}

// Validate trims the question and checks request constraints.
func (r *ChatRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("question must not be empty")
	}
	if len(r.Question) > MaxQuestionLength {
		return fmt.Errorf("question too long: %d characters (max %d)", len(r.Question), MaxQuestionLength)
	}
	if r.Model == "" {
		r.Model = DefaultModel
	}
	return nil
}

// ChatResponse is the backend chat endpoint response body.
type ChatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
	Emotion   string `json:"emotion"`
}
