package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := NewRateLimitError("daily limit reached", 120)
	want := "rate_limit_error: daily limit reached"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", NewRateLimitError("limit", 60), true},
		{"wrapped rate limit", fmt.Errorf("send: %w", NewRateLimitError("limit", 60)), true},
		{"api error", NewAPIError("boom"), false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimit(tt.err); got != tt.want {
				t.Errorf("IsRateLimit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	zero := 0
	negative := -5

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"explicit delay", NewRateLimitError("limit", 120), 120},
		{"missing delay", &Error{Type: ErrRateLimit, Message: "limit"}, DefaultRetryAfterSeconds},
		{"zero delay", &Error{Type: ErrRateLimit, Message: "limit", RetryAfter: &zero}, DefaultRetryAfterSeconds},
		{"negative delay", &Error{Type: ErrRateLimit, Message: "limit", RetryAfter: &negative}, DefaultRetryAfterSeconds},
		{"not rate limit", NewAPIError("boom"), 0},
		{"plain error", errors.New("boom"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RetryAfterSeconds(tt.err); got != tt.want {
				t.Errorf("RetryAfterSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}
