// Package tutor provides the HTTP client for the tutoring backend.
//
// The client covers the endpoints this layer consumes: the chat endpoint and
// the health probe. Document management endpoints exist on the backend but
// belong to the document manager, not this client.
package tutor

import (
	"log/slog"
	"net/http"
)

// DefaultBaseURL points at a locally running backend.
const DefaultBaseURL = "http://localhost:8000"

// Client is the tutoring backend API client.
type Client struct {
	Chat *ChatService

	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new backend client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newDefaultHTTPClient()
	}

	c.Chat = &ChatService{client: c}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}
