// Package assistant is the client the speech server uses to query the campus API.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Fallback answers returned instead of errors.
const (
	UnreachableAnswer = "I'm sorry, I am unable to connect to my knowledge base right now. Please try again."
	NoAnswer          = "I'm sorry, I couldn't get a response from the AI assistant."
)

const defaultTimeout = 60 * time.Second

type queryRequest struct {
	Query string `json:"query"`
	Role  string `json:"role"`
}

type queryResponse struct {
	Answer *string `json:"answer"`
}

// Client posts questions to the query endpoint as a student.
type Client struct {
	url  string
	http *http.Client
}

// New creates a client for the query endpoint at url.
func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

// Ask returns the assistant's answer. Failures are logged and mapped to a fixed sentence.
func (c *Client) Ask(ctx context.Context, question string) string {
	answer, err := c.ask(ctx, question)
	if err != nil {
		slog.Error("Failed to query assistant", "url", c.url, "error", err)
		return UnreachableAnswer
	}
	if answer == nil {
		return NoAnswer
	}
	return *answer
}

func (c *Client) ask(ctx context.Context, question string) (*string, error) {
	body, err := json.Marshal(queryRequest{Query: question, Role: "student"})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("query endpoint returned %s", resp.Status)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}

	return out.Answer, nil
}
