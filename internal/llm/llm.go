package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoContent is returned when a provider answers successfully but without
// any text.
var ErrNoContent = errors.New("llm: empty response content")

// Task tells a provider what a request is for. Remote providers ignore it;
// Noop uses it to pick a canned answer.
type Task string

const (
	TaskGenerate Task = "generate"
	TaskScore    Task = "score"
	TaskModerate Task = "moderate"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Task        Task
	Messages    []Message
	Temperature float64
	MaxTokens   int
	MinP        float64
}

type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
	Model() string
}

// APIError carries a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, Truncate(e.Body, 300))
}
