package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaBaseURL = "http://localhost:11434"

type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if model == "" {
		model = "llama3.2"
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  newHTTPClient(timeout),
	}
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.model }

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
	MinP        float64 `json:"min_p,omitempty"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

func (o *Ollama) Complete(ctx context.Context, req Request) (string, error) {
	payload := ollamaChatRequest{
		Model:    o.model,
		Messages: req.Messages,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
			MinP:        req.MinP,
		},
	}
	var out ollamaChatResponse
	if err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/api/chat", "", payload, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", errors.New("ollama: " + out.Error)
	}
	if out.Message.Content == "" {
		return "", ErrNoContent
	}
	return out.Message.Content, nil
}
