package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TGI calls a text-generation-inference server or a hosted inference endpoint
// that serves the fine-tuned domain model. Messages are rendered with the
// Llama 3 template client side and sent as a single prompt.
type TGI struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewTGI(url, apiKey, model string, timeout time.Duration) *TGI {
	if model == "" {
		model = "tgi"
	}
	return &TGI{url: url, apiKey: apiKey, model: model, client: newHTTPClient(timeout)}
}

func (t *TGI) Name() string  { return "tgi" }
func (t *TGI) Model() string { return t.model }

type tgiParameters struct {
	Temperature    float64 `json:"temperature,omitempty"`
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	MinP           float64 `json:"min_p,omitempty"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

type tgiRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters tgiParameters `json:"parameters"`
}

type tgiGeneration struct {
	GeneratedText string `json:"generated_text"`
}

func (t *TGI) Complete(ctx context.Context, req Request) (string, error) {
	if t.url == "" {
		return "", fmt.Errorf("tgi: base url is not configured")
	}
	prompt := RenderLlama3(req.Messages, true)
	payload := tgiRequest{
		Inputs: prompt,
		Parameters: tgiParameters{
			Temperature:  req.Temperature,
			MaxNewTokens: req.MaxTokens,
			MinP:         req.MinP,
			DoSample:     req.Temperature > 0,
		},
	}
	var raw json.RawMessage
	if err := postJSON(ctx, t.client, t.Name(), t.url, t.apiKey, payload, &raw); err != nil {
		return "", err
	}
	text, err := decodeGeneration(raw)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNoContent
	}
	// The continuation starts after the open assistant header; put the header
	// back so downstream extraction sees the same shape as a full-text answer.
	return AssistantHeader() + "\n\n" + text, nil
}

// decodeGeneration accepts both the bare TGI shape {"generated_text": ...}
// and the inference-endpoint shape [{"generated_text": ...}].
func decodeGeneration(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []tgiGeneration
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return "", fmt.Errorf("tgi: parse response: %w", err)
		}
		if len(list) == 0 {
			return "", ErrNoContent
		}
		return list[0].GeneratedText, nil
	}
	var single tgiGeneration
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return "", fmt.Errorf("tgi: parse response: %w", err)
	}
	return single.GeneratedText, nil
}
