// Package client calls a deployed suggestion endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"domainsuggest/internal/llm"
	"domainsuggest/internal/suggest"
)

type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

func New(endpoint, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{endpoint: endpoint, token: token, http: &http.Client{Timeout: timeout}}
}

// Suggest posts req to the endpoint. A non-2xx answer is an error unless its
// body is itself a suggestion response, in which case that is returned.
func (c *Client) Suggest(ctx context.Context, req suggest.Request) (suggest.Response, error) {
	var out suggest.Response
	if c.endpoint == "" {
		return out, fmt.Errorf("client endpoint_url is not configured")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return out, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil || out.Status == "" {
		return suggest.Response{}, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, llm.Truncate(string(data), 300))
	}
	if out.Suggestions == nil {
		out.Suggestions = []suggest.Suggestion{}
	}
	return out, nil
}
