package mcp

import "encoding/json"

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type Response struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  any            `json:"result,omitempty"`
	Error   *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ResourceReadParams struct {
	URI string `json:"uri"`
}

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

func ListResources() map[string]any {
	return map[string]any{
		"resources": []map[string]any{
			{"uri": "evaluations://recent", "name": "recent evaluations", "mimeType": "application/json"},
		},
		"resourceTemplates": []map[string]any{
			{"uriTemplate": "evaluations://{id}", "name": "evaluation run", "mimeType": "application/json"},
		},
	}
}
