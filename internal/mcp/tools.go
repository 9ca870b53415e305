package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"domainsuggest/internal/auth"
)

type tool struct {
	Name        string
	Description string
	Scope       string
	InputSchema string
}

var tools = []tool{
	{
		Name:        "suggest_domains",
		Description: "Suggest up to five domain names for a business description",
		Scope:       auth.ScopeSuggest,
		InputSchema: `{
  "type": "object",
  "required": ["business_description"],
  "properties": {
    "business_description": {"type": "string", "minLength": 1},
    "temperature":          {"type": "number", "minimum": 0},
    "max_new_tokens":       {"type": "integer", "minimum": 1},
    "min_p":                {"type": "number", "minimum": 0, "maximum": 1}
  },
  "additionalProperties": false
}`,
	},
	{
		Name:        "evaluate_domains",
		Description: "Score domain suggestions against a business description",
		Scope:       auth.ScopeEvaluate,
		InputSchema: `{
  "type": "object",
  "required": ["business_description"],
  "properties": {
    "business_description": {"type": "string", "minLength": 1},
    "domains":              {"type": "array", "items": {"type": "string"}, "maxItems": 5},
    "blocked":              {"type": "boolean"}
  },
  "additionalProperties": false
}`,
	},
	{
		Name:        "check_availability",
		Description: "Report whether domains already resolve in DNS",
		Scope:       auth.ScopeSuggest,
		InputSchema: `{
  "type": "object",
  "required": ["domains"],
  "properties": {
    "domains": {"type": "array", "items": {"type": "string"}, "minItems": 1, "maxItems": 20}
  },
  "additionalProperties": false
}`,
	},
}

type SuggestArgs struct {
	BusinessDescription string   `json:"business_description"`
	Temperature         *float64 `json:"temperature,omitempty"`
	MaxNewTokens        *int     `json:"max_new_tokens,omitempty"`
	MinP                *float64 `json:"min_p,omitempty"`
}

type EvaluateArgs struct {
	BusinessDescription string   `json:"business_description"`
	Domains             []string `json:"domains"`
	Blocked             bool     `json:"blocked"`
}

type AvailabilityArgs struct {
	Domains []string `json:"domains"`
}

func lookupTool(name string) (tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return tool{}, false
}

func ListTools() map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": json.RawMessage(t.InputSchema),
		})
	}
	return map[string]any{"tools": out}
}

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	compiled := make(map[string]*jsonschema.Schema, len(tools))
	for _, t := range tools {
		compiler := jsonschema.NewCompiler()
		url := t.Name + ".json"
		if err := compiler.AddResource(url, strings.NewReader(t.InputSchema)); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		compiled[t.Name] = schema
	}
	return compiled, nil
}

// validateArguments checks raw tool arguments against the tool's input
// schema. Missing arguments are validated as an empty object.
func validateArguments(schema *jsonschema.Schema, raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage(`{}`)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

// toolResult wraps v as MCP tool output: a JSON text block plus the same
// value as structured content.
func toolResult(v any, isError bool) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(`{}`)
	}
	return map[string]any{
		"content":           []map[string]any{{"type": "text", "text": string(data)}},
		"structuredContent": v,
		"isError":           isError,
	}
}
