package evaluate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrUnparseable means the judge answer held no valid score array.
var ErrUnparseable = errors.New("judge response is not a valid score array")

var arrayRE = regexp.MustCompile(`(?s)\[.*\]`)

const scoresSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["domain"],
    "properties": {
      "domain":       {"type": "string"},
      "relevance":    {"type": "integer", "minimum": 0, "maximum": 10},
      "creativity":   {"type": "integer", "minimum": 0, "maximum": 10},
      "memorability": {"type": "integer", "minimum": 0, "maximum": 10},
      "conciseness":  {"type": "integer", "minimum": 0, "maximum": 10},
      "safety":       {"type": "integer", "minimum": 0, "maximum": 10}
    }
  }
}`

var scoresSchema = mustCompileSchema(scoresSchemaJSON)

func mustCompileSchema(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("scores.json", strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("scores.json")
}

// ParseScores reads a judge answer. The whole text is tried first, then the
// widest [...] span in it. A candidate must decode as JSON and satisfy the
// score schema; confidence is computed locally, never taken from the judge.
func ParseScores(content string) ([]Record, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrUnparseable)
	}

	candidates := []string{content}
	if m := arrayRE.FindString(content); m != "" && m != content {
		candidates = append(candidates, m)
	}

	var lastErr error
	for _, candidate := range candidates {
		records, err := decodeScores(candidate)
		if err == nil {
			return records, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUnparseable, lastErr)
}

func decodeScores(text string) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	if err := scoresSchema.Validate(doc); err != nil {
		return nil, err
	}

	items := doc.([]any)
	records := make([]Record, 0, len(items))
	for _, item := range items {
		obj := item.(map[string]any)
		r := Record{Domain: obj["domain"].(string)}
		r.Relevance = intField(obj, "relevance")
		r.Creativity = intField(obj, "creativity")
		r.Memorability = intField(obj, "memorability")
		r.Conciseness = intField(obj, "conciseness")
		r.Safety = intField(obj, "safety")
		r.Confidence = Aggregate(r.Criteria())
		records = append(records, r)
	}
	return records, nil
}

// intField reads an already validated integer criterion; absent keys are 0.
func intField(obj map[string]any, key string) int {
	n, ok := obj[key].(json.Number)
	if !ok {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return int(math.Round(f))
}
