package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScoresWholeResponse(t *testing.T) {
	content := `[
  {"domain": "brewly.com", "relevance": 9, "creativity": 7, "memorability": 8, "conciseness": 9, "safety": 10},
  {"domain": "beanly.io", "relevance": 5}
]`
	records, err := ParseScores(content)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Record{Domain: "brewly.com", Relevance: 9, Creativity: 7, Memorability: 8, Conciseness: 9, Safety: 10, Confidence: 0.86}, records[0])
	assert.Equal(t, 0.1, records[1].Confidence)
}

func TestParseScoresFallsBackToBracketSpan(t *testing.T) {
	content := "Sure! Here are the scores:\n```json\n[{\"domain\": \"brewly.com\", \"relevance\": 10, \"creativity\": 10, \"memorability\": 10, \"conciseness\": 10, \"safety\": 10}]\n```\nHope this helps."

	records, err := ParseScores(content)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1.0, records[0].Confidence)
}

func TestParseScoresIgnoresJudgeConfidence(t *testing.T) {
	records, err := ParseScores(`[{"domain": "a1.com", "relevance": 10, "confidence": 0.99}]`)
	require.NoError(t, err)
	assert.Equal(t, 0.2, records[0].Confidence)
}

func TestParseScoresAcceptsIntegralFloats(t *testing.T) {
	records, err := ParseScores(`[{"domain": "a1.com", "relevance": 7.0}]`)
	require.NoError(t, err)
	assert.Equal(t, 7, records[0].Relevance)
}

func TestParseScoresFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", "   "},
		{"prose", "I cannot evaluate these domains."},
		{"broken json", `[{"domain": "a1.com", "relevance": }]`},
		{"object not array", `{"domain": "a1.com"}`},
		{"score out of range", `[{"domain": "a1.com", "relevance": 11}]`},
		{"fractional score", `[{"domain": "a1.com", "relevance": 7.5}]`},
		{"missing domain", `[{"relevance": 7}]`},
		{"string score", `[{"domain": "a1.com", "relevance": "7"}]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			records, err := ParseScores(tc.content)
			assert.ErrorIs(t, err, ErrUnparseable)
			assert.Nil(t, records)
		})
	}
}

func TestParseScoresEmptyArray(t *testing.T) {
	records, err := ParseScores("[]")
	require.NoError(t, err)
	assert.Empty(t, records)
}
