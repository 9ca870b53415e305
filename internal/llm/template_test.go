package llm

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRenderLlama3(t *testing.T) {
	got := RenderLlama3([]Message{
		{Role: RoleSystem, Content: "  be brief \n"},
		{Role: RoleUser, Content: "coffee shop"},
	}, true)

	want := "<|begin_of_text|>" +
		"<|start_header_id|>system<|end_header_id|>\n\nbe brief<|eot_id|>" +
		"<|start_header_id|>user<|end_header_id|>\n\ncoffee shop<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\n"
	assert.Equal(t, want, got)

	assert.NotContains(t, RenderLlama3([]Message{{Role: RoleUser, Content: "x"}}, false), "assistant")
}

func TestTruncateReserved(t *testing.T) {
	tests := []struct {
		name, in, prefix, want string
	}{
		{"cut", "1. a.com\n<|reserved_special_token_12|><|reserved_special_token_3|>", "<|reserved_special_token_", "1. a.com"},
		{"absent", "  brewly.com  ", "<|reserved_special_token_", "brewly.com"},
		{"empty prefix", " x <|reserved_special_token_1|>", "", "x <|reserved_special_token_1|>"},
		{"only reserved", "<|reserved_special_token_0|>", "<|reserved_special_token_", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TruncateReserved(tc.in, tc.prefix))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"short", "brewly", 10, "brewly"},
		{"ascii", "brewly.com", 6, "brewly..."},
		{"cut inside rune backs up", "münchen", 2, "m..."},
		{"cut after rune", "münchen", 3, "mü..."},
		{"zero", "über", 0, "..."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Truncate(tc.text, tc.limit)
			assert.Equal(t, tc.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
