package domains

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCandidate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"shoecraft.com", true},
		{"Leatherly.IO", true},
		{"my-shop.online", true},
		{"a1.dev", true},
		{"42.games", true},

		{"a.com", false},            // single-character label
		{"-shop.com", false},        // leading hyphen
		{"shop-.com", false},        // trailing hyphen
		{"shop.c", false},           // one-letter TLD
		{"shop.c0m", false},         // digit in TLD
		{"sub.shop.com", false},     // more than one label
		{"shop_craft.com", false},   // underscore
		{" shop.com", false},        // surrounding whitespace
		{"shop.com/path", false},    // path
		{"https://shop.com", false}, // scheme
		{"", false},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidCandidate(tc.input))
		})
	}
}

func TestHasAllowedTLD(t *testing.T) {
	assert.True(t, HasAllowedTLD("shoecraft.com"))
	assert.True(t, HasAllowedTLD("PLAY.GAMES"))
	assert.True(t, HasAllowedTLD("beans.online"))
	assert.False(t, HasAllowedTLD("beans.shop"))
	assert.False(t, HasAllowedTLD("beans"))
}
