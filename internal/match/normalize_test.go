package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "Hollow Knight", "hollow knight"},
		{"punctuation stripped", "Baldur's Gate 3: Deluxe!", "baldurs gate 3 deluxe"},
		{"whitespace collapsed", "  deep   rock    galactic ", "deep rock galactic"},
		{"diacritics folded", "Pokémon Café", "pokemon cafe"},
		{"underscores kept", "half_life", "half_life"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needle   string
		want     bool
	}{
		{"whole string", "hollow knight", "hollow knight", true},
		{"at start", "hollow knight update", "hollow knight", true},
		{"at end", "review of hollow knight", "hollow knight", true},
		{"in middle", "the hollow knight review", "hollow knight", true},
		{"substring of word", "hollowed knights", "hollow knight", false},
		{"prefix of word", "hollow knightfall", "hollow knight", false},
		{"absent", "dead cells", "hollow knight", false},
		{"empty needle", "anything", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containsWord(tt.haystack, tt.needle))
		})
	}
}

func TestFirstWords(t *testing.T) {
	assert.Equal(t, "a b c", firstWords("a b c", 5))
	assert.Equal(t, "a b c d e", firstWords("a b c d e f g", 5))
}
