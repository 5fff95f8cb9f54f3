package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	t.Run("Generates 12-character code", func(t *testing.T) {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
	})

	t.Run("Uses only the base62 alphabet", func(t *testing.T) {
		code, err := GenerateCode()
		require.NoError(t, err)
		for i, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c),
				"character at position %d (%c) should be alphanumeric", i, c)
		}
	})

	t.Run("Generates unique codes", func(t *testing.T) {
		codes := make(map[string]bool)
		iterations := 200

		for i := 0; i < iterations; i++ {
			code, err := GenerateCode()
			require.NoError(t, err)
			codes[code] = true
		}

		// With ~71 bits of entropy, 200 draws must never collide
		assert.Len(t, codes, iterations, "codes should not repeat")
	})
}

func TestGenerateCode_Distribution(t *testing.T) {
	// Every draw should not be stuck on a small portion of the alphabet
	seen := make(map[rune]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		for _, c := range code {
			seen[c] = true
		}
	}

	assert.Greater(t, len(seen), len(codeAlphabet)/2,
		"should touch a broad portion of the alphabet (got %d symbols)", len(seen))
}
