package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLikeArgs(t *testing.T) {
	t.Run("region and uid", func(t *testing.T) {
		region, uid, err := parseLikeArgs("ind 123456789")
		require.NoError(t, err)
		assert.Equal(t, "ind", region)
		assert.Equal(t, "123456789", uid)
	})

	t.Run("extra whitespace is tolerated", func(t *testing.T) {
		region, uid, err := parseLikeArgs("  br   987654  ")
		require.NoError(t, err)
		assert.Equal(t, "br", region)
		assert.Equal(t, "987654", uid)
	})

	t.Run("missing uid", func(t *testing.T) {
		_, _, err := parseLikeArgs("ind")
		assert.Error(t, err)
	})

	t.Run("empty arguments", func(t *testing.T) {
		_, _, err := parseLikeArgs("")
		assert.Error(t, err)
	})
}

func TestBuildVerificationPrompt(t *testing.T) {
	prompt := BuildVerificationPrompt("Alice", "https://short.ly/abc", 10*time.Minute)

	assert.Contains(t, prompt, "🔒 *Verification Required*")
	assert.Contains(t, prompt, "Hello Alice,")
	assert.Contains(t, prompt, "🔗 https://short.ly/abc")
	assert.Contains(t, prompt, "expires in 10 minutes")
	assert.True(t, strings.HasSuffix(prompt, "*"), "expiry notice should close its bold span")
}
