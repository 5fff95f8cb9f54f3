package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskCode(t *testing.T) {
	t.Run("Masks long codes", func(t *testing.T) {
		assert.Equal(t, "aB3x********", MaskCode("aB3xK9mQ2rTz"))
	})

	t.Run("Hides short codes entirely", func(t *testing.T) {
		assert.Equal(t, "****", MaskCode("ab"))
		assert.Equal(t, "****", MaskCode(""))
		assert.Equal(t, "****", MaskCode("abcd"))
	})

	t.Run("Never contains the full code", func(t *testing.T) {
		code := "aB3xK9mQ2rTz"
		assert.NotContains(t, MaskCode(code), code)
	})
}
