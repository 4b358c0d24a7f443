package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := GenerateCode()
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "code %q has non-digit", code)
		}
		seen[code] = true
	}
	// 50 draws from a million values should essentially never all collide.
	assert.Greater(t, len(seen), 1)
}
