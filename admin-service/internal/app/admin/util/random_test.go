package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRefreshToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateRefreshToken()
		require.NoError(t, err)
		assert.Len(t, token, 43) // 32 байта в base64 без паддинга
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	h1 := HashToken("token-value")
	h2 := HashToken("token-value")

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashToken("token-value2"))
}

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), code)
}
