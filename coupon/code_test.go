package coupon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeAlphabetIsUnambiguous(t *testing.T) {
	assert.Len(t, codeAlphabet, 32)
	for _, c := range "IO01" {
		assert.NotContains(t, codeAlphabet, string(c))
	}
}

func TestNewCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := newCode("CP000001")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(code, "CP000001-"))
		suffix := strings.TrimPrefix(code, "CP000001-")
		require.Len(t, suffix, suffixLen)
		for _, r := range suffix {
			assert.Contains(t, codeAlphabet, string(r))
		}
		seen[suffix] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "CP000001-AB2C", NormalizeCode(" cp000001-ab2c\n"))
}
