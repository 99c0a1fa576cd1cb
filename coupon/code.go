package coupon

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// codeAlphabet leaves out I, O, 0 and 1. Its length is 32, so a random byte
// modulo len maps onto it without bias.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const suffixLen = 4

func randomSuffix() (string, error) {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// newCode appends a random suffix to a sequence code: CP000012 -> CP000012-K7QZ.
func newCode(seqCode string) (string, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return "", err
	}
	return seqCode + "-" + suffix, nil
}

// NormalizeCode makes code lookups case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
