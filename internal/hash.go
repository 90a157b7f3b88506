package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// DigestPairs produces the canonical fingerprint digest over ordered k=v
// pairs. The join order is part of the format: reordering pairs changes the
// digest.
func DigestPairs(pairs []string) string {
	sum := sha256.Sum256([]byte(strings.Join(pairs, "|")))
	return hex.EncodeToString(sum[:])
}

// Pair renders one canonical k=v fingerprint component.
func Pair(key, value string) string {
	return key + "=" + value
}

// PairInt renders one canonical k=v component for integer signals.
func PairInt(key string, value int) string {
	return key + "=" + strconv.Itoa(value)
}
