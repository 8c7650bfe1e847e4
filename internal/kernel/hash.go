package kernel

import (
	"crypto/sha256"
	"encoding/hex"
)

func sha256Hex(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
