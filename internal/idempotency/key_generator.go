package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateKey derives a deterministic key from the given parts. Used when a
// client submits no Idempotency-Key header, so identical payloads from rapid
// double-submits hash to the same key.
func GenerateKey(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v\x00", part)
	}

	return hex.EncodeToString(h.Sum(nil))
}
