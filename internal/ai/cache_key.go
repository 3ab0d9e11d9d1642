package ai

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// CacheKey derives a stable key from the provider, model and full conversation.
func CacheKey(provider, model string, messages []ChatMessage) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(model))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}
