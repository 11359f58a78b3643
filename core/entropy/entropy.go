package entropy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source mints opaque tokens that are effectively unique across concurrent
// generations. A token combines a random UUID, a nanosecond timestamp and
// 32 bytes of crypto randomness, compressed to 16 hex characters so it stays
// path-safe for storage keys.
type Source struct{}

// NewSource creates an entropy source.
func NewSource() *Source {
	return &Source{}
}

// Generate returns a fresh token. With a non-empty prefix the token is
// "prefix-<hex>". Generation cannot fail: crypto/rand.Read panics only under
// broken-kernel conditions the rest of the process could not survive anyway.
func (s *Source) Generate(prefix string) string {
	raw := make([]byte, 32)
	_, _ = rand.Read(raw)

	combined := fmt.Sprintf("%s-%d-%s",
		uuid.NewString(),
		time.Now().UTC().UnixNano(),
		hex.EncodeToString(raw),
	)

	sum := sha256.Sum256([]byte(combined))
	token := hex.EncodeToString(sum[:])[:16]
	if prefix == "" {
		return token
	}
	return prefix + "-" + token
}
