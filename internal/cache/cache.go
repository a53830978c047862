package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching classifier replies
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyVersion changes whenever the cached value format changes
const keyVersion = "claimgraph:v1:"

// CacheKey derives a stable key from the parts that determine a reply:
// provider, model and the full prompt text
func CacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyVersion + hex.EncodeToString(hash[:])
}
