// Package cache stores normalized filing text between runs so repeated
// extraction passes over the same corpus skip the HTML stripping and
// character normalization work.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the caching interface.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// DocumentKey generates a cache key from a filing's identity. Size and
// modification time are part of the key so a re-downloaded filing never
// serves a stale normalized copy.
func DocumentKey(path string, size int64, modTime time.Time) string {
	hash := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d", path, size, modTime.UnixNano()))
	return "mdex:v1:" + hex.EncodeToString(hash[:])
}
