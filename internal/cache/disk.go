package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DiskCache persists entries under a directory, one gzip-compressed file
// per key. Normalized filings compress to a small fraction of their text
// size, which is what makes caching a whole corpus affordable.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a disk cache rooted at dir.
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
	}
}

// Get retrieves a value from the disk cache. Expired entries are removed
// on read.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	expiresAt, payload, err := decodeEntry(raw)
	if err != nil {
		_ = os.Remove(path)
		return nil, false
	}
	if time.Now().After(expiresAt) {
		_ = os.Remove(path)
		return nil, false
	}

	return payload, true
}

// Set stores a value, compressed, with the given TTL (0 means the cache
// default).
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := encodeEntry(time.Now().Add(ttl), value)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := os.WriteFile(c.path(key), data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	return nil
}

// Delete removes a value from the disk cache.
func (c *DiskCache) Delete(key string) error {
	return os.Remove(c.path(key))
}

// Clear removes all cached files.
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// path generates the file path for a cache key.
func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".cache")
}

// Entry layout: 8-byte big-endian expiry (unix nanos) followed by the
// gzip stream of the payload.
func encodeEntry(expiresAt time.Time, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, expiresAt.UnixNano()); err != nil {
		return nil, err
	}

	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEntry(raw []byte) (time.Time, []byte, error) {
	if len(raw) < 8 {
		return time.Time{}, nil, fmt.Errorf("entry truncated")
	}
	expiresAt := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:8])))

	zr, err := gzip.NewReader(bytes.NewReader(raw[8:]))
	if err != nil {
		return time.Time{}, nil, err
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return time.Time{}, nil, err
	}
	return expiresAt, payload, nil
}
