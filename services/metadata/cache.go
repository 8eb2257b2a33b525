package metadata

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// fileCache stores JSON-encoded provider responses on disk, one file per key,
// expiring them by file modification time.
type fileCache struct {
	dir string
	ttl time.Duration
}

func newFileCache(dir string, ttl time.Duration) *fileCache {
	return &fileCache{dir: dir, ttl: ttl}
}

// cacheKey hashes lookup parts into a filesystem-safe key.
func cacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// jitteredTTL staggers expiry per key by up to one hour, derived from the key
// hash so the same key always expires at the same offset.
func (c *fileCache) jitteredTTL(key string) time.Duration {
	h := sha256.Sum256([]byte(key))
	n := binary.BigEndian.Uint64(h[:8])
	return c.ttl + time.Duration(n%uint64(time.Hour))
}

func (c *fileCache) get(key string, v any) bool {
	if c == nil || key == "" {
		return false
	}
	path := filepath.Join(c.dir, key+".json")
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(fi.ModTime()) > c.jitteredTTL(key) {
		_ = os.Remove(path)
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (c *fileCache) set(key string, v any) error {
	if c == nil {
		return nil
	}
	if key == "" {
		return errors.New("empty cache key")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	path := filepath.Join(c.dir, key+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
