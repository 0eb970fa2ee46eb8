package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"aitrader/internal/logger"
)

// Cache is a content-addressed store of successful envelopes, keyed by a
// digest of the prompt pair. Values for a given key are expected identical,
// so concurrent writers racing on the same key are harmless.
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Key digests the concatenated prompts. Collisions are accepted as
// negligible-probability.
func Key(systemPrompt, userPrompt string) string {
	sum := sha256.Sum256([]byte(systemPrompt + "\n" + userPrompt))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *Cache) Get(key string) (Envelope, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return Envelope{}, false
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warnf("cache: dropping corrupt entry %s: %v", key[:8], err)
		_ = os.Remove(c.path(key))
		return Envelope{}, false
	}
	return env, true
}

// Put persists the envelope under key. Failures are logged and swallowed: the
// cache is an optimization, never a correctness dependency.
func (c *Cache) Put(key string, env Envelope) {
	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		logger.Warnf("cache: marshal failed for %s: %v", key[:8], err)
		return
	}
	if err := os.WriteFile(c.path(key), raw, 0o644); err != nil {
		logger.Warnf("cache: write failed for %s: %v", key[:8], err)
	}
}
