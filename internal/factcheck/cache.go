package factcheck

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/groundcheck/groundcheck/internal/model"
)

// VerificationCache memoizes verification results per claim text so
// repeated verifications of the same claim stay off the upstream API
type VerificationCache struct {
	cache *gocache.Cache
}

// NewVerificationCache creates a cache with the given TTL
func NewVerificationCache(ttl time.Duration) *VerificationCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &VerificationCache{
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Get returns the cached result for a claim text
func (c *VerificationCache) Get(claimText string) (*model.VerificationResult, bool) {
	if val, found := c.cache.Get(cacheKey(claimText)); found {
		result := val.(model.VerificationResult)
		return &result, true
	}
	return nil, false
}

// Set caches a result for a claim text
func (c *VerificationCache) Set(claimText string, result model.VerificationResult) {
	c.cache.Set(cacheKey(claimText), result, gocache.DefaultExpiration)
}

// Clear removes all cached entries
func (c *VerificationCache) Clear() {
	c.cache.Flush()
}

// Len returns the number of cached entries
func (c *VerificationCache) Len() int {
	return c.cache.ItemCount()
}

// cacheKey hashes normalized claim text for a consistent key
func cacheKey(claimText string) string {
	normalized := strings.ToLower(strings.TrimSpace(claimText))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:8])
}
