package router

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// AuthCache is the Router's write-through API-key -> Binding cache.
// The positive cache is size- and TTL-bounded via
// hashicorp/golang-lru/v2's expirable LRU, and a second,
// shorter-TTL cache remembers keys that failed verification so a
// client hammering an invalid key doesn't hit the control plane on
// every attempt.
type AuthCache struct {
	positive *lru.LRU[string, Binding]
	negative *lru.LRU[string, struct{}]
}

// NewAuthCache builds an AuthCache bounded to size entries, with
// positive results cached for ttl and negative results for
// negativeTTL.
func NewAuthCache(size int, ttl, negativeTTL time.Duration) *AuthCache {
	if size <= 0 {
		size = 4096
	}
	return &AuthCache{
		positive: lru.NewLRU[string, Binding](size, nil, ttl),
		negative: lru.NewLRU[string, struct{}](size, nil, negativeTTL),
	}
}

// Lookup returns the cached binding for apiKey, if any and not
// expired. It never consults the negative cache's presence as a
// reason to skip a real lookup elsewhere — callers check Rejected
// separately.
func (c *AuthCache) Lookup(apiKey string) (Binding, bool) {
	return c.positive.Get(apiKey)
}

// Store write-through caches a successful verification.
func (c *AuthCache) Store(apiKey string, b Binding) {
	c.positive.Add(apiKey, b)
	c.negative.Remove(apiKey)
}

// Rejected reports whether apiKey recently failed verification and
// should be rejected without another control-plane round trip.
func (c *AuthCache) Rejected(apiKey string) bool {
	_, found := c.negative.Get(apiKey)
	return found
}

// StoreRejected remembers that apiKey failed verification, for
// negativeTTL.
func (c *AuthCache) StoreRejected(apiKey string) {
	c.negative.Add(apiKey, struct{}{})
}
