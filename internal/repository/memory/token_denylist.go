package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenDenylist keeps revoked JWT ids until their natural expiry so a
// logged-out token cannot be replayed against the API or the socket.
type TokenDenylist struct {
	cache *cache.Cache
}

func NewTokenDenylist() *TokenDenylist {
	// Purge expired entries every 10 minutes; each entry carries its own
	// TTL equal to the remaining token lifetime.
	c := cache.New(cache.NoExpiration, 10*time.Minute)
	return &TokenDenylist{
		cache: c,
	}
}

func (d *TokenDenylist) Revoke(tokenId string, until time.Time) {
	ttl := time.Until(until)
	if ttl <= 0 {
		return
	}
	d.cache.Set(tokenId, struct{}{}, ttl)
}

func (d *TokenDenylist) IsRevoked(tokenId string) bool {
	_, found := d.cache.Get(tokenId)
	return found
}
