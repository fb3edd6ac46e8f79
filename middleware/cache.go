package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
)

// ListingNamespace prefixes every cache key derived from the item listing
// endpoint. Invalidation wipes the whole namespace.
const ListingNamespace = "items:"

// CacheTTL is the fixed expiry for cached listing responses
const CacheTTL = 3600 * time.Second

const cacheKeyContextKey = "cache_key"

const jsonContentType = "application/json; charset=utf-8"

// ListingCache wraps the item listing read path with a best-effort cache.
// The key is the full request URI including the raw query string; two
// requests with the same filters in a different parameter order are distinct
// entries (known tradeoff, not a correctness issue). The store is never a
// hard dependency: any cache failure degrades to a direct database query.
type ListingCache struct {
	store services.CacheStore
	ttl   time.Duration
}

var listingCacheInstance *ListingCache

// InitListingCache initializes the listing cache with the given store.
// A nil store disables caching entirely.
func InitListingCache(store services.CacheStore) *ListingCache {
	listingCacheInstance = &ListingCache{store: store, ttl: CacheTTL}
	return listingCacheInstance
}

// GetListingCache returns the initialized listing cache instance
func GetListingCache() *ListingCache {
	return listingCacheInstance
}

// SetListingCache sets the listing cache instance (primarily for testing)
func SetListingCache(lc *ListingCache) {
	listingCacheInstance = lc
}

// CacheItems is the read-through middleware for GET /api/items. On a hit the
// stored payload is replayed byte-for-byte and the handler never runs; on a
// miss the computed key is stashed in the context for the handler to
// populate after querying the store.
func (lc *ListingCache) CacheItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		if lc == nil || lc.store == nil {
			c.Next()
			return
		}

		key := ListingNamespace + c.Request.URL.RequestURI()

		cached, err := lc.store.Get(c.Request.Context(), key)
		if err == nil {
			c.Data(http.StatusOK, jsonContentType, []byte(cached))
			c.Abort()
			return
		}
		if !errors.Is(err, services.ErrCacheMiss) {
			// Cache backend unreachable: fall through to the database
			log.Printf("Cache read error for %s: %v", key, err)
			c.Next()
			return
		}

		c.Set(cacheKeyContextKey, key)
		c.Next()
	}
}

// CacheKey returns the cache key assigned to this request by CacheItems,
// if any
func CacheKey(c *gin.Context) (string, bool) {
	value, exists := c.Get(cacheKeyContextKey)
	if !exists {
		return "", false
	}
	key, ok := value.(string)
	return key, ok
}

// Store writes a listing payload under the given key. Failures are logged
// and swallowed; a cache write must never fail the request.
func (lc *ListingCache) Store(ctx context.Context, key string, payload []byte) {
	if lc == nil || lc.store == nil {
		return
	}
	if err := lc.store.Set(ctx, key, string(payload), lc.ttl); err != nil {
		log.Printf("Cache write error for %s: %v", key, err)
	}
}

// InvalidateAll drops every entry in the listing namespace. Called after any
// item mutation, before the mutating request's response is written, so the
// next listing read always queries the store. Failures are logged and
// swallowed.
func (lc *ListingCache) InvalidateAll(ctx context.Context) {
	if lc == nil || lc.store == nil {
		return
	}
	if err := lc.store.DeleteByPrefix(ctx, ListingNamespace); err != nil {
		log.Printf("Cache invalidation error: %v", err)
	}
}
