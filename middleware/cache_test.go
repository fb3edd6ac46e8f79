package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
)

// fakeCacheStore is an in-memory CacheStore with injectable failures
type fakeCacheStore struct {
	entries map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	delErr  error
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *fakeCacheStore) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, exists := f.entries[key]
	if !exists {
		return "", services.ErrCacheMiss
	}
	return value, nil
}

func (f *fakeCacheStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCacheStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	if f.delErr != nil {
		return f.delErr
	}
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
			delete(f.ttls, key)
		}
	}
	return nil
}

func setupCacheRouter(lc *ListingCache, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/items", lc.CacheItems(), handler)
	return router
}

func TestCacheItems_HitReplaysStoredBytes(t *testing.T) {
	store := newFakeCacheStore()
	stored := `{"success":true,"data":[{"id":1}]}`
	store.entries["items:/items?type=found"] = stored

	lc := &ListingCache{store: store, ttl: CacheTTL}

	handlerRan := false
	router := setupCacheRouter(lc, func(c *gin.Context) {
		handlerRan = true
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req, _ := http.NewRequest(http.MethodGet, "/items?type=found", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, stored, w.Body.String(), "hit must replay the stored payload byte-for-byte")
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.False(t, handlerRan, "handler must not run on a hit")
}

func TestCacheItems_MissStashesKeyForHandler(t *testing.T) {
	store := newFakeCacheStore()
	lc := &ListingCache{store: store, ttl: CacheTTL}

	var gotKey string
	var gotOK bool
	router := setupCacheRouter(lc, func(c *gin.Context) {
		gotKey, gotOK = CacheKey(c)
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req, _ := http.NewRequest(http.MethodGet, "/items?type=lost&page=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotOK)
	assert.Equal(t, "items:/items?type=lost&page=2", gotKey,
		"key must include the full request URI with the raw query string")
}

func TestCacheItems_BackendErrorFallsThrough(t *testing.T) {
	store := newFakeCacheStore()
	store.getErr = fmt.Errorf("connection refused")
	lc := &ListingCache{store: store, ttl: CacheTTL}

	handlerRan := false
	router := setupCacheRouter(lc, func(c *gin.Context) {
		handlerRan = true
		_, ok := CacheKey(c)
		assert.False(t, ok, "no cache key on backend failure, handler must not write back")
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req, _ := http.NewRequest(http.MethodGet, "/items", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handlerRan)
}

func TestCacheItems_NilStoreDisablesCaching(t *testing.T) {
	lc := &ListingCache{store: nil, ttl: CacheTTL}

	handlerRan := false
	router := setupCacheRouter(lc, func(c *gin.Context) {
		handlerRan = true
		_, ok := CacheKey(c)
		assert.False(t, ok)
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req, _ := http.NewRequest(http.MethodGet, "/items", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handlerRan)
}

func TestStore_WritesWithConfiguredTTL(t *testing.T) {
	store := newFakeCacheStore()
	lc := &ListingCache{store: store, ttl: CacheTTL}

	lc.Store(context.Background(), "items:/items", []byte(`{"success":true}`))

	assert.Equal(t, `{"success":true}`, store.entries["items:/items"])
	assert.Equal(t, CacheTTL, store.ttls["items:/items"])
}

func TestStore_FailureIsSwallowed(t *testing.T) {
	store := newFakeCacheStore()
	store.setErr = fmt.Errorf("connection refused")
	lc := &ListingCache{store: store, ttl: CacheTTL}

	// Must not panic or surface the error
	lc.Store(context.Background(), "items:/items", []byte(`{"success":true}`))
	assert.Empty(t, store.entries)
}

func TestInvalidateAll_DropsOnlyListingNamespace(t *testing.T) {
	store := newFakeCacheStore()
	store.entries["items:/items"] = "a"
	store.entries["items:/items?page=2"] = "b"
	store.entries["other:key"] = "c"

	lc := &ListingCache{store: store, ttl: CacheTTL}
	lc.InvalidateAll(context.Background())

	assert.Len(t, store.entries, 1)
	assert.Equal(t, "c", store.entries["other:key"])
}

func TestInvalidateAll_FailureIsSwallowed(t *testing.T) {
	store := newFakeCacheStore()
	store.entries["items:/items"] = "a"
	store.delErr = fmt.Errorf("connection refused")

	lc := &ListingCache{store: store, ttl: CacheTTL}
	lc.InvalidateAll(context.Background())

	// Entry survives, request is unaffected
	assert.Len(t, store.entries, 1)
}

func TestNilListingCacheIsSafe(t *testing.T) {
	var lc *ListingCache

	lc.Store(context.Background(), "items:/items", []byte("x"))
	lc.InvalidateAll(context.Background())

	handlerRan := false
	router := setupCacheRouter(lc, func(c *gin.Context) {
		handlerRan = true
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req, _ := http.NewRequest(http.MethodGet, "/items", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handlerRan)
}
