package api

import (
	"encoding/json"
	"sync"
	"time"
)

type cacheEntry struct {
	body      json.RawMessage
	fetchedAt time.Time
}

// requestCache holds the last successful body per literal request URL.
// Bodies are copied in and out so callers cannot alter what others see.
// Expired entries are dropped on lookup and swept on insert.
type requestCache struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]cacheEntry
}

func newRequestCache(window time.Duration) *requestCache {
	return &requestCache{
		window:  window,
		entries: make(map[string]cacheEntry),
	}
}

// get returns the body stored for key if it is younger than the window.
func (rc *requestCache) get(key string, now time.Time) (json.RawMessage, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	e, ok := rc.entries[key]
	if !ok {
		return nil, false
	}
	if rc.expired(e, now) {
		delete(rc.entries, key)
		return nil, false
	}
	return append(json.RawMessage(nil), e.body...), true
}

func (rc *requestCache) put(key string, body json.RawMessage, now time.Time) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for k, e := range rc.entries {
		if rc.expired(e, now) {
			delete(rc.entries, k)
		}
	}
	rc.entries[key] = cacheEntry{
		body:      append(json.RawMessage(nil), body...),
		fetchedAt: now,
	}
}

func (rc *requestCache) size() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

func (rc *requestCache) expired(e cacheEntry, now time.Time) bool {
	return now.Sub(e.fetchedAt) >= rc.window
}
