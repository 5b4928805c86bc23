package services

import (
	"sync"

	"github.com/hasnain-a7/nextProjectFlow/store"
)

// CacheRegistry owns one ProjectCache per signed-in user. Handlers look
// their session's cache up here; sign-out drops it so a fresh session
// always re-fetches from the store.
type CacheRegistry struct {
	store store.DocumentStore

	mu     sync.Mutex
	caches map[string]*ProjectCache
}

func NewCacheRegistry(documentStore store.DocumentStore) *CacheRegistry {
	return &CacheRegistry{
		store:  documentStore,
		caches: make(map[string]*ProjectCache),
	}
}

// ForUser returns the cache bound to userID, creating an empty one on
// first use.
func (r *CacheRegistry) ForUser(userID string) *ProjectCache {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache, ok := r.caches[userID]
	if !ok {
		cache = NewProjectCache(r.store, userID)
		r.caches[userID] = cache
	}
	return cache
}

// Drop clears and forgets the user's cache at sign-out.
func (r *CacheRegistry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cache, ok := r.caches[userID]; ok {
		cache.Clear()
		delete(r.caches, userID)
	}
}
