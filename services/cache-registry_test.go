package services

import (
	"context"
	"testing"

	"github.com/hasnain-a7/nextProjectFlow/models"
)

func TestRegistryReturnsSameCachePerUser(t *testing.T) {
	registry := NewCacheRegistry(newFakeStore())

	first := registry.ForUser("U1")
	second := registry.ForUser("U1")
	if first != second {
		t.Error("expected the same cache instance for one user")
	}
	if other := registry.ForUser("U2"); other == first {
		t.Error("expected a distinct cache per user")
	}
}

func TestRegistryDropClearsAndForgets(t *testing.T) {
	fs := newFakeStore()
	fs.seedProject(models.Project{Title: "Website", UserID: "U1"})
	registry := NewCacheRegistry(fs)

	cache := registry.ForUser("U1")
	if err := cache.BulkLoad(context.Background()); err != nil {
		t.Fatalf("BulkLoad failed: %v", err)
	}

	registry.Drop("U1")
	if len(cache.Projects()) != 0 {
		t.Error("expected the dropped cache to be cleared")
	}

	// A later lookup gets a fresh, empty cache.
	if fresh := registry.ForUser("U1"); fresh == cache {
		t.Error("expected a new cache instance after Drop")
	}

	// Dropping an unknown user is a no-op.
	registry.Drop("U9")
}
