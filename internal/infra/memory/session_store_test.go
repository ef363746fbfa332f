package memory

import (
	"testing"

	"smart-board-game/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	engine := app.NewEngine(app.NewCatalog(app.CatalogDeps{}))

	store.Put("s1", engine)
	got, ok := store.Get("s1")
	if !ok || got != engine {
		t.Fatalf("expected session present")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}
