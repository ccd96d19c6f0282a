package token

import (
	"context"
	"testing"

	dErrors "verigate/pkg/domain-errors"
)

func TestStoreSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Save(ctx, "sess-1", "token-a"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != "token-a" {
		t.Fatalf("expected token-a, got %q", got)
	}

	// Single slot: a second save overwrites.
	if err := store.Save(ctx, "sess-1", "token-b"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, _ = store.Load(ctx, "sess-1")
	if got != "token-b" {
		t.Fatalf("expected last writer to win, got %q", got)
	}

	if err := store.Clear(ctx, "sess-1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := store.Load(ctx, "sess-1"); !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found after clear, got %v", err)
	}
}

func TestStoreClearAbsentSlot(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.Clear(context.Background(), "never-existed"); err != nil {
		t.Fatalf("clearing an absent slot must not error: %v", err)
	}
}

func TestStoreRequiresSessionID(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.Save(context.Background(), "", "token"); !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad request for empty session id, got %v", err)
	}
}
