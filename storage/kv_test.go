package storage

import (
	"context"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	got, err := store.Get(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("missing key = %v, want nil", got)
	}

	if err := store.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	got, err = store.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("Get = %q", got)
	}

	// The returned slice must be a copy.
	got[0] = 'X'
	again, _ := store.Get(ctx, "k")
	if string(again) != `{"a":1}` {
		t.Error("mutating a returned value leaked into the store")
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Get(ctx, "k")
	if got != nil {
		t.Error("deleted key should read as missing")
	}

	if err := store.Delete(ctx, "never-set"); err != nil {
		t.Errorf("deleting a missing key should be a no-op, got %v", err)
	}
}
