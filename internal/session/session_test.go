package session

import (
	"context"
	"testing"

	"github.com/spec-kit/triage-service/internal/listing"
)

func TestMemoryStoreReadIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.MarkRead(ctx, "Reporter@Example.com", []string{"e1", "e2"}); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkRead(ctx, "reporter@example.com", []string{"e2", "e3"}); err != nil {
		t.Fatal(err)
	}

	read, err := store.ReadIDs(ctx, " reporter@example.com ")
	if err != nil {
		t.Fatal(err)
	}
	if len(read) != 3 || !read["e1"] || !read["e3"] {
		t.Fatalf("read = %v", read)
	}

	read["mutated"] = true
	again, _ := store.ReadIDs(ctx, "reporter@example.com")
	if again["mutated"] {
		t.Error("ReadIDs leaked internal state")
	}

	other, _ := store.ReadIDs(ctx, "someone@example.com")
	if len(other) != 0 {
		t.Errorf("other reporter = %v", other)
	}
}

func TestMemoryStoreFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, err := store.LoadFilter(ctx, "u1"); err != nil || ok {
		t.Fatalf("empty load ok=%v err=%v", ok, err)
	}
	want := listing.SavedFilter{Status: "open", SortKey: "priority", SortDir: "desc"}
	if err := store.SaveFilter(ctx, "u1", want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := store.LoadFilter(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("load ok=%v err=%v", ok, err)
	}
	if got.Status != want.Status || got.SortKey != want.SortKey || got.SortDir != want.SortDir {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemoryStore().MarkRead(ctx, "a@b.c", []string{"x"}); err == nil {
		t.Fatal("expected context error")
	}
}
