package history

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type fakeCache struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func TestAppendAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeCache(), Options{})

	if err := store.Append(ctx, "u1", "c1", "hello", "hi there"); err != nil {
		t.Fatalf("append: %v", err)
	}

	window := store.Read(ctx, "u1", "c1")
	if len(window) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(window))
	}
	if window[0].Role != "user" || window[0].Content != "hello" {
		t.Errorf("first turn = %+v", window[0])
	}
	if window[1].Role != "assistant" || window[1].Content != "hi there" {
		t.Errorf("second turn = %+v", window[1])
	}
}

func TestStoreCapTruncatesOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeCache(), Options{StoreCap: 12, ReadCap: 12})

	for i := 0; i < 8; i++ {
		msg := fmt.Sprintf("question %d", i)
		resp := fmt.Sprintf("answer %d", i)
		if err := store.Append(ctx, "u1", "c1", msg, resp); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	window := store.Read(ctx, "u1", "c1")
	if len(window) != 12 {
		t.Fatalf("expected exactly 12 entries after truncation, got %d", len(window))
	}
	// 16 entries were written; the oldest 4 (pairs 0 and 1) must be gone.
	if window[0].Content != "question 2" {
		t.Errorf("oldest surviving entry = %q, want question 2", window[0].Content)
	}
	if window[11].Content != "answer 7" {
		t.Errorf("newest entry = %q, want answer 7", window[11].Content)
	}
}

func TestReadCapSmallerThanStoreCap(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeCache(), Options{})

	for i := 0; i < 10; i++ {
		if err := store.Append(ctx, "u1", "c1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	window := store.Read(ctx, "u1", "c1")
	if len(window) != 10 {
		t.Fatalf("default read cap should return 10 of 20 stored, got %d", len(window))
	}
	// The read window holds the most recent entries.
	if window[9].Content != "a9" {
		t.Errorf("newest = %q, want a9", window[9].Content)
	}
	if window[0].Content != "q5" {
		t.Errorf("oldest returned = %q, want q5", window[0].Content)
	}
}

func TestCorruptWindowReadsEmpty(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	fc.values["conversation:u1:c1"] = "{not json"
	store := NewStore(fc, Options{})

	if window := store.Read(ctx, "u1", "c1"); len(window) != 0 {
		t.Fatalf("corrupt window should read empty, got %d turns", len(window))
	}

	// The next append starts fresh instead of failing.
	if err := store.Append(ctx, "u1", "c1", "hello", "hi"); err != nil {
		t.Fatalf("append over corrupt window: %v", err)
	}
	if window := store.Read(ctx, "u1", "c1"); len(window) != 2 {
		t.Fatalf("expected fresh window of 2, got %d", len(window))
	}
}

func TestCacheErrorReadsEmpty(t *testing.T) {
	fc := newFakeCache()
	fc.getErr = fmt.Errorf("backend down")
	store := NewStore(fc, Options{})

	if window := store.Read(context.Background(), "u1", "c1"); window != nil {
		t.Fatalf("expected nil window on cache error, got %v", window)
	}
}

func TestClearEmptiesWindow(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeCache(), Options{})

	if err := store.Append(ctx, "u1", "c1", "q", "a"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Clear(ctx, "u1", "c1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if window := store.Read(ctx, "u1", "c1"); len(window) != 0 {
		t.Fatalf("expected empty window after clear, got %d turns", len(window))
	}
}

func TestWindowsAreScopedPerUserAndChannel(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeCache(), Options{})

	if err := store.Append(ctx, "u1", "c1", "alpha", "one"); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(ctx, "u1", "c2", "beta", "two"); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(ctx, "u2", "c1", "gamma", "three"); err != nil {
		t.Fatal(err)
	}

	if w := store.Read(ctx, "u1", "c1"); len(w) != 2 || w[0].Content != "alpha" {
		t.Errorf("u1/c1 window = %v", w)
	}
	if w := store.Read(ctx, "u1", "c2"); len(w) != 2 || w[0].Content != "beta" {
		t.Errorf("u1/c2 window = %v", w)
	}
	if w := store.Read(ctx, "u2", "c1"); len(w) != 2 || w[0].Content != "gamma" {
		t.Errorf("u2/c1 window = %v", w)
	}
}

func TestAppendRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	store := NewStore(fc, Options{})

	if err := store.Append(ctx, "u1", "c1", "q", "a"); err != nil {
		t.Fatal(err)
	}
	if got := fc.ttls["conversation:u1:c1"]; got != 7*24*time.Hour {
		t.Fatalf("window ttl = %v, want 7 days", got)
	}
}

func TestEmbeddingModeDefaultsFree(t *testing.T) {
	store := NewStore(newFakeCache(), Options{})
	if mode := store.EmbeddingMode(context.Background(), "u1"); mode != ModeFree {
		t.Fatalf("default mode = %q, want free", mode)
	}
}

func TestSetEmbeddingMode(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	store := NewStore(fc, Options{})

	if err := store.SetEmbeddingMode(ctx, "u1", ModePaid); err != nil {
		t.Fatalf("set paid: %v", err)
	}
	if mode := store.EmbeddingMode(ctx, "u1"); mode != ModePaid {
		t.Fatalf("mode = %q, want paid", mode)
	}
	if got := fc.ttls["user:u1:embedding_mode"]; got != 30*24*time.Hour {
		t.Errorf("preference ttl = %v, want 30 days", got)
	}

	if err := store.SetEmbeddingMode(ctx, "u1", "premium"); err == nil {
		t.Fatal("expected error for invalid mode")
	}
	// The invalid write must not have clobbered the stored preference.
	if mode := store.EmbeddingMode(ctx, "u1"); mode != ModePaid {
		t.Fatalf("mode after rejected write = %q, want paid", mode)
	}
}

func TestEmbeddingModeUnreadableDefaultsFree(t *testing.T) {
	fc := newFakeCache()
	fc.getErr = fmt.Errorf("backend down")
	store := NewStore(fc, Options{})
	if mode := store.EmbeddingMode(context.Background(), "u1"); mode != ModeFree {
		t.Fatalf("mode = %q, want free on read error", mode)
	}
}
