package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || got != "v" {
		t.Fatalf("get = (%q, %v, %v)", got, ok, err)
	}
}

func TestMemoryMiss(t *testing.T) {
	c, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, ok, _ := c.Get(context.Background(), "absent"); ok {
		t.Fatal("expected miss")
	}
}

func TestMemoryReadAfterWrite(t *testing.T) {
	// The write buffer is flushed on Set, so the same chat turn can read
	// back the window it just wrote.
	ctx := context.Background()
	c, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for i := 0; i < 50; i++ {
		if err := c.Set(ctx, "k", "v", time.Hour); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := c.Get(ctx, "k"); !ok {
			t.Fatalf("read-after-write miss on iteration %d", i)
		}
	}
}
