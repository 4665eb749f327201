package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := startRedis(t)

	cache := NewCache(client, "pdf:")
	ctx := context.Background()

	if err := cache.Set(ctx, "doc-1:3", []byte("data:application/pdf;base64,AAAA"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "doc-1:3")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if string(val) != "data:application/pdf;base64,AAAA" {
		t.Fatalf("unexpected value %q", val)
	}

	if !mr.Exists("pdf:doc-1:3") {
		t.Fatalf("expected key to be stored under its prefix")
	}
}

func TestCacheMissAndExpiry(t *testing.T) {
	client, mr := startRedis(t)

	cache := NewCache(client, "")
	ctx := context.Background()

	if _, err := cache.Get(ctx, "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := cache.Set(ctx, "short", []byte("x"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, err := cache.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, _ := startRedis(t)

	cache := NewCache(client, "")
	ctx := context.Background()

	if err := cache.Set(ctx, "foo", []byte("bar"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := cache.Delete(ctx, "foo"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "foo"); err == nil {
		t.Fatalf("expected error getting deleted key")
	}
}
