package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryKV_SetGet(t *testing.T) {
	kv := NewMemoryKV(0)
	defer kv.Close()
	ctx := context.Background()

	if _, ok := kv.Get(ctx, "missing"); ok {
		t.Error("expected miss for unset key")
	}

	if err := kv.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := kv.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Errorf("Get(k) = %q, %v; want v, true", got, ok)
	}
}

func TestMemoryKV_Expiry(t *testing.T) {
	kv := NewMemoryKV(0)
	defer kv.Close()
	ctx := context.Background()

	if err := kv.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, ok := kv.Get(ctx, "k"); ok {
		t.Error("expected expired key to be a miss")
	}
}

func TestMemoryKV_NoTTLNeverExpires(t *testing.T) {
	kv := NewMemoryKV(0)
	defer kv.Close()
	ctx := context.Background()

	if err := kv.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := kv.Get(ctx, "k"); !ok {
		t.Error("expected zero-TTL entry to never expire")
	}
}

func TestMemoryKV_Delete(t *testing.T) {
	kv := NewMemoryKV(0)
	defer kv.Close()
	ctx := context.Background()

	kv.Set(ctx, "k", []byte("v"), time.Minute)
	kv.Delete(ctx, "k")
	if _, ok := kv.Get(ctx, "k"); ok {
		t.Error("expected deleted key to be a miss")
	}
}

func TestMemoryKV_Janitor_SweepsExpired(t *testing.T) {
	kv := NewMemoryKV(5 * time.Millisecond)
	defer kv.Close()
	ctx := context.Background()

	kv.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	kv.mu.RLock()
	_, present := kv.entries["k"]
	kv.mu.RUnlock()
	if present {
		t.Error("expected janitor to sweep expired entry from the map")
	}
}

func TestMemoryRateLimiter_AllowsUpToBurst(t *testing.T) {
	rl := NewMemoryRateLimiter(1, 2)
	ctx := context.Background()

	ok1, _ := rl.Allow(ctx, "k")
	ok2, _ := rl.Allow(ctx, "k")
	ok3, _ := rl.Allow(ctx, "k")

	if !ok1 || !ok2 {
		t.Error("expected first two calls within burst to be allowed")
	}
	if ok3 {
		t.Error("expected third call beyond burst to be denied")
	}
}

func TestMemoryRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewMemoryRateLimiter(1, 1)
	ctx := context.Background()

	rl.Allow(ctx, "a")
	okB, _ := rl.Allow(ctx, "b")
	if !okB {
		t.Error("expected a different key to have its own budget")
	}
}

func TestTruncatedTokenKey_Deterministic(t *testing.T) {
	a := TruncatedTokenKey("token-1")
	b := TruncatedTokenKey("token-1")
	c := TruncatedTokenKey("token-2")

	if a != b {
		t.Error("expected same token to hash identically")
	}
	if a == c {
		t.Error("expected different tokens to hash differently")
	}
	if len(a) != 16 {
		t.Errorf("expected truncated key length 16, got %d", len(a))
	}
}
