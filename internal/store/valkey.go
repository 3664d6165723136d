package store

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/getsentry/sentry-mcp-gateway/pkg/logging"
)

// ValkeyKV is a KV backed by a Valkey (Redis-protocol-compatible)
// instance, for deployments that need the constraints cache or OAuth
// storage to survive process restarts and be shared across gateway
// replicas.
type ValkeyKV struct {
	client    valkey.Client
	keyPrefix string
}

// NewValkeyKV constructs a ValkeyKV over an already-connected client.
func NewValkeyKV(client valkey.Client, keyPrefix string) *ValkeyKV {
	return &ValkeyKV{client: client, keyPrefix: keyPrefix}
}

func (v *ValkeyKV) fullKey(key string) string {
	return v.keyPrefix + key
}

func (v *ValkeyKV) Get(ctx context.Context, key string) ([]byte, bool) {
	resp := v.client.Do(ctx, v.client.B().Get().Key(v.fullKey(key)).Build())
	if resp.Error() != nil {
		if !valkey.IsValkeyNil(resp.Error()) {
			logging.Warn("Store", "valkey get failed for %s: %v", key, resp.Error())
		}
		return nil, false
	}
	bytes, err := resp.AsBytes()
	if err != nil {
		return nil, false
	}
	return bytes, true
}

func (v *ValkeyKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := v.client.B().Set().Key(v.fullKey(key)).Value(valkey.BinaryString(value))
	if ttl > 0 {
		resp := v.client.Do(ctx, cmd.ExSeconds(int64(ttl.Seconds())).Build())
		return resp.Error()
	}
	resp := v.client.Do(ctx, cmd.Build())
	return resp.Error()
}

func (v *ValkeyKV) Delete(ctx context.Context, key string) error {
	resp := v.client.Do(ctx, v.client.B().Del().Key(v.fullKey(key)).Build())
	return resp.Error()
}

// ValkeyRateLimiter implements RateLimiter with a fixed-window counter
// kept in Valkey, shared across gateway replicas.
type ValkeyRateLimiter struct {
	client    valkey.Client
	keyPrefix string
	limit     int64
	window    time.Duration
}

// NewValkeyRateLimiter builds a RateLimiter allowing up to limit calls
// per window, per key.
func NewValkeyRateLimiter(client valkey.Client, keyPrefix string, limit int64, window time.Duration) *ValkeyRateLimiter {
	return &ValkeyRateLimiter{client: client, keyPrefix: keyPrefix, limit: limit, window: window}
}

func (r *ValkeyRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	fullKey := r.keyPrefix + key
	resp := r.client.Do(ctx, r.client.B().Incr().Key(fullKey).Build())
	if resp.Error() != nil {
		// Fail open: a backend error means "not rate-limited" for this
		// request, per spec.md §5.
		return true, resp.Error()
	}
	count, err := resp.ToInt64()
	if err != nil {
		return true, err
	}
	if count == 1 {
		// First hit in this window — set the expiry.
		r.client.Do(ctx, r.client.B().Expire().Key(fullKey).Seconds(int64(r.window.Seconds())).Build())
	}
	return count <= r.limit, nil
}
