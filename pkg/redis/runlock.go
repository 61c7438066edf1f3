package redis

import (
	"context"
	"fmt"
	"time"
)

// RunLock is a coarse mutex over the nightly pipeline run. Only one
// run may hold it at a time; a crashed holder releases via TTL expiry.
type RunLock struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRunLock creates a run lock with the given owner token
func NewRunLock(client *Client, prefix, token string, ttl time.Duration) *RunLock {
	return &RunLock{
		client: client,
		key:    fmt.Sprintf("%s:runlock", prefix),
		token:  token,
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. Returns false when another run holds it.
func (l *RunLock) Acquire(ctx context.Context) (bool, error) {
	if !l.client.Enabled() {
		// Without Redis the single-process CLI is the only runner
		return true, nil
	}

	ok, err := l.client.Redis().SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("run lock acquire failed: %w", err)
	}
	return ok, nil
}

// Release frees the lock if this instance still owns it
func (l *RunLock) Release(ctx context.Context) error {
	if !l.client.Enabled() {
		return nil
	}

	// Delete only when the stored token is ours, so an expired lock
	// re-acquired by a newer run is never released by the old holder.
	script := `
		if redis.call('GET', KEYS[1]) == ARGV[1] then
			return redis.call('DEL', KEYS[1])
		end
		return 0
	`
	if err := l.client.Redis().Eval(ctx, script, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("run lock release failed: %w", err)
	}
	return nil
}
