package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates work across worker instances.
// The worker holds a lock per image path while it writes the file, so a
// task reclaimed from an abandoned stream entry is not written twice.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns false if another holder owns it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock held by this instance.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
