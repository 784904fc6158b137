package lock

import "context"

// DistributedLockManager serializes work across instances. Lock ids come
// from the constants package.
type DistributedLockManager interface {
	Acquire(ctx context.Context, lockID int) error
	Release(ctx context.Context, lockID int) error
}
