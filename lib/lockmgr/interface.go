package lockmgr

// ILockManager defines the interface for an in-process named lock provider.
type ILockManager interface {
	// AcquireLock tries to acquire the lock for the given key.
	// Returns whether the lock was acquired and, if so, the owner ID that
	// authorizes the matching release.
	AcquireLock(key string) (ok bool, ownerID []byte, err error)

	// ReleaseLock releases the lock for the given key if ownerID matches the
	// holder. It also returns true if the lock did not exist.
	ReleaseLock(key string, ownerID []byte) (ok bool, err error)

	// ForceRelease drops the lock for the given key regardless of owner.
	// Releasing a key that is not locked is not an error.
	ForceRelease(key string) (err error)
}
