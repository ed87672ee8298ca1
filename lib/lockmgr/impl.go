package lockmgr

import (
	"bytes"

	"github.com/kyamasaki/goht/lib/store"
	"github.com/kyamasaki/goht/lib/table"
)

type lockMgrImpl struct {
	store store.IStore
}

// NewLockManager creates a lock manager on top of the given store. Locks are
// entries in the store, so they share its lifetime: closing the store drops
// every lock with it.
func NewLockManager(store store.IStore) ILockManager {
	return &lockMgrImpl{
		store: store,
	}
}

func (lm *lockMgrImpl) AcquireLock(key string) (bool, []byte, error) {
	// Generate the credential that will authorize the release (256 bit random value)
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// SetIfAbsent runs under the engine's process-wide lock, so exactly one
	// contender can insert
	inserted, err := lm.store.SetIfAbsent(key, ownerID)
	if err != nil {
		return false, nil, err
	}
	if !inserted {
		// lock is held by someone else
		return false, nil, nil
	}
	return true, ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	// Check if the lock exists
	value, ok, err := lm.store.Get(key)
	if err != nil || !ok {
		return err == nil, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	// Release the lock
	err = lm.store.Delete(key)
	if err != nil && table.CodeOf(err) == table.CodeKeyNotFound {
		// someone force-released between the read and the delete
		return true, nil
	}
	return err == nil, err
}

func (lm *lockMgrImpl) ForceRelease(key string) error {
	err := lm.store.Delete(key)
	if err != nil && table.CodeOf(err) == table.CodeKeyNotFound {
		return nil
	}
	return err
}
