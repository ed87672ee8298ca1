// Package lockmgr provides named, in-process advisory locks built on a
// store.IStore. Acquisition is a single atomic SetIfAbsent on the lock key;
// the stored value is a random owner credential that authorizes the matching
// release. There is no expiry: a holder that never releases keeps the lock
// until ForceRelease or the store is closed.
package lockmgr
