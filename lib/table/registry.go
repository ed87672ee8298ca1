package table

import (
	"errors"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/kyamasaki/goht/lib/table/internal"
	"github.com/sirupsen/logrus"
)

// --------------------------------------------------------------------------
// Library Context
// --------------------------------------------------------------------------

// library is the process-wide context: the single lock every public operation
// runs under, the live-table registry, the snapshot registry, and the
// last-failing-operation diagnostic. It is an explicit struct rather than
// loose globals so tests and embedders can reason about its lifecycle; the
// package-level API operates on defaultLib.
type library struct {
	mu     sync.Mutex
	nextID atomic.Uint64
	debug  atomic.Bool
	log    *logrus.Logger

	// tables is the live-table registry: an integer-keyed instance of the
	// very structure it tracks, created lazily on first use through the
	// unregistered creation path. Every other table, the snapshot registry
	// included, is a key in it while alive.
	tables *Table[uint64]

	// snaps tracks the value arrays handed out by Snapshot until they are
	// released or swept at shutdown.
	snaps *Table[uint64]

	// lastOp names the most recent failing operation. Guarded by mu, shared
	// across goroutines like the rest of the context.
	lastOp string
}

var defaultLib = &library{
	log: newLogger("info"),
}

// handle is what the registry knows about a table of any key kind.
type handle interface {
	id() uint64
	keyKind() KeyKind
	teardownLocked(releaseValues bool) []io.Closer
}

// trackEntry is the registry's bookkeeping per live table.
type trackEntry struct {
	h    handle
	file string // creation site, only populated in debug mode
	line int
}

// --------------------------------------------------------------------------
// Bootstrap
// --------------------------------------------------------------------------

// ensureInitLocked creates the registry and the snapshot registry on first
// use. The registry is the first table of the process and must bypass
// registration: it cannot be a key in itself while being created. The
// snapshot registry is an ordinary table and is tracked like any other.
func (l *library) ensureInitLocked() error {
	if l.tables != nil {
		return nil
	}

	reg, err := newTableLocked[uint64](l, registryInitialSize, KeyKindUint, hashUintKey)
	if err != nil {
		// nothing works without the registry; no half-initialized library
		l.log.Errorf("failed to initialize the table library: %v", err)
		return err
	}
	l.tables = reg

	snaps, err := newTableLocked[uint64](l, snapshotRegistryInitialSize, KeyKindUint, hashUintKey)
	if err != nil {
		l.log.Errorf("failed to prepare the snapshot registry: %v", err)
		l.tables = nil
		return err
	}
	l.snaps = snaps
	l.registerLocked(snaps, "", 0)

	return nil
}

func (l *library) registerLocked(h handle, file string, line int) {
	l.tables.setLocked(h.id(), internal.RawValue(&trackEntry{h: h, file: file, line: line}), false)
}

// creationSite captures the caller's file and line when debug tracking is on.
// Called before the lock is taken; debug is atomic for exactly that reason.
func (l *library) creationSite() (string, int) {
	if !l.debug.Load() {
		return "", 0
	}
	// skip creationSite, createTable and the exported constructor
	_, file, line, _ := runtime.Caller(3)
	return file, line
}

// --------------------------------------------------------------------------
// Handle Validation
// --------------------------------------------------------------------------

// checkLocked validates a handle before any operation: the library must be
// initialized and the handle must be the registry itself or a current key in
// it. This is what turns use-after-destroy and forged handles into
// CodeInvalidHandle instead of corruption.
func (l *library) checkLocked(h handle, op string) error {
	if l.tables == nil {
		return newError(CodeInvalidHandle, op, "table library is not initialized")
	}
	if h.id() == l.tables.tid {
		return nil
	}
	if _, ok := l.tables.getLocked(h.id()); !ok {
		return newError(CodeInvalidHandle, op, "unknown or destroyed table handle")
	}
	return nil
}

// failLocked records the failing operation for LastFailedOp and passes the
// error through.
func (l *library) failLocked(err error) error {
	var e *Error
	if errors.As(err, &e) {
		l.lastOp = e.Op
	}
	metricErrors.Inc()
	return err
}

// LastFailedOp returns the name of the most recent failing operation, e.g.
// "table.Get". It is a process-wide diagnostic, not isolated per goroutine.
func LastFailedOp() string {
	defaultLib.mu.Lock()
	defer defaultLib.mu.Unlock()
	return defaultLib.lastOp
}

// --------------------------------------------------------------------------
// Shutdown
// --------------------------------------------------------------------------

// Shutdown force-destroys everything still alive: outstanding snapshots
// first, then every registered table (logging the creation site of each leak
// in debug mode), and the registry itself as the terminal step. The library
// re-bootstraps on the next create, which is what tests rely on.
//
// Shutdown assumes no other goroutine is still using the library, the usual
// process-exit ordering requirement.
func Shutdown() {
	defaultLib.shutdown()
}

func (l *library) shutdown() {
	l.mu.Lock()
	if l.tables == nil {
		l.mu.Unlock()
		return
	}

	var closers []io.Closer

	// snapshot registry goes first, releasing every array never released
	if l.snaps != nil {
		closers = append(closers, l.snaps.teardownLocked(true)...)
		l.tables.deleteLocked(l.snaps.tid)
		l.snaps = nil
	}

	// sweep: collect first, the registry shrinks as tables are torn down
	var leaked []*trackEntry
	l.tables.buckets.Walk(func(e *internal.Entry[uint64]) bool {
		if te, ok := e.Value().Any().(*trackEntry); ok {
			leaked = append(leaked, te)
		}
		return true
	})
	for _, te := range leaked {
		if te.file != "" {
			l.log.Warnf("table %d (%s keys) was never destroyed, created at %s:%d",
				te.h.id(), te.h.keyKind(), te.file, te.line)
		} else if l.debug.Load() {
			l.log.Warnf("table %d (%s keys) was never destroyed", te.h.id(), te.h.keyKind())
		}
		closers = append(closers, te.h.teardownLocked(true)...)
		l.tables.deleteLocked(te.h.id())
		metricDestroys.Inc()
	}

	// the registry itself is the terminal step
	l.tables.teardownLocked(false)
	l.tables = nil
	l.lastOp = ""
	l.mu.Unlock()

	for _, c := range closers {
		_ = c.Close()
	}
}
