package table

import (
	"io"

	"github.com/kyamasaki/goht/lib/table/internal"
	"github.com/kyamasaki/goht/lib/table/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// loadFactor is the growth trigger: a table doubles when count/size
	// exceeds this before an insert.
	loadFactor = 0.75

	// maxBuckets bounds the bucket array; a larger allocation request would
	// exceed any practical address space.
	maxBuckets = uint64(1) << 40

	registryInitialSize         = 256
	snapshotRegistryInitialSize = 16
)

// --------------------------------------------------------------------------
// Key Kinds
// --------------------------------------------------------------------------

// Key is the set of supported key types. The key kind of a table is fixed by
// its type parameter at creation, so a key-kind mismatch is a compile error
// rather than a runtime one.
type Key interface {
	~uint64 | ~string
}

type KeyKind uint8

const (
	KeyKindUint KeyKind = iota
	KeyKindString
)

func (k KeyKind) String() string {
	switch k {
	case KeyKindUint:
		return "uint"
	case KeyKindString:
		return "string"
	default:
		return "unknown"
	}
}

// hashUintKey mixes an integer key and folds the halves so the low bits used
// for masking depend on the whole word.
func hashUintKey(key uint64) uint64 {
	h := util.WangHash64(key)
	return h ^ (h >> 32)
}

// hashStringKey hashes the full key length; see util.HashString for why no
// early NUL stop.
func hashStringKey(key string) uint64 {
	h := util.HashString(key)
	return h ^ (h >> 32)
}

// --------------------------------------------------------------------------
// Table
// --------------------------------------------------------------------------

// Table is a handle to one hash table. All methods serialize on the single
// process-wide lock and validate the handle against the live-table registry
// before touching any state, so operations on destroyed or foreign handles
// fail with CodeInvalidHandle instead of corrupting memory.
type Table[K Key] struct {
	lib     *library
	tid     uint64 // process-unique identity, the registry key
	kind    KeyKind
	hash    func(K) uint64
	buckets *internal.Buckets[K]
	count   uint64

	// statistics, surfaced by Info
	rehashes uint64
	sets     *xsync.Counter
	gets     *xsync.Counter
	deletes  *xsync.Counter
	misses   *xsync.Counter
}

// NewUintTable creates an integer-keyed table with at least the given bucket
// capacity. A capacity that is not a power of two is rounded up with a logged
// notice. The table is registered in the live-table registry until destroyed.
func NewUintTable(capacity uint64) (*Table[uint64], error) {
	return createTable[uint64](defaultLib, capacity, KeyKindUint, hashUintKey)
}

// NewStringTable creates a string-keyed table. Keys must be non-empty and
// must not begin with a NUL byte; Go strings are immutable, so the table's
// key copies are implicit.
func NewStringTable(capacity uint64) (*Table[string], error) {
	return createTable[string](defaultLib, capacity, KeyKindString, hashStringKey)
}

func createTable[K Key](l *library, capacity uint64, kind KeyKind, hash func(K) uint64) (*Table[K], error) {
	file, line := l.creationSite()

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureInitLocked(); err != nil {
		return nil, l.failLocked(err)
	}

	t, err := newTableLocked(l, capacity, kind, hash)
	if err != nil {
		return nil, l.failLocked(err)
	}

	l.registerLocked(t, file, line)
	metricCreates.Inc()
	return t, nil
}

// newTableLocked allocates a table without registering it. The registry
// itself is created through this path, which is what keeps the bootstrap free
// of self-reference.
func newTableLocked[K Key](l *library, capacity uint64, kind KeyKind, hash func(K) uint64) (*Table[K], error) {
	const op = "table.Create"

	if capacity == 0 {
		return nil, newError(CodeConfiguration, op, "initial capacity must not be zero")
	}

	size := capacity
	if !util.IsPowerOfTwo(size) {
		adjusted := util.NextPowerOfTwo(size)
		if adjusted == 0 {
			return nil, newError(CodeSizeOverflow, op, "capacity %d cannot be rounded to a power of two", capacity)
		}
		l.log.Infof("hashtable size adjusted from %d to %d", size, adjusted)
		size = adjusted
	}
	if size > maxBuckets {
		return nil, newError(CodeSizeOverflow, op, "bucket array of %d entries exceeds the addressable limit", size)
	}

	return &Table[K]{
		lib:     l,
		tid:     l.nextID.Add(1),
		kind:    kind,
		hash:    hash,
		buckets: internal.NewBuckets[K](size),
		sets:    xsync.NewCounter(),
		gets:    xsync.NewCounter(),
		deletes: xsync.NewCounter(),
		misses:  xsync.NewCounter(),
	}, nil
}

// --------------------------------------------------------------------------
// Public Operations
// --------------------------------------------------------------------------

// begin acquires the library lock and validates the handle. The lock is held
// when begin returns, error or not; callers unlock exactly once.
func (t *Table[K]) begin(op string) (*library, error) {
	l := defaultLib
	if t != nil && t.lib != nil {
		l = t.lib
	}
	l.mu.Lock()

	if t == nil {
		return l, l.failLocked(newError(CodeInvalidHandle, op, "table handle is nil"))
	}
	if err := l.checkLocked(t, op); err != nil {
		return l, l.failLocked(err)
	}
	return l, nil
}

func (t *Table[K]) validKey(key K) bool {
	switch k := any(key).(type) {
	case string:
		return util.ValidStringKey(k)
	default:
		return true
	}
}

// Set inserts or overwrites the value for key in copy mode: the table stores
// a private copy of data and owns it until overwrite, delete or destroy.
// Empty data is refused; raw semantics must go through SetRaw explicitly.
func (t *Table[K]) Set(key K, data []byte) error {
	const op = "table.Set"
	l, err := t.begin(op)
	defer l.mu.Unlock()
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return l.failLocked(newError(CodeConfiguration, op, "copy mode needs a non-empty value, use SetRaw for reference semantics"))
	}
	if !t.validKey(key) {
		return l.failLocked(newError(CodeInvalidKey, op, "malformed string key"))
	}

	t.setLocked(key, internal.OwnedValue(data), false)
	t.sets.Inc()
	metricSets.Inc()
	return nil
}

// SetRaw inserts or overwrites the value for key in raw mode: the reference is
// stored verbatim, nothing is copied, and the lifetime of what it refers to
// stays with the caller. Overwriting or deleting the entry only drops the
// reference. See Destroy for how raw values interact with releaseValues.
func (t *Table[K]) SetRaw(key K, value any) error {
	const op = "table.SetRaw"
	l, err := t.begin(op)
	defer l.mu.Unlock()
	if err != nil {
		return err
	}

	if value == nil {
		return l.failLocked(newError(CodeConfiguration, op, "raw value must not be nil"))
	}
	if !t.validKey(key) {
		return l.failLocked(newError(CodeInvalidKey, op, "malformed string key"))
	}

	t.setLocked(key, internal.RawValue(value), false)
	t.sets.Inc()
	metricSets.Inc()
	return nil
}

// SetIfAbsent inserts the value in copy mode only if the key is not present.
// It reports whether the insert happened. Because it runs under the same
// process-wide lock as every other operation, it is an atomic check-and-set
// and the primitive the lock manager builds on.
func (t *Table[K]) SetIfAbsent(key K, data []byte) (bool, error) {
	const op = "table.SetIfAbsent"
	l, err := t.begin(op)
	defer l.mu.Unlock()
	if err != nil {
		return false, err
	}

	if len(data) == 0 {
		return false, l.failLocked(newError(CodeConfiguration, op, "copy mode needs a non-empty value"))
	}
	if !t.validKey(key) {
		return false, l.failLocked(newError(CodeInvalidKey, op, "malformed string key"))
	}

	inserted := t.setLocked(key, internal.OwnedValue(data), true)
	if inserted {
		t.sets.Inc()
		metricSets.Inc()
	}
	return inserted, nil
}

// Get returns the value stored for key: the table's byte copy for copy-mode
// entries, the stored reference for raw-mode ones. The returned byte slice is
// the table's own allocation and must not be mutated; use the store façade
// for a mutation-safe read.
func (t *Table[K]) Get(key K) (any, error) {
	const op = "table.Get"
	l, err := t.begin(op)
	defer l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if !t.validKey(key) {
		return nil, l.failLocked(newError(CodeInvalidKey, op, "malformed string key"))
	}

	v, ok := t.getLocked(key)
	if !ok {
		t.misses.Inc()
		return nil, l.failLocked(newError(CodeKeyNotFound, op, "key not found"))
	}
	t.gets.Inc()
	metricGets.Inc()
	return v.Any(), nil
}

// Has reports whether key is present. Unlike Get, an absent key is not an
// error.
func (t *Table[K]) Has(key K) (bool, error) {
	const op = "table.Has"
	l, err := t.begin(op)
	defer l.mu.Unlock()
	if err != nil {
		return false, err
	}

	if !t.validKey(key) {
		return false, l.failLocked(newError(CodeInvalidKey, op, "malformed string key"))
	}

	_, ok := t.getLocked(key)
	return ok, nil
}

// Delete unlinks the entry for key and drops its value. For raw-mode entries
// only the reference is dropped; the pointee is never touched.
func (t *Table[K]) Delete(key K) error {
	const op = "table.Delete"
	l, err := t.begin(op)
	defer l.mu.Unlock()
	if err != nil {
		return err
	}

	if !t.validKey(key) {
		return l.failLocked(newError(CodeInvalidKey, op, "malformed string key"))
	}

	if _, ok := t.deleteLocked(key); !ok {
		t.misses.Inc()
		return l.failLocked(newError(CodeKeyNotFound, op, "key not found"))
	}
	t.deletes.Inc()
	metricDeletes.Inc()
	return nil
}

// Count returns the number of live entries.
func (t *Table[K]) Count() (uint64, error) {
	const op = "table.Count"
	l, err := t.begin(op)
	defer l.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return t.count, nil
}

// Destroy tears the table down, releasing every value the table can release:
// owned copies are dropped, and raw values implementing io.Closer are closed
// after the lock is given up (so a raw value that is itself a table handle
// destroys cleanly instead of deadlocking).
//
// If raw values are externally owned, or a closed raw value would be released
// twice, use DestroyKeepValues instead; the engine cannot detect that mistake
// for you.
func (t *Table[K]) Destroy() error {
	return t.destroy(true, "table.Destroy")
}

// DestroyKeepValues tears the table down without releasing any value.
func (t *Table[K]) DestroyKeepValues() error {
	return t.destroy(false, "table.DestroyKeepValues")
}

// Close implements io.Closer as Destroy. This is what makes a table stored
// raw inside another table releasable by that table's Destroy.
func (t *Table[K]) Close() error {
	return t.destroy(true, "table.Close")
}

func (t *Table[K]) destroy(releaseValues bool, op string) error {
	l, err := t.begin(op)
	if err != nil {
		l.mu.Unlock()
		return err
	}

	closers := t.teardownLocked(releaseValues)
	if l.tables != nil && t.tid != l.tables.tid {
		l.tables.deleteLocked(t.tid)
	}
	metricDestroys.Inc()
	l.mu.Unlock()

	for _, c := range closers {
		_ = c.Close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Locked Internals
// --------------------------------------------------------------------------
// Every helper below runs with the library lock already held and skips handle
// validation. They exist so composed operations (create-then-register, the
// shutdown sweep) never re-acquire the lock; none of them may be exported.

// setLocked is the shared insert/overwrite path. It reports whether a write
// happened (always true unless ifAbsent found the key present).
func (t *Table[K]) setLocked(key K, val internal.Value, ifAbsent bool) bool {
	// grow before the insert so a new entry lands in the resized table
	if float64(t.count)/float64(t.buckets.Size()) > loadFactor {
		t.rehashLocked()
	}

	idx := t.buckets.Index(t.hash(key))
	if e := t.buckets.Find(idx, key); e != nil {
		if ifAbsent {
			return false
		}
		e.SetValue(val)
		return true
	}

	t.buckets.Insert(idx, key, val)
	t.count++
	return true
}

func (t *Table[K]) getLocked(key K) (internal.Value, bool) {
	idx := t.buckets.Index(t.hash(key))
	if e := t.buckets.Find(idx, key); e != nil {
		return e.Value(), true
	}
	return internal.Value{}, false
}

func (t *Table[K]) deleteLocked(key K) (internal.Value, bool) {
	idx := t.buckets.Index(t.hash(key))
	if e := t.buckets.Unlink(idx, key); e != nil {
		t.count--
		return e.Value(), true
	}
	return internal.Value{}, false
}

// rehashLocked doubles the bucket array and re-links every entry. Growth is
// an optimization, not a correctness requirement: when doubling would pass
// the addressable limit the table simply keeps operating over-loaded.
func (t *Table[K]) rehashLocked() {
	size := t.buckets.Size()
	if size > maxBuckets/2 {
		return
	}

	grown := internal.NewBuckets[K](size * 2)
	t.buckets.RelinkInto(grown, t.hash)
	t.buckets = grown
	t.rehashes++
	metricRehashes.Inc()
}

// teardownLocked drops every entry and returns the closers of raw values to
// be released, for the caller to run after the lock is given up.
func (t *Table[K]) teardownLocked(releaseValues bool) []io.Closer {
	var closers []io.Closer
	if releaseValues {
		t.buckets.Walk(func(e *internal.Entry[K]) bool {
			if c, ok := e.Value().Closer(); ok {
				closers = append(closers, c)
			}
			return true
		})
	}
	t.buckets = nil
	t.count = 0
	return closers
}

// handle interface, see registry.go
func (t *Table[K]) id() uint64       { return t.tid }
func (t *Table[K]) keyKind() KeyKind { return t.kind }
