package table

import (
	"github.com/kyamasaki/goht/lib/table/internal"
)

// --------------------------------------------------------------------------
// Snapshots
// --------------------------------------------------------------------------

// Snapshot is a point-in-time array of every value in a table, in
// bucket-then-chain order (no further order is guaranteed). Each snapshot is
// tracked by the snapshot registry until released; releasing is optional,
// Shutdown sweeps whatever is still outstanding.
type Snapshot struct {
	lib    *library
	sid    uint64
	values []any
}

// Snapshot collects every current value of the table. Copy-mode entries
// contribute the table's byte copy, raw-mode entries the stored reference.
func (t *Table[K]) Snapshot() (*Snapshot, error) {
	const op = "table.Snapshot"
	l, err := t.begin(op)
	defer l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// the traversal count is authoritative should it ever disagree with count
	values := make([]any, 0, t.count)
	t.buckets.Walk(func(e *internal.Entry[K]) bool {
		values = append(values, e.Value().Any())
		return true
	})

	s := &Snapshot{lib: l, sid: l.nextID.Add(1), values: values}
	if l.snaps != nil {
		l.snaps.setLocked(s.sid, internal.RawValue(s), false)
	}
	metricSnapshots.Inc()
	return s, nil
}

// Values returns the collected values. The slice belongs to the snapshot; it
// is not refreshed by later table mutations.
func (s *Snapshot) Values() []any { return s.values }

// Len returns the number of collected values.
func (s *Snapshot) Len() int { return len(s.values) }

// Release removes the snapshot from the snapshot registry and drops its
// values. Releasing a snapshot that was never registered, or releasing one a
// second time, reports CodeKeyNotFound and changes nothing.
func (s *Snapshot) Release() error {
	const op = "snapshot.Release"

	l := defaultLib
	if s != nil && s.lib != nil {
		l = s.lib
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if s == nil || l.snaps == nil {
		return l.failLocked(newError(CodeKeyNotFound, op, "snapshot is not registered"))
	}
	if _, ok := l.snaps.deleteLocked(s.sid); !ok {
		return l.failLocked(newError(CodeKeyNotFound, op, "snapshot is not registered or already released"))
	}
	s.values = nil
	return nil
}
