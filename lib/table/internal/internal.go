package internal

import "io"

// --------------------------------------------------------------------------
// Value ownership
// --------------------------------------------------------------------------

// ValueMode tags how an entry owns its value.
type ValueMode uint8

const (
	// ValueOwned marks a value the table owns outright: a private byte copy,
	// made at insert time and replaced wholesale on overwrite.
	ValueOwned ValueMode = iota
	// ValueRaw marks a caller-supplied reference stored verbatim. The table
	// owns only the slot; the lifetime of what it refers to stays with the
	// caller.
	ValueRaw
)

func (m ValueMode) String() string {
	switch m {
	case ValueOwned:
		return "Owned"
	case ValueRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// Value is the tagged union stored in every entry: either an owned byte copy
// or a raw reference. The tag decides which destruction path is legal, so the
// engine never has to guess whether releasing a value is safe.
type Value struct {
	mode  ValueMode
	owned []byte
	raw   any
}

// OwnedValue copies data into a fresh allocation and wraps it as an owned
// value. The copy decouples the entry from the caller's buffer.
func OwnedValue(data []byte) Value {
	cp := make([]byte, len(data))
	copy(cp, data)
	return Value{mode: ValueOwned, owned: cp}
}

// RawValue wraps a caller-supplied reference without copying.
func RawValue(v any) Value {
	return Value{mode: ValueRaw, raw: v}
}

// Mode returns the ownership tag.
func (v Value) Mode() ValueMode { return v.mode }

// Bytes returns the owned byte copy. It is nil for raw values.
func (v Value) Bytes() []byte { return v.owned }

// Any returns the stored value as an untyped reference: the owned byte slice
// for owned values, the caller's reference for raw ones.
func (v Value) Any() any {
	if v.mode == ValueOwned {
		return v.owned
	}
	return v.raw
}

// Closer returns the raw value as an io.Closer if it is one. Owned values
// never have a closer; releasing them is the garbage collector's business.
func (v Value) Closer() (io.Closer, bool) {
	if v.mode != ValueRaw {
		return nil, false
	}
	c, ok := v.raw.(io.Closer)
	return c, ok
}

// --------------------------------------------------------------------------
// Entry (intrusive chain node)
// --------------------------------------------------------------------------

// Entry is one key/value pair in a bucket chain. Chains are intrusive singly
// linked lists; new entries are linked at the head.
type Entry[K comparable] struct {
	key  K
	val  Value
	next *Entry[K]
}

// Key returns the entry's key.
func (e *Entry[K]) Key() K { return e.key }

// Value returns the entry's current value.
func (e *Entry[K]) Value() Value { return e.val }

// SetValue replaces the entry's value in place. Key and chain position are
// untouched, which is what makes overwrite an O(1) update.
func (e *Entry[K]) SetValue(v Value) { e.val = v }

// --------------------------------------------------------------------------
// Buckets (chain-head array)
// --------------------------------------------------------------------------

// Buckets is the power-of-two array of chain heads. A freshly made slice of
// pointers is all-nil, which every traversal below relies on as the empty
// chain terminator.
type Buckets[K comparable] struct {
	heads []*Entry[K]
}

// NewBuckets allocates a zeroed bucket array. size must be a power of two;
// the caller is responsible for rounding.
func NewBuckets[K comparable](size uint64) *Buckets[K] {
	return &Buckets[K]{heads: make([]*Entry[K], size)}
}

// Size returns the number of buckets.
func (b *Buckets[K]) Size() uint64 { return uint64(len(b.heads)) }

// Index folds a full-width hash into this bucket array's range. Valid
// precisely because the size is a power of two.
func (b *Buckets[K]) Index(hash uint64) uint64 {
	return hash & (uint64(len(b.heads)) - 1)
}

// Find scans the chain at idx for an exact key match.
func (b *Buckets[K]) Find(idx uint64, key K) *Entry[K] {
	for e := b.heads[idx]; e != nil; e = e.next {
		if e.key == key {
			return e
		}
	}
	return nil
}

// Insert links a new entry at the head of the chain at idx. The entry is
// fully initialized before it becomes reachable, so a chain is never observed
// half-linked.
func (b *Buckets[K]) Insert(idx uint64, key K, val Value) *Entry[K] {
	e := &Entry[K]{key: key, val: val, next: b.heads[idx]}
	b.heads[idx] = e
	return e
}

// Unlink removes the entry with the given key from the chain at idx and
// returns it, or nil if the key is absent. The predecessor's link (or the
// bucket head) is rewired in O(1) once the entry is found.
func (b *Buckets[K]) Unlink(idx uint64, key K) *Entry[K] {
	var prev *Entry[K]
	for e := b.heads[idx]; e != nil; e = e.next {
		if e.key == key {
			if prev != nil {
				prev.next = e.next
			} else {
				b.heads[idx] = e.next
			}
			e.next = nil
			return e
		}
		prev = e
	}
	return nil
}

// Walk visits every live entry in bucket-then-chain order. Return false from
// fn to stop early. The table must not be mutated during the walk.
func (b *Buckets[K]) Walk(fn func(*Entry[K]) bool) {
	for _, head := range b.heads {
		for e := head; e != nil; e = e.next {
			if !fn(e) {
				return
			}
		}
	}
}

// ChainLengths returns the length of every chain, one value per bucket.
func (b *Buckets[K]) ChainLengths() []float64 {
	lengths := make([]float64, len(b.heads))
	for i, head := range b.heads {
		n := 0
		for e := head; e != nil; e = e.next {
			n++
		}
		lengths[i] = float64(n)
	}
	return lengths
}

// RelinkInto moves every entry into the (larger) target bucket array at the
// index implied by the target's size. Entries are re-linked, never copied,
// so key and value ownership is preserved; only the next pointers change.
// After the call the receiver's chains are empty.
func (b *Buckets[K]) RelinkInto(target *Buckets[K], hash func(K) uint64) {
	for i, head := range b.heads {
		e := head
		for e != nil {
			next := e.next
			idx := target.Index(hash(e.key))
			e.next = target.heads[idx]
			target.heads[idx] = e
			e = next
		}
		b.heads[i] = nil
	}
}
