package internal

import (
	"bytes"
	"errors"
	"testing"
)

// TestOwnedValueCopies tests that OwnedValue detaches from the caller's buffer
func TestOwnedValueCopies(t *testing.T) {
	buf := []byte("original")
	v := OwnedValue(buf)

	buf[0] = 'X'

	if !bytes.Equal(v.Bytes(), []byte("original")) {
		t.Errorf("Owned value changed with the caller's buffer: %s", v.Bytes())
	}
	if v.Mode() != ValueOwned {
		t.Errorf("Expected mode Owned, got %s", v.Mode())
	}
}

// TestRawValueAliases tests that RawValue stores the reference verbatim
func TestRawValueAliases(t *testing.T) {
	ref := &struct{ n int }{n: 1}
	v := RawValue(ref)

	if v.Mode() != ValueRaw {
		t.Errorf("Expected mode Raw, got %s", v.Mode())
	}
	if v.Any() != any(ref) {
		t.Error("Raw value must return the identical reference")
	}
	if v.Bytes() != nil {
		t.Errorf("Raw value must have no owned bytes, got %v", v.Bytes())
	}
}

type stubCloser struct {
	err error
}

func (s *stubCloser) Close() error { return s.err }

// TestValueCloser tests closer extraction per ownership mode
func TestValueCloser(t *testing.T) {
	// raw value that can close
	sc := &stubCloser{err: errors.New("boom")}
	if c, ok := RawValue(sc).Closer(); !ok || c != sc {
		t.Error("Expected closer for raw io.Closer value")
	}

	// raw value that cannot close
	if _, ok := RawValue("plain string").Closer(); ok {
		t.Error("Expected no closer for non-Closer raw value")
	}

	// owned values never close
	if _, ok := OwnedValue([]byte("x")).Closer(); ok {
		t.Error("Expected no closer for owned value")
	}
}

// TestInsertHeadOrder tests that inserts link at the chain head
func TestInsertHeadOrder(t *testing.T) {
	b := NewBuckets[string](1)

	b.Insert(0, "first", OwnedValue([]byte("1")))
	b.Insert(0, "second", OwnedValue([]byte("2")))
	b.Insert(0, "third", OwnedValue([]byte("3")))

	var order []string
	b.Walk(func(e *Entry[string]) bool {
		order = append(order, e.Key())
		return true
	})

	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

// TestFind tests chain lookup
func TestFind(t *testing.T) {
	b := NewBuckets[uint64](4)

	idx := b.Index(42)
	b.Insert(idx, 42, OwnedValue([]byte("answer")))

	e := b.Find(idx, 42)
	if e == nil {
		t.Fatal("Expected to find key 42")
	}
	if !bytes.Equal(e.Value().Bytes(), []byte("answer")) {
		t.Errorf("Wrong value: %s", e.Value().Bytes())
	}

	if b.Find(idx, 43) != nil {
		t.Error("Expected no entry for absent key in same bucket")
	}
}

// TestSetValueInPlace tests O(1) overwrite via SetValue
func TestSetValueInPlace(t *testing.T) {
	b := NewBuckets[string](1)
	b.Insert(0, "k", OwnedValue([]byte("old")))

	e := b.Find(0, "k")
	e.SetValue(OwnedValue([]byte("new")))

	if got := b.Find(0, "k").Value().Bytes(); !bytes.Equal(got, []byte("new")) {
		t.Errorf("Expected overwritten value, got %s", got)
	}

	// overwrite must not add a chain node
	n := 0
	b.Walk(func(*Entry[string]) bool { n++; return true })
	if n != 1 {
		t.Errorf("Expected 1 entry after overwrite, got %d", n)
	}
}

// TestUnlink tests removal from head, middle and tail of a chain
func TestUnlink(t *testing.T) {
	keys := []string{"a", "b", "c", "d"}

	for _, victim := range keys {
		b := NewBuckets[string](1)
		for _, k := range keys {
			b.Insert(0, k, OwnedValue([]byte(k)))
		}

		e := b.Unlink(0, victim)
		if e == nil || e.Key() != victim {
			t.Fatalf("Unlink(%s) returned %v", victim, e)
		}
		if e.next != nil {
			t.Errorf("Unlinked entry must be detached, next=%v", e.next)
		}

		// the survivors must still be reachable
		remaining := map[string]bool{}
		b.Walk(func(e *Entry[string]) bool {
			remaining[e.Key()] = true
			return true
		})
		if len(remaining) != len(keys)-1 {
			t.Errorf("Expected %d survivors after removing %s, got %d", len(keys)-1, victim, len(remaining))
		}
		if remaining[victim] {
			t.Errorf("Removed key %s still reachable", victim)
		}
	}
}

// TestUnlinkAbsent tests that unlinking a missing key is a no-op
func TestUnlinkAbsent(t *testing.T) {
	b := NewBuckets[string](1)
	b.Insert(0, "present", OwnedValue([]byte("x")))

	if e := b.Unlink(0, "absent"); e != nil {
		t.Errorf("Expected nil for absent key, got %v", e)
	}
	if b.Find(0, "present") == nil {
		t.Error("Existing entry lost by failed unlink")
	}
}

// TestWalkEarlyStop tests that Walk honors a false return
func TestWalkEarlyStop(t *testing.T) {
	b := NewBuckets[uint64](8)
	for k := uint64(0); k < 20; k++ {
		idx := b.Index(k)
		b.Insert(idx, k, OwnedValue([]byte("v")))
	}

	visits := 0
	b.Walk(func(*Entry[uint64]) bool {
		visits++
		return visits < 5
	})
	if visits != 5 {
		t.Errorf("Expected walk to stop after 5 visits, got %d", visits)
	}
}

// TestChainLengths tests per-bucket length reporting
func TestChainLengths(t *testing.T) {
	b := NewBuckets[uint64](4)
	b.Insert(0, 1, OwnedValue(nil))
	b.Insert(0, 2, OwnedValue(nil))
	b.Insert(2, 3, OwnedValue(nil))

	lengths := b.ChainLengths()
	want := []float64{2, 0, 1, 0}
	if len(lengths) != len(want) {
		t.Fatalf("Expected %d lengths, got %d", len(want), len(lengths))
	}
	for i := range want {
		if lengths[i] != want[i] {
			t.Errorf("Bucket %d: expected length %v, got %v", i, want[i], lengths[i])
		}
	}
}

// TestRelinkInto tests rehash redistribution without copying entries
func TestRelinkInto(t *testing.T) {
	hash := func(k uint64) uint64 { return k }

	src := NewBuckets[uint64](4)
	entries := map[uint64]*Entry[uint64]{}
	for k := uint64(0); k < 32; k++ {
		e := src.Insert(src.Index(hash(k)), k, OwnedValue([]byte{byte(k)}))
		entries[k] = e
	}

	dst := NewBuckets[uint64](16)
	src.RelinkInto(dst, hash)

	// source must be drained
	src.Walk(func(*Entry[uint64]) bool {
		t.Error("Source buckets not empty after relink")
		return false
	})

	// every entry must land in the right target bucket, same node identity
	n := 0
	dst.Walk(func(e *Entry[uint64]) bool {
		n++
		if entries[e.Key()] != e {
			t.Errorf("Entry for key %d was copied, not relinked", e.Key())
		}
		want := dst.Index(hash(e.Key()))
		if got := findBucket(dst, e); got != want {
			t.Errorf("Key %d in bucket %d, expected %d", e.Key(), got, want)
		}
		return true
	})
	if n != 32 {
		t.Errorf("Expected 32 entries after relink, got %d", n)
	}
}

// findBucket locates the bucket index holding the given entry.
func findBucket[K comparable](b *Buckets[K], target *Entry[K]) uint64 {
	for i := range b.heads {
		for e := b.heads[i]; e != nil; e = e.next {
			if e == target {
				return uint64(i)
			}
		}
	}
	return ^uint64(0)
}
