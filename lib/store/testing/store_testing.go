package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/kyamasaki/goht/lib/store"
	"github.com/kyamasaki/goht/lib/table"
	"github.com/kyamasaki/goht/lib/table/util"
)

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
// The factory must return a fresh, empty store on every call.
func RunStoreTests(t *testing.T, name string, factory store.StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory())
		})

		t.Run("SetIfAbsent", func(t *testing.T) {
			testSetIfAbsent(t, factory())
		})

		t.Run("SetRaw", func(t *testing.T) {
			testSetRaw(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Values", func(t *testing.T) {
			testValues(t, factory())
		})

		t.Run("InvalidKeys", func(t *testing.T) {
			testInvalidKeys(t, factory())
		})

		t.Run("Growth", func(t *testing.T) {
			testGrowth(t, factory())
		})

		t.Run("ConcurrentAccess", func(t *testing.T) {
			testConcurrentAccess(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	if err := s.Set(testKey, testValue1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	if err := s.Set(testKey, testValue2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err = s.Get(testKey)
	if err != nil || !exists {
		t.Fatalf("Expected key %s to exist after overwrite (err=%v)", testKey, err)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists, err = s.Get("nonexistent-key")
	if err != nil {
		t.Fatalf("Get of absent key must not error at the store level: %v", err)
	}
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// Get must return a copy, not a reference into the store
	retrievedValue, _, _ := s.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _, _ := s.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testOverwrite(t *testing.T, s store.IStore) {
	defer s.Close()

	key := "counter"
	for i := 0; i < 100; i++ {
		if err := s.Set(key, []byte(fmt.Sprintf("value-%d", i))); err != nil {
			t.Fatalf("Set #%d failed: %v", i, err)
		}
	}

	result, exists, _ := s.Get(key)
	if !exists || !bytes.Equal(result, []byte("value-99")) {
		t.Errorf("Expected most recent value value-99, got %s (exists=%v)", result, exists)
	}

	info, err := s.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Count != 1 {
		t.Errorf("Overwrites must not grow the entry count, got %d", info.Count)
	}
}

func testSetIfAbsent(t *testing.T, s store.IStore) {
	defer s.Close()

	inserted, err := s.SetIfAbsent("lock", []byte("owner-1"))
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if !inserted {
		t.Errorf("Expected first SetIfAbsent to insert")
	}

	inserted, err = s.SetIfAbsent("lock", []byte("owner-2"))
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if inserted {
		t.Errorf("Expected second SetIfAbsent to report not-inserted")
	}

	result, _, _ := s.Get("lock")
	if !bytes.Equal(result, []byte("owner-1")) {
		t.Errorf("SetIfAbsent on a present key must leave the prior value, got %s", result)
	}
}

type closeCounter struct {
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func testSetRaw(t *testing.T, s store.IStore) {
	raw := &closeCounter{}

	if err := s.SetRaw("raw-key", raw); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}

	exists, err := s.Has("raw-key")
	if err != nil || !exists {
		t.Errorf("Expected raw key to exist (err=%v)", err)
	}

	// a raw value that is not a byte slice is present but not byte-shaped
	value, exists, err := s.Get("raw-key")
	if err != nil || !exists {
		t.Errorf("Expected raw key to be loaded (err=%v)", err)
	}
	if value != nil {
		t.Errorf("Expected nil bytes for non-byte raw value, got %v", value)
	}

	// deleting a raw entry only drops the reference
	if err := s.Delete("raw-key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if raw.closed != 0 {
		t.Errorf("Delete must not close a raw value, closed %d times", raw.closed)
	}

	// closing the store releases raw values that can be released
	if err := s.SetRaw("raw-key", raw); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if raw.closed != 1 {
		t.Errorf("Close must release raw values exactly once, closed %d times", raw.closed)
	}
}

func testHas(t *testing.T, s store.IStore) {
	defer s.Close()

	if err := s.Set("present", []byte("x")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	exists, err := s.Has("present")
	if err != nil || !exists {
		t.Errorf("Expected Has to report present (err=%v)", err)
	}

	exists, err = s.Has("absent")
	if err != nil || exists {
		t.Errorf("Expected Has to report absent (err=%v)", err)
	}
}

func testDelete(t *testing.T, s store.IStore) {
	defer s.Close()

	if err := s.Set("doomed", []byte("x")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Delete("doomed"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, exists, _ := s.Get("doomed")
	if exists {
		t.Errorf("Expected key to be gone after Delete")
	}

	err := s.Delete("doomed")
	if table.CodeOf(err) != table.CodeKeyNotFound {
		t.Errorf("Expected KeyNotFound deleting an absent key, got %v", err)
	}
}

func testValues(t *testing.T, s store.IStore) {
	defer s.Close()

	want := map[string]bool{}
	for i := 0; i < 20; i++ {
		v := fmt.Sprintf("value-%d", i)
		if err := s.Set(fmt.Sprintf("key-%d", i), []byte(v)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		want[v] = false
	}

	values, err := s.Values()
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	if len(values) != len(want) {
		t.Fatalf("Expected %d values, got %d", len(want), len(values))
	}
	for _, v := range values {
		seen, ok := want[string(v)]
		if !ok {
			t.Errorf("Unexpected value %s", v)
			continue
		}
		if seen {
			t.Errorf("Value %s returned more than once", v)
		}
		want[string(v)] = true
	}
}

func testInvalidKeys(t *testing.T, s store.IStore) {
	defer s.Close()

	for _, key := range []string{"", "\x00leading-nul"} {
		if err := s.Set(key, []byte("x")); table.CodeOf(err) != table.CodeInvalidKey {
			t.Errorf("Expected InvalidKey for key %q, got %v", key, err)
		}
	}

	// an embedded NUL after the first byte is fine
	if err := s.Set("a\x00b", []byte("x")); err != nil {
		t.Errorf("Key with embedded NUL must be accepted, got %v", err)
	}

	// keys sharing a prefix but differing in length must stay distinct
	if err := s.Set("a\x00", []byte("y")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v1, _, _ := s.Get("a\x00b")
	v2, _, _ := s.Get("a\x00")
	if !bytes.Equal(v1, []byte("x")) || !bytes.Equal(v2, []byte("y")) {
		t.Errorf("Prefix-sharing keys collided: %q vs %q", v1, v2)
	}
}

func testGrowth(t *testing.T, s store.IStore) {
	defer s.Close()

	const n = 1000
	for i := 0; i < n; i++ {
		if err := s.Set(fmt.Sprintf("key-%d", i), []byte(fmt.Sprintf("value-%d", i))); err != nil {
			t.Fatalf("Set #%d failed: %v", i, err)
		}
	}

	info, err := s.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Count != n {
		t.Errorf("Expected count %d, got %d", n, info.Count)
	}
	if !util.IsPowerOfTwo(info.Size) {
		t.Errorf("Table size %d is not a power of two", info.Size)
	}
	if info.LoadFactor > 0.75 {
		t.Errorf("Load factor %.3f above the growth threshold after %d inserts", info.LoadFactor, n)
	}
	if info.Rehashes == 0 {
		t.Errorf("Expected at least one rehash growing to %d entries", n)
	}

	// every entry must have survived the rehashes
	for i := 0; i < n; i++ {
		want := []byte(fmt.Sprintf("value-%d", i))
		got, exists, _ := s.Get(fmt.Sprintf("key-%d", i))
		if !exists || !bytes.Equal(got, want) {
			t.Fatalf("Key key-%d lost or corrupted after growth: got %s (exists=%v)", i, got, exists)
		}
	}
}

func testConcurrentAccess(t *testing.T, s store.IStore) {
	defer s.Close()

	const (
		goroutines = 8
		perG       = 200
	)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				key := fmt.Sprintf("g%d-key-%d", g, i)
				value := []byte(fmt.Sprintf("g%d-value-%d", g, i))
				if err := s.Set(key, value); err != nil {
					t.Errorf("Set failed: %v", err)
					return
				}
				got, exists, err := s.Get(key)
				if err != nil || !exists || !bytes.Equal(got, value) {
					t.Errorf("Get after Set failed for %s: %s (exists=%v, err=%v)", key, got, exists, err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	info, err := s.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Count != goroutines*perG {
		t.Errorf("Expected %d entries after concurrent writes, got %d", goroutines*perG, info.Count)
	}
}
