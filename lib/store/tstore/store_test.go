package tstore

import (
	"testing"

	"github.com/kyamasaki/goht/lib/store"
	storetesting "github.com/kyamasaki/goht/lib/store/testing"
	"github.com/kyamasaki/goht/lib/table"
)

func factory() store.IStore {
	s, err := NewTableStore(16)
	if err != nil {
		panic(err)
	}
	return s
}

// TestTableStore runs the standard store conformance suite
func TestTableStore(t *testing.T) {
	storetesting.RunStoreTests(t, "TableStore", factory)
}

// TestNewTableStoreZeroCapacity tests that creation errors pass through
func TestNewTableStoreZeroCapacity(t *testing.T) {
	_, err := NewTableStore(0)
	if table.CodeOf(err) != table.CodeConfiguration {
		t.Errorf("Expected Configuration error for zero capacity, got %v", err)
	}
}

// BenchmarkTableStore runs the standard store benchmarks
func BenchmarkTableStore(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "TableStore", factory)
}
