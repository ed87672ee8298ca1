// Package testing provides standardised tests and benchmarks for
// store implementations that satisfy the store.IStore interface.
//
// The package contains:
//   - testing: A conformance suite validating the IStore interface contract,
//     including value-copy semantics, key validation and growth behaviour
//   - benchmark: Performance tests for common store operations with
//     latency percentiles sampled per operation
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() store.IStore {
//		s, _ := tstore.NewTableStore(16)
//		return s
//	}
//
//	// Running the standard test suite
//	func TestMyStore(t *testing.T) {
//		RunStoreTests(t, "MyStore", factory)
//	}
//
//	// Running the standard benchmarks
//	func BenchmarkMyStore(b *testing.B) {
//		RunStoreBenchmarks(b, "MyStore", factory)
//	}
package testing
