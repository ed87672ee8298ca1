package testing

import (
	"fmt"
	"testing"
	"time"

	"github.com/kyamasaki/goht/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
)

// RunStoreBenchmarks runs all benchmarks for an IStore implementation.
// Besides the usual ns/op, the single-threaded benchmarks report p50/p99
// latency percentiles sampled per operation.
func RunStoreBenchmarks(b *testing.B, name string, factory store.StoreFactory) {

	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory())
	})

	b.Run("SetExisting", func(b *testing.B) {
		benchmarkSetExisting(b, factory())
	})

	b.Run("SetLargeValue", func(b *testing.B) {
		benchmarkSetLargeValue(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("Get(miss)", func(b *testing.B) {
		benchmarkGetMiss(b, factory())
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory())
	})

	b.Run("Has", func(b *testing.B) {
		benchmarkHas(b, factory())
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// newLatencyHistogram returns a histogram sampling per-op latency in ns.
func newLatencyHistogram() gometrics.Histogram {
	return gometrics.NewHistogram(gometrics.NewUniformSample(10000))
}

func reportLatency(b *testing.B, h gometrics.Histogram) {
	b.ReportMetric(h.Percentile(0.50), "p50-ns")
	b.ReportMetric(h.Percentile(0.99), "p99-ns")
}

// Benchmark for Set operation
func benchmarkSet(b *testing.B, s store.IStore) {

	b.Cleanup(func() {
		s.Close()
	})

	hist := newLatencyHistogram()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		start := time.Now()
		s.Set(key, value)
		hist.Update(time.Since(start).Nanoseconds())
	}
	reportLatency(b, hist)
}

// Benchmark for Set operation with existing keys
func benchmarkSetExisting(b *testing.B, s store.IStore) {

	b.Cleanup(func() {
		s.Close()
	})

	// Prepare data
	numKeys := 1024
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		s.Set(key, value)
	}

	hist := newLatencyHistogram()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("test-key-%d", i%numKeys)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		start := time.Now()
		s.Set(key, value)
		hist.Update(time.Since(start).Nanoseconds())
	}
	reportLatency(b, hist)
}

// Benchmark for Set operation with large values
func benchmarkSetLargeValue(b *testing.B, s store.IStore) {

	b.Cleanup(func() {
		s.Close()
	})

	// 1 MB value
	value := make([]byte, 1024*1024)
	for i := range value {
		value[i] = byte(i % 256)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("test-key-%d", i%128)
		s.Set(key, value)
	}
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, s store.IStore) {

	b.Cleanup(func() {
		s.Close()
	})

	// Prepare data
	numKeys := 1024
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		s.Set(key, value)
	}

	hist := newLatencyHistogram()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("test-key-%d", i%numKeys)
		start := time.Now()
		s.Get(key)
		hist.Update(time.Since(start).Nanoseconds())
	}
	reportLatency(b, hist)
}

// Benchmark for Get operation on absent keys
func benchmarkGetMiss(b *testing.B, s store.IStore) {

	b.Cleanup(func() {
		s.Close()
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("missing-key-%d", i)
		s.Get(key)
	}
}

// Benchmark for Delete operation
func benchmarkDelete(b *testing.B, s store.IStore) {

	b.Cleanup(func() {
		s.Close()
	})

	// Prepare data
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		s.Set(key, []byte("test-value"))
	}

	hist := newLatencyHistogram()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		start := time.Now()
		s.Delete(key)
		hist.Update(time.Since(start).Nanoseconds())
	}
	reportLatency(b, hist)
}

// Benchmark for Has operation
func benchmarkHas(b *testing.B, s store.IStore) {

	b.Cleanup(func() {
		s.Close()
	})

	// Prepare data
	numKeys := 1024
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		s.Set(key, []byte("test-value"))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			s.Has(key)
			counter++
		}
	})
}

// Benchmark for mixed usage (80% reads, 20% writes)
func benchmarkMixedUsage(b *testing.B, s store.IStore) {

	b.Cleanup(func() {
		s.Close()
	})

	// Prepare data
	numKeys := 1024
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		s.Set(key, value)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			if counter%5 == 0 {
				s.Set(key, []byte(fmt.Sprintf("test-value-%d", counter)))
			} else {
				s.Get(key)
			}
			counter++
		}
	})
}
