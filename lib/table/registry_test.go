package table

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// --------------------------------------------------------------------------
// Handle validation
// --------------------------------------------------------------------------

// TestUseAfterDestroy tests that every operation on a destroyed handle fails
// with InvalidHandle
func TestUseAfterDestroy(t *testing.T) {
	tbl, err := NewUintTable(16)
	if err != nil {
		t.Fatalf("NewUintTable failed: %v", err)
	}
	tbl.Set(1, []byte("x"))
	if err := tbl.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	if err := tbl.Set(1, []byte("x")); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Set: expected InvalidHandle, got %v", err)
	}
	if _, err := tbl.Get(1); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Get: expected InvalidHandle, got %v", err)
	}
	if err := tbl.Delete(1); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Delete: expected InvalidHandle, got %v", err)
	}
	if _, err := tbl.Count(); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Count: expected InvalidHandle, got %v", err)
	}
	if _, err := tbl.Snapshot(); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Snapshot: expected InvalidHandle, got %v", err)
	}
	if _, err := tbl.Info(); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Info: expected InvalidHandle, got %v", err)
	}
	if err := tbl.Destroy(); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Double destroy: expected InvalidHandle, got %v", err)
	}
}

// TestStaleHandleAfterRecreate tests that a destroyed handle stays dead even
// when new tables exist
func TestStaleHandleAfterRecreate(t *testing.T) {
	old, err := NewUintTable(16)
	if err != nil {
		t.Fatalf("NewUintTable failed: %v", err)
	}
	old.Destroy()

	fresh, err := NewUintTable(16)
	if err != nil {
		t.Fatalf("NewUintTable failed: %v", err)
	}
	defer fresh.Destroy()

	if err := old.Set(1, []byte("x")); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Expected the stale handle to stay invalid, got %v", err)
	}
	if err := fresh.Set(1, []byte("x")); err != nil {
		t.Errorf("The fresh handle must work: %v", err)
	}
}

// TestNilHandle tests that a nil table pointer is an invalid handle, not a
// panic
func TestNilHandle(t *testing.T) {
	var tbl *Table[uint64]

	if err := tbl.Set(1, []byte("x")); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Set on nil: expected InvalidHandle, got %v", err)
	}
	if _, err := tbl.Get(1); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Get on nil: expected InvalidHandle, got %v", err)
	}
	if err := tbl.Destroy(); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Destroy on nil: expected InvalidHandle, got %v", err)
	}
}

// TestLastFailedOp tests the process-wide failure diagnostic
func TestLastFailedOp(t *testing.T) {
	tbl, err := NewStringTable(16)
	if err != nil {
		t.Fatalf("NewStringTable failed: %v", err)
	}
	defer tbl.Destroy()

	tbl.Get("missing")
	if got := LastFailedOp(); got != "table.Get" {
		t.Errorf("Expected table.Get, got %q", got)
	}

	tbl.Delete("missing")
	if got := LastFailedOp(); got != "table.Delete" {
		t.Errorf("Expected table.Delete, got %q", got)
	}

	tbl.Set("", []byte("x"))
	if got := LastFailedOp(); got != "table.Set" {
		t.Errorf("Expected table.Set, got %q", got)
	}
}

// --------------------------------------------------------------------------
// Shutdown
// --------------------------------------------------------------------------

// TestShutdownSweep tests that Shutdown destroys leaked tables and the
// library re-bootstraps afterwards
func TestShutdownSweep(t *testing.T) {
	leakedA, err := NewUintTable(16)
	if err != nil {
		t.Fatalf("NewUintTable failed: %v", err)
	}
	leakedB, err := NewStringTable(16)
	if err != nil {
		t.Fatalf("NewStringTable failed: %v", err)
	}
	leakedA.Set(1, []byte("x"))
	leakedB.Set("k", []byte("y"))

	ref := &trackingCloser{}
	leakedA.SetRaw(2, ref)

	snap, err := leakedA.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	Shutdown()

	// every surviving handle is dead
	if err := leakedA.Set(1, []byte("x")); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Expected InvalidHandle after shutdown, got %v", err)
	}
	if err := leakedB.Set("k", []byte("y")); CodeOf(err) != CodeInvalidHandle {
		t.Errorf("Expected InvalidHandle after shutdown, got %v", err)
	}
	if err := snap.Release(); CodeOf(err) != CodeKeyNotFound {
		t.Errorf("Expected KeyNotFound releasing a swept snapshot, got %v", err)
	}

	// raw closers were released by the sweep
	if ref.closed != 1 {
		t.Errorf("Expected the leaked raw value closed once, got %d", ref.closed)
	}

	// the library must come back up on the next create
	fresh, err := NewUintTable(16)
	if err != nil {
		t.Fatalf("Create after shutdown failed: %v", err)
	}
	defer fresh.Destroy()
	if err := fresh.Set(1, []byte("x")); err != nil {
		t.Errorf("Fresh table after shutdown must work: %v", err)
	}
}

// TestShutdownIdempotent tests that a second Shutdown is a no-op
func TestShutdownIdempotent(t *testing.T) {
	tbl, err := NewUintTable(16)
	if err != nil {
		t.Fatalf("NewUintTable failed: %v", err)
	}
	_ = tbl

	Shutdown()
	Shutdown()

	fresh, err := NewUintTable(16)
	if err != nil {
		t.Fatalf("Create after double shutdown failed: %v", err)
	}
	fresh.Destroy()
}

// TestShutdownLogsLeaksInDebug tests creation-site tracking: with debug on,
// the sweep names the file and line of every table never destroyed
func TestShutdownLogsLeaksInDebug(t *testing.T) {
	logger, hook := test.NewNullLogger()
	Configure(&Options{Debug: true, Logger: logger})
	defer Configure(nil)

	leaked, err := NewUintTable(16)
	if err != nil {
		t.Fatalf("NewUintTable failed: %v", err)
	}
	_ = leaked

	Shutdown()

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "never destroyed") {
			found = true
			if !strings.Contains(entry.Message, "registry_test.go") {
				t.Errorf("Expected the creation site in the leak warning, got %q", entry.Message)
			}
		}
	}
	if !found {
		t.Error("Expected a leak warning from the shutdown sweep")
	}
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// TestDefaultOptions tests the defaults
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Debug {
		t.Error("Debug must default to off")
	}
	if opts.LogLevel != "info" {
		t.Errorf("Expected default level info, got %s", opts.LogLevel)
	}
}

// TestOptionsFromEnv tests environment-driven configuration
func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("GOHT_DEBUG", "true")
	t.Setenv("GOHT_LOG_LEVEL", "debug")

	opts := OptionsFromEnv()
	if !opts.Debug {
		t.Error("Expected GOHT_DEBUG=true to enable debug")
	}
	if opts.LogLevel != "debug" {
		t.Errorf("Expected GOHT_LOG_LEVEL to set the level, got %s", opts.LogLevel)
	}
}

// TestNewLoggerFallback tests that an unknown level falls back to info
func TestNewLoggerFallback(t *testing.T) {
	logger := newLogger("no-such-level")
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected fallback to info, got %v", logger.GetLevel())
	}

	logger = newLogger("error")
	if logger.GetLevel() != logrus.ErrorLevel {
		t.Errorf("Expected error level, got %v", logger.GetLevel())
	}
}

// --------------------------------------------------------------------------
// Concurrency
// --------------------------------------------------------------------------

// TestConcurrentMixedOperations exercises the global lock under parallel use
// of two tables; mainly valuable under the race detector
func TestConcurrentMixedOperations(t *testing.T) {
	uints, err := NewUintTable(16)
	if err != nil {
		t.Fatalf("NewUintTable failed: %v", err)
	}
	defer uints.Destroy()

	strs, err := NewStringTable(16)
	if err != nil {
		t.Fatalf("NewStringTable failed: %v", err)
	}
	defer strs.Destroy()

	const (
		goroutines = 8
		perG       = 100
	)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				uk := uint64(g*perG + i)
				sk := fmt.Sprintf("g%d-%d", g, i)
				value := []byte(fmt.Sprintf("v%d-%d", g, i))

				if err := uints.Set(uk, value); err != nil {
					t.Errorf("uint Set failed: %v", err)
					return
				}
				if err := strs.Set(sk, value); err != nil {
					t.Errorf("string Set failed: %v", err)
					return
				}
				if _, err := uints.Get(uk); err != nil {
					t.Errorf("uint Get failed: %v", err)
					return
				}
				if snap, err := strs.Snapshot(); err == nil {
					snap.Release()
				}
				if i%10 == 9 {
					if err := strs.Delete(sk); err != nil {
						t.Errorf("string Delete failed: %v", err)
						return
					}
				}
			}
		}(g)
	}
	wg.Wait()

	count, err := uints.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != goroutines*perG {
		t.Errorf("Expected %d uint entries, got %d", goroutines*perG, count)
	}
}
