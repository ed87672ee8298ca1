// Package table implements an embeddable, process-wide hash table engine with
// chained collision resolution, power-of-two bucket arrays and automatic
// growth. It is generic over the two supported key kinds, unsigned integers
// and strings, and tracks every live table in a self-hosting registry.
//
// The package focuses on:
//   - Explicit value ownership: copy mode stores a private byte copy the
//     table owns outright, raw mode stores a caller reference verbatim. The
//     ownership tag, not caller discipline, decides which destruction path
//     is legal.
//   - Handle safety: every operation validates its handle against the
//     live-table registry, so use-after-destroy and forged handles report
//     CodeInvalidHandle instead of corrupting shared state.
//   - A single process-wide lock: all tables share one concurrency domain.
//     Operations on unrelated tables serialize against each other, which
//     keeps the registry's validation guarantee trivially correct. Designs
//     needing per-table throughput should hold several entries per key
//     rather than several tables per goroutine.
//
// Key components:
//
//   - Table: the handle type. Created by NewUintTable or NewStringTable,
//     which round a non-power-of-two capacity up with a logged notice.
//     Growth doubles the bucket array when the load factor passes 0.75,
//     re-linking entries without copying them; when doubling would pass the
//     addressable limit the table keeps operating over-loaded, since growth
//     is an optimization and not a correctness requirement.
//
//   - Registry: an integer-keyed instance of the very structure it tracks,
//     created lazily on first use through the unregistered creation path
//     (the bootstrap cannot be a key in itself while being created). The
//     explicit Shutdown call sweeps it, force-destroying leaked tables and
//     logging their creation sites in debug mode.
//
//   - Snapshot: a point-in-time array of a table's values, tracked by a
//     secondary registry until released. Releasing is optional; Shutdown
//     frees whatever is outstanding.
//
// The one documented hazard carries over from the ownership model: a table
// stored as a raw value is closed by its outer table's Destroy. If the inner
// table is destroyed separately, tear the outer one down with
// DestroyKeepValues, or the inner handle is released twice (the second
// release fails with CodeInvalidHandle rather than corrupting memory).
package table
