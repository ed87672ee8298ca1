package table

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// Process-wide operation counters. Per-table numbers live in TableInfo; these
// aggregate across every table in the process, registry included.
var (
	metricCreates   = metrics.NewCounter("goht_tables_created_total")
	metricDestroys  = metrics.NewCounter("goht_tables_destroyed_total")
	metricSets      = metrics.NewCounter("goht_sets_total")
	metricGets      = metrics.NewCounter("goht_gets_total")
	metricDeletes   = metrics.NewCounter("goht_deletes_total")
	metricSnapshots = metrics.NewCounter("goht_snapshots_total")
	metricRehashes  = metrics.NewCounter("goht_rehashes_total")
	metricErrors    = metrics.NewCounter("goht_errors_total")
)

// WriteMetrics writes the library's counters to w in Prometheus text format.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
