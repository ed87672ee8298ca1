package table

import (
	"github.com/kyamasaki/goht/lib/table/util"
)

// TableInfo is a point-in-time statistics report for one table.
type TableInfo struct {
	Kind       string  `json:"kind"`
	Size       uint64  `json:"size"`
	Count      uint64  `json:"count"`
	LoadFactor float64 `json:"load_factor"`
	Rehashes   uint64  `json:"rehashes"`

	// cumulative operation counters for this table
	Sets    int64 `json:"sets"`
	Gets    int64 `json:"gets"`
	Deletes int64 `json:"deletes"`
	Misses  int64 `json:"misses"`

	// how evenly the hash spreads keys over the buckets
	ChainDistribution util.DistributionStats `json:"chain_distribution"`
}

// Info returns statistics about the table. The chain walk runs under the
// global lock, so Info on a huge table is not free; it is a diagnostic, not a
// hot-path call.
func (t *Table[K]) Info() (TableInfo, error) {
	const op = "table.Info"
	l, err := t.begin(op)
	defer l.mu.Unlock()
	if err != nil {
		return TableInfo{}, err
	}

	return TableInfo{
		Kind:              t.kind.String(),
		Size:              t.buckets.Size(),
		Count:             t.count,
		LoadFactor:        float64(t.count) / float64(t.buckets.Size()),
		Rehashes:          t.rehashes,
		Sets:              t.sets.Value(),
		Gets:              t.gets.Value(),
		Deletes:           t.deletes.Value(),
		Misses:            t.misses.Value(),
		ChainDistribution: util.NewDistributionStats(t.buckets.ChainLengths()),
	}, nil
}
