package cache

import (
	"os"

	"faircamp/internal/cachekey"
)

// ReportRow aggregates one (kind, state) bucket.
type ReportRow struct {
	Kind  cachekey.Kind
	State State
	Count int
	Bytes int64
}

// Report describes cache occupancy at a point in time. Sizes come from
// statting artifact files; records whose file is gone count with zero bytes.
type Report struct {
	Rows []ReportRow

	TotalCount int
	TotalBytes int64
	StaleCount int
	StaleBytes int64
}

// BuildReport walks the index and aggregates counts and approximate
// reclaimable sizes per kind and state, in the stable kind order.
func (ix *Index) BuildReport() Report {
	var report Report
	for _, kind := range cachekey.Kinds() {
		for _, state := range []State{StateFresh, StateStale} {
			row := ReportRow{Kind: kind, State: state}
			for _, entry := range ix.EntriesOfKind(kind) {
				if entry.State != state {
					continue
				}
				row.Count++
				if info, err := os.Stat(ix.ArtifactPath(entry)); err == nil {
					row.Bytes += info.Size()
				}
			}
			if row.Count == 0 {
				continue
			}
			report.Rows = append(report.Rows, row)
			report.TotalCount += row.Count
			report.TotalBytes += row.Bytes
			if state == StateStale {
				report.StaleCount += row.Count
				report.StaleBytes += row.Bytes
			}
		}
	}
	return report
}
