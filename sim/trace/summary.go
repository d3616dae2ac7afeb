package trace

// TraceSummary aggregates statistics from a CacheTrace.
type TraceSummary struct {
	TotalRemovals   int            `json:"total_removals"`
	ByReason        map[Reason]int `json:"by_reason"`
	ReclaimedMB     float64        `json:"reclaimed_mb"`
	DisposeFailures int            `json:"dispose_failures"`
	Overruns        int            `json:"overruns"`
	MeanAgeSeconds  float64        `json:"mean_age_seconds"`
}

// Summarize computes aggregate statistics from a CacheTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(ct *CacheTrace) *TraceSummary {
	summary := &TraceSummary{
		ByReason: make(map[Reason]int),
	}
	if ct == nil {
		return summary
	}

	summary.TotalRemovals = len(ct.Removals)
	summary.Overruns = len(ct.Overruns)

	totalAge := 0.0
	for _, r := range ct.Removals {
		summary.ByReason[r.Reason]++
		summary.ReclaimedMB += r.SizeMB
		totalAge += r.Age.Seconds()
		if r.DisposeErr != "" {
			summary.DisposeFailures++
		}
	}
	if len(ct.Removals) > 0 {
		summary.MeanAgeSeconds = totalAge / float64(len(ct.Removals))
	}

	return summary
}
