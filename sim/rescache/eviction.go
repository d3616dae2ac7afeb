package rescache

import "sort"

// rankCandidates orders unprotected entries so the first element is evicted
// first:
//  1. UsageCount ascending
//  2. LastUsedAt ascending (staler first)
//  3. SizeEstimateMB descending (reclaim larger resources on ties)
//  4. Key ascending, so equal entries evict in a reproducible order
func rankCandidates(candidates []*CachedResource) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.UsageCount != b.UsageCount {
			return a.UsageCount < b.UsageCount
		}
		if !a.LastUsedAt.Equal(b.LastUsedAt) {
			return a.LastUsedAt.Before(b.LastUsedAt)
		}
		if a.SizeEstimateMB != b.SizeEstimateMB {
			return a.SizeEstimateMB > b.SizeEstimateMB
		}
		return a.Key < b.Key
	})
}
