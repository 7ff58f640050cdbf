package grading

import "sort"

// RankEntry is one participant in a ranking. A nil Metric ranks last.
type RankEntry struct {
	ID     string
	Metric *float64
}

// RankResult carries the assigned 1-based rank.
type RankResult struct {
	ID     string
	Metric *float64
	Rank   int
}

// Rank applies standard competition ranking ("1224"): entries are ordered by
// metric descending, equal metrics share a rank and the next distinct metric
// takes its 1-based position. Entries with equal metrics are ordered by ID
// ascending, so output is stable for identical input regardless of order.
// Metrics are compared exactly. Report averages reach Rank already rounded by
// Round2, so students whose unrounded averages differ by less than 0.005 tie.
func Rank(entries []RankEntry) []RankResult {
	sorted := make([]RankEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := compareMetric(sorted[i].Metric, sorted[j].Metric); c != 0 {
			return c > 0
		}
		return sorted[i].ID < sorted[j].ID
	})

	results := make([]RankResult, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		if i > 0 && compareMetric(e.Metric, sorted[i-1].Metric) == 0 {
			rank = results[i-1].Rank
		}
		results[i] = RankResult{ID: e.ID, Metric: e.Metric, Rank: rank}
	}
	return results
}

// RankIndex maps IDs to their rank.
func RankIndex(results []RankResult) map[string]int {
	index := make(map[string]int, len(results))
	for _, r := range results {
		index[r.ID] = r.Rank
	}
	return index
}

// compareMetric orders nil below every value.
func compareMetric(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a > *b:
		return 1
	case *a < *b:
		return -1
	default:
		return 0
	}
}
