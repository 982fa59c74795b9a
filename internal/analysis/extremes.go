package analysis

import "sort"

// Extremes holds the rarest monsters in ascending count order and the
// most common ones in descending count order
type Extremes struct {
	Rare   []ItemTotal `json:"rare"`
	Common []ItemTotal `json:"common"`
}

// SortedByCount returns the totals in ascending count order. Ties keep
// aggregation order so reports are deterministic.
func SortedByCount(counts *AggregatedCount) []ItemTotal {
	entries := counts.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count < entries[j].Count
	})
	return entries
}

// RankExtremes returns the n rarest and n most common monsters. With fewer
// than n monsters both lists hold all of them and may overlap.
func RankExtremes(counts *AggregatedCount, n int) Extremes {
	sorted := SortedByCount(counts)
	if n > len(sorted) {
		n = len(sorted)
	}
	if n <= 0 {
		return Extremes{Rare: []ItemTotal{}, Common: []ItemTotal{}}
	}

	rare := make([]ItemTotal, n)
	copy(rare, sorted[:n])

	common := make([]ItemTotal, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		common = append(common, sorted[i])
	}

	return Extremes{Rare: rare, Common: common}
}
