package series

import (
	"slices"
	"time"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
)

type monthKey struct {
	year  int
	month time.Month
}

func keyOf(t time.Time, loc *time.Location) monthKey {
	local := t.In(loc)

	return monthKey{year: local.Year(), month: local.Month()}
}

// OrderForEquidistance regroups newest-first commits so that commits of the
// same committer month are adjacent, keeping their relative order. Merges
// can otherwise interleave months and split a bucket into several runs.
func OrderForEquidistance(commits []*attribution.Commit, loc *time.Location) {
	slices.Reverse(commits)
	slices.SortStableFunc(commits, func(a, b *attribution.Commit) int {
		ka, kb := keyOf(a.CommitterTime, loc), keyOf(b.CommitterTime, loc)
		if ka.year != kb.year {
			return ka.year - kb.year
		}

		return int(ka.month) - int(kb.month)
	})
	slices.Reverse(commits)
}

// MakeEquidistant replaces unix times with evenly spaced times inside each
// calendar month of loc. The k-th of N samples in a month spanning D
// seconds lands at start + k*(D/N) + (D/N)/2, so samples stay in order and
// inside the month. Month lengths follow loc's daylight saving rules.
func MakeEquidistant(times []int64, loc *time.Location) []int64 {
	sizes := make(map[monthKey]int64)
	keys := make([]monthKey, len(times))

	for i, t := range times {
		keys[i] = keyOf(time.Unix(t, 0), loc)
		sizes[keys[i]]++
	}

	seen := make(map[monthKey]int64, len(sizes))
	out := make([]int64, len(times))

	for i, key := range keys {
		start := time.Date(key.year, key.month, 1, 0, 0, 0, 0, loc).Unix()
		end := time.Date(key.year, key.month+1, 1, 0, 0, 0, 0, loc).Unix()
		slot := (end - start) / sizes[key]

		k := seen[key]
		seen[key]++

		out[i] = start + k*slot + slot/2
	}

	return out
}
