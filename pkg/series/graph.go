package series

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/lineage/pkg/aggregate"
	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
	"github.com/Sumatoshi-tech/lineage/pkg/safeconv"
)

// Graph titles.
const (
	TitleAuthors = "Lines per author"
	TitleYears   = "Lines per year"
)

// MiscAuthors names the series that collects the smallest authors.
const MiscAuthors = "Misc authors"

// DefaultMaxSeries is how many author series a graph keeps.
const DefaultMaxSeries = 50

// Graph is a stacked time series over a commit history, oldest first.
type Graph struct {
	Title   string                `json:"title"`
	Commits []*attribution.Commit `json:"commits"`
	Time    []int64               `json:"time"`
	Series  []*Series             `json:"series"`
}

// NewGraph takes newest-first commits, times and series values and stores
// them oldest first.
func NewGraph(title string, commits []*attribution.Commit, times []int64, series []*Series) *Graph {
	commits = slices.Clone(commits)
	times = slices.Clone(times)

	slices.Reverse(commits)
	slices.Reverse(times)

	for _, s := range series {
		s.Reverse()
	}

	return &Graph{Title: title, Commits: commits, Time: times, Series: series}
}

// MakeEquidistant spreads the graph's times evenly within each month.
func (g *Graph) MakeEquidistant(loc *time.Location) {
	g.Time = MakeEquidistant(g.Time, loc)
}

// AuthorGraph builds the per-author graph. Authors beyond the maxSeries-1
// largest are summed into a single MiscAuthors series.
func AuthorGraph(snapshots []aggregate.Snapshot[string], maxSeries int, loc *time.Location) *Graph {
	if maxSeries <= 0 {
		maxSeries = DefaultMaxSeries
	}

	authors := make(map[string]bool)

	for _, snap := range snapshots {
		for author := range snap.Counts {
			authors[author] = true
		}
	}

	series := make([]*Series, 0, len(authors))

	for author := range authors {
		s := New(author)

		for _, snap := range snapshots {
			s.Push(safeconv.MustUint64ToInt64(snap.Counts[author]))
		}

		series = append(series, s)
	}

	slices.SortFunc(series, func(a, b *Series) int {
		return cmp.Or(cmp.Compare(b.Total(), a.Total()), cmp.Compare(a.Name, b.Name))
	})

	if len(series) > maxSeries {
		series = collapse(series, maxSeries-1)
	}

	return finish(TitleAuthors, snapshots, series, loc)
}

// collapse keeps the first keep series and sums the rest into MiscAuthors.
func collapse(series []*Series, keep int) []*Series {
	misc := &Series{Name: MiscAuthors, Values: make([]int64, len(series[0].Values))}

	for _, s := range series[keep:] {
		// Every series has one value per snapshot.
		_ = misc.Add(s)
	}

	return append(series[:keep:keep], misc)
}

// YearGraph builds the per-year graph with one series for every year from
// the earliest to the latest seen, ascending.
func YearGraph(snapshots []aggregate.Snapshot[int], loc *time.Location) *Graph {
	var (
		minYear, maxYear int
		found            bool
	)

	for _, snap := range snapshots {
		for year := range snap.Counts {
			if !found {
				minYear, maxYear, found = year, year, true

				continue
			}

			minYear = min(minYear, year)
			maxYear = max(maxYear, year)
		}
	}

	var series []*Series

	if found {
		series = make([]*Series, 0, maxYear-minYear+1)

		for year := minYear; year <= maxYear; year++ {
			s := New(strconv.Itoa(year))

			for _, snap := range snapshots {
				s.Push(safeconv.MustUint64ToInt64(snap.Counts[year]))
			}

			series = append(series, s)
		}
	}

	return finish(TitleYears, snapshots, series, loc)
}

func finish[K comparable](title string, snapshots []aggregate.Snapshot[K], series []*Series, loc *time.Location) *Graph {
	commits := make([]*attribution.Commit, len(snapshots))
	times := make([]int64, len(snapshots))

	for i, snap := range snapshots {
		commits[i] = snap.Commit
		times[i] = snap.Commit.CommitterTime.Unix()
	}

	graph := NewGraph(title, commits, times, series)
	graph.MakeEquidistant(loc)

	return graph
}
