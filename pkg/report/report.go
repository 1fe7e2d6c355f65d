// Package report prints textual breakdowns and run summaries.
package report

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/lineage/pkg/gather"
)

// Line widths of the dot-leader breakdowns.
const (
	AuthorsWidth = 78
	YearsWidth   = 18
)

const (
	leader    = "."
	yearWidth = 4
)

// Authors prints one dot-leader line per author, smallest count first.
func Authors(w io.Writer, counts map[string]uint64) error {
	type row struct {
		author string
		lines  uint64
	}

	rows := make([]row, 0, len(counts))
	for author, n := range counts {
		rows = append(rows, row{author: author, lines: n})
	}

	slices.SortFunc(rows, func(a, b row) int {
		return cmp.Or(cmp.Compare(a.lines, b.lines), cmp.Compare(a.author, b.author))
	})

	for _, r := range rows {
		_, err := fmt.Fprintln(w, DotLeader(r.author, strconv.FormatUint(r.lines, 10), AuthorsWidth))
		if err != nil {
			return err
		}
	}

	return nil
}

// Years prints one dot-leader line per year, oldest first.
func Years(w io.Writer, counts map[int]uint64) error {
	for _, year := range slices.Sorted(maps.Keys(counts)) {
		label := fmt.Sprintf("%*d", yearWidth, year)

		_, err := fmt.Fprintln(w, DotLeader(label, strconv.FormatUint(counts[year], 10), YearsWidth))
		if err != nil {
			return err
		}
	}

	return nil
}

// DotLeader joins label and value with dots so the line spans width display
// cells, using at least one dot.
func DotLeader(label, value string, width int) string {
	dots := max(width-text.RuneWidthWithoutEscSequences(label)-text.RuneWidthWithoutEscSequences(value), 1)

	return label + " " + strings.Repeat(leader, dots) + " " + value
}

// GatherSummary renders the statistics of a gather run as a table.
func GatherSummary(w io.Writer, stats gather.Stats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("Gather summary")
	tw.AppendHeader(table.Row{"Phase", "Outcome", "Count"})

	count := func(n int64) string { return humanize.Comma(n) }

	tw.AppendRows([]table.Row{
		{"commits", "read", count(int64(stats.Commits))},
		{"trees", "built", count(int64(stats.TreesBuilt))},
		{"trees", "already stored", count(int64(stats.TreesExisting))},
		{"files", "inherited", count(int64(stats.Inherited))},
		{"files", "fresh", count(int64(stats.Fresh))},
		{"records", "computed", count(stats.Records.Computed)},
		{"records", "deduplicated", count(stats.Records.Deduplicated)},
		{"records", "already stored", count(stats.Records.Existing)},
		{"records", "ignored", count(stats.Records.Ignored)},
		{"records", "binary", count(stats.Records.Binary)},
	})
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"total", "duration", stats.Duration.Round(time.Millisecond).String()})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	tw.Render()
}
