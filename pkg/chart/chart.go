// Package chart writes graphs as JSON data or as a self-contained HTML page
// with a stacked area chart.
package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/lineage/pkg/series"
)

// Output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

const (
	chartWidth      = "100%"
	chartHeight     = "720px"
	stackName       = "lines"
	areaOpacity     = 0.8
	shortHashLength = 7
	dirPerm         = 0o755
	yAxisName       = "Lines"
)

// ErrUnknownFormat is returned for output formats other than html and json.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatHTML, FormatJSON}
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	switch format {
	case FormatHTML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Options configures HTML rendering.
type Options struct {
	Theme Theme
	// Location formats the time axis. Defaults to time.Local.
	Location *time.Location
}

// WriteFile writes graph to path in format, creating parent directories.
func WriteFile(path, format string, graph *series.Graph, opt Options) error {
	err := ValidateFormat(format)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), dirPerm)
	if err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if format == FormatJSON {
		err = WriteJSON(f, graph)
	} else {
		err = WriteHTML(f, graph, opt)
	}

	return errors.Join(err, f.Close())
}

// WriteJSON writes the graph data as compact JSON.
func WriteJSON(w io.Writer, graph *series.Graph) error {
	err := json.NewEncoder(w).Encode(graph)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	return nil
}

// WriteHTML renders the graph as a stacked area chart page.
func WriteHTML(w io.Writer, graph *series.Graph, opt Options) error {
	err := BuildLineChart(graph, opt).Render(w)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

// BuildLineChart constructs the stacked area chart of graph.
func BuildLineChart(graph *series.Graph, opt Options) *charts.Line {
	loc := opt.Location
	if loc == nil {
		loc = time.Local
	}

	cOpts := NewChartOpts(opt.Theme)
	theme := GetThemeConfig(opt.Theme)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(cOpts.Init(graph.Title, chartWidth, chartHeight)),
		charts.WithTitleOpts(cOpts.Title(graph.Title, subtitle(graph, loc))),
		charts.WithTooltipOpts(cOpts.Tooltip("axis")),
		charts.WithDataZoomOpts(cOpts.DataZoom()...),
		charts.WithXAxisOpts(cOpts.XAxis("")),
		charts.WithYAxisOpts(cOpts.YAxis(yAxisName)),
		charts.WithLegendOpts(cOpts.Legend()),
		charts.WithGridOpts(cOpts.Grid()),
	)

	line.SetXAxis(axisLabels(graph, loc))

	for i, s := range graph.Series {
		data := make([]opts.LineData, len(s.Values))
		for j, v := range s.Values {
			data[j] = opts.LineData{Value: v}
		}

		color := theme.Color(i)

		line.AddSeries(s.Name, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: color}),
			charts.WithLineChartOpts(opts.LineChart{Stack: stackName, ShowSymbol: opts.Bool(false)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(areaOpacity)}),
		)
	}

	return line
}

// axisLabels pairs each equidistant date with the commit it stands for.
func axisLabels(graph *series.Graph, loc *time.Location) []string {
	labels := make([]string, len(graph.Time))

	for i, t := range graph.Time {
		label := time.Unix(t, 0).In(loc).Format(time.DateOnly)

		if i < len(graph.Commits) {
			c := graph.Commits[i]
			label = fmt.Sprintf("%s %s %s", label, shortHash(c.Hash), c.Subject)
		}

		labels[i] = label
	}

	return labels
}

func subtitle(graph *series.Graph, loc *time.Location) string {
	if len(graph.Commits) == 0 {
		return "no commits"
	}

	first := graph.Commits[0].CommitterTime.In(loc).Format(time.DateOnly)
	last := graph.Commits[len(graph.Commits)-1].CommitterTime.In(loc).Format(time.DateOnly)

	return fmt.Sprintf("%d commits, %s to %s", len(graph.Commits), first, last)
}

func shortHash(hash string) string {
	if len(hash) <= shortHashLength {
		return hash
	}

	return hash[:shortHashLength]
}
