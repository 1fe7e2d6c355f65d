package chart_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
	"github.com/Sumatoshi-tech/lineage/pkg/chart"
	"github.com/Sumatoshi-tech/lineage/pkg/series"
)

const testHash = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func testGraph() *series.Graph {
	when := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	return &series.Graph{
		Title:   series.TitleAuthors,
		Commits: []*attribution.Commit{{Hash: testHash, CommitterTime: when, Subject: "Initial import"}},
		Time:    []int64{when.Unix()},
		Series:  []*series.Series{{Name: "alice@x", Values: []int64{10}}},
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, chart.WriteJSON(&buf, testGraph()))

	var decoded struct {
		Title   string `json:"title"`
		Commits []struct {
			Hash    string `json:"hash"`
			Subject string `json:"subject"`
		} `json:"commits"`
		Time   []int64 `json:"time"`
		Series []struct {
			Name   string  `json:"name"`
			Values []int64 `json:"values"`
		} `json:"series"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, series.TitleAuthors, decoded.Title)
	require.Len(t, decoded.Commits, 1)
	assert.Equal(t, "Initial import", decoded.Commits[0].Subject)
	assert.Equal(t, []int64{10}, decoded.Series[0].Values)
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, chart.WriteHTML(&buf, testGraph(), chart.Options{Theme: chart.ThemeDark, Location: time.UTC}))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, series.TitleAuthors)
	assert.Contains(t, html, "alice@x")
	assert.Contains(t, html, "2024-05-01 aaaaaaa Initial import")
}

func TestWriteFile_CreatesDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "out.json")

	require.NoError(t, chart.WriteFile(path, chart.FormatJSON, testGraph(), chart.Options{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":"Lines per author"`)
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	for _, format := range chart.Formats() {
		require.NoError(t, chart.ValidateFormat(format))
	}

	require.ErrorIs(t, chart.ValidateFormat("svg"), chart.ErrUnknownFormat)
	require.ErrorIs(t, chart.WriteFile(filepath.Join(t.TempDir(), "x"), "svg", testGraph(), chart.Options{}),
		chart.ErrUnknownFormat)
}

func TestThemeColorWraps(t *testing.T) {
	t.Parallel()

	theme := chart.GetThemeConfig(chart.ThemeLight)
	assert.Equal(t, theme.Color(0), theme.Color(len(theme.Palette)))
	assert.Equal(t, theme, chart.GetThemeConfig("unknown"))
}
