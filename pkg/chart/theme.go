package chart

// Theme represents a color theme for charts.
type Theme string

const (
	// ThemeLight is the light color theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark color theme.
	ThemeDark Theme = "dark"
)

// ThemeConfig holds the chart colors of a theme.
type ThemeConfig struct {
	Background     string
	ChartGrid      string
	ChartAxis      string
	ChartText      string
	ChartTextMuted string

	// Palette colors series in order, wrapping around.
	Palette []string
}

// GetThemeConfig returns the configuration for a given theme. Unknown
// themes fall back to light.
func GetThemeConfig(theme Theme) ThemeConfig {
	if theme == ThemeDark {
		return darkTheme
	}

	return lightTheme
}

// Color returns the palette color of the i-th series.
func (tc ThemeConfig) Color(i int) string {
	return tc.Palette[i%len(tc.Palette)]
}

var lightTheme = ThemeConfig{
	Background:     "#fafaf9", // stone-50.
	ChartGrid:      "#e7e5e4", // stone-200.
	ChartAxis:      "#a8a29e", // stone-400.
	ChartText:      "#44403c", // stone-700.
	ChartTextMuted: "#78716c", // stone-500.
	Palette: []string{
		"#a16207", // amber-700.
		"#0369a1", // sky-700.
		"#4d7c0f", // lime-700.
		"#7c3aed", // violet-600.
		"#be185d", // pink-700.
		"#0891b2", // cyan-600.
		"#c2410c", // orange-700.
		"#4338ca", // indigo-700.
		"#15803d", // green-700.
		"#b91c1c", // red-700.
	},
}

var darkTheme = ThemeConfig{
	Background:     "#0c0a09", // stone-950.
	ChartGrid:      "#44403c", // stone-700.
	ChartAxis:      "#57534e", // stone-600.
	ChartText:      "#d6d3d1", // stone-300.
	ChartTextMuted: "#a8a29e", // stone-400.
	Palette: []string{
		"#fbbf24", // amber-400.
		"#38bdf8", // sky-400.
		"#a3e635", // lime-400.
		"#a78bfa", // violet-400.
		"#f472b6", // pink-400.
		"#22d3ee", // cyan-400.
		"#fb923c", // orange-400.
		"#818cf8", // indigo-400.
		"#4ade80", // green-400.
		"#f87171", // red-400.
	},
}
