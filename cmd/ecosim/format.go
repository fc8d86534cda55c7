package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/talgya/ecosim/internal/world"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	highStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func heading(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf(format, args...)))
}

func severityLabel(s world.Severity) string {
	label := fmt.Sprintf("[%s]", s)
	switch s {
	case world.SeverityHigh:
		return highStyle.Render(label)
	case world.SeverityMedium:
		return warnStyle.Render(label)
	}
	return dimStyle.Render(label)
}

// population renders a count with thousands separators.
func population(n int) string {
	return humanize.Comma(int64(n))
}

// ago renders a stored RFC 3339 timestamp relative to now.
func ago(stamp string) string {
	t, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return stamp
	}
	return humanize.Time(t)
}

func printSpecies(w io.Writer, s *world.State) {
	heading(w, "Species")
	fmt.Fprintf(w, "  %-12s  %-10s  %12s\n", "Name", "Diet", "Population")
	fmt.Fprintf(w, "  %-12s  %-10s  %12s\n", "----", "----", "----------")
	for _, row := range world.SpeciesSummaries(s) {
		line := fmt.Sprintf("  %-12s  %-10s  %12s", row.Name, row.Diet, population(row.Population))
		if row.Population == 0 {
			line = dimStyle.Render(line + "  extinct")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "  %-12s  %-10s  %12s\n", "Total", "", population(s.Population()))
}

func printEvents(w io.Writer, events []world.Event) {
	if len(events) == 0 {
		return
	}
	heading(w, "Events")
	for _, e := range events {
		fmt.Fprintf(w, "  %s %s", severityLabel(e.Severity), e.Description)
		if len(e.AffectedSpecies) > 0 {
			fmt.Fprint(w, dimStyle.Render(" ("+strings.Join(e.AffectedSpecies, ", ")+")"))
		}
		fmt.Fprintln(w)
	}
}

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	heading(w, "Warnings")
	for _, msg := range warnings {
		fmt.Fprintln(w, "  "+warnStyle.Render("! "+msg))
	}
}

var biomeGlyphs = map[world.Biome]string{
	world.BiomeGrassland: "g",
	world.BiomeForest:    "F",
	world.BiomeDesert:    "d",
	world.BiomeTundra:    "t",
	world.BiomeWetland:   "w",
	world.BiomeMountain:  "M",
}

// printMap draws one glyph per tile, y rows top to bottom. Tiles below 25
// vegetation are dimmed.
func printMap(w io.Writer, s *world.State) {
	grid := world.GridOf(s)
	heading(w, "Map")
	for y := 0; y < grid.Size; y++ {
		var row strings.Builder
		row.WriteString("  ")
		for x := 0; x < grid.Size; x++ {
			t := grid.Get(world.Coord{X: x, Y: y})
			if t == nil {
				row.WriteString("? ")
				continue
			}
			glyph := biomeGlyphs[t.Biome]
			if t.Vegetation < 25 {
				glyph = dimStyle.Render(glyph)
			}
			row.WriteString(glyph + " ")
		}
		fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
	}
	fmt.Fprintln(w, dimStyle.Render("  g grassland  F forest  d desert  t tundra  w wetland  M mountain"))
}
