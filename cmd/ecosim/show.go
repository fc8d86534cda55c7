package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/talgya/ecosim/internal/telemetry"
	"github.com/talgya/ecosim/internal/world"
)

var (
	flagShowTurn   int
	flagShowEvents int
	flagShowMap    bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current world",
	Long: `Print the species roster, vegetation per biome and the most recent
events of the current world.

Examples:
  ecosim show
  ecosim show --turn 3 --events 20
  ecosim show --map`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().IntVar(&flagShowTurn, "turn", -1, "Turn to show (default latest)")
	showCmd.Flags().IntVar(&flagShowEvents, "events", 10, "Number of recent events to list")
	showCmd.Flags().BoolVar(&flagShowMap, "map", false, "Draw the tile map")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, worldID, err := currentWorld()
	if err != nil {
		return err
	}
	defer db.Close()

	var state *world.State
	if flagShowTurn >= 0 {
		state, err = db.LoadTurn(worldID, flagShowTurn)
	} else {
		state, err = db.LoadLatest(worldID)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "World %s · turn %d · %s · %.1f°C\n\n", worldID, state.Turn, state.Season, state.Temperature)
	printSpecies(out, state)
	fmt.Fprintln(out)
	printBiomes(out, state)
	if flagShowMap {
		fmt.Fprintln(out)
		printMap(out, state)
	}

	if problems := world.FoodWebErrors(state.Species); len(problems) > 0 {
		fmt.Fprintln(out)
		printWarnings(out, problems)
	}

	if flagShowEvents > 0 {
		events, err := db.RecentEvents(worldID, flagShowEvents)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		heading(out, "Recent events")
		if len(events) == 0 {
			for _, line := range state.EventsLog {
				fmt.Fprintln(out, "  "+line)
			}
		}
		for _, e := range events {
			fmt.Fprintf(out, "  %s %s %s\n", dimStyle.Render(fmt.Sprintf("t%-3d", e.Turn)), severityLabel(world.Severity(e.Severity)), e.Description)
		}
	}
	return nil
}

func printBiomes(w io.Writer, s *world.State) {
	sum := telemetry.Summarize(s)
	heading(w, "Vegetation")
	fmt.Fprintf(w, "  %-10s  %5s  %6s  %6s  %7s\n", "Biome", "Tiles", "Mean", "StdDev", "Min-Max")
	for _, b := range sum.Biomes {
		fmt.Fprintf(w, "  %-10s  %5d  %6.1f  %6.1f  %3d-%-3d\n", b.Biome, b.Tiles, b.VegMean, b.VegStd, b.VegMin, b.VegMax)
	}
	fmt.Fprintf(w, "  %-10s  %5d  %6.1f  %6.1f\n", "All", len(s.Tiles), sum.VegMean, sum.VegStd)
}
