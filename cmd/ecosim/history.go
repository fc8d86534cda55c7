package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/ecosim/internal/telemetry"
)

var flagHistoryCSV string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the turn history of the current world",
	Long: `List every stored turn of the current world. With --csv, write one
telemetry row per turn instead ("-" for stdout).

Examples:
  ecosim history
  ecosim history --csv turns.csv`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryCSV, "csv", "", "Write per-turn telemetry as CSV to this file")
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, worldID, err := currentWorld()
	if err != nil {
		return err
	}
	defer db.Close()

	turns, err := db.Turns(worldID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagHistoryCSV == "" {
		fmt.Fprintf(out, "  %-4s  %-7s  %6s  %12s  %7s  %s\n", "Turn", "Season", "Temp", "Population", "Species", "Recorded")
		for _, t := range turns {
			fmt.Fprintf(out, "  %-4d  %-7s  %6.1f  %12s  %7d  %s\n",
				t.Turn, t.Season, t.Temperature, population(t.Population), t.Species, ago(t.CreatedAt))
		}
		return nil
	}

	records := make([]telemetry.TurnRecord, 0, len(turns))
	for _, t := range turns {
		state, err := db.LoadTurn(worldID, t.Turn)
		if err != nil {
			return err
		}
		records = append(records, telemetry.Record(state))
	}

	if flagHistoryCSV == "-" {
		return telemetry.WriteCSV(out, records)
	}

	f, err := os.Create(flagHistoryCSV)
	if err != nil {
		return fmt.Errorf("creating %s: %w", flagHistoryCSV, err)
	}
	defer f.Close()
	if err := telemetry.WriteCSV(f, records); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d turns to %s\n", len(records), flagHistoryCSV)
	return nil
}
