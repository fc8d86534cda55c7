package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talgya/ecosim/internal/config"
	"github.com/talgya/ecosim/internal/engine"
)

var (
	flagAction  string
	flagDetails string
	flagTurns   int
)

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Advance the current world",
	Long: `Ask the oracle for the next turn, derive the tiles and store the result.
An optional intervention is passed to the oracle for the first turn only.

Examples:
  ecosim advance
  ecosim advance --turns 4
  ecosim advance --action "drought" --details "the wetland dries out"`,
	Args: cobra.NoArgs,
	RunE: runAdvance,
}

func init() {
	advanceCmd.Flags().StringVar(&flagAction, "action", "", "Intervention to apply this turn")
	advanceCmd.Flags().StringVar(&flagDetails, "details", "", "Details of the intervention")
	advanceCmd.Flags().IntVar(&flagTurns, "turns", 1, "Number of turns to advance")
}

func runAdvance(cmd *cobra.Command, args []string) error {
	if cfg.Oracle.APIKey == "" {
		return fmt.Errorf("%s is not set; the oracle is required to advance", config.APIKeyEnv)
	}
	if flagTurns < 1 {
		return fmt.Errorf("--turns must be at least 1")
	}

	var iv *engine.Intervention
	if flagAction != "" || flagDetails != "" {
		iv = &engine.Intervention{Action: flagAction, Details: flagDetails}
		if err := iv.Validate(); err != nil {
			return err
		}
	}

	db, worldID, err := currentWorld()
	if err != nil {
		return err
	}
	defer db.Close()

	state, err := db.LoadLatest(worldID)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sim := newSimulation()
	out := cmd.OutOrStdout()

	for i := 0; i < flagTurns; i++ {
		res, err := sim.Advance(ctx, state, iv)
		if err != nil {
			if errors.Is(err, engine.ErrOracleUnavailable) || errors.Is(err, engine.ErrOracleMalformed) {
				return fmt.Errorf("turn %d not advanced, world unchanged: %w", state.Turn+1, err)
			}
			return err
		}

		next := res.NewState
		if err := db.SaveTurn(worldID, next, res.Narration, res.Events); err != nil {
			return fmt.Errorf("saving turn %d: %w", next.Turn, err)
		}
		if err := recordTurn(next); err != nil {
			slog.Warn("telemetry write failed", "turn", next.Turn, "error", err)
		}

		heading(out, "Turn %d · %s · %.1f°C", next.Turn, next.Season, next.Temperature)
		if res.Narration != "" {
			fmt.Fprintln(out, res.Narration)
		}
		fmt.Fprintln(out)
		printEvents(out, res.Events)
		printWarnings(out, res.Warnings)
		fmt.Fprintf(out, "Total population: %s\n\n", population(next.Population()))

		state = next
		iv = nil
	}
	return nil
}
