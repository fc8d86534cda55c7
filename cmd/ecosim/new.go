package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talgya/ecosim/internal/telemetry"
	"github.com/talgya/ecosim/internal/world"
)

var flagGrid int

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new world and make it current",
	Long: `Generate the initial ecosystem on a square grid and store it as turn 0
of a new world. The new world becomes the current one.

Examples:
  ecosim new
  ecosim new --grid 12`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

func init() {
	newCmd.Flags().IntVar(&flagGrid, "grid", 0, "Grid size (default from config)")
}

func runNew(cmd *cobra.Command, args []string) error {
	size := cfg.World.GridSize
	if flagGrid != 0 {
		size = flagGrid
	}

	state, err := world.Generate(size)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.CreateWorld(state)
	if err != nil {
		return fmt.Errorf("storing world: %w", err)
	}
	if err := db.SetCurrentWorld(id); err != nil {
		return fmt.Errorf("setting current world: %w", err)
	}
	if err := recordTurn(state); err != nil {
		slog.Warn("telemetry write failed", "turn", state.Turn, "error", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created world %s (%dx%d)\n\n", id, size, size)
	printSpecies(out, state)
	fmt.Fprintln(out)
	printBiomes(out, state)
	return nil
}

// recordTurn appends a telemetry row when telemetry.dir is set.
func recordTurn(state *world.State) error {
	rec, err := telemetry.NewRecorder(cfg.Telemetry.Dir)
	if err != nil {
		return err
	}
	defer rec.Close()
	if err := rec.Write(telemetry.Record(state)); err != nil {
		return err
	}
	if rec.Path() != "" {
		slog.Debug("telemetry recorded", "turn", state.Turn, "path", rec.Path())
	}
	return nil
}
