package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/ecosim/internal/world"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the current state as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Import a JSON state as a new current world",
	Long: `Read a state previously written by 'ecosim export' (or by hand), check
it against the grid and roster rules, and store it as a new world.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func runExport(cmd *cobra.Command, args []string) error {
	db, worldID, err := currentWorld()
	if err != nil {
		return err
	}
	defer db.Close()

	state, err := db.LoadLatest(worldID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported turn %d of %s to %s\n", state.Turn, worldID, args[0])
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	state, err := readState(args[0])
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
		return err
	}
	if err := db.SetCurrentWorld(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s as world %s (turn %d)\n", args[0], id, state.Turn)
	return nil
}

// readState decodes and validates a JSON state file.
func readState(path string) (*world.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var state world.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", world.ErrInvalidState, err)
	}
	if err := world.Validate(&state); err != nil {
		return nil, err
	}
	return &state, nil
}
