package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var worldsCmd = &cobra.Command{
	Use:   "worlds",
	Short: "List stored worlds",
	Args:  cobra.NoArgs,
	RunE:  runWorlds,
}

var useCmd = &cobra.Command{
	Use:   "use <world-id>",
	Short: "Make a stored world current",
	Args:  cobra.ExactArgs(1),
	RunE:  runUse,
}

func runWorlds(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	worlds, err := db.Worlds()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(worlds) == 0 {
		fmt.Fprintln(out, "No worlds yet. Run 'ecosim new' to create one.")
		return nil
	}

	current, _ := db.CurrentWorld()
	for _, w := range worlds {
		marker := " "
		if w.ID == current {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s  %2dx%-2d  %4d turns  %s\n", marker, w.ID, w.GridSize, w.GridSize, w.Turns-1, ago(w.CreatedAt))
	}
	return nil
}

func runUse(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	// Fails with ErrNoWorld for unknown IDs.
	state, err := db.LoadLatest(args[0])
	if err != nil {
		return err
	}
	if err := db.SetCurrentWorld(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current world is %s (turn %d)\n", args[0], state.Turn)
	return nil
}
