package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the oracle about the current world",
	Long: `Ask a free-text question about the current world without advancing it.

Examples:
  ecosim chat "what happens if the wolves die out?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	db, worldID, err := currentWorld()
	if err != nil {
		return err
	}
	defer db.Close()

	state, err := db.LoadLatest(worldID)
	if err != nil {
		return err
	}

	if cfg.Oracle.APIKey == "" {
		slog.Warn("oracle not configured, answers will be the fallback reply")
	}

	reply := newSimulation().Query(cmd.Context(), state, strings.Join(args, " "))
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
