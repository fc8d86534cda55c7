// ecosim runs a turn-based ecosystem simulation backed by a reasoning oracle.
//
// Usage:
//
//	ecosim new                 - Generate a world and make it current
//	ecosim advance             - Advance the current world one turn
//	ecosim chat <message>      - Ask about the current world
//	ecosim show                - Species, biomes and recent events
//	ecosim history             - Per-turn summary (optionally as CSV)
//	ecosim worlds              - List stored worlds
//	ecosim use <id>            - Switch the current world
//	ecosim export <file>       - Write the current state as JSON
//	ecosim load <file>         - Import a JSON state as a new world
//	ecosim config <file>       - Write the effective configuration as YAML
//
// Global flags:
//
//	--config <path>     - YAML file merged over the built-in defaults
//	--db <path>         - Database path (overrides storage.path)
//	--log-level <level> - debug, info, warn or error
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/ecosim/internal/config"
	"github.com/talgya/ecosim/internal/engine"
	"github.com/talgya/ecosim/internal/llm"
	"github.com/talgya/ecosim/internal/persistence"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string

	cfg *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ecosim",
	Short: "Ecosim - a turn-based ecosystem simulation",
	Long: `Ecosim simulates a small grid world of biomes and species. Each turn an
LLM oracle proposes the new populations and narrates what happened; the
vegetation and species placement on every tile are derived locally.

The oracle needs ANTHROPIC_API_KEY in the environment.

Examples:
  ecosim new --grid 10
  ecosim advance --action "introduce wolves" --details "a pack of 10"
  ecosim chat "why are the rabbits declining?"
  ecosim history --csv turns.csv`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config (merged over defaults)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to world database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(worldsCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(configCmd)
}

// setup loads configuration and installs the default logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		loaded.Storage.Path = flagDBPath
	}
	if flagLogLevel != "" {
		loaded.Log.Level = flagLogLevel
	}
	cfg = loaded

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(os.Stderr, level))

	slog.Debug("config loaded",
		"config", flagConfig,
		"db", cfg.Storage.Path,
		"model", cfg.Oracle.Model,
		"oracle_enabled", cfg.Oracle.APIKey != "",
	)
	return nil
}

func openDB() (*persistence.DB, error) {
	db, err := persistence.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Storage.Path, err)
	}
	return db, nil
}

// newSimulation wires the configured oracle into a Simulation.
func newSimulation() *engine.Simulation {
	client := llm.NewClient(llm.Config{
		APIKey:       cfg.Oracle.APIKey,
		BaseURL:      cfg.Oracle.BaseURL,
		Model:        cfg.Oracle.Model,
		Timeout:      cfg.Oracle.Timeout,
		MaxPerMinute: cfg.Oracle.MaxPerMinute,
	})

	sim := engine.NewSimulation(llm.NewOracle(client, cfg.Oracle.MaxTokens, cfg.Oracle.ChatMaxTokens))
	sim.Retry = engine.RetryPolicy{Attempts: cfg.Oracle.Attempts, Delay: cfg.Oracle.RetryDelay}
	sim.LogLimit = cfg.Events.LogLimit
	return sim
}

// currentWorld opens the database and resolves the current world.
func currentWorld() (*persistence.DB, string, error) {
	db, err := openDB()
	if err != nil {
		return nil, "", err
	}
	id, err := db.CurrentWorld()
	if err != nil {
		db.Close()
		return nil, "", err
	}
	return db, id, nil
}
