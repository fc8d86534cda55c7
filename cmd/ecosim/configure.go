package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config <file>",
	Short: "Write the effective configuration as YAML",
	Long: `Write the configuration in effect (built-in defaults, the --config file
and any flag overrides) to a YAML file. The API key is never written.

Examples:
  ecosim config ecosim.yaml
  ecosim --config base.yaml --db run.db config run.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := cfg.WriteYAML(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote configuration to %s\n", args[0])
	return nil
}
