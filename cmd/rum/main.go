package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rum",
		Short: "Rum model - test, trace and isolate effectiveness",
		Long: `rum estimates how much onward disease transmission is averted by a
test/trace/isolate policy.

For each behavioral scenario it computes the probability that isolation
(triggered by symptoms, a test result, or a tracing notification) takes
effect before the contact event that would infect the tertiary case, and
reports transmission averted plus the marginal impact of contact tracing.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "configs/config.yaml", "Run configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log verbosity: info, debug, or trace (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newValidateCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
