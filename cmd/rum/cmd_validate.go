package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openepi/rum/internal/config"
	"github.com/openepi/rum/internal/scenario"
	"github.com/openepi/rum/internal/tableio"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config and its input tables without running the model",
		Long: `Validate the config file, every referenced scenario table, and every
referenced contact distribution table.

This command checks for:
  - Unknown infectiousness options and missing file settings
  - Scenario rates outside [0, 1], missing columns, and unrecognized
    Distribution values
  - Malformed or empty distribution tables

Examples:
  rum validate --config configs/config.yaml
  rum validate --config configs/config.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.LoadFromFile(configPath)
			if err != nil {
				return err
			}

			var problems []string
			if err := cfg.Validate(); err != nil {
				problems = append(problems, err.Error())
			} else {
				problems = append(problems, validateInputs(cfg)...)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"config":   configPath,
					"valid":    len(problems) == 0,
					"problems": problems,
				})
			}
			if len(problems) == 0 {
				fmt.Printf("%s: ok (%d model runs)\n", configPath, len(cfg.ModelRuns))
				return nil
			}
			for _, p := range problems {
				fmt.Fprintln(os.Stderr, p)
			}
			return fmt.Errorf("%d problems found", len(problems))
		},
	}
}

// validateInputs loads every table the config references, collecting
// problems instead of stopping at the first.
func validateInputs(cfg *config.Config) []string {
	var problems []string
	dirs := cfg.Directories
	for _, name := range cfg.RunNames() {
		run := cfg.ModelRuns[name]

		if path, err := resolve(dirs.ScenariosDir, run.ScenariosFile); err != nil {
			problems = append(problems, fmt.Sprintf("model run %q: %v", name, err))
		} else if _, err := scenario.LoadCSV(path); err != nil {
			problems = append(problems, fmt.Sprintf("model run %q: %v", name, err))
		}
		for _, file := range []string{run.TotalTimeToContactFile, run.TargetTotalTimeToContactFile} {
			if path, err := resolve(dirs.InputDir, file); err != nil {
				problems = append(problems, fmt.Sprintf("model run %q: %v", name, err))
			} else if _, err := tableio.ReadEndToEnd(path); err != nil {
				problems = append(problems, fmt.Sprintf("model run %q: %v", name, err))
			}
		}
		if _, err := resolve(dirs.OutputDir, run.OutputFile); err != nil {
			problems = append(problems, fmt.Sprintf("model run %q: %v", name, err))
		}
	}
	return problems
}
