package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openepi/rum/internal/config"
	"github.com/openepi/rum/internal/store"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List archived model runs",
		Long: `List the runs recorded in the sqlite results archive, newest first.

The archive is only written when archive.enabled is set in the config.

Examples:
  rum history --config configs/config.yaml
  rum history --config configs/config.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.LoadFromFile(configPath)
			if err != nil {
				return err
			}
			path := cfg.Archive.Path
			if path == "" {
				path = filepath.Join(cfg.Directories.OutputDir, "rum.db")
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return fmt.Errorf("no archive at %s (enable archiving and run the model first)", path)
			}

			archive, err := store.Open(path)
			if err != nil {
				return err
			}
			defer archive.Close()

			runs, err := archive.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Println("no archived runs")
				return nil
			}
			for _, r := range runs {
				fmt.Printf("%d\t%s\t%s\t%s\t%d outcomes\n",
					r.ID, r.Name, r.Infectiousness, r.StartedAt.Format("2006-01-02 15:04"), r.Outcomes)
			}
			return nil
		},
	}
}
