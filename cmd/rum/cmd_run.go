package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openepi/rum/internal/config"
	"github.com/openepi/rum/internal/epi"
	"github.com/openepi/rum/internal/logging"
	"github.com/openepi/rum/internal/pathutil"
	"github.com/openepi/rum/internal/runner"
	"github.com/openepi/rum/internal/scenario"
	"github.com/openepi/rum/internal/store"
	"github.com/openepi/rum/internal/tableio"
)

// resolve joins a configured file name onto its directory and rejects names
// that would escape it.
func resolve(dir, file string) (string, error) {
	path := filepath.Join(dir, file)
	if err := pathutil.ValidatePath(path, []string{dir}); err != nil {
		return "", err
	}
	return path, nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the configured model runs",
		Long: `Execute every model run named in the config file.

Each run loads its scenario table and contact distribution tables, derives
the epidemiological delay distributions for the selected infectiousness
option, evaluates every scenario row, and writes one output CSV row per
(scenario, distribution source) pair.

Examples:
  rum run --config configs/config.yaml
  rum run --config configs/config.yaml --fail-fast
  rum run --config configs/config.yaml --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			logLevel, _ := cmd.Flags().GetString("log-level")
			failFast, _ := cmd.Flags().GetBool("fail-fast")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.LoadFromFile(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config %s: %w", configPath, err)
			}
			if logLevel == "" {
				logLevel = cfg.Logging.Level
			}

			return executeRuns(cmd.Context(), cfg, logLevel, failFast, jsonOut)
		},
	}
	cmd.Flags().Bool("fail-fast", false, "Abort a run on the first failing scenario row instead of skipping it")
	return cmd
}

// runSummary is the JSON report for one executed model run.
type runSummary struct {
	Run        string   `json:"run"`
	Option     string   `json:"infectiousness_option"`
	OutputFile string   `json:"output_file"`
	Scenarios  int      `json:"scenarios"`
	Skipped    []string `json:"skipped,omitempty"`
}

func executeRuns(ctx context.Context, cfg *config.Config, logLevel string, failFast, jsonOut bool) error {
	log := logging.NewLogger(logLevel, os.Stderr)

	dirs := cfg.Directories
	for _, dir := range []string{dirs.InputDir, dirs.ScenariosDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}
	if err := os.MkdirAll(dirs.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	trace := logging.NewTraceLogger(dirs.OutputDir, logLevel)
	defer trace.Close()

	var archive *store.ResultStore
	if cfg.Archive.Enabled {
		path := cfg.Archive.Path
		if path == "" {
			path = filepath.Join(dirs.OutputDir, "rum.db")
		}
		a, err := store.Open(path)
		if err != nil {
			return err
		}
		defer a.Close()
		archive = a
	}

	sub, err := cfg.BuildSubDelays()
	if err != nil {
		return err
	}

	var summaries []runSummary
	for _, name := range cfg.RunNames() {
		run := cfg.ModelRuns[name]
		log.Info("running model", "run", name, "infectiousness_option", run.InfectiousnessOption)

		summary, err := executeRun(ctx, name, run, dirs, sub, log, trace, archive, failFast)
		if err != nil {
			return fmt.Errorf("model run %q: %w", name, err)
		}
		summaries = append(summaries, summary)
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(summaries)
	}
	for _, s := range summaries {
		fmt.Printf("%s: %d scenarios -> %s", s.Run, s.Scenarios, s.OutputFile)
		if len(s.Skipped) > 0 {
			fmt.Printf(" (%d skipped)", len(s.Skipped))
		}
		fmt.Println()
	}
	return nil
}

func executeRun(
	ctx context.Context,
	name string,
	run config.ModelRun,
	dirs config.DirectorySettings,
	sub epi.SubDelays,
	log *slog.Logger,
	trace *logging.TraceLogger,
	archive *store.ResultStore,
	failFast bool,
) (runSummary, error) {
	option, err := epi.ByName(run.InfectiousnessOption)
	if err != nil {
		return runSummary{}, err
	}

	scenariosPath, err := resolve(dirs.ScenariosDir, run.ScenariosFile)
	if err != nil {
		return runSummary{}, err
	}
	scenarios, err := scenario.LoadCSV(scenariosPath)
	if err != nil {
		return runSummary{}, err
	}

	actualPath, err := resolve(dirs.InputDir, run.TotalTimeToContactFile)
	if err != nil {
		return runSummary{}, err
	}
	actual, err := tableio.ReadEndToEnd(actualPath)
	if err != nil {
		return runSummary{}, err
	}
	targetPath, err := resolve(dirs.InputDir, run.TargetTotalTimeToContactFile)
	if err != nil {
		return runSummary{}, err
	}
	target, err := tableio.ReadEndToEnd(targetPath)
	if err != nil {
		return runSummary{}, err
	}

	bound := epi.DefaultBound
	if actual.Max() > bound {
		bound = actual.Max()
	}
	if target.Max() > bound {
		bound = target.Max()
	}
	times, err := epi.DeriveTimeDistributions(option, bound)
	if err != nil {
		return runSummary{}, err
	}

	r := &runner.Runner{Times: times, Sub: sub, Log: log, Trace: trace, FailFast: failFast}
	rows, failures, err := r.Run(scenarios, runner.Tables{Actual: actual, Target: target})
	if err != nil {
		return runSummary{}, err
	}

	outPath, err := resolve(dirs.OutputDir, run.OutputFile)
	if err != nil {
		return runSummary{}, err
	}
	if err := tableio.WriteOutcomes(outPath, rows); err != nil {
		return runSummary{}, err
	}

	if archive != nil {
		if _, err := archive.RecordRun(ctx, name, option.Name(), rows); err != nil {
			return runSummary{}, err
		}
	}

	summary := runSummary{
		Run:        name,
		Option:     option.Name(),
		OutputFile: outPath,
		Scenarios:  len(rows),
	}
	for _, f := range failures {
		summary.Skipped = append(summary.Skipped, f.Error())
	}
	return summary, nil
}
