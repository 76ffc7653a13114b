// Package config provides unified configuration loading for rum.
// Run configs are YAML; since JSON is a YAML subset, the original JSON
// config files load unchanged.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/openepi/rum/internal/dist"
	"github.com/openepi/rum/internal/epi"
)

// Config contains all settings for an invocation: where the input tables
// live and the set of model runs to execute.
type Config struct {
	// Directories states where input files are read and outputs written.
	Directories DirectorySettings `yaml:"directory_settings" json:"directory_settings"`

	// ModelRuns names the runs to execute. Runs execute in name order so
	// repeated invocations are deterministic.
	ModelRuns map[string]ModelRun `yaml:"model_runs" json:"model_runs"`

	// Logging configures log verbosity.
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Archive configures the sqlite results archive.
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// SubDelays overrides the operational sub-delay tables. Omitted
	// components keep their defaults.
	SubDelays SubDelayConfig `yaml:"sub_delays" json:"sub_delays"`
}

// DirectorySettings states where files are stored or should be written.
type DirectorySettings struct {
	// InputDir holds the end-to-end contact distribution tables.
	InputDir string `yaml:"input_dir" json:"input_dir"`

	// ScenariosDir holds the scenario tables.
	ScenariosDir string `yaml:"scenarios_dir" json:"scenarios_dir"`

	// OutputDir receives the output tables. Created if absent.
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// ModelRun is one named run: an infectiousness variant plus the input and
// output files for it.
type ModelRun struct {
	// InfectiousnessOption selects the symptom-to-onward variant:
	// "he" or "ashcroft".
	InfectiousnessOption string `yaml:"infectiousness_option" json:"infectiousness_option"`

	// TotalTimeToContactFile is the observed contact distribution table,
	// relative to InputDir.
	TotalTimeToContactFile string `yaml:"total_time_to_contact_file" json:"total_time_to_contact_file"`

	// TargetTotalTimeToContactFile is the target contact distribution
	// table, relative to InputDir.
	TargetTotalTimeToContactFile string `yaml:"target_total_time_to_contact_file" json:"target_total_time_to_contact_file"`

	// ScenariosFile is the scenario table, relative to ScenariosDir.
	ScenariosFile string `yaml:"scenarios_file" json:"scenarios_file"`

	// OutputFile is the output table, relative to OutputDir.
	OutputFile string `yaml:"output_file" json:"output_file"`
}

// LoggingConfig configures rum's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables evaluation tracing to <output_dir>/trace.jsonl.
	Level string `yaml:"level" json:"level"`
}

// ArchiveConfig configures the sqlite results archive.
type ArchiveConfig struct {
	// Enabled turns archiving on. Off by default.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path is the database file. Defaults to <output_dir>/rum.db.
	Path string `yaml:"path" json:"path"`
}

// DelayBin is one (hour, mass) pair of a configured sub-delay table.
type DelayBin struct {
	Hour int     `yaml:"hour" json:"hour"`
	Mass float64 `yaml:"mass" json:"mass"`
}

// SubDelayConfig overrides individual operational sub-delay tables.
// Each entry is a list of (hour, mass) bins; masses are normalized on load.
type SubDelayConfig struct {
	OnsetToIsolation        []DelayBin `yaml:"onset_to_isolation" json:"onset_to_isolation"`
	OnsetToTestOrder        []DelayBin `yaml:"onset_to_test_order" json:"onset_to_test_order"`
	OrderToResult           []DelayBin `yaml:"order_to_result" json:"order_to_result"`
	ResultToIsolation       []DelayBin `yaml:"result_to_isolation" json:"result_to_isolation"`
	NotificationToIsolation []DelayBin `yaml:"notification_to_isolation" json:"notification_to_isolation"`
}

// Default returns a Config with sensible defaults and no model runs.
func Default() *Config {
	return &Config{
		Directories: DirectorySettings{
			InputDir:     "data/input",
			ScenariosDir: "data/scenarios",
			OutputDir:    "data/output",
		},
		ModelRuns: map[string]ModelRun{},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if len(c.ModelRuns) == 0 {
		return fmt.Errorf("no model runs configured")
	}
	for _, name := range c.RunNames() {
		run := c.ModelRuns[name]
		if _, err := epi.ByName(run.InfectiousnessOption); err != nil {
			return fmt.Errorf("model run %q: %w", name, err)
		}
		files := []struct {
			field string
			value string
		}{
			{"total_time_to_contact_file", run.TotalTimeToContactFile},
			{"target_total_time_to_contact_file", run.TargetTotalTimeToContactFile},
			{"scenarios_file", run.ScenariosFile},
			{"output_file", run.OutputFile},
		}
		for _, f := range files {
			if f.value == "" {
				return fmt.Errorf("model run %q: %s is required", name, f.field)
			}
		}
	}

	validLevels := map[string]bool{"": true, "info": true, "debug": true, "trace": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if _, err := c.BuildSubDelays(); err != nil {
		return err
	}
	return nil
}

// RunNames returns the model run names in execution order.
func (c *Config) RunNames() []string {
	names := make([]string, 0, len(c.ModelRuns))
	for name := range c.ModelRuns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildSubDelays materializes the configured sub-delay tables, keeping
// defaults for omitted components.
func (c *Config) BuildSubDelays() (epi.SubDelays, error) {
	sub := epi.DefaultSubDelays()
	overrides := []struct {
		name string
		bins []DelayBin
		dst  *dist.Distribution
	}{
		{"onset_to_isolation", c.SubDelays.OnsetToIsolation, &sub.OnsetToIsolation},
		{"onset_to_test_order", c.SubDelays.OnsetToTestOrder, &sub.OnsetToTestOrder},
		{"order_to_result", c.SubDelays.OrderToResult, &sub.OrderToResult},
		{"result_to_isolation", c.SubDelays.ResultToIsolation, &sub.ResultToIsolation},
		{"notification_to_isolation", c.SubDelays.NotificationToIsolation, &sub.NotificationToIsolation},
	}
	for _, o := range overrides {
		if len(o.bins) == 0 {
			continue
		}
		bins := make([]dist.Bin, len(o.bins))
		for i, b := range o.bins {
			bins[i] = dist.Bin{Offset: b.Hour, Mass: b.Mass}
		}
		d, err := dist.FromBins(bins)
		if err != nil {
			return epi.SubDelays{}, fmt.Errorf("sub-delay %s: %w", o.name, err)
		}
		*o.dst = d
	}
	if err := sub.Validate(); err != nil {
		return epi.SubDelays{}, err
	}
	return sub, nil
}
