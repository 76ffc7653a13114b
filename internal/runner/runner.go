// Package runner iterates scenario rows, resolves each row's distribution
// source, and invokes the isolation model, collecting one output row per
// (scenario, source) pair. Every evaluation is an independent pure
// computation over shared read-only inputs, so failures are always data or
// logic errors and are never retried.
package runner

import (
	"fmt"
	"log/slog"

	"github.com/openepi/rum/internal/dist"
	"github.com/openepi/rum/internal/epi"
	"github.com/openepi/rum/internal/logging"
	"github.com/openepi/rum/internal/model"
	"github.com/openepi/rum/internal/scenario"
)

// Tables holds the two raw end-to-end contact distributions a scenario row
// can select between.
type Tables struct {
	// Actual is the empirically observed contact distribution.
	Actual dist.Distribution

	// Target is the aspirational contact distribution.
	Target dist.Distribution
}

// Row is one output row: the scenario it was computed for and the
// resulting metrics.
type Row struct {
	Scenario scenario.Scenario
	Outcome  model.Outcome
}

// RowError records a failed evaluation with enough context to locate the
// offending scenario row.
type RowError struct {
	ScenarioID string
	Source     scenario.Source
	Err        error
}

// Error returns a human-readable description of the failed row.
func (e RowError) Error() string {
	return fmt.Sprintf("scenario %q (%s): %v", e.ScenarioID, e.Source, e.Err)
}

// Unwrap returns the underlying evaluation error.
func (e RowError) Unwrap() error { return e.Err }

// Runner evaluates scenarios against one infectiousness variant's curve
// bundle. The zero value is not usable; populate Times and Sub.
type Runner struct {
	// Times is the curve bundle for the selected infectiousness variant.
	Times epi.TimeDistributions

	// Sub supplies the operational sub-delays composed into the pathway
	// delays.
	Sub epi.SubDelays

	// Log receives per-scenario progress. Nil disables progress logging.
	Log *slog.Logger

	// Trace receives per-evaluation metric traces. Nil disables tracing.
	Trace *logging.TraceLogger

	// FailFast aborts the run on the first failing row instead of
	// collecting the failure and continuing.
	FailFast bool
}

// Run evaluates every scenario row against its selected source. Rows are
// returned in input order. When FailFast is false, failing rows are
// collected as RowErrors and the remaining rows still run; when true, the
// first failure aborts the run.
func (r *Runner) Run(scenarios []scenario.Scenario, tables Tables) ([]Row, []RowError, error) {
	// The pathway delays depend only on the source, not the scenario, so
	// derive each at most once per run.
	delays := make(map[scenario.Source]epi.PathwayDelays, 2)

	rows := make([]Row, 0, len(scenarios))
	var failures []RowError

	for _, s := range scenarios {
		row, err := r.evaluate(s, tables, delays)
		if err != nil {
			re := RowError{ScenarioID: s.ID, Source: s.Source, Err: err}
			if r.FailFast {
				return rows, nil, re
			}
			if r.Log != nil {
				r.Log.Error("scenario failed", "scenario", s.ID, "source", s.Source.String(), "error", err)
			}
			failures = append(failures, re)
			continue
		}
		if r.Log != nil {
			r.Log.Info("scenario evaluated",
				"scenario", s.ID,
				"source", s.Source.String(),
				"transmission_averted", row.Outcome.TransmissionAverted,
				"marginal_impact", row.Outcome.MarginalImpact)
		}
		r.Trace.Log(map[string]any{
			"event":    "evaluate",
			"scenario": s.ID,
			"source":   s.Source.String(),
			"outcome":  row.Outcome,
		})
		rows = append(rows, row)
	}
	return rows, failures, nil
}

func (r *Runner) evaluate(s scenario.Scenario, tables Tables, cache map[scenario.Source]epi.PathwayDelays) (Row, error) {
	if err := s.Validate(); err != nil {
		return Row{}, err
	}

	pd, ok := cache[s.Source]
	if !ok {
		contact := tables.Actual
		if s.Source == scenario.SourceTarget {
			contact = tables.Target
		}
		if contact.IsZero() {
			return Row{}, dist.InvalidDistributionError{
				Op:     "Run",
				Reason: fmt.Sprintf("no contact distribution loaded for source %q", s.Source),
			}
		}
		var err error
		pd, err = r.Times.IsolationDelays(contact, r.Sub)
		if err != nil {
			return Row{}, err
		}
		cache[s.Source] = pd
	}

	out, err := model.Evaluate(model.Inputs{
		Scenario:       s,
		TimeToTertiary: r.Times.TimeToTertiary,
		Delays:         pd,
	})
	if err != nil {
		return Row{}, err
	}
	return Row{Scenario: s, Outcome: out}, nil
}
