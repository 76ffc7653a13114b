// Package scenario defines the behavioral compliance scenarios the model
// iterates over: named rate bundles loaded from a scenario table, validated
// once at the boundary, plus the pathway probability split derived from
// them.
package scenario

import "fmt"

// Source selects which end-to-end contact distribution a scenario is
// evaluated against.
type Source string

const (
	// SourceActual is the empirically observed contact distribution
	// ("October Distribution" in the scenario tables).
	SourceActual Source = "October Distribution"

	// SourceTarget is the aspirational contact distribution
	// ("Target Distribution" in the scenario tables).
	SourceTarget Source = "Target Distribution"
)

// Valid returns true if the source is a recognized value.
func (s Source) Valid() bool {
	switch s {
	case SourceActual, SourceTarget:
		return true
	}
	return false
}

// String returns the string representation of the source.
func (s Source) String() string { return string(s) }

// InvalidScenarioError describes a scenario row that failed validation.
// It carries enough context for the caller to locate the offending cell.
type InvalidScenarioError struct {
	Scenario string `json:"scenario"` // scenario id, may be empty if the id itself is bad
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}

// Error returns a human-readable description of the validation failure.
func (e InvalidScenarioError) Error() string {
	return fmt.Sprintf("scenario %q: %s: %s", e.Scenario, e.Field, e.Reason)
}

// Scenario is one row of the scenario table. All rates are fractions in
// [0, 1]; percentage inputs are converted exactly once during loading.
// A Scenario is immutable after construction.
type Scenario struct {
	// ID is the scenario name from the table's Scenario column.
	ID string

	// Source selects the actual or target contact distribution.
	Source Source

	// SymptomaticRate is the probability an infected person develops
	// symptoms.
	SymptomaticRate float64

	// AscertainmentRate is the probability a symptomatic person is tested.
	AscertainmentRate float64

	// PercentageNotified is the probability an infected contact is
	// successfully reached by contact tracing. Reach is independent of
	// whether the source case self-detected.
	PercentageNotified float64

	// ComplianceSymptomTest is the probability a tested case isolates on
	// symptom onset.
	ComplianceSymptomTest float64

	// ComplianceSymptomNoTest is the probability an untested symptomatic
	// case isolates on symptom onset.
	ComplianceSymptomNoTest float64

	// ComplianceTestResult is the probability a tested case that did not
	// isolate on symptoms isolates once the test result arrives.
	ComplianceTestResult float64

	// ComplianceContact is the probability a reached contact isolates.
	ComplianceContact float64
}

// Validate checks that every rate is a fraction in [0, 1] and that the
// source is recognized. It never clamps: out-of-range values are data-entry
// mistakes that must surface, not be guessed around.
func (s Scenario) Validate() error {
	if s.ID == "" {
		return InvalidScenarioError{Field: "Scenario", Reason: "empty scenario id"}
	}
	if !s.Source.Valid() {
		return InvalidScenarioError{
			Scenario: s.ID,
			Field:    "Distribution",
			Reason:   fmt.Sprintf("unrecognized value %q", string(s.Source)),
		}
	}
	rates := []struct {
		name  string
		value float64
	}{
		{"symptomatic_rate", s.SymptomaticRate},
		{"symptomatic_ascertainment_rate", s.AscertainmentRate},
		{"percentage_notified", s.PercentageNotified},
		{"compliance_with_symptom_isolation_test", s.ComplianceSymptomTest},
		{"compliance_with_symptom_isolation_no_test", s.ComplianceSymptomNoTest},
		{"compliance_with_test_result_isolation", s.ComplianceTestResult},
		{"compliance_with_contact_isolation", s.ComplianceContact},
	}
	for _, r := range rates {
		if r.value < 0 || r.value > 1 {
			return InvalidScenarioError{
				Scenario: s.ID,
				Field:    r.name,
				Reason:   fmt.Sprintf("rate %g outside [0, 1]", r.value),
			}
		}
	}
	return nil
}

// WithoutContactTracing returns a copy of the scenario with contact
// notification switched off. Used to compute the marginal impact of
// contact tracing while holding symptom-based behavior fixed.
func (s Scenario) WithoutContactTracing() Scenario {
	s.PercentageNotified = 0
	return s
}
