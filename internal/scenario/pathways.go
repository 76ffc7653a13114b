package scenario

import "fmt"

// PathwayProbabilities is the probability mass assigned to each mutually
// exclusive isolation pathway. The five weights always sum to 1: every
// case either isolates via exactly one pathway or not at all.
type PathwayProbabilities struct {
	// SymptomTest: tested cases isolating at symptom onset.
	SymptomTest float64 `json:"symptom_test"`

	// SymptomNoTest: untested symptomatic cases isolating at symptom onset.
	SymptomNoTest float64 `json:"symptom_no_test"`

	// TestOnly: tested cases that skipped symptom isolation but isolate
	// once the result arrives.
	TestOnly float64 `json:"test_only"`

	// ContactOnly: cases that would not have isolated via any
	// symptom-triggered route but are reached by tracing and comply.
	ContactOnly float64 `json:"contact_only"`

	// None: cases that never isolate.
	None float64 `json:"none"`
}

// Sum returns the total pathway mass. For a valid split this is 1 within
// floating tolerance.
func (p PathwayProbabilities) Sum() float64 {
	return p.SymptomTest + p.SymptomNoTest + p.TestOnly + p.ContactOnly + p.None
}

// SelfDetected returns the combined mass of the three pathways that start
// from the case's own detection (symptoms or a test result). This is the
// mass contact tracing competes against, not a symptom-isolation metric:
// the test-only pathway is result-triggered.
func (p PathwayProbabilities) SelfDetected() float64 {
	return p.SymptomTest + p.SymptomNoTest + p.TestOnly
}

// Pathways splits a scenario's population across the isolation pathways
// using only its rates; delay distributions play no part. The scenario
// must already be validated.
func Pathways(s Scenario) (PathwayProbabilities, error) {
	if err := s.Validate(); err != nil {
		return PathwayProbabilities{}, err
	}

	tested := s.SymptomaticRate * s.AscertainmentRate

	p := PathwayProbabilities{
		SymptomTest:   tested * s.ComplianceSymptomTest,
		SymptomNoTest: s.SymptomaticRate * (1 - s.AscertainmentRate) * s.ComplianceSymptomNoTest,
		TestOnly:      tested * (1 - s.ComplianceSymptomTest) * s.ComplianceTestResult,
	}
	// Contact tracing reaches cases independently of self-detection, so
	// the contact-only pathway is the traced-and-compliant share of
	// whatever mass the symptom-triggered routes left behind.
	p.ContactOnly = (1 - p.SelfDetected()) * s.PercentageNotified * s.ComplianceContact
	p.None = 1 - p.SelfDetected() - p.ContactOnly

	for _, w := range []float64{p.SymptomTest, p.SymptomNoTest, p.TestOnly, p.ContactOnly, p.None} {
		if w < 0 || w > 1 {
			return PathwayProbabilities{}, fmt.Errorf("pathway weight %g outside [0, 1] for scenario %q", w, s.ID)
		}
	}
	return p, nil
}
