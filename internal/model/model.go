// Package model implements the chain-level isolation model: given the
// distribution of time from primary symptom onset to tertiary infection
// and the per-pathway isolation delay distributions, it computes the
// probability that isolation would have interrupted the chain under a
// given behavioral scenario.
package model

import (
	"fmt"
	"math"

	"github.com/openepi/rum/internal/dist"
	"github.com/openepi/rum/internal/epi"
	"github.com/openepi/rum/internal/scenario"
)

// probTolerance is how far an intermediate probability may leave [0, 1]
// through floating error before it is treated as a logic defect.
const probTolerance = 1e-9

// InvariantError reports an internal probability that left [0, 1] beyond
// tolerance. It always signals a bug in distribution composition, never a
// data problem.
type InvariantError struct {
	Scenario string  `json:"scenario"`
	Quantity string  `json:"quantity"`
	Value    float64 `json:"value"`
}

// Error returns a human-readable description of the violated invariant.
func (e InvariantError) Error() string {
	return fmt.Sprintf("model invariant violated for scenario %q: %s = %g outside [0, 1]", e.Scenario, e.Quantity, e.Value)
}

// Inputs are the immutable ingredients for one (scenario, source)
// evaluation. The distributions are shared read-only across evaluations.
type Inputs struct {
	// Scenario supplies the compliance and ascertainment rates.
	Scenario scenario.Scenario

	// TimeToTertiary is the ground-truth transmission delay distribution
	// the success probabilities are integrated against.
	TimeToTertiary dist.Distribution

	// Delays are the per-pathway isolation delay distributions.
	Delays epi.PathwayDelays
}

// Outcome holds the metrics for one (scenario, source) evaluation. The
// four headline metrics lead; the rest are diagnostic intermediates kept
// for reference, matching the output table layout.
type Outcome struct {
	// TransmissionAverted is the probability that some pathway isolated
	// the case before the tertiary contact event.
	TransmissionAverted float64 `json:"transmission_averted"`

	// MarginalImpact is TransmissionAverted minus the same quantity with
	// contact tracing switched off: the incremental effect of tracing.
	MarginalImpact float64 `json:"marginal_impact"`

	// SymptomIsolationSuccess is the contribution of isolation at symptom
	// onset alone, excluding the result-triggered test pathway.
	SymptomIsolationSuccess float64 `json:"symptom_isolation_success"`

	// ContactIsolationSuccess is the contribution of cases isolated by
	// tracing alone, with no symptom-triggered isolation.
	ContactIsolationSuccess float64 `json:"contact_isolation_success"`

	// PrimaryTested is the probability the primary case was tested.
	PrimaryTested float64 `json:"primary_tested"`

	// AdherenceSymptomIsolation is the probability the case isolates on
	// symptoms, across the tested and untested routes.
	AdherenceSymptomIsolation float64 `json:"adherence_symptom_isolation"`

	// ProportionContactsReached is the probability the primary case was
	// tested and its contacts reached by tracing; tracing starts from a
	// positive test.
	ProportionContactsReached float64 `json:"proportion_contacts_reached"`

	// ProportionContactsReachedCompliant is the probability a contact is
	// reached that way and isolates.
	ProportionContactsReachedCompliant float64 `json:"proportion_contacts_reached_compliant"`

	// TransmissionPreSymptom is the share of transmission that occurs
	// before symptom-triggered isolation could take effect.
	TransmissionPreSymptom float64 `json:"transmission_pre_symptom"`

	// TransmissionPreContact is the share of transmission that occurs
	// before tracing-triggered isolation could take effect.
	TransmissionPreContact float64 `json:"transmission_pre_contact"`
}

// Evaluate computes the outcome for one scenario against one set of delay
// distributions. It is a pure function: identical inputs produce
// bit-identical outcomes.
func Evaluate(in Inputs) (Outcome, error) {
	s := in.Scenario
	if err := s.Validate(); err != nil {
		return Outcome{}, err
	}
	paths, err := scenario.Pathways(s)
	if err != nil {
		return Outcome{}, err
	}
	if in.TimeToTertiary.IsZero() || in.Delays.Symptom.IsZero() || in.Delays.Test.IsZero() || in.Delays.Contact.IsZero() {
		return Outcome{}, dist.InvalidDistributionError{Op: "Evaluate", Reason: "empty input distribution"}
	}

	// Probability a symptom-pathway member is also reached by tracing and
	// would comply; those cases isolate at the earlier of the two delays.
	contactBoost := s.PercentageNotified * s.ComplianceContact

	var averted, symptomSuccess, contactSuccess float64
	var preSymptom, preContact float64

	// Seed the running CDFs with any delay mass lying before the
	// integration window, so the delays need not share the tertiary
	// distribution's support.
	before := in.TimeToTertiary.Min() - 1
	symptomCDF := in.Delays.Symptom.CumulativeAt(before)
	testCDF := in.Delays.Test.CumulativeAt(before)
	contactCDF := in.Delays.Contact.CumulativeAt(before)
	for _, b := range in.TimeToTertiary.Bins() {
		symptomCDF += in.Delays.Symptom.MassAt(b.Offset)
		testCDF += in.Delays.Test.MassAt(b.Offset)
		contactCDF += in.Delays.Contact.MassAt(b.Offset)
		fs := clampUnit(symptomCDF)
		ft := clampUnit(testCDF)
		fc := clampUnit(contactCDF)

		// Earliest-trigger tie-break: a symptom-pathway case that is also
		// traced isolates at min(symptom delay, contact delay).
		fsBoosted := fs + contactBoost*fc*(1-fs)
		ftBoosted := ft + contactBoost*fc*(1-ft)

		// Symptom isolation success counts the symptom-onset pathways
		// only; result-triggered isolation contributes to averted alone.
		symptomSuccess += b.Mass * (paths.SymptomTest + paths.SymptomNoTest) * fs
		contactSuccess += b.Mass * paths.ContactOnly * fc
		averted += b.Mass * ((paths.SymptomTest+paths.SymptomNoTest)*fsBoosted + paths.TestOnly*ftBoosted + paths.ContactOnly*fc)

		preSymptom += b.Mass * (1 - fs)
		preContact += b.Mass * (1 - fc)
	}

	out := Outcome{
		TransmissionAverted:                averted,
		SymptomIsolationSuccess:            symptomSuccess,
		ContactIsolationSuccess:            contactSuccess,
		PrimaryTested:                      s.SymptomaticRate * s.AscertainmentRate,
		AdherenceSymptomIsolation:          s.SymptomaticRate*s.AscertainmentRate*s.ComplianceSymptomTest + s.SymptomaticRate*(1-s.AscertainmentRate)*s.ComplianceSymptomNoTest,
		ProportionContactsReached:          s.SymptomaticRate * s.AscertainmentRate * s.PercentageNotified,
		ProportionContactsReachedCompliant: s.SymptomaticRate * s.AscertainmentRate * s.PercentageNotified * s.ComplianceContact,
		TransmissionPreSymptom:             preSymptom,
		TransmissionPreContact:             preContact,
	}

	if s.PercentageNotified == 0 {
		out.MarginalImpact = 0
	} else {
		baseline, err := Evaluate(Inputs{
			Scenario:       s.WithoutContactTracing(),
			TimeToTertiary: in.TimeToTertiary,
			Delays:         in.Delays,
		})
		if err != nil {
			return Outcome{}, err
		}
		out.MarginalImpact = out.TransmissionAverted - baseline.TransmissionAverted
	}

	if err := out.checkInvariants(s.ID); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// checkInvariants clamps tiny floating excursions and fails on anything
// larger.
func (o *Outcome) checkInvariants(scenarioID string) error {
	checks := []struct {
		name  string
		value *float64
	}{
		{"transmission_averted", &o.TransmissionAverted},
		{"marginal_impact", &o.MarginalImpact},
		{"symptom_isolation_success", &o.SymptomIsolationSuccess},
		{"contact_isolation_success", &o.ContactIsolationSuccess},
		{"primary_tested", &o.PrimaryTested},
		{"adherence_symptom_isolation", &o.AdherenceSymptomIsolation},
		{"proportion_contacts_reached", &o.ProportionContactsReached},
		{"proportion_contacts_reached_compliant", &o.ProportionContactsReachedCompliant},
		{"transmission_pre_symptom", &o.TransmissionPreSymptom},
		{"transmission_pre_contact", &o.TransmissionPreContact},
	}
	for _, c := range checks {
		v := *c.value
		if v < -probTolerance || v > 1+probTolerance {
			return InvariantError{Scenario: scenarioID, Quantity: c.name, Value: v}
		}
		*c.value = clampUnit(v)
	}
	return nil
}

func clampUnit(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
