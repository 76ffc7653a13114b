package tableio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/openepi/rum/internal/runner"
)

// outputHeader lists the output table columns: scenario parameters first,
// then the four headline metrics, then the diagnostic intermediates.
var outputHeader = []string{
	"Scenario",
	"Distribution",
	"symptomatic_rate",
	"symptomatic_ascertainment_rate",
	"percentage_notified",
	"compliance_with_symptom_isolation_test",
	"compliance_with_symptom_isolation_no_test",
	"compliance_with_test_result_isolation",
	"compliance_with_contact_isolation",
	"transmission_averted",
	"marginal_impact",
	"symptom_isolation_success",
	"contact_isolation_success",
	"primary_tested",
	"adherence_symptom_isolation",
	"proportion_contacts_reached",
	"proportion_contacts_reached_compliant",
	"transmission_pre_symptom",
	"transmission_pre_contact",
}

// WriteOutcomes writes one CSV row per evaluated scenario, in run order.
// All metrics are fractions in [0, 1].
func WriteOutcomes(path string, rows []runner.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(outputHeader); err != nil {
		return fmt.Errorf("writing output header: %w", err)
	}
	for _, row := range rows {
		s, o := row.Scenario, row.Outcome
		rec := []string{
			s.ID,
			s.Source.String(),
			num(s.SymptomaticRate),
			num(s.AscertainmentRate),
			num(s.PercentageNotified),
			num(s.ComplianceSymptomTest),
			num(s.ComplianceSymptomNoTest),
			num(s.ComplianceTestResult),
			num(s.ComplianceContact),
			num(o.TransmissionAverted),
			num(o.MarginalImpact),
			num(o.SymptomIsolationSuccess),
			num(o.ContactIsolationSuccess),
			num(o.PrimaryTested),
			num(o.AdherenceSymptomIsolation),
			num(o.ProportionContactsReached),
			num(o.ProportionContactsReachedCompliant),
			num(o.TransmissionPreSymptom),
			num(o.TransmissionPreContact),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing row for scenario %q: %w", s.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing output table: %w", err)
	}
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
