package scenario

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Scenario table column names. Rate columns accept either fractions in
// [0, 1] or percentages in (1, 100]; percentages are divided by 100 exactly
// once here, never downstream.
const (
	ColScenario          = "Scenario"
	ColSymptomaticRate   = "symptomatic_rate"
	ColAscertainmentRate = "symptomatic_ascertainment_rate"
	ColNotified          = "percentage_notified"
	ColSymptomTest       = "compliance_with_symptom_isolation_test"
	ColSymptomNoTest     = "compliance_with_symptom_isolation_no_test"
	ColTestResult        = "compliance_with_test_result_isolation"
	ColContact           = "compliance_with_contact_isolation"
	ColDistribution      = "Distribution"
)

// legacyContactCol is the contact compliance header used by older scenario
// tables.
const legacyContactCol = "contact_compliance_with_isolation"

// LoadCSV reads a scenario table and returns one validated Scenario per
// row, in file order.
func LoadCSV(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading scenario table %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, InvalidScenarioError{Field: "table", Reason: "no scenario rows"}
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[ColContact]; !ok {
		if i, ok := cols[legacyContactCol]; ok {
			cols[ColContact] = i
		}
	}
	required := []string{
		ColScenario, ColSymptomaticRate, ColAscertainmentRate, ColNotified,
		ColSymptomTest, ColSymptomNoTest, ColContact, ColDistribution,
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, InvalidScenarioError{Field: name, Reason: "missing column"}
		}
	}

	scenarios := make([]Scenario, 0, len(records)-1)
	for rowNum, rec := range records[1:] {
		s, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("scenario table row %d: %w", rowNum+2, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func parseRow(rec []string, cols map[string]int) (Scenario, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	s := Scenario{
		ID:     cell(ColScenario),
		Source: Source(cell(ColDistribution)),
	}

	rate := func(name string, dst *float64) error {
		raw := cell(name)
		if raw == "" {
			return InvalidScenarioError{Scenario: s.ID, Field: name, Reason: "missing value"}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return InvalidScenarioError{Scenario: s.ID, Field: name, Reason: fmt.Sprintf("not a number: %q", raw)}
		}
		*dst = coerceRate(v)
		return nil
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{ColSymptomaticRate, &s.SymptomaticRate},
		{ColAscertainmentRate, &s.AscertainmentRate},
		{ColNotified, &s.PercentageNotified},
		{ColSymptomTest, &s.ComplianceSymptomTest},
		{ColSymptomNoTest, &s.ComplianceSymptomNoTest},
		{ColContact, &s.ComplianceContact},
	}
	for _, f := range fields {
		if err := rate(f.name, f.dst); err != nil {
			return Scenario{}, err
		}
	}
	// The test-result compliance column is a newer addition; older tables
	// omit it, which means no fallback isolation on the result.
	if _, ok := cols[ColTestResult]; ok && cell(ColTestResult) != "" {
		if err := rate(ColTestResult, &s.ComplianceTestResult); err != nil {
			return Scenario{}, err
		}
	}

	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// coerceRate maps percentage inputs in (1, 100] to fractions. Values
// already in [0, 1] pass through untouched; anything else is left as-is
// for Validate to reject.
func coerceRate(v float64) float64 {
	if v > 1 && v <= 100 {
		return v / 100
	}
	return v
}
