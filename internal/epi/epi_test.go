package epi

import (
	"math"
	"testing"

	"github.com/openepi/rum/internal/dist"
)

func meanHours(d dist.Distribution) float64 {
	var m float64
	for _, b := range d.Bins() {
		m += float64(b.Offset) * b.Mass
	}
	return m
}

func TestGammaCurves(t *testing.T) {
	tests := []struct {
		name     string
		build    func(int) (dist.Distribution, error)
		meanDays float64 // gamma mean = shape/rate
	}{
		{name: "incubation", build: IncubationPeriod, meanDays: 4.23 / 0.81},
		{name: "serial", build: SerialInterval, meanDays: 5.18 / 0.96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.build(DefaultBound)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if got := d.Total(); math.Abs(got-1) > 1e-9 {
				t.Errorf("total mass = %g, want 1", got)
			}
			if d.Min() != -DefaultBound || d.Max() != DefaultBound {
				t.Errorf("support = [%d, %d], want [%d, %d]", d.Min(), d.Max(), -DefaultBound, DefaultBound)
			}
			// No mass before zero: these are forward delays.
			if c := d.CumulativeAt(-1); c != 0 {
				t.Errorf("CumulativeAt(-1) = %g, want 0", c)
			}
			// The discretized mean should sit within an hour of the
			// continuous gamma mean.
			if got, want := meanHours(d), tt.meanDays*24; math.Abs(got-want) > 1 {
				t.Errorf("mean = %g hours, want about %g", got, want)
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"he", "ashcroft"} {
		opt, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if opt.Name() != name {
			t.Errorf("Name() = %q, want %q", opt.Name(), name)
		}
	}
	if _, err := ByName("ferretti"); err == nil {
		t.Error("expected error for unknown option")
	}
}

func TestHe_SymptomToOnward(t *testing.T) {
	d, err := He.SymptomToOnward(DefaultBound)
	if err != nil {
		t.Fatalf("SymptomToOnward: %v", err)
	}
	if got := d.Total(); math.Abs(got-1) > 1e-9 {
		t.Errorf("total mass = %g, want 1", got)
	}
	// Transmission earlier than two days before onset is ruled out.
	if c := d.CumulativeAt(-2*24 - 1); c != 0 {
		t.Errorf("mass before -48h: CumulativeAt(-49) = %g", c)
	}
	// Presymptomatic transmission in [-48h, 0) must remain.
	if c := d.CumulativeAt(-1); c <= 0 {
		t.Error("no presymptomatic mass survived the cutoff")
	}
}

func TestAshcroft_SymptomToOnward(t *testing.T) {
	d, err := Ashcroft.SymptomToOnward(DefaultBound)
	if err != nil {
		t.Fatalf("SymptomToOnward: %v", err)
	}
	if got := d.Total(); math.Abs(got-1) > 1e-9 {
		t.Errorf("total mass = %g, want 1", got)
	}
	if c := d.CumulativeAt(-5*24 - 1); c != 0 {
		t.Errorf("mass before -120h: %g", c)
	}
	if c := d.CumulativeAt(10 * 24); math.Abs(c-1) > 1e-9 {
		t.Errorf("CumulativeAt(240) = %g, want 1", c)
	}
	// Interpolation must not have produced negative mass anywhere.
	for _, b := range d.Bins() {
		if b.Mass < 0 {
			t.Fatalf("negative mass %g at offset %d", b.Mass, b.Offset)
		}
	}
}

func TestDeriveTimeDistributions(t *testing.T) {
	td, err := DeriveTimeDistributions(He, 0) // raised to DefaultBound
	if err != nil {
		t.Fatalf("DeriveTimeDistributions: %v", err)
	}
	if td.Bound != DefaultBound {
		t.Errorf("Bound = %d, want %d", td.Bound, DefaultBound)
	}
	for name, d := range map[string]dist.Distribution{
		"serial":   td.SerialInterval,
		"onward":   td.SymptomToOnward,
		"tertiary": td.TimeToTertiary,
	} {
		if got := d.Total(); math.Abs(got-1) > 1e-6 {
			t.Errorf("%s total mass = %g, want 1", name, got)
		}
	}
	// Adding the serial interval pushes the tertiary curve later than the
	// onward vector on average.
	if meanHours(td.TimeToTertiary) <= meanHours(td.SymptomToOnward) {
		t.Error("tertiary mean not later than onward mean")
	}
}

func TestSubDelays_Validate(t *testing.T) {
	if err := DefaultSubDelays().Validate(); err != nil {
		t.Fatalf("default sub-delays rejected: %v", err)
	}

	neg, err := dist.New(-2, []float64{0.5, 0, 0.5})
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	s := DefaultSubDelays()
	s.OrderToResult = neg
	if err := s.Validate(); err == nil {
		t.Error("expected error for mass at negative offsets")
	}

	s = DefaultSubDelays()
	s.OnsetToIsolation = dist.Distribution{}
	if err := s.Validate(); err == nil {
		t.Error("expected error for empty component")
	}
}

func TestIsolationDelays(t *testing.T) {
	td, err := DeriveTimeDistributions(He, DefaultBound)
	if err != nil {
		t.Fatalf("DeriveTimeDistributions: %v", err)
	}
	contact, err := dist.New(24, []float64{0.25, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0.75})
	if err != nil {
		t.Fatalf("building contact fixture: %v", err)
	}

	pd, err := td.IsolationDelays(contact, DefaultSubDelays())
	if err != nil {
		t.Fatalf("IsolationDelays: %v", err)
	}

	// With zero onset-to-isolation delay the symptom pathway tracks the
	// serial interval exactly.
	for _, h := range []int{0, 48, 120, 240} {
		got, want := pd.Symptom.CumulativeAt(h), td.SerialInterval.CumulativeAt(h)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("symptom CDF at %dh = %g, want %g", h, got, want)
		}
	}

	// The default 36h turnaround shifts the test pathway relative to the
	// symptom pathway.
	for _, h := range []int{48, 120, 240} {
		got, want := pd.Test.CumulativeAt(h), pd.Symptom.CumulativeAt(h-36)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("test CDF at %dh = %g, want symptom CDF at %dh = %g", h, got, h-36, want)
		}
	}

	// The contact pathway keeps the raw distribution's quantiles.
	if got := pd.Contact.CumulativeAt(24); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("contact CDF at 24h = %g, want 0.25", got)
	}
	if got := pd.Contact.CumulativeAt(36); math.Abs(got-1) > 1e-9 {
		t.Errorf("contact CDF at 36h = %g, want 1", got)
	}

	// Negative-offset sub-delays are rejected before any convolution.
	bad := DefaultSubDelays()
	bad.NotificationToIsolation, err = dist.New(-1, []float64{1})
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	if _, err := td.IsolationDelays(contact, bad); err == nil {
		t.Error("expected error for negative notification delay")
	}
}
