package epi

import (
	"fmt"

	"github.com/openepi/rum/internal/dist"
)

// TimeDistributions bundles the epidemiological curves for one
// infectiousness variant. All members share the same [-Bound, Bound]
// hourly support. Built once per run and shared read-only across every
// scenario.
type TimeDistributions struct {
	// Bound is the half-width of the shared support in hours.
	Bound int

	// SerialInterval is the time from symptom onset in the primary case
	// to symptom onset in the secondary case.
	SerialInterval dist.Distribution

	// SymptomToOnward is the time from symptom onset in a case to onward
	// infection of the next case. Negative offsets are presymptomatic
	// transmission.
	SymptomToOnward dist.Distribution

	// TimeToTertiary is the time from symptom onset in the primary case
	// to infection of the tertiary case: the ground-truth transmission
	// delay the model integrates against.
	TimeToTertiary dist.Distribution
}

// DeriveTimeDistributions builds the curve bundle for one variant. bound
// is raised to DefaultBound if smaller so the gamma tails are not clipped.
func DeriveTimeDistributions(opt Infectiousness, bound int) (TimeDistributions, error) {
	if bound < DefaultBound {
		bound = DefaultBound
	}
	serial, err := SerialInterval(bound)
	if err != nil {
		return TimeDistributions{}, err
	}
	onward, err := opt.SymptomToOnward(bound)
	if err != nil {
		return TimeDistributions{}, err
	}
	// Time to tertiary infection = (primary onset -> secondary onset) +
	// (secondary onset -> tertiary infection).
	tertiary, err := serial.Convolve(onward)
	if err != nil {
		return TimeDistributions{}, fmt.Errorf("deriving time to tertiary infection: %w", err)
	}
	return TimeDistributions{
		Bound:           bound,
		SerialInterval:  serial,
		SymptomToOnward: onward,
		TimeToTertiary:  tertiary,
	}, nil
}

// SubDelays are the domain-supplied operational delay components composed
// into the per-pathway isolation delays. Each is an independent delay
// distribution over non-negative hour offsets.
type SubDelays struct {
	// OnsetToIsolation is the lag between symptom onset and isolation
	// taking effect for symptom-triggered isolators.
	OnsetToIsolation dist.Distribution

	// OnsetToTestOrder is the lag between symptom onset and ordering a
	// test.
	OnsetToTestOrder dist.Distribution

	// OrderToResult is the test turnaround time.
	OrderToResult dist.Distribution

	// ResultToIsolation is the lag between receiving a positive result
	// and isolation taking effect.
	ResultToIsolation dist.Distribution

	// NotificationToIsolation is the lag between a tracing notification
	// reaching a contact and isolation taking effect.
	NotificationToIsolation dist.Distribution
}

// DefaultSubDelays returns the baseline operational delays: isolation is
// immediate on symptom onset, test ordering is immediate, results arrive
// after 36 hours, and result- and notification-triggered isolation are
// immediate.
func DefaultSubDelays() SubDelays {
	return SubDelays{
		OnsetToIsolation:        dist.PointMass(0),
		OnsetToTestOrder:        dist.PointMass(0),
		OrderToResult:           dist.PointMass(36),
		ResultToIsolation:       dist.PointMass(0),
		NotificationToIsolation: dist.PointMass(0),
	}
}

// Validate rejects sub-delay components with mass at negative offsets:
// an isolation step cannot precede its trigger.
func (s SubDelays) Validate() error {
	parts := []struct {
		name string
		d    dist.Distribution
	}{
		{"onset_to_isolation", s.OnsetToIsolation},
		{"onset_to_test_order", s.OnsetToTestOrder},
		{"order_to_result", s.OrderToResult},
		{"result_to_isolation", s.ResultToIsolation},
		{"notification_to_isolation", s.NotificationToIsolation},
	}
	for _, p := range parts {
		if p.d.IsZero() {
			return fmt.Errorf("sub-delay %s: empty distribution", p.name)
		}
		if p.d.Min() < 0 && p.d.CumulativeAt(-1) > 0 {
			return fmt.Errorf("sub-delay %s: mass at negative offsets", p.name)
		}
	}
	return nil
}

// PathwayDelays are the isolation delay distributions per pathway, all
// measured from symptom onset in the primary case so they can be compared
// directly against TimeToTertiary. The two symptom pathways share one
// delay distribution; compliance separates them by weight, not timing.
type PathwayDelays struct {
	// Symptom is the delay until symptom-triggered isolation takes
	// effect in the secondary case.
	Symptom dist.Distribution

	// Test is the delay until test-result-triggered isolation takes
	// effect.
	Test dist.Distribution

	// Contact is the delay until tracing-triggered isolation takes
	// effect, built from the raw end-to-end contact distribution.
	Contact dist.Distribution
}

// IsolationDelays composes the per-pathway isolation delay distributions
// from the serial interval, the raw end-to-end contact distribution for
// the selected source, and the operational sub-delays.
func (td TimeDistributions) IsolationDelays(contact dist.Distribution, sub SubDelays) (PathwayDelays, error) {
	if err := sub.Validate(); err != nil {
		return PathwayDelays{}, err
	}

	symptom, err := td.SerialInterval.Convolve(sub.OnsetToIsolation)
	if err != nil {
		return PathwayDelays{}, fmt.Errorf("composing symptom pathway delay: %w", err)
	}

	test := td.SerialInterval
	for _, step := range []dist.Distribution{sub.OnsetToTestOrder, sub.OrderToResult, sub.ResultToIsolation} {
		test, err = test.Convolve(step)
		if err != nil {
			return PathwayDelays{}, fmt.Errorf("composing test pathway delay: %w", err)
		}
	}

	padded, err := contact.Pad(-td.Bound, td.Bound)
	if err != nil {
		return PathwayDelays{}, fmt.Errorf("padding contact distribution: %w", err)
	}
	contactDelay, err := padded.Convolve(sub.NotificationToIsolation)
	if err != nil {
		return PathwayDelays{}, fmt.Errorf("composing contact pathway delay: %w", err)
	}

	// The contact table may extend past the tabulation window; align the
	// three pathways on one support.
	aligned, err := dist.CommonSupport(td.Bound, symptom, test, contactDelay)
	if err != nil {
		return PathwayDelays{}, fmt.Errorf("aligning pathway delays: %w", err)
	}
	return PathwayDelays{Symptom: aligned[0], Test: aligned[1], Contact: aligned[2]}, nil
}
