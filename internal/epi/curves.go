// Package epi derives the epidemiological delay distributions the
// isolation model consumes: the incubation period and serial interval
// curves, the symptom-to-onward infectiousness vector (two variants), the
// end-to-end time to tertiary infection, and the per-pathway isolation
// delay distributions.
//
// All curves are tabulated at hourly resolution over a symmetric
// [-bound, bound] window so they can be convolved against each other
// without re-alignment.
package epi

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/openepi/rum/internal/dist"
)

// DefaultBound is the half-width of the tabulation window in hours.
// The gamma curves are effectively zero beyond 40 days.
const DefaultBound = 40 * 24

// Incubation period gamma parameters (He et al.): time from infection to
// symptom onset, in days.
const (
	incubationShape = 4.23
	incubationRate  = 0.81
)

// Serial interval gamma parameters (He et al.): time from symptom onset in
// one case to symptom onset in the case they infect, in days.
const (
	serialShape = 5.18
	serialRate  = 0.96
)

// IncubationPeriod tabulates the incubation period at hourly resolution,
// padded to [-bound, bound].
func IncubationPeriod(bound int) (dist.Distribution, error) {
	return gammaHourly(incubationShape, incubationRate, bound)
}

// SerialInterval tabulates the serial interval at hourly resolution,
// padded to [-bound, bound].
func SerialInterval(bound int) (dist.Distribution, error) {
	return gammaHourly(serialShape, serialRate, bound)
}

// gammaHourly evaluates a rate-parametrized gamma density at each hour of
// [0, DefaultBound], normalizes the result to a discrete PMF, and pads it
// to the symmetric window.
func gammaHourly(shape, rate float64, bound int) (dist.Distribution, error) {
	if bound < DefaultBound {
		bound = DefaultBound
	}
	g := distuv.Gamma{Alpha: shape, Beta: rate}
	mass := make([]float64, DefaultBound+1)
	for h := range mass {
		mass[h] = g.Prob(float64(h) / 24)
	}
	d, err := dist.New(0, mass)
	if err != nil {
		return dist.Distribution{}, fmt.Errorf("tabulating gamma(%g, %g): %w", shape, rate, err)
	}
	return d.Pad(-bound, bound)
}
