package epi

import (
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/openepi/rum/internal/dist"
)

// Infectiousness produces the symptom-to-onward vector: the distribution
// of time from symptom onset in a case to onward infection of the case
// they infect. The variant is selected once at config time; the hot path
// never branches on it.
type Infectiousness interface {
	// Name returns the config label for this variant.
	Name() string

	// SymptomToOnward tabulates the vector at hourly resolution over
	// [-bound, bound].
	SymptomToOnward(bound int) (dist.Distribution, error)
}

// He derives the vector from the He et al. gamma curves: the serial
// interval minus the incubation period, with transmission earlier than two
// days before symptom onset ruled out.
var He Infectiousness = heOption{}

// Ashcroft uses the fixed daily infectiousness profile from Ashcroft et
// al., interpolated to hourly resolution.
var Ashcroft Infectiousness = ashcroftOption{}

// ByName returns the variant with the given config label.
func ByName(name string) (Infectiousness, error) {
	switch name {
	case He.Name():
		return He, nil
	case Ashcroft.Name():
		return Ashcroft, nil
	}
	return nil, fmt.Errorf("unknown infectiousness option %q (valid: %s, %s)", name, He.Name(), Ashcroft.Name())
}

type heOption struct{}

func (heOption) Name() string { return "he" }

func (heOption) SymptomToOnward(bound int) (dist.Distribution, error) {
	serial, err := SerialInterval(bound)
	if err != nil {
		return dist.Distribution{}, err
	}
	incubation, err := IncubationPeriod(bound)
	if err != nil {
		return dist.Distribution{}, err
	}
	// Serial interval = incubation period + symptom-to-onward, with the
	// two terms independent, so the vector is the difference of the two
	// curves: correlate the serial interval with the reversed incubation
	// period.
	onward, err := serial.Convolve(incubation.Reverse())
	if err != nil {
		return dist.Distribution{}, fmt.Errorf("deriving symptom-to-onward vector: %w", err)
	}
	// Transmission more than two days before symptom onset is ruled out.
	return onward.ZeroBefore(-2 * 24)
}

type ashcroftOption struct{}

func (ashcroftOption) Name() string { return "ashcroft" }

// ashcroftDaily is the infectiousness profile at daily resolution over
// delays of -5 to 10 days relative to symptom onset.
var ashcroftDaily = []float64{
	0.0223781937259083,
	0.0353117463128404,
	0.0662651166344249,
	0.103030125971041,
	0.134813059932273,
	0.150505975534097,
	0.145114140517949,
	0.122150668663839,
	0.0906372826285407,
	0.0598005731289022,
	0.0353572882950919,
	0.0188663868762238,
	0.00914344380961272,
	0.00404823605805759,
	0.00164610895845332,
	0.000617722128227433,
}

func (ashcroftOption) SymptomToOnward(bound int) (dist.Distribution, error) {
	xs := make([]float64, len(ashcroftDaily))
	for i := range xs {
		xs[i] = float64((i - 5) * 24)
	}

	var spline interp.NaturalCubic
	if err := spline.Fit(xs, ashcroftDaily); err != nil {
		return dist.Distribution{}, fmt.Errorf("fitting ashcroft curve: %w", err)
	}

	lo, hi := -5*24, 10*24
	mass := make([]float64, hi-lo+1)
	for h := range mass {
		v := spline.Predict(float64(lo + h))
		if v < 0 {
			// Cubic interpolation can undershoot near the tails.
			v = 0
		}
		mass[h] = v
	}
	d, err := dist.New(lo, mass)
	if err != nil {
		return dist.Distribution{}, fmt.Errorf("tabulating ashcroft curve: %w", err)
	}
	return d.Pad(-bound, bound)
}
