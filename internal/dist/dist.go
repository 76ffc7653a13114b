// Package dist implements discrete delay distributions over integer hour
// bins. A Distribution is an immutable probability mass function on a
// bounded support; every operation returns a fresh value so that derived
// distributions never alias their inputs.
package dist

import (
	"fmt"
	"math"
)

// MaxBins is the widest support a Distribution may have. Convolving two
// distributions grows the support, so this bounds the cost of repeated
// composition. The epidemiological curves span +/-40 days at hourly
// resolution (1921 bins), well inside this limit.
const MaxBins = 8192

// MassTolerance is the tolerance used when checking that a normalized
// distribution sums to one.
const MassTolerance = 1e-9

// InvalidDistributionError describes a malformed distribution input.
type InvalidDistributionError struct {
	Op     string // operation that rejected the input
	Reason string
}

// Error returns a human-readable description of the error.
func (e InvalidDistributionError) Error() string {
	return fmt.Sprintf("invalid distribution in %s: %s", e.Op, e.Reason)
}

// Distribution is a discrete probability mass function over integer hour
// offsets. Offsets may be negative: epidemiological curves place mass
// before symptom onset. The zero value is an empty distribution.
type Distribution struct {
	min  int
	mass []float64
}

// Bin is one (offset, mass) pair of a distribution's support.
type Bin struct {
	Offset int
	Mass   float64
}

// New builds a normalized Distribution from raw bin masses, where mass[i]
// is the weight of hour offset min+i. It returns an InvalidDistributionError
// if the support is empty or wider than MaxBins, any mass is negative, or
// the total mass is zero.
func New(min int, mass []float64) (Distribution, error) {
	if len(mass) == 0 {
		return Distribution{}, InvalidDistributionError{Op: "New", Reason: "empty support"}
	}
	if len(mass) > MaxBins {
		return Distribution{}, InvalidDistributionError{
			Op:     "New",
			Reason: fmt.Sprintf("support has %d bins, max %d", len(mass), MaxBins),
		}
	}
	total := 0.0
	for i, m := range mass {
		if m < 0 {
			return Distribution{}, InvalidDistributionError{
				Op:     "New",
				Reason: fmt.Sprintf("negative mass %g at offset %d", m, min+i),
			}
		}
		total += m
	}
	if total == 0 {
		return Distribution{}, InvalidDistributionError{Op: "New", Reason: "total mass is zero"}
	}
	out := make([]float64, len(mass))
	for i, m := range mass {
		out[i] = m / total
	}
	return Distribution{min: min, mass: out}, nil
}

// FromBins builds a normalized Distribution from (offset, mass) pairs.
// Offsets need not be contiguous; gaps are filled with zero mass.
func FromBins(bins []Bin) (Distribution, error) {
	if len(bins) == 0 {
		return Distribution{}, InvalidDistributionError{Op: "FromBins", Reason: "empty support"}
	}
	lo, hi := bins[0].Offset, bins[0].Offset
	for _, b := range bins[1:] {
		if b.Offset < lo {
			lo = b.Offset
		}
		if b.Offset > hi {
			hi = b.Offset
		}
	}
	width := hi - lo + 1
	if width > MaxBins {
		return Distribution{}, InvalidDistributionError{
			Op:     "FromBins",
			Reason: fmt.Sprintf("support has %d bins, max %d", width, MaxBins),
		}
	}
	mass := make([]float64, width)
	for _, b := range bins {
		mass[b.Offset-lo] += b.Mass
	}
	d, err := New(lo, mass)
	if err != nil {
		if ide, ok := err.(InvalidDistributionError); ok {
			ide.Op = "FromBins"
			return Distribution{}, ide
		}
		return Distribution{}, err
	}
	return d, nil
}

// PointMass returns the distribution with all mass at a single offset.
func PointMass(offset int) Distribution {
	return Distribution{min: offset, mass: []float64{1}}
}

// Min returns the first offset of the support.
func (d Distribution) Min() int { return d.min }

// Max returns the last offset of the support.
func (d Distribution) Max() int { return d.min + len(d.mass) - 1 }

// Len returns the number of bins in the support.
func (d Distribution) Len() int { return len(d.mass) }

// IsZero reports whether d is the empty zero value.
func (d Distribution) IsZero() bool { return len(d.mass) == 0 }

// MassAt returns the probability mass at offset t, or 0 outside the support.
func (d Distribution) MassAt(t int) float64 {
	i := t - d.min
	if i < 0 || i >= len(d.mass) {
		return 0
	}
	return d.mass[i]
}

// Bins returns a copy of the support as (offset, mass) pairs.
func (d Distribution) Bins() []Bin {
	bins := make([]Bin, len(d.mass))
	for i, m := range d.mass {
		bins[i] = Bin{Offset: d.min + i, Mass: m}
	}
	return bins
}

// Total returns the sum of all masses. For a normalized distribution this
// is 1 within MassTolerance.
func (d Distribution) Total() float64 {
	total := 0.0
	for _, m := range d.mass {
		total += m
	}
	return total
}

// CumulativeAt returns P(delay <= t). It is 0 before the first bin,
// exactly 1 at or after the last bin, and monotone non-decreasing in
// between. The result is clamped to [0, 1] so that floating error in the
// stored masses cannot leak out.
func (d Distribution) CumulativeAt(t int) float64 {
	if d.IsZero() || t < d.min {
		return 0
	}
	if t >= d.Max() {
		return 1
	}
	sum := 0.0
	for i := 0; i <= t-d.min; i++ {
		sum += d.mass[i]
	}
	return math.Min(1, math.Max(0, sum))
}

// Shift translates the support by a fixed offset. Equivalent to convolving
// with PointMass(offset), but without the quadratic cost.
func (d Distribution) Shift(offset int) Distribution {
	if d.IsZero() {
		return d
	}
	return Distribution{min: d.min + offset, mass: append([]float64(nil), d.mass...)}
}

// Reverse mirrors the support about zero, so that mass at offset t moves
// to -t. Convolving a with b.Reverse() yields the distribution of the
// difference of two independent delays, which is how "did isolation beat
// the contact event" comparisons are composed.
func (d Distribution) Reverse() Distribution {
	if d.IsZero() {
		return d
	}
	mass := make([]float64, len(d.mass))
	for i, m := range d.mass {
		mass[len(d.mass)-1-i] = m
	}
	return Distribution{min: -d.Max(), mass: mass}
}

// Pad extends the support with zero-mass bins so that it covers at least
// [lo, hi]. If the support already covers the range the distribution is
// returned unchanged. Padding distributions to a common support keeps
// convolution inputs aligned, mirroring how all epidemiological curves are
// tabulated over the same +/-bound window.
func (d Distribution) Pad(lo, hi int) (Distribution, error) {
	if d.IsZero() {
		return Distribution{}, InvalidDistributionError{Op: "Pad", Reason: "empty support"}
	}
	if lo > d.min {
		lo = d.min
	}
	if hi < d.Max() {
		hi = d.Max()
	}
	width := hi - lo + 1
	if width > MaxBins {
		return Distribution{}, InvalidDistributionError{
			Op:     "Pad",
			Reason: fmt.Sprintf("padded support has %d bins, max %d", width, MaxBins),
		}
	}
	mass := make([]float64, width)
	copy(mass[d.min-lo:], d.mass)
	return Distribution{min: lo, mass: mass}, nil
}

// Convolve returns the distribution of the sum of two independent delays,
// truncated to the receiver's support and renormalized. Truncation bounds
// the cost of chained compositions; the epidemiological curves carry
// negligible mass near the edges of their +/-40 day window, so the
// renormalization correction is tiny in practice.
func (d Distribution) Convolve(other Distribution) (Distribution, error) {
	if d.IsZero() || other.IsZero() {
		return Distribution{}, InvalidDistributionError{Op: "Convolve", Reason: "empty support"}
	}
	if d.Len()+other.Len()-1 > 2*MaxBins {
		return Distribution{}, InvalidDistributionError{
			Op:     "Convolve",
			Reason: fmt.Sprintf("combined support exceeds %d bins", 2*MaxBins),
		}
	}
	mass := make([]float64, len(d.mass))
	for t := range mass {
		// result offset in absolute hours
		abs := d.min + t
		sum := 0.0
		for u, mu := range d.mass {
			if mu == 0 {
				continue
			}
			sum += mu * other.MassAt(abs-(d.min+u))
		}
		mass[t] = sum
	}
	out, err := New(d.min, mass)
	if err != nil {
		if ide, ok := err.(InvalidDistributionError); ok {
			ide.Op = "Convolve"
			return Distribution{}, ide
		}
		return Distribution{}, err
	}
	return out, nil
}

// ZeroBefore returns a copy with all mass strictly below cut removed and
// the remainder renormalized. Used to enforce domain constraints such as
// "no transmission more than two days before symptom onset".
func (d Distribution) ZeroBefore(cut int) (Distribution, error) {
	if d.IsZero() {
		return Distribution{}, InvalidDistributionError{Op: "ZeroBefore", Reason: "empty support"}
	}
	mass := append([]float64(nil), d.mass...)
	for i := range mass {
		if d.min+i < cut {
			mass[i] = 0
		}
	}
	out, err := New(d.min, mass)
	if err != nil {
		if ide, ok := err.(InvalidDistributionError); ok {
			ide.Op = "ZeroBefore"
			return Distribution{}, ide
		}
		return Distribution{}, err
	}
	return out, nil
}

// CommonSupport pads every distribution so that all share one support that
// also covers at least [-bound, bound]. The returned slice preserves the
// input order.
func CommonSupport(bound int, ds ...Distribution) ([]Distribution, error) {
	lo, hi := -bound, bound
	for _, d := range ds {
		if d.IsZero() {
			return nil, InvalidDistributionError{Op: "CommonSupport", Reason: "empty support"}
		}
		if d.Min() < lo {
			lo = d.Min()
		}
		if d.Max() > hi {
			hi = d.Max()
		}
	}
	out := make([]Distribution, len(ds))
	for i, d := range ds {
		padded, err := d.Pad(lo, hi)
		if err != nil {
			return nil, err
		}
		out[i] = padded
	}
	return out, nil
}
