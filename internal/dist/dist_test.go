package dist

import (
	"math"
	"testing"
)

// mustNew is a test helper that builds a distribution and fails the test
// on error.
func mustNew(t *testing.T, min int, mass []float64) Distribution {
	t.Helper()
	d, err := New(min, mass)
	if err != nil {
		t.Fatalf("New(%d, %v): %v", min, mass, err)
	}
	return d
}

// approx fails the test when got is not within tol of want.
func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %g, want %g (tol %g)", name, got, want, tol)
	}
}

func TestNew_Normalizes(t *testing.T) {
	d := mustNew(t, 0, []float64{1, 2, 1})
	approx(t, "Total()", d.Total(), 1, MassTolerance)
	approx(t, "MassAt(1)", d.MassAt(1), 0.5, MassTolerance)
	if d.Min() != 0 || d.Max() != 2 {
		t.Errorf("support = [%d, %d], want [0, 2]", d.Min(), d.Max())
	}
}

func TestNew_Rejections(t *testing.T) {
	tests := []struct {
		name string
		min  int
		mass []float64
	}{
		{name: "empty support", min: 0, mass: nil},
		{name: "negative mass", min: 0, mass: []float64{0.5, -0.1, 0.6}},
		{name: "zero total", min: 0, mass: []float64{0, 0, 0}},
		{name: "support too wide", min: 0, mass: make([]float64, MaxBins+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.min, tt.mass)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if _, ok := err.(InvalidDistributionError); !ok {
				t.Errorf("expected InvalidDistributionError, got %T", err)
			}
		})
	}
}

func TestFromBins_GapsAndDuplicates(t *testing.T) {
	d, err := FromBins([]Bin{{Offset: 0, Mass: 1}, {Offset: 4, Mass: 2}, {Offset: 4, Mass: 1}})
	if err != nil {
		t.Fatalf("FromBins: %v", err)
	}
	if d.Len() != 5 {
		t.Errorf("Len() = %d, want 5", d.Len())
	}
	approx(t, "MassAt(0)", d.MassAt(0), 0.25, MassTolerance)
	approx(t, "MassAt(2)", d.MassAt(2), 0, MassTolerance)
	approx(t, "MassAt(4)", d.MassAt(4), 0.75, MassTolerance)
}

func TestCumulativeAt(t *testing.T) {
	d := mustNew(t, 2, []float64{0.25, 0.25, 0.5})

	tests := []struct {
		name string
		at   int
		want float64
	}{
		{name: "before first bin", at: 1, want: 0},
		{name: "first bin", at: 2, want: 0.25},
		{name: "middle bin", at: 3, want: 0.5},
		{name: "last bin is exactly one", at: 4, want: 1},
		{name: "past the support is exactly one", at: 100, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approx(t, "CumulativeAt", d.CumulativeAt(tt.at), tt.want, MassTolerance)
		})
	}
}

func TestCumulativeAt_Monotone(t *testing.T) {
	d := mustNew(t, -3, []float64{0.1, 0.3, 0.05, 0.2, 0.15, 0.1, 0.1})
	prev := 0.0
	for at := d.Min() - 2; at <= d.Max()+2; at++ {
		cur := d.CumulativeAt(at)
		if cur < prev {
			t.Fatalf("CumulativeAt(%d) = %g < CumulativeAt(%d) = %g", at, cur, at-1, prev)
		}
		prev = cur
	}
	if prev != 1 {
		t.Errorf("final cumulative = %g, want exactly 1", prev)
	}
}

func TestShift(t *testing.T) {
	d := mustNew(t, 0, []float64{0.5, 0.5})
	shifted := d.Shift(24)
	if shifted.Min() != 24 || shifted.Max() != 25 {
		t.Errorf("support = [%d, %d], want [24, 25]", shifted.Min(), shifted.Max())
	}
	// Original is untouched.
	if d.Min() != 0 {
		t.Errorf("original support moved to min %d", d.Min())
	}
}

func TestReverse(t *testing.T) {
	d := mustNew(t, 1, []float64{0.25, 0.75})
	rev := d.Reverse()
	if rev.Min() != -2 || rev.Max() != -1 {
		t.Errorf("support = [%d, %d], want [-2, -1]", rev.Min(), rev.Max())
	}
	approx(t, "MassAt(-1)", rev.MassAt(-1), 0.25, MassTolerance)
	approx(t, "MassAt(-2)", rev.MassAt(-2), 0.75, MassTolerance)
}

func TestPad(t *testing.T) {
	d := mustNew(t, 0, []float64{1})
	padded, err := d.Pad(-5, 5)
	if err != nil {
		t.Fatalf("Pad: %v", err)
	}
	if padded.Min() != -5 || padded.Max() != 5 {
		t.Errorf("support = [%d, %d], want [-5, 5]", padded.Min(), padded.Max())
	}
	approx(t, "MassAt(0)", padded.MassAt(0), 1, MassTolerance)
	approx(t, "Total()", padded.Total(), 1, MassTolerance)
}

func TestConvolve_PointMassShifts(t *testing.T) {
	d := mustNew(t, 0, []float64{0, 0, 0.5, 0.5, 0, 0, 0, 0})
	out, err := d.Convolve(PointMass(2))
	if err != nil {
		t.Fatalf("Convolve: %v", err)
	}
	approx(t, "MassAt(4)", out.MassAt(4), 0.5, MassTolerance)
	approx(t, "MassAt(5)", out.MassAt(5), 0.5, MassTolerance)
	approx(t, "Total()", out.Total(), 1, MassTolerance)
}

func TestConvolve_SumOfDice(t *testing.T) {
	die := make([]float64, 6)
	for i := range die {
		die[i] = 1.0 / 6
	}
	// Pad so the receiver's support covers the full sum.
	one := mustNew(t, 1, die)
	wide, err := one.Pad(0, 14)
	if err != nil {
		t.Fatalf("Pad: %v", err)
	}
	sum, err := wide.Convolve(one)
	if err != nil {
		t.Fatalf("Convolve: %v", err)
	}
	approx(t, "P(sum=2)", sum.MassAt(2), 1.0/36, MassTolerance)
	approx(t, "P(sum=7)", sum.MassAt(7), 6.0/36, MassTolerance)
	approx(t, "P(sum=12)", sum.MassAt(12), 1.0/36, MassTolerance)
	approx(t, "Total()", sum.Total(), 1, MassTolerance)
}

func TestConvolve_CommutativeAndAssociative(t *testing.T) {
	// All operands share one support wide enough that truncation drops
	// no mass.
	pad := func(d Distribution) Distribution {
		t.Helper()
		p, err := d.Pad(-32, 32)
		if err != nil {
			t.Fatalf("Pad: %v", err)
		}
		return p
	}
	a := pad(mustNew(t, 0, []float64{0.5, 0.5}))
	b := pad(mustNew(t, 1, []float64{0.25, 0.5, 0.25}))
	c := pad(mustNew(t, -2, []float64{0.4, 0.6}))

	conv := func(x, y Distribution) Distribution {
		t.Helper()
		out, err := x.Convolve(y)
		if err != nil {
			t.Fatalf("Convolve: %v", err)
		}
		return out
	}

	ab := conv(a, b)
	ba := conv(b, a)
	for off := -32; off <= 32; off++ {
		if math.Abs(ab.MassAt(off)-ba.MassAt(off)) > 1e-9 {
			t.Fatalf("commutativity: mass at %d differs: %g vs %g", off, ab.MassAt(off), ba.MassAt(off))
		}
	}

	abc := conv(ab, c)
	bca := conv(conv(b, c), a)
	for off := -32; off <= 32; off++ {
		if math.Abs(abc.MassAt(off)-bca.MassAt(off)) > 1e-6 {
			t.Fatalf("associativity: mass at %d differs: %g vs %g", off, abc.MassAt(off), bca.MassAt(off))
		}
	}
	approx(t, "three-stage total mass", abc.Total(), 1, 1e-6)
}

func TestZeroBefore(t *testing.T) {
	d := mustNew(t, -2, []float64{0.2, 0.2, 0.2, 0.2, 0.2})
	cut, err := d.ZeroBefore(0)
	if err != nil {
		t.Fatalf("ZeroBefore: %v", err)
	}
	approx(t, "MassAt(-1)", cut.MassAt(-1), 0, MassTolerance)
	approx(t, "MassAt(0)", cut.MassAt(0), 1.0/3, MassTolerance)
	approx(t, "Total()", cut.Total(), 1, MassTolerance)

	if _, err := d.ZeroBefore(10); err == nil {
		t.Error("expected error when all mass is removed")
	}
}

func TestCommonSupport(t *testing.T) {
	a := mustNew(t, -1, []float64{0.5, 0.5})
	b := mustNew(t, 3, []float64{1})
	ds, err := CommonSupport(2, a, b)
	if err != nil {
		t.Fatalf("CommonSupport: %v", err)
	}
	for i, d := range ds {
		if d.Min() != -2 || d.Max() != 3 {
			t.Errorf("ds[%d] support = [%d, %d], want [-2, 3]", i, d.Min(), d.Max())
		}
	}
	approx(t, "a preserved", ds[0].MassAt(-1), 0.5, MassTolerance)
	approx(t, "b preserved", ds[1].MassAt(3), 1, MassTolerance)
}
