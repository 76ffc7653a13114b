// Package tableio reads the raw delay-distribution tables and writes the
// per-scenario output table. Two input layouts are accepted: a long format
// of (hour, mass) rows, and the contact-tracing export format of a header
// row of "(a, b]" interval labels over a single frequency row, which is
// interpolated to hourly bins.
package tableio

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/openepi/rum/internal/dist"
)

// ReadEndToEnd loads an end-to-end contact delay distribution from a CSV
// file, normalized over integer hour bins.
func ReadEndToEnd(path string) (dist.Distribution, error) {
	f, err := os.Open(path)
	if err != nil {
		return dist.Distribution{}, fmt.Errorf("opening distribution table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return dist.Distribution{}, fmt.Errorf("reading distribution table %s: %w", path, err)
	}
	if len(records) == 0 {
		return dist.Distribution{}, dist.InvalidDistributionError{Op: "ReadEndToEnd", Reason: "empty table"}
	}

	var d dist.Distribution
	if len(records[0]) > 2 {
		d, err = parseIntervalTable(records)
	} else {
		d, err = parseLongTable(records)
	}
	if err != nil {
		return dist.Distribution{}, fmt.Errorf("distribution table %s: %w", path, err)
	}
	return d, nil
}

// parseLongTable handles (hour, mass) rows, with an optional header row.
func parseLongTable(records [][]string) (dist.Distribution, error) {
	var bins []dist.Bin
	for i, rec := range records {
		if len(rec) < 2 {
			return dist.Distribution{}, dist.InvalidDistributionError{
				Op:     "ReadEndToEnd",
				Reason: fmt.Sprintf("row %d has %d columns, want 2", i+1, len(rec)),
			}
		}
		hour, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			if i == 0 {
				// Header row.
				continue
			}
			return dist.Distribution{}, dist.InvalidDistributionError{
				Op:     "ReadEndToEnd",
				Reason: fmt.Sprintf("row %d: bad hour %q", i+1, rec[0]),
			}
		}
		if hour < 0 {
			return dist.Distribution{}, dist.InvalidDistributionError{
				Op:     "ReadEndToEnd",
				Reason: fmt.Sprintf("row %d: negative hour bin %d", i+1, hour),
			}
		}
		mass, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return dist.Distribution{}, dist.InvalidDistributionError{
				Op:     "ReadEndToEnd",
				Reason: fmt.Sprintf("row %d: bad mass %q", i+1, rec[1]),
			}
		}
		bins = append(bins, dist.Bin{Offset: hour, Mass: mass})
	}
	return dist.FromBins(bins)
}

// parseIntervalTable handles the export format: a label row, then a header
// of "(a, b]" interval labels, then one frequency row. The first cell of
// each row is an index column and is skipped. Interval midpoints are
// cubic-interpolated down to integer hourly bins.
func parseIntervalTable(records [][]string) (dist.Distribution, error) {
	if len(records) < 2 {
		return dist.Distribution{}, dist.InvalidDistributionError{
			Op:     "ReadEndToEnd",
			Reason: "interval table needs a header row and a frequency row",
		}
	}
	header, values := records[0], records[1]
	if len(values) != len(header) {
		return dist.Distribution{}, dist.InvalidDistributionError{
			Op:     "ReadEndToEnd",
			Reason: fmt.Sprintf("header has %d columns, frequency row has %d", len(header), len(values)),
		}
	}

	var xs, ys []float64
	for i := 1; i < len(header); i++ {
		mid, err := intervalMidpoint(header[i])
		if err != nil {
			return dist.Distribution{}, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(values[i]), 64)
		if err != nil {
			return dist.Distribution{}, dist.InvalidDistributionError{
				Op:     "ReadEndToEnd",
				Reason: fmt.Sprintf("bad frequency %q for interval %q", values[i], header[i]),
			}
		}
		xs = append(xs, mid)
		ys = append(ys, v)
	}
	if len(xs) < 2 {
		return dist.Distribution{}, dist.InvalidDistributionError{
			Op:     "ReadEndToEnd",
			Reason: "interval table needs at least two intervals",
		}
	}

	var spline interp.NaturalCubic
	if err := spline.Fit(xs, ys); err != nil {
		return dist.Distribution{}, dist.InvalidDistributionError{
			Op:     "ReadEndToEnd",
			Reason: fmt.Sprintf("interpolating intervals: %v", err),
		}
	}

	lo := int(math.Ceil(xs[0]))
	hi := int(math.Floor(xs[len(xs)-1]))
	if hi < lo {
		return dist.Distribution{}, dist.InvalidDistributionError{
			Op:     "ReadEndToEnd",
			Reason: "interval table covers less than one hour",
		}
	}
	mass := make([]float64, hi-lo+1)
	for h := range mass {
		v := spline.Predict(float64(lo + h))
		if v < 0 {
			v = 0
		}
		mass[h] = v
	}
	return dist.New(lo, mass)
}

// intervalMidpoint parses an "(a, b]" label into the midpoint of a and b.
func intervalMidpoint(label string) (float64, error) {
	trimmed := strings.Trim(strings.TrimSpace(label), "(]")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return 0, dist.InvalidDistributionError{
			Op:     "ReadEndToEnd",
			Reason: fmt.Sprintf("bad interval label %q", label),
		}
	}
	a, errA := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	b, errB := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errA != nil || errB != nil {
		return 0, dist.InvalidDistributionError{
			Op:     "ReadEndToEnd",
			Reason: fmt.Sprintf("bad interval label %q", label),
		}
	}
	return (a + b) / 2, nil
}
