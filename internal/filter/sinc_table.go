// Package filter designs the windowed-sinc interpolation kernels used by the
// variable-ratio rate converters.
//
// The design differs from a fixed-rate resampling filter: because the
// conversion ratio changes continuously at runtime, the kernel is built as a
// bank of fractionally delayed rows (a phase table) that the converter
// indexes and interpolates on the fly. Anti-aliasing for ratios below unity
// is achieved by time-stretching the same kernel at evaluation time rather
// than by redesigning it.
package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/go-tape-delay/internal/mathutil"
)

const (
	// Tap count bounds. Taps must be odd so row zero has an exact center.
	minTaps = 5
	maxTaps = 1023

	// Phase count bounds. More phases reduce fractional-delay error.
	minPhases = 16
	maxPhases = 8192

	// sincZeroThreshold guards the sinc singularity at t = 0.
	sincZeroThreshold = 1e-12
)

// Table is a bank of fractionally delayed windowed-sinc kernels.
//
// Rows[i] holds Taps coefficients for a delay of i/Phases samples; there are
// Phases+1 rows so a converter can always interpolate linearly between
// Rows[i] and Rows[i+1] without wrapping. Row zero samples the sinc at
// integer offsets, which makes it an exact unit impulse: a converter running
// at unity ratio with zero phase passes samples through bit-exactly.
//
// Each row is normalized to unit DC gain, so the interpolated output carries
// no amplitude modulation as the phase sweeps.
type Table struct {
	Taps   int
	Phases int
	Rows   [][]float64
}

// Half returns the kernel half-width in samples (taps on each side of the
// center tap).
func (t *Table) Half() int {
	return t.Taps / 2
}

// At evaluates the continuous kernel at offset u samples from the center,
// using linear interpolation across the phase rows. u must lie within
// [-Half-1, Half]; values outside return 0.
func (t *Table) At(u float64) float64 {
	half := t.Taps / 2

	// The row/tap grid covers offsets t = (j - half) - frac. Solve for the
	// tap index j and fractional delay frac that land on u.
	v := u + float64(half)
	if v < 0 || v > float64(t.Taps-1) {
		return 0
	}

	j := int(math.Ceil(v))
	if j > t.Taps-1 {
		j = t.Taps - 1
	}
	frac := float64(j) - v

	ph := frac * float64(t.Phases)
	pi := int(ph)
	pf := ph - float64(pi)

	c0 := t.Rows[pi][j]
	c1 := t.Rows[pi+1][j]
	return c0 + pf*(c1-c0)
}

// DesignTable builds a phase table with the given tap count per row, phase
// count, and stopband attenuation in dB (which sets the Kaiser window β).
//
// The kernel is a full-bandwidth interpolation filter: cutoff sits at
// Nyquist, so integer phases reduce to unit impulses. Converters stretch the
// kernel when downsampling, which scales the effective cutoff by the ratio.
func DesignTable(taps, phases int, attenuation float64) (*Table, error) {
	if taps < minTaps || taps > maxTaps {
		return nil, fmt.Errorf("invalid tap count %d (must be %d-%d)", taps, minTaps, maxTaps)
	}
	if taps%2 == 0 {
		return nil, fmt.Errorf("invalid tap count %d (must be odd)", taps)
	}
	if phases < minPhases || phases > maxPhases {
		return nil, fmt.Errorf("invalid phase count %d (must be %d-%d)", phases, minPhases, maxPhases)
	}
	if attenuation <= 0 {
		return nil, fmt.Errorf("invalid attenuation %f dB (must be positive)", attenuation)
	}

	beta := mathutil.KaiserBeta(attenuation)
	half := taps / 2

	// Window support: offsets span [-half-1, half], so normalize by half+1
	// to keep the window argument strictly inside (-1, 1).
	support := float64(half + 1)
	i0Beta := mathutil.BesselI0(beta)

	rows := make([][]float64, phases+1)
	for i := range rows {
		frac := float64(i) / float64(phases)
		row := make([]float64, taps)

		sum := 0.0
		for j := range taps {
			offset := float64(j-half) - frac
			row[j] = sinc(offset) * kaiserTerm(offset/support, beta, i0Beta)
			sum += row[j]
		}

		// Unit DC gain per row.
		if sum != 0 {
			for j := range row {
				row[j] /= sum
			}
		}

		rows[i] = row
	}

	return &Table{Taps: taps, Phases: phases, Rows: rows}, nil
}

// sinc computes the normalized sinc function sin(πt)/(πt).
//
// Integer arguments are snapped to exactly zero: math.Sin(math.Pi*t) leaves
// ~1e-17 of residue there because π is rounded, and the zeros must be exact
// for integer phase rows to reduce to unit impulses.
func sinc(t float64) float64 {
	if math.Abs(t) < sincZeroThreshold {
		return 1.0
	}
	if t == math.Round(t) {
		return 0.0
	}
	x := math.Pi * t
	return math.Sin(x) / x
}

// kaiserTerm evaluates one Kaiser window sample at normalized position
// x ∈ (-1, 1). i0Beta is the precomputed I₀(β) normalizer.
func kaiserTerm(x, beta, i0Beta float64) float64 {
	arg := 1.0 - x*x
	if arg < 0 {
		return 0
	}
	return mathutil.BesselI0(beta*math.Sqrt(arg)) / i0Beta
}
