// Package testutil provides shared helpers for the engine tests: testify
// assertions for sample slices, test signal generation, and spectral
// measurement for pitch-tracking tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Default tolerances for common test scenarios.
const (
	DefaultTolerance = 1e-10

	// halfDivisor is used for center indices in symmetric arrays.
	halfDivisor = 2
)

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [minVal, maxVal].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertRelativeError verifies the relative error between actual and
// expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// AssertContinuous verifies that no adjacent-sample step in s exceeds
// maxStep. Used to catch clicks at ratio-update boundaries.
func AssertContinuous(t *testing.T, s []float64, maxStep float64, msgAndArgs ...any) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		step := math.Abs(s[i] - s[i-1])
		if step > maxStep {
			return assert.Fail(t, "discontinuity",
				"step of %e at sample %d exceeds %e", step, i, maxStep)
		}
	}
	return true
}

// Sine generates n samples of a sine wave at freq Hz sampled at rate Hz.
func Sine(freq, rate float64, n int) []float64 {
	s := make([]float64, n)
	w := 2 * math.Pi * freq / rate
	for i := range s {
		s[i] = math.Sin(w * float64(i))
	}
	return s
}

// RMS returns the root-mean-square level of s.
func RMS(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}

// MaxAbs returns the largest absolute sample value in s.
func MaxAbs(s []float64) float64 {
	peak := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// DominantFrequency returns the frequency in Hz of the strongest spectral
// component of s, sampled at rate Hz. A Hann window is applied and the peak
// bin is refined by parabolic interpolation, giving resolution well below
// one bin for clean tones.
func DominantFrequency(s []float64, rate float64) float64 {
	n := len(s)
	if n < 4 {
		return 0
	}

	windowed := make([]float64, n)
	for i, v := range s {
		hann := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = v * hann
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, windowed)

	peak := 0
	peakMag := 0.0
	for i, c := range coeffs {
		mag := cmplxAbs(c)
		if mag > peakMag {
			peakMag = mag
			peak = i
		}
	}

	// Parabolic refinement around the peak bin.
	offset := 0.0
	if peak > 0 && peak < len(coeffs)-1 {
		a := math.Log(cmplxAbs(coeffs[peak-1]) + tinyMag)
		b := math.Log(cmplxAbs(coeffs[peak]) + tinyMag)
		c := math.Log(cmplxAbs(coeffs[peak+1]) + tinyMag)
		denom := a - 2*b + c
		if denom != 0 {
			offset = 0.5 * (a - c) / denom
		}
	}

	binHz := rate / float64(n)
	return (float64(peak) + offset) * binHz
}

// tinyMag avoids log(0) in the parabolic peak refinement.
const tinyMag = 1e-30

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
