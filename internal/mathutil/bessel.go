// Package mathutil provides the numeric building blocks for the interpolation
// filter design: the modified Bessel function used by the Kaiser window and
// the empirical Kaiser formula relating attenuation to beta.
package mathutil

import (
	"math"
)

// BesselI0 computes the modified Bessel function of the first kind, order
// zero: I₀(x). It is the core of the Kaiser window evaluation.
//
// The implementation uses Chebyshev polynomial approximations for numerical
// stability:
//   - For |x| ≤ 3.75: direct polynomial series expansion
//   - For |x| > 3.75: asymptotic expansion with exponential scaling
//
// Accuracy is roughly 15 significant digits, which is far beyond what the
// window design needs.
//
// Reference: Abramowitz & Stegun, "Handbook of Mathematical Functions".
func BesselI0(x float64) float64 {
	// I₀(x) = I₀(-x)
	ax := math.Abs(x)

	if ax < besselSmallArgThreshold {
		// I₀(x) ≈ 1 + (x/3.75)² * P(t)
		t := x / besselSmallArgThreshold
		t *= t

		return 1.0 + t*(besselI0Coeff1+t*(besselI0Coeff2+t*(besselI0Coeff3+
			t*(besselI0Coeff4+t*(besselI0Coeff5+t*besselI0Coeff6)))))
	}

	// I₀(x) ≈ (eˣ / √x) * P(3.75/x) for large arguments
	t := besselSmallArgThreshold / ax

	result := besselI0AsympCoeff0 + t*(besselI0AsympCoeff1+t*(besselI0AsympCoeff2+
		t*(besselI0AsympCoeff3+t*(besselI0AsympCoeff4+t*(besselI0AsympCoeff5+
			t*(besselI0AsympCoeff6+t*(besselI0AsympCoeff7+t*besselI0AsympCoeff8)))))))

	return math.Exp(ax) * result / math.Sqrt(ax)
}

// KaiserBeta computes the Kaiser window β parameter from the desired
// stopband attenuation in decibels.
//
// β controls the trade-off between main lobe width and sidelobe level.
//
// Formula from Kaiser & Schafer:
//   - att > 50 dB:       β = 0.1102 * (att - 8.7)
//   - 21 dB < att ≤ 50:  β = 0.5842 * (att - 21)^0.4 + 0.07886 * (att - 21)
//   - att ≤ 21 dB:       β = 0
func KaiserBeta(attenuation float64) float64 {
	if attenuation > kaiserAttHigh {
		return kaiserBetaHighCoeff1 * (attenuation - kaiserBetaHighOffset)
	} else if attenuation >= kaiserAttMedium {
		delta := attenuation - kaiserAttMedium
		return kaiserBetaMediumCoeff1*math.Pow(delta, kaiserBetaMediumPower) + kaiserBetaMediumCoeff2*delta
	}
	return 0.0
}
