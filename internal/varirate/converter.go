// Package varirate implements variable-ratio sample-rate conversion for the
// tape transport: each converter consumes blocks of samples at one rate and
// produces them at another, with a ratio that can be retargeted at block
// granularity while the stream is running.
//
// Two implementations are provided. Cubic is a 4-point Hermite interpolator
// for the quick quality setting. Sinc is a Kaiser windowed-sinc interpolator
// driven by a precomputed phase table, with kernel time-stretching for
// anti-aliased downsampling.
//
// All position and ratio arithmetic is performed in float64 regardless of
// the payload type, so chained ratio updates do not drift over long
// sessions. No method allocates after construction.
package varirate

import (
	"errors"
	"fmt"
)

// Float is the type constraint for supported sample types.
type Float interface {
	float32 | float64
}

// Common errors returned by converters.
var (
	// ErrInvalidRatio indicates a ratio outside the bounds the converter
	// was constructed with.
	ErrInvalidRatio = errors.New("ratio out of configured bounds")

	// ErrInputTooLarge indicates a Process call with more input than the
	// configured maximum block size.
	ErrInputTooLarge = errors.New("input block exceeds configured maximum")

	// ErrChannelMismatch indicates in/out slices with the wrong channel count.
	ErrChannelMismatch = errors.New("channel count mismatch")
)

// Converter converts a sample stream between rates at an adjustable ratio
// (output rate / input rate).
//
// Converters are sample-synchronous: Process consumes all of its input and
// reports how many output samples it produced, which varies with the ratio
// and with internal lookahead. Callers size output buffers with MaxOutput.
type Converter[F Float] interface {
	// SetRatio retargets the conversion ratio. The change is slewed
	// internally over a short ramp so retargeting never produces a
	// discontinuity in the output.
	SetRatio(ratio float64) error

	// Process consumes len(in[0]) samples per channel and writes converted
	// samples to the front of each out channel, returning the count
	// produced. in and out must not alias.
	Process(in, out [][]F) (int, error)

	// MaxOutput returns the worst-case output count for n input samples,
	// for sizing output buffers.
	MaxOutput(n int) int

	// Ratio returns the current (possibly still slewing) ratio.
	Ratio() float64

	// Latency returns the converter's alignment latency in input samples.
	Latency() int

	// Reset clears all internal state, keeping the configured ratio.
	Reset()

	// Stats returns cumulative input and output sample counts.
	Stats() (in, out int64)
}

// Quality selects the conversion algorithm and its filter parameters.
type Quality int

const (
	// QualityQuick uses cubic Hermite interpolation. Cheapest, no
	// anti-aliasing on downward ratios.
	QualityQuick Quality = iota

	// QualityLow uses a short windowed-sinc kernel (~60 dB stopband).
	QualityLow

	// QualityMedium uses a mid-length kernel (~90 dB stopband).
	QualityMedium

	// QualityHigh uses a long kernel (~120 dB stopband).
	QualityHigh

	// QualityVeryHigh uses the longest kernel (~150 dB stopband).
	QualityVeryHigh
)

// String returns the quality name.
func (q Quality) String() string {
	switch q {
	case QualityQuick:
		return "quick"
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	case QualityVeryHigh:
		return "veryhigh"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// tableSpec returns the sinc table parameters for a quality level.
// Quick has no table; it is handled by the Cubic converter.
func (q Quality) tableSpec() (taps, phases int, attenuation float64) {
	switch q {
	case QualityLow:
		return tapsLow, phasesLow, attenuationLow
	case QualityMedium:
		return tapsMedium, phasesMedium, attenuationMedium
	case QualityVeryHigh:
		return tapsVeryHigh, phasesVeryHigh, attenuationVeryHigh
	default:
		return tapsHigh, phasesHigh, attenuationHigh
	}
}

// New constructs a converter of the given quality.
//
// channels and maxInput bound the per-call workload; initial, minRatio and
// maxRatio bound the ratio range, and are used to preallocate all history
// and scratch space so SetRatio and Process never allocate.
func New[F Float](quality Quality, channels, maxInput int, initial, minRatio, maxRatio float64) (Converter[F], error) {
	if quality == QualityQuick {
		return NewCubic[F](channels, maxInput, initial, minRatio, maxRatio)
	}
	return NewSinc[F](quality, channels, maxInput, initial, minRatio, maxRatio)
}

// validateBounds checks the shared constructor arguments.
func validateBounds(channels, maxInput int, initial, minRatio, maxRatio float64) error {
	if channels < 1 || channels > maxConverterChannels {
		return fmt.Errorf("invalid channel count %d (must be 1-%d)", channels, maxConverterChannels)
	}
	if maxInput < 1 || maxInput > maxConverterInput {
		return fmt.Errorf("invalid max input %d (must be 1-%d)", maxInput, maxConverterInput)
	}
	if !(minRatio > 0) || !(maxRatio >= minRatio) {
		return fmt.Errorf("invalid ratio bounds [%g, %g]", minRatio, maxRatio)
	}
	if minRatio < minSupportedRatio || maxRatio > maxSupportedRatio {
		return fmt.Errorf("ratio bounds [%g, %g] outside supported range [%g, %g]",
			minRatio, maxRatio, minSupportedRatio, maxSupportedRatio)
	}
	if initial < minRatio || initial > maxRatio {
		return fmt.Errorf("initial ratio %g outside bounds [%g, %g]", initial, minRatio, maxRatio)
	}
	return nil
}

// ratioRamp slews the working ratio toward a target over a fixed number of
// output samples, so ratio updates land click-free.
type ratioRamp struct {
	current   float64
	target    float64
	step      float64
	remaining int
}

func newRatioRamp(initial float64) ratioRamp {
	return ratioRamp{current: initial, target: initial}
}

// retarget starts a new slew toward ratio.
func (r *ratioRamp) retarget(ratio float64) {
	r.target = ratio
	if ratio == r.current {
		r.remaining = 0
		return
	}
	r.step = (ratio - r.current) / float64(rampLength)
	r.remaining = rampLength
}

// next returns the ratio to use for the upcoming output sample and advances
// the slew by one step.
func (r *ratioRamp) next() float64 {
	v := r.current
	if r.remaining > 0 {
		r.current += r.step
		r.remaining--
		if r.remaining == 0 {
			r.current = r.target
		}
	}
	return v
}

// jump abandons any slew in progress and pins the ratio.
func (r *ratioRamp) jump(ratio float64) {
	r.current = ratio
	r.target = ratio
	r.remaining = 0
}
