package varirate

// Converter workload bounds.
const (
	maxConverterChannels = 64
	maxConverterInput    = 1 << 20

	// Supported ratio extremes. These bound preallocation: history length
	// scales with 1/minRatio and output scratch with maxRatio.
	minSupportedRatio = 1.0 / 256.0
	maxSupportedRatio = 256.0
)

// MinSupportedRatio returns the lowest ratio any converter accepts.
func MinSupportedRatio() float64 { return minSupportedRatio }

// MaxSupportedRatio returns the highest ratio any converter accepts.
func MaxSupportedRatio() float64 { return maxSupportedRatio }

// rampLength is the slew span for ratio retargeting, in output samples.
// Long enough to be inaudible, short enough that block-rate automation
// still tracks.
const rampLength = 64

// Sinc table parameters per quality level. Taps must be odd.
const (
	tapsLow        = 17
	phasesLow      = 128
	attenuationLow = 60.0

	tapsMedium        = 33
	phasesMedium      = 256
	attenuationMedium = 90.0

	tapsHigh        = 49
	phasesHigh      = 256
	attenuationHigh = 120.0

	tapsVeryHigh        = 65
	phasesVeryHigh      = 512
	attenuationVeryHigh = 150.0
)

// Cubic Hermite basis coefficients.
const (
	hermiteHalf        = 0.5
	hermiteThreeHalves = 1.5
	hermiteFiveHalves  = 2.5
)

// History sizing margins, in samples.
const (
	historyMargin = 8

	// maxOutputMargin pads MaxOutput for fractional-phase carry and
	// lookahead catch-up.
	maxOutputMargin = 4
)
