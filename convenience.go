package tapedelay

// Common sample rates for convenience constructors.
const (
	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate, the most common host rate.
	RateDAT = 48000

	// RateHiRes96 is the high-resolution 2x DAT sample rate.
	RateHiRes96 = 96000

	// RateHiRes192 is the very high resolution 4x DAT sample rate.
	RateHiRes192 = 192000
)

// NewMono creates a mono engine with the default configuration at the given
// sample rate.
func NewMono[F Sample](sampleRate int) (*Engine[F], error) {
	return New[F](DefaultConfig(sampleRate, monoChannels))
}

// NewStereo creates a stereo engine with the default configuration at the
// given sample rate.
func NewStereo[F Sample](sampleRate int) (*Engine[F], error) {
	return New[F](DefaultConfig(sampleRate, stereoChannels))
}

// NewWithDelay creates an engine with the default configuration and a
// specific delay line length.
func NewWithDelay[F Sample](sampleRate, channels int, delaySeconds float64) (*Engine[F], error) {
	cfg := DefaultConfig(sampleRate, channels)
	cfg.DelaySeconds = delaySeconds
	return New[F](cfg)
}

// NewDeferred creates an engine using the deferred-ratio strategy with the
// default configuration: the write path is an identity copy and playback
// repitches material by the ratio of the current speed to the speed it was
// recorded at.
func NewDeferred[F Sample](sampleRate, channels int) (*Engine[F], error) {
	cfg := DefaultConfig(sampleRate, channels)
	cfg.Strategy = StrategyDeferredRatio
	return New[F](cfg)
}
