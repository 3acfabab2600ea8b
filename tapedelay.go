package tapedelay

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-tape-delay/internal/varirate"
)

// Sample is the payload type the engine operates on. All internal position
// and ratio arithmetic is float64 regardless of the payload type.
type Sample interface {
	float32 | float64
}

// Quality selects the rate-conversion algorithm used on both sides of the
// tape. Quick uses 4-point Hermite interpolation; the remaining levels use
// windowed-sinc kernels of increasing length.
type Quality int

const (
	// QualityQuick uses cubic interpolation. Fastest, audible aliasing at
	// extreme speeds.
	QualityQuick Quality = iota

	// QualityLow uses a short sinc kernel (~60 dB stopband).
	QualityLow

	// QualityMedium uses a medium sinc kernel (~90 dB stopband). Good
	// default for musical use.
	QualityMedium

	// QualityHigh uses a long sinc kernel (~120 dB stopband).
	QualityHigh

	// QualityVeryHigh uses the longest kernel (~150 dB stopband).
	QualityVeryHigh
)

// String returns the quality name.
func (q Quality) String() string {
	return q.varirate().String()
}

func (q Quality) varirate() varirate.Quality {
	switch q {
	case QualityQuick:
		return varirate.QualityQuick
	case QualityLow:
		return varirate.QualityLow
	case QualityHigh:
		return varirate.QualityHigh
	case QualityVeryHigh:
		return varirate.QualityVeryHigh
	default:
		return varirate.QualityMedium
	}
}

// Strategy selects how playback speed maps onto the tape.
type Strategy int

const (
	// StrategyDualConverter runs a rate converter on both sides of the
	// tape, both tracking the instantaneous speed: the record head lays
	// down speed tape samples per host sample and the playback head
	// consumes them at the same rate. Pitch and delay time change
	// together, like a true varispeed tape machine.
	StrategyDualConverter Strategy = iota

	// StrategyDeferredRatio writes to the tape untouched and records each
	// speed change alongside its tape position. The read side replays
	// audio at currentSpeed/recordedSpeed, so material recorded at one
	// speed and played at another shifts pitch by the speed ratio.
	StrategyDeferredRatio
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyDeferredRatio:
		return "deferred-ratio"
	default:
		return "dual-converter"
	}
}

// Granularity controls how often the scheduler refreshes converter ratios
// from the incoming speed value.
type Granularity int

const (
	// GranularityBlock applies the speed once per Process call. Cheapest;
	// the converters' internal slew still keeps updates click-free.
	GranularityBlock Granularity = iota

	// GranularityChunk re-applies the speed before every chunk, which
	// tightens ramp tracking for hosts that smooth speed per sample.
	GranularityChunk
)

// Common errors returned by the engine.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid tape delay configuration")

	// ErrInvalidState indicates a call on an engine that is not ready,
	// such as Process on a zero-value Engine.
	ErrInvalidState = errors.New("engine not initialized")

	// ErrInvalidBlock indicates a Process buffer with the wrong channel
	// count, unequal channel lengths, or a length that is not a positive
	// multiple of the chunk size.
	ErrInvalidBlock = errors.New("invalid audio block")

	// ErrSpeedOutOfRange indicates a speed outside the configured bounds.
	ErrSpeedOutOfRange = errors.New("speed out of range")

	// ErrScheduleFull indicates the deferred-ratio speed queue overflowed.
	ErrScheduleFull = errors.New("speed schedule full")
)

// Config holds tape delay engine configuration.
type Config struct {
	// SampleRate is the host sample rate in Hz.
	SampleRate int

	// Channels is the number of audio channels.
	Channels int

	// MaxBlockSize is the largest buffer Process will accept, in samples
	// per channel. Must be a multiple of ChunkSize.
	MaxBlockSize int

	// ChunkSize is the tape granule: Process works the tape in chunks of
	// this many samples. Smaller chunks track speed ramps more tightly at
	// higher per-sample cost.
	ChunkSize int

	// DelaySeconds is the delay line length. The tape is prefilled with
	// this much silence, so the first echo arrives after DelaySeconds at
	// unity speed.
	DelaySeconds float64

	// MinSpeed and MaxSpeed bound the speed argument to Process. All
	// internal buffers are sized for these bounds up front, so Process
	// never allocates.
	MinSpeed float64
	MaxSpeed float64

	// Quality selects the rate-conversion algorithm.
	Quality Quality

	// Strategy selects the speed-to-tape mapping.
	Strategy Strategy

	// UpdateGranularity controls how often converter ratios are refreshed.
	UpdateGranularity Granularity
}

// DefaultConfig returns a musically useful configuration: 10 seconds of
// stereo tape, quarter- to quadruple-speed, medium quality.
func DefaultConfig(sampleRate, channels int) Config {
	return Config{
		SampleRate:   sampleRate,
		Channels:     channels,
		MaxBlockSize: defaultMaxBlockSize,
		ChunkSize:    defaultChunkSize,
		DelaySeconds: defaultDelaySeconds,
		MinSpeed:     defaultMinSpeed,
		MaxSpeed:     defaultMaxSpeed,
		Quality:      QualityMedium,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate < minSampleRate || c.SampleRate > maxSampleRate {
		return fmt.Errorf("%w: sample rate %d outside %d-%d Hz", ErrInvalidConfig, c.SampleRate, minSampleRate, maxSampleRate)
	}

	if c.Channels < 1 || c.Channels > maxChannels {
		return fmt.Errorf("%w: channels must be 1-%d, got %d", ErrInvalidConfig, maxChannels, c.Channels)
	}

	if c.ChunkSize < minChunkSize || c.ChunkSize > maxChunkSize {
		return fmt.Errorf("%w: chunk size must be %d-%d, got %d", ErrInvalidConfig, minChunkSize, maxChunkSize, c.ChunkSize)
	}

	if c.MaxBlockSize < c.ChunkSize || c.MaxBlockSize > maxMaxBlockSize {
		return fmt.Errorf("%w: max block size must be %d-%d, got %d", ErrInvalidConfig, c.ChunkSize, maxMaxBlockSize, c.MaxBlockSize)
	}

	if c.MaxBlockSize%c.ChunkSize != 0 {
		return fmt.Errorf("%w: max block size %d is not a multiple of chunk size %d", ErrInvalidConfig, c.MaxBlockSize, c.ChunkSize)
	}

	if c.DelaySeconds < minDelaySeconds || c.DelaySeconds > maxDelaySeconds {
		return fmt.Errorf("%w: delay must be %g-%g s, got %g", ErrInvalidConfig, minDelaySeconds, maxDelaySeconds, c.DelaySeconds)
	}

	if c.prefillSamples() < minPrefillChunks*c.ChunkSize {
		return fmt.Errorf("%w: delay of %g s is under %d chunks at %d Hz", ErrInvalidConfig, c.DelaySeconds, minPrefillChunks, c.SampleRate)
	}

	if !(c.MinSpeed > 0) || c.MaxSpeed < c.MinSpeed {
		return fmt.Errorf("%w: speed bounds [%g, %g] are not ordered and positive", ErrInvalidConfig, c.MinSpeed, c.MaxSpeed)
	}

	if c.MinSpeed < minSupportedSpeed || c.MaxSpeed > maxSupportedSpeed {
		return fmt.Errorf("%w: speed bounds [%g, %g] outside supported [%g, %g]", ErrInvalidConfig, c.MinSpeed, c.MaxSpeed, minSupportedSpeed, maxSupportedSpeed)
	}

	if c.Quality < QualityQuick || c.Quality > QualityVeryHigh {
		return fmt.Errorf("%w: unknown quality %d", ErrInvalidConfig, c.Quality)
	}

	if c.Strategy != StrategyDualConverter && c.Strategy != StrategyDeferredRatio {
		return fmt.Errorf("%w: unknown strategy %d", ErrInvalidConfig, c.Strategy)
	}

	if c.UpdateGranularity != GranularityBlock && c.UpdateGranularity != GranularityChunk {
		return fmt.Errorf("%w: unknown update granularity %d", ErrInvalidConfig, c.UpdateGranularity)
	}

	if c.Strategy == StrategyDeferredRatio {
		// The read ratio spans currentSpeed/recordedSpeed, so its range is
		// the square of the speed range.
		lo, hi := c.readRatioBounds()
		if lo < varirate.MinSupportedRatio() || hi > varirate.MaxSupportedRatio() {
			return fmt.Errorf("%w: deferred-ratio speed bounds [%g, %g] imply ratios [%g, %g] beyond converter support", ErrInvalidConfig, c.MinSpeed, c.MaxSpeed, lo, hi)
		}

		events := c.tapeCapacity()/c.ChunkSize + 1
		if events > maxScheduleEvents {
			return fmt.Errorf("%w: delay span of %d chunks exceeds the %d-event speed schedule", ErrInvalidConfig, events, maxScheduleEvents)
		}
	}

	return nil
}

// prefillSamples returns the delay line length in tape samples.
func (c *Config) prefillSamples() int {
	return int(math.Round(c.DelaySeconds * float64(c.SampleRate)))
}

// tapeCapacity returns the ring buffer capacity: the prefill plus slack for
// the heaviest write burst a single block can produce.
func (c *Config) tapeCapacity() int {
	burst := c.MaxBlockSize
	if c.Strategy == StrategyDualConverter {
		// The record head lays down speed tape samples per host sample;
		// the fastest speed writes the most tape.
		burst = int(float64(c.MaxBlockSize)*c.MaxSpeed) + 1
	}
	return c.prefillSamples() + burst + tapeSlackChunks*c.ChunkSize
}

// readRatioBounds returns the output-per-input ratio range the read-side
// converter must be built for. Playback at speed s consumes s tape samples
// per output sample, so the converter ratio is 1/s; the deferred strategy
// repitches by recorded/current, whose range is the square of the speed
// range.
func (c *Config) readRatioBounds() (lo, hi float64) {
	if c.Strategy == StrategyDeferredRatio {
		return c.MinSpeed / c.MaxSpeed, c.MaxSpeed / c.MinSpeed
	}
	return 1.0 / c.MaxSpeed, 1.0 / c.MinSpeed
}
