package tapedelay

// Channel constants
const (
	monoChannels   = 1
	stereoChannels = 2
	maxChannels    = 8 // Maximum supported channel count
)

// Sample rate limits in Hz
const (
	minSampleRate = 8000
	maxSampleRate = 384000
)

// Chunk and block size limits in samples
const (
	minChunkSize    = 16    // Smallest tape granule the engine will process
	maxChunkSize    = 16384 // Largest tape granule
	maxMaxBlockSize = 1 << 20
)

// Delay line limits in seconds
const (
	minDelaySeconds = 0.001
	maxDelaySeconds = 120.0
)

// Playback speed limits. The supported range is wider than the defaults;
// per-instance bounds are set in Config and validated against these.
const (
	minSupportedSpeed = 1.0 / 64.0
	maxSupportedSpeed = 64.0

	defaultMinSpeed = 0.25
	defaultMaxSpeed = 4.0
)

// Default configuration values
const (
	defaultChunkSize    = 256
	defaultMaxBlockSize = 4096
	defaultDelaySeconds = 10.0
)

// Engine buffer sizing
const (
	// minPrefillChunks is the smallest delay the engine accepts, expressed
	// in chunks: the prefill must absorb converter emission lag with room
	// to spare.
	minPrefillChunks = 4

	// tapeSlackChunks pads the tape capacity beyond the prefill so a block
	// of writes at the extreme speed bound cannot overflow mid-block.
	tapeSlackChunks = 2

	// stagingMarginSamples pads the output staging ring beyond one chunk
	// plus the worst-case converter output.
	stagingMarginSamples = 16

	// readPullSpanChunks is how many chunk-sized tape granules one output
	// chunk may consume at the lowest read ratio, counting ratio slew
	// overshoot; readPullSlack covers converter priming on top of that.
	readPullSpanChunks = 3.0
	readPullSlack      = 8
)

// Deferred-ratio scheduler limits
const (
	// maxScheduleEvents caps the speed-change queue. The queue must cover
	// one change per chunk across the full tape span; configurations that
	// would need more are rejected at construction.
	maxScheduleEvents = 1 << 16
)
