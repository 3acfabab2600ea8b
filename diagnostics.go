package tapedelay

// Status reports how a Process call went. Degradation (tape overflow or
// starvation) never fails the call; the engine substitutes defined audio and
// reports it here and in Diagnostics.
type Status int

const (
	// StatusNormal means the block was processed without degradation.
	StatusNormal Status = iota

	// StatusDegraded means the tape overflowed or ran dry during the
	// block: some audio was dropped or padded.
	StatusDegraded
)

// String returns the status name.
func (s Status) String() string {
	if s == StatusDegraded {
		return "degraded"
	}
	return "normal"
}

// Diagnostics is a snapshot of the engine's cumulative counters since New
// or Reset.
type Diagnostics struct {
	// BlocksProcessed counts completed Process calls.
	BlocksProcessed uint64

	// SamplesIn and SamplesOut count host samples per channel through
	// Process. They are always equal after a successful call; both are
	// kept because degraded output is synthesized, not carried audio.
	SamplesIn  uint64
	SamplesOut uint64

	// OverrunSamples counts tape samples dropped to make room for newer
	// audio.
	OverrunSamples uint64

	// UnderrunSamples counts tape samples synthesized because the read
	// side outran the write side.
	UnderrunSamples uint64

	// UnderrunEpisodes counts starvation episodes: consecutive starved
	// chunks count once.
	UnderrunEpisodes uint64

	// ScheduleDepth is the number of speed changes still queued on the
	// tape (deferred-ratio strategy only).
	ScheduleDepth int
}
