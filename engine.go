package tapedelay

import (
	"fmt"
	"math"

	"github.com/tphakala/go-tape-delay/internal/tape"
	"github.com/tphakala/go-tape-delay/internal/varirate"
)

type engineState int

const (
	stateUninitialized engineState = iota
	stateReady
	stateProcessing
)

// Engine is a variable-speed tape delay: incoming audio is recorded onto a
// circular tape and played back from a point DelaySeconds behind the record
// head, with both heads running at the host-controlled speed.
//
// An Engine is single-threaded by contract: Process, Reset and Diagnostics
// must be called from one goroutine (typically the audio callback). After
// New, the audio path performs no allocation, locking, or I/O.
//
// The zero value is not usable; construct with New.
type Engine[F Sample] struct {
	cfg   Config
	state engineState

	tape    *tape.Buffer[F]
	staging *tape.Buffer[F]

	wconv varirate.Converter[F] // nil for the deferred-ratio strategy
	rconv varirate.Converter[F]
	sched scheduler

	// Scratch, sized at construction for the speed bounds.
	wOut    [][]F
	rOut    [][]F
	tapeOut [][]F
	views   [][]F

	// maxReadPulls bounds the tape granules one output chunk may consume,
	// covering the slowest read ratio plus converter lookahead at the
	// smallest chunk size.
	maxReadPulls int

	// restSpeed is the speed the schedule starts from, 1.0 clamped into
	// the configured bounds.
	restSpeed float64

	inUnderrun bool
	diag       Diagnostics
}

// New creates an engine for the given configuration. The tape is prefilled
// with DelaySeconds of silence, so the engine is immediately ready: the
// first Process call plays silence while the first recorded audio travels
// from the record head to the playback head.
func New[F Sample](cfg Config) (*Engine[F], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	restSpeed := clampf(1.0, cfg.MinSpeed, cfg.MaxSpeed)
	rlo, rhi := cfg.readRatioBounds()
	quality := cfg.Quality.varirate()

	rconv, err := varirate.New[F](quality, cfg.Channels, cfg.ChunkSize, clampf(1.0, rlo, rhi), rlo, rhi)
	if err != nil {
		return nil, fmt.Errorf("read converter: %w", err)
	}

	var wconv varirate.Converter[F]
	var wOut [][]F
	if cfg.Strategy == StrategyDualConverter {
		wlo, whi := cfg.MinSpeed, cfg.MaxSpeed
		wconv, err = varirate.New[F](quality, cfg.Channels, cfg.ChunkSize, restSpeed, wlo, whi)
		if err != nil {
			return nil, fmt.Errorf("write converter: %w", err)
		}
		wOut = allocChannels[F](cfg.Channels, wconv.MaxOutput(cfg.ChunkSize))
	}

	tp, err := tape.NewBuffer[F](cfg.Channels, cfg.tapeCapacity())
	if err != nil {
		return nil, fmt.Errorf("tape: %w", err)
	}

	staging, err := tape.NewBuffer[F](cfg.Channels, cfg.ChunkSize+rconv.MaxOutput(cfg.ChunkSize)+stagingMarginSamples)
	if err != nil {
		return nil, fmt.Errorf("staging: %w", err)
	}

	var sched scheduler
	if cfg.Strategy == StrategyDeferredRatio {
		sched = newDeferredSchedule(cfg.tapeCapacity()/cfg.ChunkSize+1, restSpeed)
	} else {
		sched = newDualSchedule(restSpeed)
	}

	e := &Engine[F]{
		cfg:          cfg,
		tape:         tp,
		staging:      staging,
		wconv:        wconv,
		rconv:        rconv,
		sched:        sched,
		wOut:         wOut,
		rOut:         allocChannels[F](cfg.Channels, rconv.MaxOutput(cfg.ChunkSize)),
		tapeOut:      allocChannels[F](cfg.Channels, cfg.ChunkSize),
		views:        make([][]F, cfg.Channels),
		maxReadPulls: int(math.Ceil(readPullSpanChunks/rlo)) + readPullSlack,
		restSpeed:    restSpeed,
	}
	if err := e.prime(); err != nil {
		return nil, err
	}
	e.state = stateReady
	return e, nil
}

// prime loads the delay line with silence. The schedule's write position
// advances with it so deferred speed changes line up with tape content.
func (e *Engine[F]) prime() error {
	n := e.cfg.prefillSamples()
	if err := e.tape.PrefillSilence(n); err != nil {
		return fmt.Errorf("prefill: %w", err)
	}
	e.sched.noteWrite(n)
	return nil
}

// Process runs one block of audio through the delay in place: buf is
// consumed as input and overwritten with the delayed output.
//
// The block length must be a positive multiple of ChunkSize, no longer than
// MaxBlockSize, equal across channels; speed must lie within the configured
// bounds. Violations return an error and leave buf untouched. Tape overflow
// or starvation during the block degrades the audio by policy and returns
// StatusDegraded, never an error.
func (e *Engine[F]) Process(buf [][]F, speed float64) (Status, error) {
	if e.state == stateUninitialized {
		return StatusNormal, ErrInvalidState
	}

	if len(buf) != e.cfg.Channels {
		return StatusNormal, fmt.Errorf("%w: want %d channels, got %d", ErrInvalidBlock, e.cfg.Channels, len(buf))
	}
	n := len(buf[0])
	for ch := 1; ch < len(buf); ch++ {
		if len(buf[ch]) != n {
			return StatusNormal, fmt.Errorf("%w: channel lengths differ (%d vs %d)", ErrInvalidBlock, n, len(buf[ch]))
		}
	}
	if n == 0 || n%e.cfg.ChunkSize != 0 {
		return StatusNormal, fmt.Errorf("%w: length %d is not a positive multiple of chunk size %d", ErrInvalidBlock, n, e.cfg.ChunkSize)
	}
	if n > e.cfg.MaxBlockSize {
		return StatusNormal, fmt.Errorf("%w: length %d exceeds max block size %d", ErrInvalidBlock, n, e.cfg.MaxBlockSize)
	}
	if math.IsNaN(speed) || speed < e.cfg.MinSpeed || speed > e.cfg.MaxSpeed {
		return StatusNormal, fmt.Errorf("%w: %g not in [%g, %g]", ErrSpeedOutOfRange, speed, e.cfg.MinSpeed, e.cfg.MaxSpeed)
	}

	e.state = stateProcessing
	status := StatusNormal

	if e.cfg.UpdateGranularity == GranularityBlock {
		if err := e.sched.apply(speed); err != nil {
			return status, err
		}
	}

	for off := 0; off < n; off += e.cfg.ChunkSize {
		if e.cfg.UpdateGranularity == GranularityChunk {
			if err := e.sched.apply(speed); err != nil {
				return status, err
			}
		}
		degraded, err := e.processChunk(buf, off)
		if err != nil {
			return status, err
		}
		if degraded {
			status = StatusDegraded
		}
	}

	e.diag.BlocksProcessed++
	e.diag.SamplesIn += uint64(n)
	e.diag.SamplesOut += uint64(n)
	return status, nil
}

// processChunk records one chunk onto the tape, then pulls tape through the
// playback converter into the staging ring until a full output chunk is
// available, and writes it back over the same region of buf.
func (e *Engine[F]) processChunk(buf [][]F, off int) (degraded bool, err error) {
	chunk := e.cfg.ChunkSize
	droppedBefore := e.tape.DroppedSamples()
	paddedBefore := e.tape.PaddedSamples() + e.staging.PaddedSamples()

	for ch := range buf {
		e.views[ch] = buf[ch][off : off+chunk]
	}

	// Record side. Overflow advances the read head past the dropped
	// samples, so the schedule sees them as consumed.
	if e.wconv != nil {
		if err := e.wconv.SetRatio(e.sched.writeRatio()); err != nil {
			return false, err
		}
		m, err := e.wconv.Process(e.views, e.wOut)
		if err != nil {
			return false, err
		}
		lost := e.tape.Write(e.wOut, m)
		e.sched.noteWrite(m)
		e.sched.noteRead(lost)
	} else {
		lost := e.tape.Write(e.views, chunk)
		e.sched.noteWrite(chunk)
		e.sched.noteRead(lost)
	}

	// Playback side. Each pull may retire deferred speed changes, so the
	// ratio is refreshed before every pull, not just every chunk.
	for pulls := 0; e.staging.Available() < chunk && pulls < e.maxReadPulls; pulls++ {
		if err := e.rconv.SetRatio(e.sched.readRatio()); err != nil {
			return false, err
		}
		got := e.tape.Read(e.tapeOut, chunk)
		e.sched.noteRead(got)
		m, err := e.rconv.Process(e.tapeOut, e.rOut)
		if err != nil {
			return false, err
		}
		e.staging.Write(e.rOut, m)
	}

	e.staging.Read(e.views, chunk)

	dropped := e.tape.DroppedSamples() - droppedBefore
	padded := e.tape.PaddedSamples() + e.staging.PaddedSamples() - paddedBefore
	e.diag.OverrunSamples += dropped
	e.diag.UnderrunSamples += padded
	if padded > 0 {
		if !e.inUnderrun {
			e.diag.UnderrunEpisodes++
			e.inUnderrun = true
		}
	} else {
		e.inUnderrun = false
	}
	return dropped > 0 || padded > 0, nil
}

// Reset returns the engine to its freshly constructed state without
// deallocating: the tape is cleared and re-primed with silence, converters
// and schedule restart, and diagnostics are zeroed.
func (e *Engine[F]) Reset() {
	if e.state == stateUninitialized {
		return
	}
	e.tape.Clear()
	e.staging.Clear()
	rlo, rhi := e.cfg.readRatioBounds()
	if e.wconv != nil {
		_ = e.wconv.SetRatio(e.restSpeed) // within constructed bounds
		e.wconv.Reset()
	}
	_ = e.rconv.SetRatio(clampf(1.0, rlo, rhi))
	e.rconv.Reset()
	e.sched.reset(e.restSpeed)
	_ = e.prime() // capacity verified at construction
	e.inUnderrun = false
	e.diag = Diagnostics{}
	e.state = stateReady
}

// Latency returns the delay line length in samples: at unity speed the
// output is the input from this many samples ago.
func (e *Engine[F]) Latency() int {
	return e.cfg.prefillSamples()
}

// Diagnostics returns a snapshot of the counters accumulated since New or
// Reset.
func (e *Engine[F]) Diagnostics() Diagnostics {
	d := e.diag
	if e.state != stateUninitialized {
		d.ScheduleDepth = e.sched.depth()
	}
	return d
}

// Config returns a copy of the engine's configuration.
func (e *Engine[F]) Config() Config {
	return e.cfg
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func allocChannels[F Sample](channels, n int) [][]F {
	out := make([][]F, channels)
	for ch := range out {
		out[ch] = make([]F, n)
	}
	return out
}
