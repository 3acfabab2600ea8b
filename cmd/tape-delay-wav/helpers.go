package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	tapedelay "github.com/tphakala/go-tape-delay"
	"github.com/tphakala/go-tape-delay/internal/smooth"
)

const (
	bitDepth16    = 16
	bitDepth24    = 24
	bitDepth32    = 32
	progressEvery = 10 * 48000 // frames between verbose progress lines

	pcmFormatTag = 1 // WAVE_FORMAT_PCM
)

// wavInputInfo bundles an open WAV decoder with the format facts the
// processing loop needs.
type wavInputInfo struct {
	file        *os.File
	decoder     *wav.Decoder
	rate        int
	channels    int
	bitDepth    int
	totalFrames int64
}

func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}

	dur, err := dec.Duration()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read WAV duration: %w", err)
	}

	if dec.WavAudioFormat != pcmFormatTag {
		_ = f.Close()
		return nil, fmt.Errorf("unsupported WAV format tag %d (only PCM is supported)", dec.WavAudioFormat)
	}

	info := &wavInputInfo{
		file:        f,
		decoder:     dec,
		rate:        int(dec.SampleRate),
		channels:    int(dec.NumChans),
		bitDepth:    int(dec.BitDepth),
		totalFrames: int64(dur.Seconds() * float64(dec.SampleRate)),
	}
	if info.channels < 1 {
		_ = f.Close()
		return nil, fmt.Errorf("unsupported channel count %d", info.channels)
	}
	if verbose {
		log.Printf("Opened %s: %.2f s", path, dur.Seconds())
	}
	return info, nil
}

// wavOutputWriter wraps a WAV encoder writing interleaved int frames.
type wavOutputWriter struct {
	file    *os.File
	encoder *wav.Encoder
}

func createWAVOutput(path string, rate, bitDepth, channels int) (*wavOutputWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	return &wavOutputWriter{file: f, encoder: enc}, nil
}

func (w *wavOutputWriter) WriteFrames(bufs *blockBuffers, frames int) error {
	buf := &audio.IntBuffer{
		Format:         bufs.intBuffer.Format,
		SourceBitDepth: bufs.intBuffer.SourceBitDepth,
		Data:           bufs.intBuffer.Data[:frames*bufs.channels],
	}
	if err := w.encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	return nil
}

func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return w.file.Close()
}

// blockBuffers holds the reusable interleaved and per-channel scratch for
// one processing block.
type blockBuffers struct {
	channels  int
	scale     float64 // int sample full-scale value
	intBuffer *audio.IntBuffer
	wet       [][]float64 // sliced per block from wetStore
	wetStore  [][]float64
	dry       [][]float64
}

func newBlockBuffers(channels, bitDepth int) *blockBuffers {
	b := &blockBuffers{
		channels: channels,
		scale:    maxValFor(bitDepth),
		intBuffer: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels},
			SourceBitDepth: bitDepth,
			Data:           make([]int, blockFrames*channels),
		},
		wet:      make([][]float64, channels),
		wetStore: make([][]float64, channels),
		dry:      make([][]float64, channels),
	}
	for ch := range b.wetStore {
		b.wetStore[ch] = make([]float64, blockFrames)
		b.dry[ch] = make([]float64, blockFrames)
	}
	return b
}

// zeroInput fills the interleaved buffer with silence for tail rendering.
func (b *blockBuffers) zeroInput(frames int) {
	data := b.intBuffer.Data[:frames*b.channels]
	for i := range data {
		data[i] = 0
	}
}

// deinterleave splits the int frames into normalized per-channel floats,
// zero-padding each channel up to padded frames. The engine processes the
// padded length; only the first frames of the result are written out.
func (b *blockBuffers) deinterleave(frames, padded int) {
	inv := 1.0 / b.scale
	for ch := 0; ch < b.channels; ch++ {
		wet := b.wetStore[ch][:padded]
		for i := 0; i < frames; i++ {
			wet[i] = float64(b.intBuffer.Data[i*b.channels+ch]) * inv
		}
		for i := frames; i < padded; i++ {
			wet[i] = 0
		}
		copy(b.dry[ch][:frames], wet[:frames])
		b.wet[ch] = wet
	}
}

// blend mixes the dry signal back into the processed block.
func (b *blockBuffers) blend(mix float64, frames int) {
	if mix >= 1.0 {
		return
	}
	dryGain := 1.0 - mix
	for ch := 0; ch < b.channels; ch++ {
		wet := b.wet[ch]
		dry := b.dry[ch]
		for i := 0; i < frames; i++ {
			wet[i] = wet[i]*mix + dry[i]*dryGain
		}
	}
}

// interleave converts the processed floats back to clamped ints.
func (b *blockBuffers) interleave(frames int) {
	for ch := 0; ch < b.channels; ch++ {
		wet := b.wet[ch]
		for i := 0; i < frames; i++ {
			b.intBuffer.Data[i*b.channels+ch] = clampToInt(wet[i]*b.scale, b.scale)
		}
	}
}

func maxValFor(bitDepth int) float64 {
	switch bitDepth {
	case bitDepth16:
		return float64(1 << 15)
	case bitDepth24:
		return float64(1 << 23)
	case bitDepth32:
		return float64(1 << 31)
	default:
		return float64(int(1) << (bitDepth - 1))
	}
}

func clampToInt(v, scale float64) int {
	if v > scale-1 {
		return int(scale) - 1
	}
	if v < -scale {
		return -int(scale)
	}
	return int(math.Round(v))
}

// padToChunk rounds frames up to the next multiple of chunk.
func padToChunk(frames, chunk int) int {
	rem := frames % chunk
	if rem == 0 {
		return frames
	}
	return frames + chunk - rem
}

// speedBounds widens the default speed range to admit the ramp target.
func speedBounds(lo, hi, target float64) (float64, float64) {
	if target < lo {
		lo = target
	}
	if target > hi {
		hi = target
	}
	return lo, hi
}

func parseQuality(s string) tapedelay.Quality {
	switch strings.ToLower(s) {
	case "quick":
		return tapedelay.QualityQuick
	case "low":
		return tapedelay.QualityLow
	case "high":
		return tapedelay.QualityHigh
	case "veryhigh", "very-high":
		return tapedelay.QualityVeryHigh
	default:
		return tapedelay.QualityMedium
	}
}

func parseStrategy(s string) (tapedelay.Strategy, error) {
	switch strings.ToLower(s) {
	case "dual", "":
		return tapedelay.StrategyDualConverter, nil
	case "deferred":
		return tapedelay.StrategyDeferredRatio, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want dual or deferred)", s)
	}
}

// speedPlan drives the speed automation: unity until rampAt, ramp to the
// target, hold, ramp back to unity. The ramp itself comes from the linear
// smoother so per-block speeds land on the same trajectory regardless of
// block size.
type speedPlan struct {
	sm        *smooth.Linear
	target    float64
	rampAt    int64
	rampBack  int64
	pos       int64
	ramped    bool
	returning bool
}

func newSpeedPlan(sampleRate, rampMs, target, atSeconds, holdSeconds float64) (*speedPlan, error) {
	sm, err := smooth.NewLinear(sampleRate, rampMs)
	if err != nil {
		return nil, fmt.Errorf("invalid ramp: %w", err)
	}
	sm.Jump(1.0)
	return &speedPlan{
		sm:       sm,
		target:   target,
		rampAt:   int64(atSeconds * sampleRate),
		rampBack: int64((atSeconds + holdSeconds) * sampleRate),
	}, nil
}

// next returns the speed for a block of the given length and advances the
// plan position past it.
func (p *speedPlan) next(frames int) float64 {
	if !p.ramped && p.pos >= p.rampAt {
		p.sm.SetTarget(p.target)
		p.ramped = true
	}
	if !p.returning && p.pos >= p.rampBack {
		p.sm.SetTarget(1.0)
		p.returning = true
	}
	p.pos += int64(frames)
	return p.sm.Skip(frames)
}

// progressTracker prints occasional progress lines in verbose mode.
type progressTracker struct {
	total    int64
	interval int64
	next     int64
	enabled  bool
}

func newProgressTracker(totalFrames int64, verbose bool) *progressTracker {
	return &progressTracker{
		total:    totalFrames,
		interval: progressEvery,
		next:     progressEvery,
		enabled:  verbose && totalFrames > progressEvery,
	}
}

func (p *progressTracker) reportIfNeeded(frames int64) {
	if !p.enabled || frames < p.next {
		return
	}
	log.Printf("Progress: %d / %d frames (%.0f%%)",
		frames, p.total, float64(frames)/float64(p.total)*percentScale)
	p.next += p.interval
}
