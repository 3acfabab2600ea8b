// Package tapedelay implements a variable-speed tape delay audio effect in
// pure Go.
//
// The engine models a loop of tape between a record head and a playback
// head. Incoming audio is recorded onto a circular buffer and played back a
// configurable time later, with both heads running at a host-controlled
// speed. Changing the speed changes pitch and delay time together, the way a
// varispeed tape machine does.
//
// # Features
//
//   - Delay lines up to two minutes, mono to 8 channels
//   - Continuous speed control with click-free ratio slewing
//   - Two speed strategies: dual-converter (pitch follows speed on both
//     heads) and deferred-ratio (material is repitched by the ratio of
//     playback speed to the speed it was recorded at)
//   - Quality presets from cubic interpolation to long windowed-sinc
//     kernels, with anti-aliasing that tracks the conversion ratio
//   - Real-time safe processing: no allocation, locking, or I/O inside
//     Process; overflow and starvation degrade the audio by policy and are
//     reported through diagnostics, never as errors or panics
//   - Optional SIMD acceleration (AVX2/SSE) via github.com/tphakala/simd
//
// # Quick Start
//
//	engine, err := tapedelay.NewStereo[float64](tapedelay.RateDAT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// In the audio callback: buf is [][]float64, one slice per channel,
//	// length a multiple of the chunk size. Processed in place.
//	status, err := engine.Process(buf, speed)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if status == tapedelay.StatusDegraded {
//	    log.Println(engine.Diagnostics())
//	}
//
// # Speed Strategies
//
// [StrategyDualConverter] (the default) runs a rate converter on both sides
// of the tape: the record head lays down speed tape samples per host sample
// and the playback head consumes them at the same rate. Tape consumption
// stays balanced at any constant speed; the delay time in host samples is
// the tape span divided by the speed, so speeding up shortens the delay as
// it sweeps pitch, the way a reel-to-reel transport does.
//
// [StrategyDeferredRatio] records untouched and queues each speed change
// with the tape position it occurred at. Playback runs at the ratio of the
// current speed to the recorded speed, so a speed change is heard twice:
// immediately on material already on the tape, and again one delay period
// later when material recorded at the new speed reaches the playback head.
//
// # Quality Presets
//
//   - [QualityQuick]: 4-point Hermite interpolation. Lowest CPU.
//   - [QualityLow]: short sinc kernel, ~60 dB stopband.
//   - [QualityMedium]: ~90 dB stopband. Good default for musical use.
//   - [QualityHigh]: ~120 dB stopband.
//   - [QualityVeryHigh]: ~150 dB stopband, for critical material.
//
// At all sinc qualities a steady unity speed is a bit-exact delayed
// passthrough.
package tapedelay
