package tapedelay

import (
	"math"
	"testing"
)

func benchBlock(channels, frames int) [][]float64 {
	buf := make([][]float64, channels)
	for ch := range buf {
		buf[ch] = make([]float64, frames)
		for i := range buf[ch] {
			buf[ch][i] = math.Sin(2 * math.Pi * 440 * float64(i) / 48000)
		}
	}
	return buf
}

// BenchmarkEngine_ProcessUnity benchmarks steady-state stereo processing at
// unity speed for each quality preset.
func BenchmarkEngine_ProcessUnity(b *testing.B) {
	for _, q := range []Quality{QualityQuick, QualityMedium, QualityHigh} {
		b.Run(q.String(), func(b *testing.B) {
			cfg := DefaultConfig(48000, 2)
			cfg.Quality = q
			cfg.DelaySeconds = 0.5
			e, err := New[float64](cfg)
			if err != nil {
				b.Fatal(err)
			}
			buf := benchBlock(2, cfg.MaxBlockSize)

			b.ResetTimer()
			b.ReportAllocs()
			for b.Loop() {
				if _, err := e.Process(buf, 1.0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkEngine_ProcessSweep benchmarks processing under per-chunk speed
// automation, which exercises the ratio slew on every chunk.
func BenchmarkEngine_ProcessSweep(b *testing.B) {
	for _, strat := range []Strategy{StrategyDualConverter, StrategyDeferredRatio} {
		b.Run(strat.String(), func(b *testing.B) {
			cfg := DefaultConfig(48000, 1)
			cfg.Strategy = strat
			cfg.DelaySeconds = 0.5
			cfg.UpdateGranularity = GranularityChunk
			e, err := New[float64](cfg)
			if err != nil {
				b.Fatal(err)
			}
			buf := benchBlock(1, cfg.MaxBlockSize)

			speeds := []float64{0.9, 1.1}
			b.ResetTimer()
			b.ReportAllocs()
			i := 0
			for b.Loop() {
				if _, err := e.Process(buf, speeds[i&1]); err != nil {
					b.Fatal(err)
				}
				i++
			}
		})
	}
}

// BenchmarkEngine_Float32 benchmarks the float32 payload path.
func BenchmarkEngine_Float32(b *testing.B) {
	cfg := DefaultConfig(48000, 2)
	cfg.DelaySeconds = 0.5
	e, err := New[float32](cfg)
	if err != nil {
		b.Fatal(err)
	}

	buf := make([][]float32, 2)
	for ch := range buf {
		buf[ch] = make([]float32, cfg.MaxBlockSize)
		for i := range buf[ch] {
			buf[ch][i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 48000))
		}
	}

	b.ResetTimer()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := e.Process(buf, 1.0); err != nil {
			b.Fatal(err)
		}
	}
}
