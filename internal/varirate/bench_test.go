package varirate

import (
	"testing"

	"github.com/tphakala/go-tape-delay/internal/testutil"
)

const benchChunk = 1024

// BenchmarkCubic_Process benchmarks the Hermite interpolator at unity ratio.
func BenchmarkCubic_Process(b *testing.B) {
	c, err := NewCubic[float64](1, benchChunk, 1.0, 0.25, 4.0)
	if err != nil {
		b.Fatal(err)
	}
	in := [][]float64{testutil.Sine(440, testRate, benchChunk)}
	out := [][]float64{make([]float64, c.MaxOutput(benchChunk))}

	b.ResetTimer()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := c.Process(in, out); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSinc_Direct benchmarks the phase-table path (ratio >= 1) for each
// sinc quality.
func BenchmarkSinc_Direct(b *testing.B) {
	for _, q := range []Quality{QualityLow, QualityMedium, QualityHigh, QualityVeryHigh} {
		b.Run(q.String(), func(b *testing.B) {
			c, err := NewSinc[float64](q, 1, benchChunk, 1.0, 0.25, 4.0)
			if err != nil {
				b.Fatal(err)
			}
			in := [][]float64{testutil.Sine(440, testRate, benchChunk)}
			out := [][]float64{make([]float64, c.MaxOutput(benchChunk))}

			b.ResetTimer()
			b.ReportAllocs()
			for b.Loop() {
				if _, err := c.Process(in, out); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSinc_Stretched benchmarks the stretched-kernel path (ratio below
// unity), which evaluates the continuous kernel per output sample.
func BenchmarkSinc_Stretched(b *testing.B) {
	c, err := NewSinc[float64](QualityMedium, 1, benchChunk, 0.5, 0.25, 4.0)
	if err != nil {
		b.Fatal(err)
	}
	in := [][]float64{testutil.Sine(440, testRate, benchChunk)}
	out := [][]float64{make([]float64, c.MaxOutput(benchChunk))}

	b.ResetTimer()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := c.Process(in, out); err != nil {
			b.Fatal(err)
		}
	}
}
