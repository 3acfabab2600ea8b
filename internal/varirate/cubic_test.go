package varirate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-tape-delay/internal/testutil"
)

const (
	testChunk = 128
	testRate  = 48000.0
)

// drive pushes a mono signal through a converter in fixed-size chunks and
// collects everything it produces.
func drive(t *testing.T, c Converter[float64], in []float64, chunk int) []float64 {
	t.Helper()

	out := make([]float64, 0, c.MaxOutput(len(in)))
	scratch := [][]float64{make([]float64, c.MaxOutput(chunk))}

	for off := 0; off < len(in); off += chunk {
		end := off + chunk
		if end > len(in) {
			end = len(in)
		}
		m, err := c.Process([][]float64{in[off:end]}, scratch)
		require.NoError(t, err)
		out = append(out, scratch[0][:m]...)
	}
	return out
}

func TestNewCubic_Validation(t *testing.T) {
	tests := []struct {
		name              string
		channels          int
		maxInput          int
		initial, lo, hi   float64
	}{
		{"zero_channels", 0, 64, 1, 0.5, 2},
		{"zero_input", 1, 0, 1, 0.5, 2},
		{"inverted_bounds", 1, 64, 1, 2, 0.5},
		{"initial_below", 1, 64, 0.1, 0.5, 2},
		{"initial_above", 1, 64, 4, 0.5, 2},
		{"ratio_too_small", 1, 64, 1, 1.0 / 1024.0, 2},
		{"ratio_too_large", 1, 64, 1, 0.5, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCubic[float64](tt.channels, tt.maxInput, tt.initial, tt.lo, tt.hi)
			assert.Error(t, err)
		})
	}
}

// TestCubic_UnityPassthrough verifies that a held ratio of exactly 1.0
// reproduces the input unchanged: Hermite interpolation at zero phase
// returns the center sample.
func TestCubic_UnityPassthrough(t *testing.T) {
	c, err := NewCubic[float64](1, testChunk, 1.0, 0.25, 4.0)
	require.NoError(t, err)

	in := testutil.Sine(440, testRate, 4*testChunk)
	out := drive(t, c, in, testChunk)

	require.NotEmpty(t, out)
	// Emission lags by the lookahead, so compare the overlapping prefix.
	for i, v := range out {
		require.Equal(t, in[i], v, "unity passthrough differs at %d", i)
	}
}

// TestCubic_RatioConvergence holds a constant ratio and checks the measured
// output:input count converges to it.
func TestCubic_RatioConvergence(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
	}{
		{"half", 0.5},
		{"unity", 1.0},
		{"golden", 1.618},
		{"double", 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCubic[float64](1, testChunk, tt.ratio, 0.25, 4.0)
			require.NoError(t, err)

			in := testutil.Sine(440, testRate, 200*testChunk)
			drive(t, c, in, testChunk)

			nin, nout := c.Stats()
			measured := float64(nout) / float64(nin)
			testutil.AssertRelativeError(t, tt.ratio, measured, 0.01)
		})
	}
}

// TestCubic_PitchScaling verifies the interpolated tone lands at
// freq/ratio when the output is interpreted at the input rate.
func TestCubic_PitchScaling(t *testing.T) {
	const ratio = 1.5
	c, err := NewCubic[float64](1, testChunk, ratio, 0.25, 4.0)
	require.NoError(t, err)

	in := testutil.Sine(1200, testRate, 400*testChunk)
	out := drive(t, c, in, testChunk)

	got := testutil.DominantFrequency(out[len(out)/4:], testRate)
	testutil.AssertRelativeError(t, 1200/ratio, got, 0.01)
}

// TestCubic_RatioSlewContinuity retargets the ratio mid-stream and checks
// the output stays click-free.
func TestCubic_RatioSlewContinuity(t *testing.T) {
	c, err := NewCubic[float64](1, testChunk, 1.0, 0.25, 4.0)
	require.NoError(t, err)

	in := testutil.Sine(1000, testRate, 100*testChunk)
	out := make([]float64, 0, c.MaxOutput(len(in)))
	scratch := [][]float64{make([]float64, c.MaxOutput(testChunk))}

	for off := 0; off < len(in); off += testChunk {
		if off == 50*testChunk {
			require.NoError(t, c.SetRatio(2.0))
		}
		m, err := c.Process([][]float64{in[off : off+testChunk]}, scratch)
		require.NoError(t, err)
		out = append(out, scratch[0][:m]...)
	}

	// A 1 kHz unit sine at 48 kHz moves at most ~0.131 per sample; allow
	// the interpolation a little headroom but no clicks.
	testutil.AssertContinuous(t, out, 0.2)
	testutil.AssertNoNaNOrInf(t, out)
}

// TestCubic_SteepDownRatio drives the converter at a ratio far below unity,
// where the read position overruns the buffered input after the last sample
// of a block. Processing must stay well-defined and the consumption rate
// must still converge on the ratio.
func TestCubic_SteepDownRatio(t *testing.T) {
	const ratio = 1.0 / 16
	c, err := NewCubic[float64](1, testChunk, ratio, 1.0/64, 4.0)
	require.NoError(t, err)

	in := testutil.Sine(200, testRate, 512*testChunk)
	out := drive(t, c, in, testChunk)

	testutil.AssertNoNaNOrInf(t, out)
	nin, nout := c.Stats()
	assert.EqualValues(t, len(in), nin)
	assert.InEpsilon(t, float64(nin)*ratio, float64(nout), 0.02)
}

func TestCubic_Errors(t *testing.T) {
	c, err := NewCubic[float64](2, 64, 1.0, 0.5, 2.0)
	require.NoError(t, err)

	assert.ErrorIs(t, c.SetRatio(3.0), ErrInvalidRatio)
	assert.ErrorIs(t, c.SetRatio(0.1), ErrInvalidRatio)

	in := [][]float64{make([]float64, 128), make([]float64, 128)}
	out := [][]float64{make([]float64, 512), make([]float64, 512)}
	_, err = c.Process(in, out)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = c.Process(in[:1], out)
	assert.ErrorIs(t, err, ErrChannelMismatch)
}

func TestCubic_Reset(t *testing.T) {
	c, err := NewCubic[float64](1, testChunk, 1.0, 0.25, 4.0)
	require.NoError(t, err)

	in := testutil.Sine(440, testRate, 4*testChunk)
	drive(t, c, in, testChunk)

	c.Reset()
	nin, nout := c.Stats()
	assert.Zero(t, nin)
	assert.Zero(t, nout)

	// After reset the stream starts clean again.
	out := drive(t, c, in, testChunk)
	for i, v := range out {
		require.Equal(t, in[i], v, "post-reset passthrough differs at %d", i)
	}
}

func TestCubic_Float32(t *testing.T) {
	c, err := NewCubic[float32](1, 64, 1.0, 0.5, 2.0)
	require.NoError(t, err)

	in := [][]float32{make([]float32, 64)}
	for i := range in[0] {
		in[0][i] = float32(i)
	}
	out := [][]float32{make([]float32, c.MaxOutput(64))}

	m, err := c.Process(in, out)
	require.NoError(t, err)
	require.Greater(t, m, 0)
	for i := 0; i < m; i++ {
		assert.Equal(t, in[0][i], out[0][i])
	}
}
