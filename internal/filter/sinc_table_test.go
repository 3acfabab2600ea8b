package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-tape-delay/internal/testutil"
)

const (
	dcTolerance   = 1e-12
	impulseTol    = 1e-12
	kernelStepTol = 5e-3
)

func TestDesignTable_Validation(t *testing.T) {
	tests := []struct {
		name        string
		taps        int
		phases      int
		attenuation float64
	}{
		{"even_taps", 32, 256, 90},
		{"too_few_taps", 3, 256, 90},
		{"too_many_taps", 2001, 256, 90},
		{"too_few_phases", 33, 8, 90},
		{"zero_attenuation", 33, 256, 0},
		{"negative_attenuation", 33, 256, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DesignTable(tt.taps, tt.phases, tt.attenuation)
			assert.Error(t, err)
		})
	}
}

// TestDesignTable_IntegerPhaseIsImpulse verifies that row zero is an exact
// unit impulse, which is what makes unity-ratio conversion bit-exact.
func TestDesignTable_IntegerPhaseIsImpulse(t *testing.T) {
	tbl, err := DesignTable(33, 256, 96)
	require.NoError(t, err)

	// Exact equality: the converters pass samples through bit-exactly at
	// unity ratio only if these rows are true deltas, not merely close.
	half := tbl.Half()
	for j, c := range tbl.Rows[0] {
		if j == half {
			assert.Equal(t, 1.0, c, "center tap")
		} else {
			assert.Equal(t, 0.0, c, "tap %d should be zero", j)
		}
	}

	// The last row is the same impulse delayed by one sample.
	for j, c := range tbl.Rows[tbl.Phases] {
		if j == half+1 {
			assert.Equal(t, 1.0, c, "center tap of last row")
		} else {
			assert.Equal(t, 0.0, c, "tap %d of last row should be zero", j)
		}
	}
}

// TestDesignTable_DCGain verifies every row sums to exactly unit gain.
func TestDesignTable_DCGain(t *testing.T) {
	tbl, err := DesignTable(49, 128, 120)
	require.NoError(t, err)

	for i, row := range tbl.Rows {
		sum := 0.0
		for _, c := range row {
			sum += c
		}
		assert.InDelta(t, 1.0, sum, dcTolerance, "row %d DC gain", i)
		testutil.AssertNoNaNOrInf(t, row)
	}
}

// TestDesignTable_HalfPhaseSymmetry verifies the half-sample-delay row is
// symmetric about its center pair, as a fractional-delay sinc must be.
func TestDesignTable_HalfPhaseSymmetry(t *testing.T) {
	tbl, err := DesignTable(33, 256, 96)
	require.NoError(t, err)

	mid := tbl.Rows[tbl.Phases/2]
	// Row at frac=0.5 has offsets j-half-0.5: coefficients pair up around
	// the center gap. The tap at offset +half+0.5 has no partner, so the
	// last pair is (half-(half-1), half+1+(half-1)).
	half := tbl.Half()
	for k := 0; k < half; k++ {
		assert.InDelta(t, mid[half-k], mid[half+1+k], 1e-9,
			"half-phase row asymmetric at pair %d", k)
	}
}

// TestTable_At verifies continuous kernel evaluation: exact at grid points,
// continuous between them, zero outside the support.
func TestTable_At(t *testing.T) {
	tbl, err := DesignTable(33, 256, 96)
	require.NoError(t, err)

	// Grid point: At(0) is the center of the impulse row.
	assert.InDelta(t, 1.0, tbl.At(0), impulseTol)
	assert.InDelta(t, 0.0, tbl.At(1), impulseTol)
	assert.InDelta(t, 0.0, tbl.At(-3), impulseTol)

	// Outside support.
	assert.Equal(t, 0.0, tbl.At(float64(tbl.Half())+2))
	assert.Equal(t, 0.0, tbl.At(-float64(tbl.Half())-3))

	// Continuity: small steps in u produce small steps in kernel value.
	prev := tbl.At(-2.0)
	for u := -2.0; u <= 2.0; u += 1.0 / 1024.0 {
		cur := tbl.At(u)
		assert.False(t, math.Abs(cur-prev) > kernelStepTol,
			"kernel discontinuity at u=%v: %v -> %v", u, prev, cur)
		prev = cur
	}
}
