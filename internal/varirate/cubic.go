package varirate

import (
	"fmt"
)

// cubicLead is the history retained behind the read position (one sample)
// and cubicLookahead the samples required ahead of it: Hermite interpolation
// reads x[n-1] through x[n+2].
const (
	cubicLead      = 1
	cubicLookahead = 2
)

// Cubic is a 4-point, 3rd-order Hermite interpolating converter.
//
// It is the cheapest converter and the one used for the quick quality
// setting. It applies no anti-aliasing filter, so ratios below unity will
// alias; the windowed-sinc converter handles those cleanly.
type Cubic[F Float] struct {
	channels int
	maxInput int
	minRatio float64
	maxRatio float64

	ramp ratioRamp

	// hist holds cubicLead guard samples followed by buffered input.
	// The read position pos is in input coordinates; input sample k lives
	// at hist[ch][k+cubicLead].
	hist   [][]F
	filled int
	pos    float64

	samplesIn  int64
	samplesOut int64
}

// NewCubic creates a Hermite interpolating converter. See New for the
// meaning of the bounds.
func NewCubic[F Float](channels, maxInput int, initial, minRatio, maxRatio float64) (*Cubic[F], error) {
	if err := validateBounds(channels, maxInput, initial, minRatio, maxRatio); err != nil {
		return nil, fmt.Errorf("cubic converter: %w", err)
	}

	histCap := cubicLead + cubicLookahead + maxInput + historyMargin
	hist := make([][]F, channels)
	for ch := range hist {
		hist[ch] = make([]F, histCap)
	}

	return &Cubic[F]{
		channels: channels,
		maxInput: maxInput,
		minRatio: minRatio,
		maxRatio: maxRatio,
		ramp:     newRatioRamp(initial),
		hist:     hist,
		filled:   cubicLead,
	}, nil
}

// SetRatio retargets the conversion ratio with an internal slew.
func (c *Cubic[F]) SetRatio(ratio float64) error {
	if ratio < c.minRatio || ratio > c.maxRatio {
		return fmt.Errorf("%w: %g not in [%g, %g]", ErrInvalidRatio, ratio, c.minRatio, c.maxRatio)
	}
	c.ramp.retarget(ratio)
	return nil
}

// Ratio returns the current working ratio.
func (c *Cubic[F]) Ratio() float64 {
	return c.ramp.current
}

// Latency returns 0: the interpolator is alignment-exact, its lookahead
// shows up as buffered emission rather than sample offset.
func (c *Cubic[F]) Latency() int {
	return 0
}

// MaxOutput returns the worst-case output count for n input samples.
func (c *Cubic[F]) MaxOutput(n int) int {
	span := float64(n + cubicLead + cubicLookahead + 1)
	return int(span*c.maxRatio) + maxOutputMargin
}

// Stats returns cumulative sample counts.
func (c *Cubic[F]) Stats() (in, out int64) {
	return c.samplesIn, c.samplesOut
}

// Reset clears history and counters, keeping the target ratio.
func (c *Cubic[F]) Reset() {
	for ch := range c.hist {
		clear(c.hist[ch])
	}
	c.filled = cubicLead
	c.pos = 0
	c.ramp.jump(c.ramp.target)
	c.samplesIn = 0
	c.samplesOut = 0
}

// Process consumes all input samples and produces interpolated output.
func (c *Cubic[F]) Process(in, out [][]F) (int, error) {
	if len(in) != c.channels || len(out) != c.channels {
		return 0, fmt.Errorf("%w: want %d channels, got in=%d out=%d",
			ErrChannelMismatch, c.channels, len(in), len(out))
	}

	n := len(in[0])
	if n == 0 {
		return 0, nil
	}
	if n > c.maxInput {
		return 0, fmt.Errorf("%w: %d > %d", ErrInputTooLarge, n, c.maxInput)
	}

	for ch := 0; ch < c.channels; ch++ {
		copy(c.hist[ch][c.filled:], in[ch][:n])
	}
	c.filled += n

	m := 0
	outCap := len(out[0])

	for {
		n0 := int(c.pos)
		// Interpolation reads up to hist index n0+cubicLookahead+cubicLead.
		if n0+cubicLookahead+cubicLead+1 > c.filled {
			break
		}
		if m >= outCap {
			break
		}

		x := c.pos - float64(n0)
		base := n0 // hist index of x[n0-1] is n0-1+cubicLead = n0

		for ch := 0; ch < c.channels; ch++ {
			h := c.hist[ch]
			y0 := float64(h[base])
			y1 := float64(h[base+1])
			y2 := float64(h[base+2])
			y3 := float64(h[base+3])

			// Catmull-Rom Hermite basis, evaluated as a nested polynomial.
			coefA := -hermiteHalf*y0 + hermiteThreeHalves*y1 - hermiteThreeHalves*y2 + hermiteHalf*y3
			coefB := y0 - hermiteFiveHalves*y1 + 2*y2 - hermiteHalf*y3
			coefC := -hermiteHalf*y0 + hermiteHalf*y2

			out[ch][m] = F(((coefA*x+coefB)*x+coefC)*x + y1)
		}

		m++
		r := c.ramp.next()
		c.pos += 1.0 / r
	}

	// Drop history the read position has permanently passed. At steep
	// downward ratios pos can overshoot the buffered input after the last
	// emitted sample; clamp the drop and leave the overshoot in pos so the
	// next block resynchronizes instead of slicing past the window.
	if s := int(c.pos); s > 0 {
		if s > c.filled {
			s = c.filled
		}
		for ch := 0; ch < c.channels; ch++ {
			copy(c.hist[ch][:c.filled-s], c.hist[ch][s:c.filled])
		}
		c.filled -= s
		c.pos -= float64(s)
	}

	c.samplesIn += int64(n)
	c.samplesOut += int64(m)
	return m, nil
}
