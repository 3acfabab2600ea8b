package varirate

import (
	"fmt"
	"math"

	"github.com/tphakala/go-tape-delay/internal/filter"
	"github.com/tphakala/go-tape-delay/internal/simdops"
)

// Sinc is a Kaiser windowed-sinc interpolating converter driven by a
// precomputed phase table.
//
// For ratios at or above unity each output sample is two SIMD dot products
// against adjacent phase rows plus a linear blend. For ratios below unity
// the same kernel is evaluated time-stretched by the ratio, which moves the
// anti-aliasing cutoff down with the output rate; the stretched kernel is
// renormalized per output sample so DC gain stays exact.
//
// Integer phases of the table are exact unit impulses, so a Sinc converter
// held at ratio 1.0 passes samples through bit-exactly.
type Sinc[F Float] struct {
	quality  Quality
	channels int
	maxInput int
	minRatio float64
	maxRatio float64

	tbl  *filter.Table
	rows [][]F // phase rows converted to the payload type for SIMD dots
	ops  *simdops.Ops[F]

	taps int
	half int

	// lead is the guard history kept behind the read position: the widest
	// half-kernel the configured minimum ratio can demand, plus margin.
	// Input sample k lives at hist[ch][k+lead].
	lead   int
	hist   [][]F
	filled int
	pos    float64

	ramp ratioRamp

	// coeffs is scratch for stretched-kernel evaluation.
	coeffs []float64

	samplesIn  int64
	samplesOut int64
}

// NewSinc creates a windowed-sinc converter for the given quality. See New
// for the meaning of the bounds.
func NewSinc[F Float](quality Quality, channels, maxInput int, initial, minRatio, maxRatio float64) (*Sinc[F], error) {
	if err := validateBounds(channels, maxInput, initial, minRatio, maxRatio); err != nil {
		return nil, fmt.Errorf("sinc converter: %w", err)
	}

	taps, phases, attenuation := quality.tableSpec()
	tbl, err := filter.DesignTable(taps, phases, attenuation)
	if err != nil {
		return nil, fmt.Errorf("sinc converter: %w", err)
	}

	rows := make([][]F, len(tbl.Rows))
	for i, row := range tbl.Rows {
		conv := make([]F, len(row))
		for j, c := range row {
			conv[j] = F(c)
		}
		rows[i] = conv
	}

	half := taps / 2
	stretch := 1.0
	if minRatio < 1 {
		stretch = minRatio
	}
	lead := int(math.Ceil(float64(half)/stretch)) + 2

	histCap := 2*lead + maxInput + historyMargin
	hist := make([][]F, channels)
	for ch := range hist {
		hist[ch] = make([]F, histCap)
	}

	return &Sinc[F]{
		quality:  quality,
		channels: channels,
		maxInput: maxInput,
		minRatio: minRatio,
		maxRatio: maxRatio,
		tbl:      tbl,
		rows:     rows,
		ops:      simdops.For[F](),
		taps:     taps,
		half:     half,
		lead:     lead,
		hist:     hist,
		filled:   lead,
		ramp:     newRatioRamp(initial),
		coeffs:   make([]float64, 2*lead+2),
	}, nil
}

// SetRatio retargets the conversion ratio with an internal slew.
func (s *Sinc[F]) SetRatio(ratio float64) error {
	if ratio < s.minRatio || ratio > s.maxRatio {
		return fmt.Errorf("%w: %g not in [%g, %g]", ErrInvalidRatio, ratio, s.minRatio, s.maxRatio)
	}
	s.ramp.retarget(ratio)
	return nil
}

// Ratio returns the current working ratio.
func (s *Sinc[F]) Ratio() float64 {
	return s.ramp.current
}

// Latency returns 0: the kernel is evaluated centered on the read position,
// so the converter is alignment-exact and its lookahead appears as buffered
// emission only.
func (s *Sinc[F]) Latency() int {
	return 0
}

// MaxOutput returns the worst-case output count for n input samples.
func (s *Sinc[F]) MaxOutput(n int) int {
	span := float64(n + s.lead + 1)
	return int(span*s.maxRatio) + maxOutputMargin
}

// Stats returns cumulative sample counts.
func (s *Sinc[F]) Stats() (in, out int64) {
	return s.samplesIn, s.samplesOut
}

// Reset clears history and counters, keeping the target ratio.
func (s *Sinc[F]) Reset() {
	for ch := range s.hist {
		clear(s.hist[ch])
	}
	s.filled = s.lead
	s.pos = 0
	s.ramp.jump(s.ramp.target)
	s.samplesIn = 0
	s.samplesOut = 0
}

// Process consumes all input samples and produces converted output.
func (s *Sinc[F]) Process(in, out [][]F) (int, error) {
	if len(in) != s.channels || len(out) != s.channels {
		return 0, fmt.Errorf("%w: want %d channels, got in=%d out=%d",
			ErrChannelMismatch, s.channels, len(in), len(out))
	}

	n := len(in[0])
	if n == 0 {
		return 0, nil
	}
	if n > s.maxInput {
		return 0, fmt.Errorf("%w: %d > %d", ErrInputTooLarge, n, s.maxInput)
	}

	for ch := 0; ch < s.channels; ch++ {
		copy(s.hist[ch][s.filled:], in[ch][:n])
	}
	s.filled += n

	m := 0
	outCap := len(out[0])

	for {
		r := s.ramp.current

		halfNeed := s.half
		scale := 1.0
		if r < 1 {
			scale = r
			halfNeed = int(math.Ceil(float64(s.half) / r))
		}

		if int(s.pos)+halfNeed+s.lead+2 > s.filled {
			break
		}
		if m >= outCap {
			break
		}

		if scale == 1.0 {
			s.emitDirect(out, m)
		} else {
			s.emitStretched(out, m, scale)
		}

		m++
		rr := s.ramp.next()
		s.pos += 1.0 / rr
	}

	// Drop history the read position has permanently passed. lead covers
	// the largest single-step advance (1/minRatio), so pos cannot overshoot
	// filled here; the clamp keeps that true under any future sizing.
	if sh := int(s.pos); sh > 0 {
		if sh > s.filled {
			sh = s.filled
		}
		for ch := 0; ch < s.channels; ch++ {
			copy(s.hist[ch][:s.filled-sh], s.hist[ch][sh:s.filled])
		}
		s.filled -= sh
		s.pos -= float64(sh)
	}

	s.samplesIn += int64(n)
	s.samplesOut += int64(m)
	return m, nil
}

// emitDirect produces one output sample at the current position using the
// unstretched kernel: two phase-row dot products and a linear blend.
func (s *Sinc[F]) emitDirect(out [][]F, m int) {
	n0 := int(s.pos)
	frac := s.pos - float64(n0)

	ph := frac * float64(s.tbl.Phases)
	pi := int(ph)
	pf := ph - float64(pi)

	rowA := s.rows[pi]
	rowB := s.rows[pi+1]
	base := n0 - s.half + s.lead

	for ch := 0; ch < s.channels; ch++ {
		win := s.hist[ch][base : base+s.taps]
		d0 := float64(s.ops.DotProductUnsafe(win, rowA))
		d1 := float64(s.ops.DotProductUnsafe(win, rowB))
		out[ch][m] = F(d0 + pf*(d1-d0))
	}
}

// emitStretched produces one output sample with the kernel stretched by
// 1/scale (scale < 1), lowering the cutoff for anti-aliased downsampling.
// Coefficients are computed once and shared across channels, then the
// output is renormalized to exact DC gain.
func (s *Sinc[F]) emitStretched(out [][]F, m int, scale float64) {
	reach := float64(s.half) / scale
	kmin := int(math.Ceil(s.pos - reach))
	kmax := int(math.Floor(s.pos + reach))
	nc := kmax - kmin + 1

	csum := 0.0
	for k := kmin; k <= kmax; k++ {
		c := s.tbl.At((float64(k) - s.pos) * scale)
		s.coeffs[k-kmin] = c
		csum += c
	}
	inv := 1.0 / csum

	base := kmin + s.lead
	for ch := 0; ch < s.channels; ch++ {
		h := s.hist[ch]
		acc := 0.0
		for i := 0; i < nc; i++ {
			acc += float64(h[base+i]) * s.coeffs[i]
		}
		out[ch][m] = F(acc * inv)
	}
}
