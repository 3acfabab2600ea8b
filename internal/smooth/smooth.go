// Package smooth provides a per-sample linear parameter smoother.
//
// Hosts drive control-rate parameters (speed, mix, gain) that must reach the
// audio path without zipper noise. A Linear smoother moves its current value
// toward the target by a fixed per-sample step so the full transition takes a
// configured number of milliseconds at the configured sample rate.
package smooth

import (
	"fmt"
	"math"
)

const (
	minSampleRate  = 1.0
	maxSampleRate  = 768000.0
	maxSmoothingMs = 60000.0
)

// Linear smooths a parameter toward its target in equal per-sample steps.
// The zero value is unusable; construct with NewLinear.
type Linear struct {
	sampleRate float64
	durationMs float64

	current   float64
	target    float64
	step      float64
	stepsLeft int
}

// NewLinear creates a smoother that completes each transition in durationMs
// milliseconds of audio at sampleRate. A duration of zero disables smoothing:
// SetTarget then takes effect on the next sample.
func NewLinear(sampleRate, durationMs float64) (*Linear, error) {
	if math.IsNaN(sampleRate) || sampleRate < minSampleRate || sampleRate > maxSampleRate {
		return nil, fmt.Errorf("smoother: invalid sample rate %g", sampleRate)
	}
	if math.IsNaN(durationMs) || durationMs < 0 || durationMs > maxSmoothingMs {
		return nil, fmt.Errorf("smoother: invalid duration %g ms", durationMs)
	}
	return &Linear{sampleRate: sampleRate, durationMs: durationMs}, nil
}

// SetTarget starts a new transition toward v from the current value.
func (l *Linear) SetTarget(v float64) {
	l.target = v
	steps := int(math.Round(l.sampleRate * l.durationMs / 1000.0))
	if steps < 1 || v == l.current {
		l.current = v
		l.stepsLeft = 0
		return
	}
	l.step = (v - l.current) / float64(steps)
	l.stepsLeft = steps
}

// Jump pins the value immediately, abandoning any transition in progress.
func (l *Linear) Jump(v float64) {
	l.current = v
	l.target = v
	l.stepsLeft = 0
}

// Next returns the value for the upcoming sample and advances the transition
// by one step. The step count rarely divides the distance exactly, so the
// final step lands on the target rather than overshooting.
func (l *Linear) Next() float64 {
	if l.stepsLeft == 0 {
		return l.target
	}
	l.stepsLeft--
	if l.stepsLeft == 0 {
		l.current = l.target
	} else {
		l.current += l.step
	}
	return l.current
}

// Skip advances the transition by n samples and returns the value the
// smoother lands on, for hosts that smooth at block rather than sample rate.
func (l *Linear) Skip(n int) float64 {
	if n <= 0 {
		return l.Current()
	}
	if n >= l.stepsLeft {
		l.stepsLeft = 0
		l.current = l.target
		return l.current
	}
	l.stepsLeft -= n
	l.current += l.step * float64(n)
	return l.current
}

// Current returns the most recent value without advancing.
func (l *Linear) Current() float64 {
	if l.stepsLeft == 0 {
		return l.target
	}
	return l.current
}

// IsSmoothing reports whether a transition is still in progress.
func (l *Linear) IsSmoothing() bool {
	return l.stepsLeft > 0
}
