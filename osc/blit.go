package osc

import (
	"math"

	"github.com/pfcm/blep/filter"
)

const (
	// leak keeps the integrator from drifting.
	leak = 0.995
	// below this sin(phase) is treated as zero and the Dirichlet kernel takes
	// its limiting value of 1. The kernel is within m*m*1e-18 of 1 there.
	kernelLimit = 1e-9
)

// BLIT is a sawtooth built by leaky integration of a band-limited impulse
// train. Phase runs over [0, pi) once per period; Acc is the integrator.
// The integrator output is smoothed by two cascaded one-pole filters.
type BLIT struct {
	Phase float64
	Acc   float64

	lp1, lp2 filter.OnePole[float64]
}

var _ Waveform = &BLIT{}

// NewBLIT returns a BLIT in its initial state. The zero value is usable but
// skips the smoothing.
func NewBLIT() *BLIT {
	return &BLIT{
		lp1: filter.NewOnePole(0.5),
		lp2: filter.NewOnePole(0.6),
	}
}

func (b *BLIT) Next(freq, sampleRate float64) float64 {
	if !(freq > 0) || !(sampleRate > 0) {
		return 0
	}
	period := sampleRate / freq
	// highest odd number of harmonics that fit under Nyquist.
	m := 2*math.Floor(period/2) - 1
	if m < 1 {
		m = 1
	}

	y := m / period * dirichlet(b.Phase, m)

	saw := y + b.Acc - 1/period
	b.Acc = saw * leak
	out := b.lp2.Process(b.lp1.Process(saw))

	b.Phase = wrap(b.Phase+math.Pi/period, math.Pi)
	return out
}

// dirichlet is sin(m*x) / (m*sin(x)) for odd m and x in [0, pi). For odd m
// it is symmetric about pi/2, so x is folded into [0, pi/2] first: just
// below pi, m*x rounds badly and sin(m*x) is mostly rounding error.
func dirichlet(x, m float64) float64 {
	if x > math.Pi/2 {
		x = math.Pi - x
	}
	d := math.Sin(x)
	if d < kernelLimit {
		return 1
	}
	return math.Sin(m*x) / (m * d)
}

func (b *BLIT) Reset() {
	b.Phase, b.Acc = 0, 0
	b.lp1.Reset()
	b.lp2.Reset()
}

// Smoothed returns the memories of the two smoothing filters.
func (b *BLIT) Smoothed() (float64, float64) {
	return b.lp1.Last(), b.lp2.Last()
}
