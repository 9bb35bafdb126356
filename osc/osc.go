// package osc provides band-limited sawtooth oscillators.
package osc

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Waveform is a per-sample oscillator. Next returns one sample, roughly in
// [-1, 1], and advances the internal state by one sample period. Callers own
// a Waveform exclusively; none of the implementations are safe for concurrent
// use. Frequencies should be kept well below Nyquist: all of the algorithms
// wrap their phase at most once per sample.
type Waveform interface {
	Next(freq, sampleRate float64) float64
	// Reset returns the oscillator to its initial state.
	Reset()
}

// Algorithm selects a Waveform implementation.
type Algorithm byte

const (
	AlgorithmPolyBLEP Algorithm = iota
	AlgorithmBLIT
	// AlgorithmNaive is the uncorrected sawtooth, useful as an aliasing
	// reference.
	AlgorithmNaive
)

var algorithmNames = []string{
	AlgorithmPolyBLEP: "polyblep",
	AlgorithmBLIT:     "blit",
	AlgorithmNaive:    "naive",
}

func (a Algorithm) String() string {
	if int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return fmt.Sprintf("Algorithm(%d)", a)
}

// ErrUnknownAlgorithm is returned by ParseAlgorithm.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ParseAlgorithm is the inverse of Algorithm.String. It ignores case.
func ParseAlgorithm(s string) (Algorithm, error) {
	for i, n := range algorithmNames {
		if strings.EqualFold(s, n) {
			return Algorithm(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownAlgorithm, s, strings.Join(algorithmNames, ", "))
}

// New returns a fresh Waveform in its initial state.
func (a Algorithm) New() Waveform {
	switch a {
	case AlgorithmPolyBLEP:
		return &PolyBLEP{}
	case AlgorithmBLIT:
		return NewBLIT()
	case AlgorithmNaive:
		return &Naive{}
	}
	panic(fmt.Errorf("osc: no waveform for %v", a))
}

// Naive is a sawtooth with no band limiting at all. Time is in seconds and
// wraps at 1/freq.
type Naive struct {
	Time float64
}

var _ Waveform = &Naive{}

func (n *Naive) Next(freq, sampleRate float64) float64 {
	if !(freq > 0) || !(sampleRate > 0) {
		return 0
	}
	n.Time = wrap(n.Time, 1/freq)
	out := n.Time*freq - 0.5
	n.Time += 1 / sampleRate
	return out
}

func (n *Naive) Reset() { n.Time = 0 }

// wrap brings x back under period. A single subtraction is all a sub-Nyquist
// frequency ever needs; anything further out is folded with math.Mod so the
// state stays bounded.
func wrap(x, period float64) float64 {
	if x >= period {
		x -= period
		if x >= period {
			x = math.Mod(x, period)
		}
	}
	return x
}
