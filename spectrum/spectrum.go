// package spectrum measures how much of a signal's energy sits on the
// harmonics of its fundamental, which is how aliasing shows up.
package spectrum

import (
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Analyzer computes averaged magnitude spectra with a Hann window and 50%
// overlap. It reuses its buffers, so it isn't safe for concurrent use.
type Analyzer struct {
	size    int
	window  []float64
	frame   []float64
	spec    []complex128
	forward func()
}

// NewAnalyzer returns an Analyzer with frames of size samples, which must be
// a power of two of at least 4.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 4 || bits.OnesCount(uint(size)) != 1 {
		return nil, fmt.Errorf("spectrum size %d is not a power of two >= 4", size)
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	a := &Analyzer{
		size:   size,
		window: make([]float64, size),
		frame:  make([]float64, size),
		spec:   make([]complex128, size/2+1),
	}
	for i := range a.window {
		a.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
	}
	a.forward = func() { plan.Forward(a.spec, a.frame) }
	return a, nil
}

// Size is the frame length.
func (a *Analyzer) Size() int { return a.size }

// BinHz is the width of one bin at the given sample rate.
func (a *Analyzer) BinHz(sampleRate float64) float64 {
	return sampleRate / float64(a.size)
}

// Magnitudes returns size/2+1 magnitudes averaged over every frame of x. A
// signal shorter than one frame is zero padded.
func (a *Analyzer) Magnitudes(x []float64) []float64 {
	mags := make([]float64, a.size/2+1)
	hop := a.size / 2
	frames := 0
	for pos := 0; frames == 0 || pos+a.size <= len(x); pos += hop {
		for i := range a.frame {
			v := 0.0
			if pos+i < len(x) {
				v = x[pos+i]
			}
			a.frame[i] = v * a.window[i]
		}
		a.forward()
		for k, c := range a.spec {
			mags[k] += cmplx.Abs(c)
		}
		frames++
	}
	for k := range mags {
		mags[k] /= float64(frames)
	}
	return mags
}

// HarmonicRatio is the share of energy, ignoring DC, that lies within width
// bins of a multiple of f0. The rest is noise or aliasing.
func HarmonicRatio(mags []float64, binHz, f0 float64, width int) float64 {
	if len(mags) < 2 || !(binHz > 0) || !(f0 > 0) {
		return 0
	}
	harmonic := make([]bool, len(mags))
	nyquist := binHz * float64(len(mags)-1)
	for f := f0; f < nyquist; f += f0 {
		centre := int(math.Round(f / binHz))
		for k := max(centre-width, 1); k <= min(centre+width, len(mags)-1); k++ {
			harmonic[k] = true
		}
	}
	var on, total float64
	for k := 1; k < len(mags); k++ {
		e := mags[k] * mags[k]
		total += e
		if harmonic[k] {
			on += e
		}
	}
	if total == 0 {
		return 0
	}
	return on / total
}

// Peak returns the loudest bin, ignoring DC.
func Peak(mags []float64) int {
	best := 0
	for k := 1; k < len(mags); k++ {
		if best == 0 || mags[k] > mags[best] {
			best = k
		}
	}
	return best
}
