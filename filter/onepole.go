// package filter provides filters.
package filter

import "golang.org/x/exp/constraints"

// OnePole is a single-pole lowpass smoother with unity gain at DC:
//
//	y[n] = c*y[n-1] + (1-c)*x[n]
//
// Coefficients close to 1 smooth more. The zero value passes its input
// through unchanged.
type OnePole[T constraints.Float] struct {
	Coeff T
	y     T
}

// NewOnePole returns a OnePole with the given feedback coefficient, which
// must be in [0, 1).
func NewOnePole[T constraints.Float](coeff T) OnePole[T] {
	if coeff < 0 || coeff >= 1 {
		panic("filter: one-pole coefficient out of range")
	}
	return OnePole[T]{Coeff: coeff}
}

// Process filters one sample.
func (f *OnePole[T]) Process(x T) T {
	f.y = f.Coeff*f.y + (1-f.Coeff)*x
	return f.y
}

// Last is the most recent output.
func (f *OnePole[T]) Last() T { return f.y }

// Reset clears the filter memory.
func (f *OnePole[T]) Reset() { f.y = 0 }
