package osc

// PolyBLEP is a sawtooth with a polynomial band-limited step applied at the
// wrap. Time is in seconds, in [0, 1/freq).
//
// The output rises from -0.5 to 0.5 each period. The two samples either side
// of the drop are pulled towards each other by the residual of a band-limited
// step, which removes most of the aliasing the naive ramp would produce.
type PolyBLEP struct {
	Time float64
}

var _ Waveform = &PolyBLEP{}

func (p *PolyBLEP) Next(freq, sampleRate float64) float64 {
	if !(freq > 0) || !(sampleRate > 0) {
		return 0
	}
	p.Time = wrap(p.Time, 1/freq)
	// normalised phase, [0, 1)
	t := p.Time * freq
	out := t - 0.5 - 0.5*blep(t, freq/sampleRate)
	p.Time += 1 / sampleRate
	return out
}

func (p *PolyBLEP) Reset() { p.Time = 0 }

// blep is the two-sample polyBLEP residual for a unit step at t = 0 (mod 1),
// with dt the phase increment per sample. It runs from -1 just after the
// step through to 1 just before it and is 0 everywhere else.
func blep(t, dt float64) float64 {
	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
