// package voice is a single monophonic voice: a slot holding at most one
// oscillator, filled by note on and emptied by note off.
package voice

import (
	"math"

	"github.com/pfcm/blep/osc"
)

const (
	// ReferenceFrequency is the frequency of pitch 0, A440.
	ReferenceFrequency = 440.0
	// MinFrequency is the lowest frequency a voice will play.
	MinFrequency = 8.0
	// MaxNyquistFraction bounds the highest frequency a voice will play as a
	// fraction of the sample rate. Keeping it under one half guarantees the
	// oscillators never wrap more than once per sample.
	MaxNyquistFraction = 0.45
)

// PitchToFrequency maps a pitch in equal-tempered semitones relative to A440
// to Hz.
func PitchToFrequency(pitch float64) float64 {
	return ReferenceFrequency * math.Exp2(pitch/12)
}

// Voice holds at most one active oscillator. It is not safe for concurrent
// use: the render path owns it.
type Voice struct {
	sampleRate float64

	// wave is allocated once up front so note on never allocates; it is
	// reset to its initial state for every note.
	wave     osc.Waveform
	active   bool
	freq     float64
	velocity float64
}

// New creates an idle voice that will play alg at sampleRate.
func New(alg osc.Algorithm, sampleRate float64) *Voice {
	if !(sampleRate > 0) {
		panic("voice: sample rate must be positive")
	}
	return &Voice{wave: alg.New(), sampleRate: sampleRate}
}

// Clamp brings freq into the range a voice at sampleRate can play. NaN
// becomes MinFrequency.
func Clamp(freq, sampleRate float64) float64 {
	hi := MaxNyquistFraction * sampleRate
	switch {
	case !(freq >= MinFrequency):
		return MinFrequency
	case freq > hi:
		return hi
	}
	return freq
}

// NoteOn starts a new note, discarding whatever was playing. The oscillator
// starts again from its zero state so no phase carries over between notes.
func (v *Voice) NoteOn(pitch, velocity float64) {
	v.freq = Clamp(PitchToFrequency(pitch), v.sampleRate)
	v.velocity = velocity
	v.wave.Reset()
	v.active = true
}

// NoteOff silences the voice.
func (v *Voice) NoteOff() {
	v.active = false
	v.freq = 0
	v.velocity = 0
}

// Active reports whether a note is playing.
func (v *Voice) Active() bool { return v.active }

// Frequency is the frequency of the current note in Hz, or 0 if idle.
func (v *Voice) Frequency() float64 { return v.freq }

// Velocity is the velocity the current note was started with. It does not
// affect the output.
func (v *Voice) Velocity() float64 { return v.velocity }

// Waveform is the current oscillator, nil if idle.
func (v *Voice) Waveform() osc.Waveform {
	if !v.active {
		return nil
	}
	return v.wave
}

// Render fills buf with the next len(buf) samples, or with zeros if idle.
// The frequency is clamped again if sampleRate isn't the voice's own.
func (v *Voice) Render(buf []float32, sampleRate float64) {
	if !v.active {
		clear(buf)
		return
	}
	freq := v.freq
	if sampleRate != v.sampleRate {
		freq = Clamp(freq, sampleRate)
	}
	for i := range buf {
		buf[i] = float32(v.wave.Next(freq, sampleRate))
	}
}
