package blep

import (
	"math"
	"testing"

	"github.com/pfcm/blep/osc"
	"github.com/pfcm/blep/voice"
)

const testRate = 48000

func newTestSynth(t testing.TB, alg osc.Algorithm, perBlock int) *Synth {
	t.Helper()
	cfg := DefaultSynthConfig()
	cfg.Algorithm = alg
	cfg.SampleRate = testRate
	cfg.EventsPerBlock = perBlock
	return NewSynth(cfg)
}

func allZero(buf []float32) bool {
	for _, s := range buf {
		if s != 0 {
			return false
		}
	}
	return true
}

func TestSilentUntilNoteOn(t *testing.T) {
	s := newTestSynth(t, osc.AlgorithmPolyBLEP, 1)
	buf := make([]float32, 64)
	for i := range buf {
		buf[i] = 1
	}
	s.Render(buf, testRate)
	if !allZero(buf) {
		t.Fatalf("idle synth rendered %v", buf)
	}
}

func TestNoteOnThenOff(t *testing.T) {
	for _, alg := range []osc.Algorithm{osc.AlgorithmPolyBLEP, osc.AlgorithmBLIT} {
		s := newTestSynth(t, alg, 1)
		buf := make([]float32, 128)

		s.Events().Push(NoteOnEvent(0, 0, 1))
		s.Render(buf, testRate)
		if allZero(buf) {
			t.Fatalf("%v: silent after NoteOn", alg)
		}
		if f := s.Voice().Frequency(); math.Abs(f-440) > 1e-9 {
			t.Errorf("%v: Frequency() = %v, want: 440", alg, f)
		}

		s.Events().Push(NoteOffEvent(0))
		for range 3 {
			for i := range buf {
				buf[i] = 0.25
			}
			s.Render(buf, testRate)
			if !allZero(buf) {
				t.Fatalf("%v: not silent after NoteOff: %v", alg, buf[:8])
			}
		}
	}
}

func TestNoteOnReplaces(t *testing.T) {
	s := newTestSynth(t, osc.AlgorithmPolyBLEP, 1)
	buf := make([]float32, 100)
	s.Events().Push(NoteOnEvent(0, 0, 1))
	s.Render(buf, testRate)
	s.Render(buf, testRate)

	s.Events().Push(NoteOnEvent(0, 7, 1))
	got := make([]float32, 500)
	s.Render(got, testRate)

	ref := voice.New(osc.AlgorithmPolyBLEP, testRate)
	ref.NoteOn(7, 1)
	want := make([]float32, 500)
	ref.Render(want, testRate)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want: %v (the old note leaked)", i, got[i], want[i])
		}
	}
}

func TestOneEventPerBlock(t *testing.T) {
	s := newTestSynth(t, osc.AlgorithmPolyBLEP, 1)
	s.Events().Push(NoteOnEvent(0, 0, 1))
	s.Events().Push(NoteOnEvent(0, 5, 1))
	s.Events().Push(NoteOffEvent(0))
	buf := make([]float32, 32)

	wantFreq := []float64{440, voice.PitchToFrequency(5), 0, 0}
	for i, want := range wantFreq {
		s.Render(buf, testRate)
		if got := s.Voice().Frequency(); math.Abs(got-want) > 1e-9 {
			t.Errorf("block %d: Frequency() = %v, want: %v", i, got, want)
		}
	}
}

func TestDrainAll(t *testing.T) {
	s := newTestSynth(t, osc.AlgorithmBLIT, 0)
	s.Events().Push(NoteOnEvent(0, 0, 1))
	s.Events().Push(NoteOnEvent(0, 5, 1))
	s.Events().Push(NoteOnEvent(0, -3, 1))
	buf := make([]float32, 32)
	s.Render(buf, testRate)
	if got, want := s.Voice().Frequency(), voice.PitchToFrequency(-3); math.Abs(got-want) > 1e-9 {
		t.Errorf("Frequency() = %v, want: %v", got, want)
	}
	if n := s.Events().Len(); n != 0 {
		t.Errorf("%d events still queued", n)
	}
}

func TestClosedQueueKeepsRendering(t *testing.T) {
	s := newTestSynth(t, osc.AlgorithmPolyBLEP, 1)
	s.Events().Push(NoteOnEvent(0, 0, 1))
	s.Events().Close()
	buf := make([]float32, 64)
	for range 10 {
		s.Render(buf, testRate)
	}
	if !s.Voice().Active() || allZero(buf) {
		t.Error("synth stopped playing when its queue closed")
	}
}

func TestRenderDoesNotAllocate(t *testing.T) {
	for _, alg := range []osc.Algorithm{osc.AlgorithmPolyBLEP, osc.AlgorithmBLIT} {
		s := newTestSynth(t, alg, 1)
		buf := make([]float32, 64)
		pitch := 0.0
		allocs := testing.AllocsPerRun(200, func() {
			pitch++
			s.Events().Push(NoteOnEvent(1, math.Mod(pitch, 24), 0.5))
			s.Render(buf, testRate)
			s.Events().Push(NoteOffEvent(1))
			s.Render(buf, testRate)
			s.Render(buf, testRate)
		})
		if allocs != 0 {
			t.Errorf("%v: %v allocations per render cycle, want: 0", alg, allocs)
		}
	}
}

func TestSynthTicker(t *testing.T) {
	s := newTestSynth(t, osc.AlgorithmPolyBLEP, 1)
	m := NewMeter(1)
	c := Serially(s, Scale{Mul: 0.5}, m)
	if c.Inputs() != 0 || c.Outputs() != 1 {
		t.Fatalf("chain has %d inputs, %d outputs, want: 0, 1", c.Inputs(), c.Outputs())
	}

	s.Events().Push(NoteOnEvent(0, 0, 1))
	out := [][]float32{make([]float32, 256)}
	c.Tick(nil, out)

	ref := voice.New(osc.AlgorithmPolyBLEP, testRate)
	ref.NoteOn(0, 1)
	want := make([]float32, 256)
	ref.Render(want, testRate)
	for i := range want {
		if out[0][i] != want[i]*0.5 {
			t.Fatalf("sample %d = %v, want: %v", i, out[0][i], want[i]*0.5)
		}
	}
	if lv := m.Levels()[0]; lv <= 0 || lv > 0.5 {
		t.Errorf("meter level = %v, want in (0, 0.5]", lv)
	}

	allocs := testing.AllocsPerRun(100, func() { c.Tick(nil, out) })
	if allocs != 0 {
		t.Errorf("chain Tick allocated %v times, want: 0", allocs)
	}
}

func TestEventString(t *testing.T) {
	for _, c := range []struct {
		e    Event
		want string
	}{
		{NoteOnEvent(2, 12, 0.8), "NoteOn(ch=2, pitch=+12.00, vel=0.80)"},
		{NoteOnEvent(0, -3.5, 1), "NoteOn(ch=0, pitch=-3.50, vel=1.00)"},
		{NoteOffEvent(3), "NoteOff(ch=3)"},
	} {
		if got := c.e.String(); got != c.want {
			t.Errorf("String() = %q, want: %q", got, c.want)
		}
	}
}

func BenchmarkRender(b *testing.B) {
	for _, alg := range []osc.Algorithm{osc.AlgorithmPolyBLEP, osc.AlgorithmBLIT} {
		b.Run(alg.String(), func(b *testing.B) {
			s := newTestSynth(b, alg, 1)
			s.Events().Push(NoteOnEvent(0, 0, 1))
			buf := make([]float32, 64)
			b.ReportAllocs()
			for range b.N {
				s.Render(buf, testRate)
			}
		})
	}
}
