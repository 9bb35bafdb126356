package osc

import (
	"errors"
	"math"
	"testing"
)

func render(w Waveform, freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = w.Next(freq, sampleRate)
	}
	return out
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range []Algorithm{AlgorithmPolyBLEP, AlgorithmBLIT, AlgorithmNaive} {
		got, err := ParseAlgorithm(a.String())
		if err != nil {
			t.Fatalf("ParseAlgorithm(%q): %v", a, err)
		}
		if got != a {
			t.Errorf("ParseAlgorithm(%q) = %v, want: %v", a, got, a)
		}
	}
	if got, err := ParseAlgorithm("BLIT"); err != nil || got != AlgorithmBLIT {
		t.Errorf(`ParseAlgorithm("BLIT") = %v, %v, want: blit, nil`, got, err)
	}
	if _, err := ParseAlgorithm("square"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf(`ParseAlgorithm("square") error = %v, want: %v`, err, ErrUnknownAlgorithm)
	}
}

func TestPeriodic(t *testing.T) {
	const (
		sampleRate = 48000
		settle     = 20000
	)
	for _, alg := range []Algorithm{AlgorithmPolyBLEP, AlgorithmBLIT} {
		for _, period := range []int{40, 100, 500} {
			freq := float64(sampleRate) / float64(period)
			s := render(alg.New(), freq, sampleRate, settle+2*period)
			worst := 0.0
			for i := settle; i < settle+period; i++ {
				worst = max(worst, math.Abs(s[i]-s[i+period]))
			}
			if worst > 1e-6 {
				t.Errorf("%v at %.1fHz: samples %d apart differ by up to %g", alg, freq, period, worst)
			}
		}
	}
}

func TestBounded(t *testing.T) {
	const settle = 2048
	for _, alg := range []Algorithm{AlgorithmPolyBLEP, AlgorithmBLIT, AlgorithmNaive} {
		for _, sampleRate := range []float64{44100, 48000} {
			for _, freq := range []float64{40, 220, 440, 2000, 8000} {
				s := render(alg.New(), freq, sampleRate, settle+int(sampleRate/4))
				for i, v := range s[settle:] {
					if math.IsNaN(v) || v < -1 || v > 1 {
						t.Fatalf("%v at %vHz/%v: sample %d = %v, want in [-1, 1]", alg, freq, sampleRate, settle+i, v)
					}
				}
			}
		}
	}
}

func TestPolyBLEPSoftensTheDrop(t *testing.T) {
	const sampleRate, freq = 48000, 440
	biggest := func(s []float64) float64 {
		d := 0.0
		for i := 1; i < len(s); i++ {
			d = max(d, s[i-1]-s[i])
		}
		return d
	}
	naive := biggest(render(AlgorithmNaive.New(), freq, sampleRate, 4800))
	blep := biggest(render(AlgorithmPolyBLEP.New(), freq, sampleRate, 4800))
	if naive < 0.9 {
		t.Errorf("naive sawtooth drop = %v, want close to 1", naive)
	}
	if blep > 0.76 {
		t.Errorf("polyBLEP drop = %v, want at most 0.75 plus one ramp step", blep)
	}
}

func TestPolyBLEPStartsAtZero(t *testing.T) {
	p := &PolyBLEP{}
	if got := p.Next(440, 48000); got != 0 {
		t.Errorf("first sample = %v, want: 0", got)
	}
	if p.Time != 1.0/48000 {
		t.Errorf("Time after one sample = %v, want: %v", p.Time, 1.0/48000)
	}
}

// TestOneSecondAt440 renders a second of A440 at 48kHz and checks that it
// holds 440 periods of 48000/440 = 109.09 samples.
func TestOneSecondAt440(t *testing.T) {
	const sampleRate, freq = 48000, 440
	s := render(AlgorithmPolyBLEP.New(), freq, sampleRate, sampleRate)

	// The ramp crosses zero going up once per period, half way along.
	var crossings []float64
	for i := 1; i < len(s); i++ {
		if s[i-1] < 0 && s[i] >= 0 {
			frac := -s[i-1] / (s[i] - s[i-1])
			crossings = append(crossings, float64(i-1)+frac)
		}
	}
	if len(crossings) != freq {
		t.Fatalf("got %d upward zero crossings, want: %d", len(crossings), freq)
	}
	got := (crossings[len(crossings)-1] - crossings[0]) / float64(len(crossings)-1)
	if want := float64(sampleRate) / freq; math.Abs(got-want) > 1e-3 {
		t.Errorf("mean period = %.4f samples, want: %.4f", got, want)
	}
}

// aliasRatio returns the share of the energy of x that is not at a multiple
// of the fundamental. It uses a direct DFT of the whole of x, so x must hold a
// whole number of periods and fundamental is the DFT bin of the first
// harmonic.
func aliasRatio(x []float64, fundamental int) float64 {
	n := len(x)
	cos, sin := make([]float64, n), make([]float64, n)
	for i := range cos {
		cos[i] = math.Cos(2 * math.Pi * float64(i) / float64(n))
		sin[i] = math.Sin(2 * math.Pi * float64(i) / float64(n))
	}
	var total, alias float64
	for k := 1; k <= n/2; k++ {
		var re, im float64
		for i, v := range x {
			j := (k * i) % n
			re += v * cos[j]
			im -= v * sin[j]
		}
		e := re*re + im*im
		total += e
		if k%fundamental != 0 {
			alias += e
		}
	}
	return alias / total
}

func TestLessAliasingThanNaive(t *testing.T) {
	// 1200 samples at 48kHz hold exactly 11 periods of 440Hz, so every
	// harmonic lands on a multiple of bin 11 and everything else is
	// aliasing.
	const (
		sampleRate = 48000
		freq       = 440
		n          = 1200
		bin        = 11
		settle     = 10 * n
	)
	ratio := func(alg Algorithm) float64 {
		s := render(alg.New(), freq, sampleRate, settle+n)
		return aliasRatio(s[settle:], bin)
	}
	naive := ratio(AlgorithmNaive)
	if naive < 1e-3 {
		t.Fatalf("naive alias ratio = %g, the test signal is not aliasing", naive)
	}
	for _, alg := range []Algorithm{AlgorithmPolyBLEP, AlgorithmBLIT} {
		if got := ratio(alg); got > naive/2 {
			t.Errorf("%v alias ratio = %g, want well under naive %g", alg, got, naive)
		} else {
			t.Logf("%v alias ratio = %g (naive %g)", alg, got, naive)
		}
	}
}

func TestReset(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmPolyBLEP, AlgorithmBLIT, AlgorithmNaive} {
		w := alg.New()
		want := render(alg.New(), 330, 44100, 64)
		render(w, 1234, 44100, 777)
		w.Reset()
		got := render(w, 330, 44100, 64)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%v: sample %d after Reset = %v, want: %v", alg, i, got[i], want[i])
				break
			}
		}
	}
}

func TestDegenerateFrequencies(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmPolyBLEP, AlgorithmBLIT, AlgorithmNaive} {
		for _, freq := range []float64{0, -100, math.NaN(), 30000, 96000} {
			w := alg.New()
			for i, v := range render(w, freq, 48000, 1000) {
				if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 2 {
					t.Fatalf("%v at %vHz: sample %d = %v", alg, freq, i, v)
				}
			}
		}
	}
	p := &PolyBLEP{}
	render(p, 96000, 48000, 1000)
	if period := 1.0 / 96000; p.Time < 0 || p.Time >= period+1.0/48000 {
		t.Errorf("Time = %v, want under one period plus one step", p.Time)
	}
	b := NewBLIT()
	render(b, 30000, 48000, 1000)
	if b.Phase < 0 || b.Phase >= math.Pi {
		t.Errorf("Phase = %v, want in [0, pi)", b.Phase)
	}
}

func TestDirichletNearTheWrap(t *testing.T) {
	for _, m := range []float64{1, 39, 99, 499} {
		for _, delta := range []float64{0, 1e-15, 9.81e-13, 1e-10, 1e-9} {
			for _, x := range []float64{delta, math.Pi - delta} {
				if x >= math.Pi {
					continue
				}
				if got := dirichlet(x, m); math.Abs(got-1) > 1e-9 {
					t.Errorf("dirichlet(%v, %v) = %v, want ~1", x, m, got)
				}
			}
		}
	}
}

func TestDirichletSymmetric(t *testing.T) {
	for _, m := range []float64{3, 39, 99} {
		for _, x := range []float64{0.01, 0.3, 1, 1.5} {
			want := math.Sin(m*x) / (m * math.Sin(x))
			for _, at := range []float64{x, math.Pi - x} {
				if got := dirichlet(at, m); math.Abs(got-want) > 1e-9 {
					t.Errorf("dirichlet(%v, %v) = %v, want: %v", at, m, got, want)
				}
			}
		}
	}
}

// The sample that lands on the wrap must look the same every period
// whichever side of pi the phase ends up on.
func TestBLITPeriodicAcrossManyPeriods(t *testing.T) {
	const sampleRate, period = 48000, 100
	s := render(AlgorithmBLIT.New(), sampleRate/period, sampleRate, 200*period)
	for i := 100 * period; i+period < len(s); i++ {
		if d := math.Abs(s[i] - s[i+period]); d > 1e-6 {
			t.Fatalf("samples %d and %d differ by %g", i, i+period, d)
		}
	}
}

func TestBLITInitialState(t *testing.T) {
	b := NewBLIT()
	if b.Phase != 0 || b.Acc != 0 {
		t.Fatalf("NewBLIT() = %+v, want zero phase and accumulator", b)
	}
	if f1, f2 := b.Smoothed(); f1 != 0 || f2 != 0 {
		t.Fatalf("Smoothed() = %v, %v, want: 0, 0", f1, f2)
	}
	// At zero phase the kernel takes its limiting value, so the first
	// integrator output is m/period - 1/period.
	period := 48000.0 / 480
	m := 2*math.Floor(period/2) - 1
	b.Next(480, 48000)
	if want := (m/period - 1/period) * leak; math.Abs(b.Acc-want) > 1e-15 {
		t.Errorf("Acc after one sample = %v, want: %v", b.Acc, want)
	}
	if want := math.Pi / period; math.Abs(b.Phase-want) > 1e-15 {
		t.Errorf("Phase after one sample = %v, want: %v", b.Phase, want)
	}
}

func BenchmarkNext(b *testing.B) {
	for _, alg := range []Algorithm{AlgorithmPolyBLEP, AlgorithmBLIT} {
		b.Run(alg.String(), func(b *testing.B) {
			w := alg.New()
			b.ReportAllocs()
			for range b.N {
				w.Next(440, 48000)
			}
		})
	}
}
