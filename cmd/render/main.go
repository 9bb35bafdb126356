// command render plays a note script through the synth offline, writes the
// result to a wav file and reports how much of it is aliasing.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pfcm/blep"
	"github.com/pfcm/blep/internal/logging"
	"github.com/pfcm/blep/io"
	"github.com/pfcm/blep/osc"
	"github.com/pfcm/blep/spectrum"
	"github.com/pfcm/blep/voice"
)

var (
	scriptFlag   = flag.String("script", "", "note script to play, - for stdin; empty plays A440 for a second")
	outFlag      = flag.String("out", "", "wav file to write; empty skips writing")
	algFlag      = flag.String("alg", osc.AlgorithmPolyBLEP.String(), "oscillator: polyblep, blit or naive")
	rateFlag     = flag.Int("rate", 48000, "sample rate")
	blockFlag    = flag.Int("block", 256, "frames rendered per tick")
	tailFlag     = flag.Float64("tail", 0.1, "seconds rendered after the last cue")
	gainFlag     = flag.Float64("gain", 0.5, "output gain")
	fftFlag      = flag.Int("fft", 4096, "analysis frame size, a power of two")
	widthFlag    = flag.Int("width", 3, "bins either side of a harmonic counted as harmonic")
	logLevelFlag = flag.String("log-level", "info", "debug, info, warn or error")
)

const defaultScript = "0 on 0\n1 off\n"

func main() {
	flag.Parse()
	if _, err := logging.Setup(os.Stderr, *logLevelFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(); err != nil {
		slog.Error("render failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	alg, err := osc.ParseAlgorithm(*algFlag)
	if err != nil {
		return err
	}
	if *rateFlag <= 0 {
		return fmt.Errorf("invalid sample rate %d", *rateFlag)
	}
	cues, err := loadScript(*scriptFlag)
	if err != nil {
		return err
	}
	sr := float64(*rateFlag)

	out := render(cues, alg, sr, *blockFlag, *tailFlag)
	for i := range out {
		out[i] *= float32(*gainFlag)
	}
	slog.Info("rendered", "alg", alg, "cues", len(cues), "samples", len(out))
	if *outFlag != "" {
		if err := io.WriteWAV(*outFlag, out, *rateFlag); err != nil {
			return err
		}
		slog.Info("wrote", "path", *outFlag)
	}

	a, err := spectrum.NewAnalyzer(*fftFlag)
	if err != nil {
		return err
	}
	r := report{
		Algorithm: alg,
		Samples:   len(out),
		Peak:      peak(out),
		RMS:       rms(out),
	}
	if f0, ok := firstNote(cues, sr); ok {
		r.Fundamental = f0
		r.Alias = aliasShare(a, out, sr, f0, *widthFlag)
		if alg != osc.AlgorithmNaive {
			ref := render(cues, osc.AlgorithmNaive, sr, *blockFlag, *tailFlag)
			r.NaiveAlias = aliasShare(a, ref, sr, f0, *widthFlag)
		}
	}
	r.print(message.NewPrinter(language.English))
	return nil
}

func loadScript(path string) ([]cue, error) {
	switch path {
	case "":
		return parseScript(strings.NewReader(defaultScript), 0)
	case "-":
		return parseScript(os.Stdin, 0)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cues, err := parseScript(f, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cues, nil
}

// render runs the cues through a Synth the way the audio callback would,
// splitting blocks so that every cue lands on its exact sample.
func render(cues []cue, alg osc.Algorithm, sr float64, block int, tail float64) []float32 {
	block = min(max(block, 1), blep.MaxBlock)
	end := 0.0
	if len(cues) > 0 {
		end = cues[len(cues)-1].At
	}
	total := sampleOf(end+max(tail, 0), sr)
	synth := blep.NewSynth(blep.SynthConfig{
		Algorithm:      alg,
		SampleRate:     sr,
		EventsPerBlock: 0,
		QueueSize:      len(cues) + 1,
	})
	out := make([]float32, total)
	next := 0
	for pos := 0; pos < total; {
		for next < len(cues) && sampleOf(cues[next].At, sr) <= pos {
			synth.Events().Push(cues[next].Event)
			next++
		}
		n := min(block, total-pos)
		if next < len(cues) {
			n = min(n, sampleOf(cues[next].At, sr)-pos)
		}
		synth.Render(out[pos:pos+n], sr)
		pos += n
	}
	return out
}

func sampleOf(t, sr float64) int { return int(math.Round(t * sr)) }

// firstNote is the clamped frequency of the first note on.
func firstNote(cues []cue, sr float64) (float64, bool) {
	for _, c := range cues {
		if c.Event.Type == blep.NoteOn {
			return voice.Clamp(voice.PitchToFrequency(c.Event.Pitch), sr), true
		}
	}
	return 0, false
}

func aliasShare(a *spectrum.Analyzer, x []float32, sr, f0 float64, width int) float64 {
	xs := make([]float64, len(x))
	mean := 0.0
	for i, v := range x {
		xs[i] = float64(v)
		mean += xs[i]
	}
	if len(xs) > 0 {
		mean /= float64(len(xs))
	}
	for i := range xs {
		xs[i] -= mean
	}
	return 1 - spectrum.HarmonicRatio(a.Magnitudes(xs), a.BinHz(sr), f0, width)
}

func peak(x []float32) float64 {
	p := 0.0
	for _, v := range x {
		p = max(p, math.Abs(float64(v)))
	}
	return p
}

func rms(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

type report struct {
	Algorithm   osc.Algorithm
	Samples     int
	Peak, RMS   float64
	Fundamental float64
	// Alias and NaiveAlias are the share of energy off the harmonics of
	// Fundamental.
	Alias, NaiveAlias float64
}

func (r report) print(p *message.Printer) {
	p.Printf("algorithm:   %v\n", r.Algorithm)
	p.Printf("samples:     %d\n", r.Samples)
	p.Printf("peak:        %.4f\n", r.Peak)
	p.Printf("rms:         %.4f\n", r.RMS)
	if r.Fundamental == 0 {
		return
	}
	p.Printf("fundamental: %.2f Hz\n", r.Fundamental)
	p.Printf("aliasing:    %.3f%%\n", 100*r.Alias)
	if r.Algorithm != osc.AlgorithmNaive {
		p.Printf("naive:       %.3f%%\n", 100*r.NaiveAlias)
	}
}
