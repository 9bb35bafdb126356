package blep

import (
	"fmt"

	"github.com/pfcm/blep/bridge"
	"github.com/pfcm/blep/osc"
	"github.com/pfcm/blep/voice"
)

// SynthConfig configures a Synth.
type SynthConfig struct {
	Algorithm  osc.Algorithm
	SampleRate float64
	// EventsPerBlock is the most events applied before each block is
	// rendered; the rest wait for later blocks. Zero or less applies every
	// queued event. Only the last NoteOn or NoteOff of a block is audible,
	// so draining everything trades nothing but CPU for latency.
	EventsPerBlock int
	// QueueSize is the capacity of the event queue, see bridge.New.
	QueueSize int
}

// DefaultEventsPerBlock applies one event per block.
const DefaultEventsPerBlock = 1

// DefaultSynthConfig is a 48kHz polyBLEP synth applying one event per block.
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		Algorithm:      osc.AlgorithmPolyBLEP,
		SampleRate:     48000,
		EventsPerBlock: DefaultEventsPerBlock,
		QueueSize:      bridge.DefaultCapacity,
	}
}

// Synth is the render step: each block it takes pending note events off its
// queue, applies them to its single voice and renders. Render and Tick must
// only be called from one goroutine (the audio callback); Events may be
// pushed to from exactly one other.
type Synth struct {
	cfg    SynthConfig
	events *bridge.Bridge[Event]
	voice  *voice.Voice
}

var _ Ticker = &Synth{}

func NewSynth(cfg SynthConfig) *Synth {
	if !(cfg.SampleRate > 0) {
		panic(fmt.Errorf("synth: invalid sample rate %v", cfg.SampleRate))
	}
	return &Synth{
		cfg:    cfg,
		events: bridge.New[Event](cfg.QueueSize),
		voice:  voice.New(cfg.Algorithm, cfg.SampleRate),
	}
}

// Events is the producer side of the synth's queue.
func (s *Synth) Events() *bridge.Bridge[Event] { return s.events }

// Voice exposes the voice for inspection. It must only be used from the
// render goroutine.
func (s *Synth) Voice() *voice.Voice { return s.voice }

// Render applies up to EventsPerBlock queued events and then fills buf. It
// never blocks, allocates or fails; a closed queue is just an empty one.
func (s *Synth) Render(buf []float32, sampleRate float64) {
	for n := 0; s.cfg.EventsPerBlock <= 0 || n < s.cfg.EventsPerBlock; n++ {
		ev, ok := s.events.Poll()
		if !ok {
			break
		}
		s.apply(ev)
	}
	s.voice.Render(buf, sampleRate)
}

func (s *Synth) apply(ev Event) {
	switch ev.Type {
	case NoteOn:
		s.voice.NoteOn(ev.Pitch, ev.Velocity)
	case NoteOff:
		s.voice.NoteOff()
	}
}

func (*Synth) Inputs() int  { return 0 }
func (*Synth) Outputs() int { return 1 }
func (s *Synth) String() string {
	return fmt.Sprintf("Synth(%v, %vHz)", s.cfg.Algorithm, s.cfg.SampleRate)
}

func (s *Synth) Tick(_, out [][]float32) {
	s.Render(out[0], s.cfg.SampleRate)
}
