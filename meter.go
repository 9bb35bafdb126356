package blep

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Meter is a Ticker that passes its inputs straight through while keeping a
// smoothed RMS level per channel. Levels can be read from any goroutine.
type Meter struct {
	channels int
	// float32 bits, written only from Tick.
	rms []atomic.Uint32
}

var _ Ticker = &Meter{}

func NewMeter(channels int) *Meter {
	return &Meter{
		channels: channels,
		rms:      make([]atomic.Uint32, channels),
	}
}

func (m *Meter) Inputs() int    { return m.channels }
func (m *Meter) Outputs() int   { return m.channels }
func (m *Meter) String() string { return fmt.Sprintf("Meter(%d)", m.channels) }

func (m *Meter) Tick(in, out [][]float32) {
	for i, channel := range in {
		copy(out[i], channel)
		if len(channel) == 0 {
			continue
		}
		sum := float64(0)
		for _, s := range channel {
			sum += float64(s) * float64(s)
		}
		rms := float32(math.Sqrt(sum / float64(len(channel))))
		prev := math.Float32frombits(m.rms[i].Load())
		m.rms[i].Store(math.Float32bits(0.01*prev + 0.99*rms))
	}
}

// Levels returns the current level of each channel.
func (m *Meter) Levels() []float32 {
	levels := make([]float32, m.channels)
	for i := range levels {
		levels[i] = math.Float32frombits(m.rms[i].Load())
	}
	return levels
}
