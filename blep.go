// package blep is a monophonic band-limited sawtooth synth driven by note
// events arriving from another goroutine.
package blep

import (
	"fmt"
)

// Ticker is something that processes audio.
type Ticker interface {
	// Inputs returns the number of expected input channels.
	Inputs() int
	// Outputs returns the number of expected output channels.
	Outputs() int
	// Tick processes a chunk of audio. The first dimension of the input
	// slice is always Inputs, and the first dimension of the output
	// slice is always Outputs. Each individual element of both slices
	// is always the same length, at most MaxBlock. Tickers may overwrite
	// the input buffer. Tick is called from the audio callback and must not
	// block or allocate.
	Tick(input, output [][]float32)

	fmt.Stringer
}

// MaxBlock is the longest chunk a Ticker will be asked to process.
const MaxBlock = 4096

// Scale is a Ticker that multiplies its input by a constant and shifts it by a
// constant.
type Scale struct {
	Mul   float32
	Shift float32
}

var _ Ticker = Scale{}

func (s Scale) Inputs() int    { return 1 }
func (s Scale) Outputs() int   { return 1 }
func (s Scale) String() string { return fmt.Sprintf("Scale(%v, %v)", s.Mul, s.Shift) }

func (s Scale) Tick(input, output [][]float32) {
	for i, c := range input[0] {
		output[0][i] = c*s.Mul + s.Shift
	}
}

// Mult copies a single input to the provided number of outputs, so a mono
// synth can feed a stereo device.
type Mult struct {
	N int
}

var _ Ticker = Mult{}

func (Mult) Inputs() int      { return 1 }
func (m Mult) Outputs() int   { return m.N }
func (m Mult) String() string { return fmt.Sprintf("Mult(%d)", m.N) }

func (m Mult) Tick(input, output [][]float32) {
	for _, o := range output {
		copy(o, input[0])
	}
}

// Chain is a ticker that applies a sequence of Tickers. The inputs and outputs all
// need to line up.
type Chain struct {
	ts              []Ticker
	inputs, outputs int
	b1, b2          [][]float32
}

var _ Ticker = Chain{}

// Serially chains ts together, panicking if their channel counts don't
// match.
func Serially(ts ...Ticker) Chain {
	if len(ts) == 0 {
		panic(fmt.Errorf("empty chain"))
	}
	maxChans := max(ts[0].Inputs(), ts[0].Outputs())
	for i := 1; i < len(ts); i++ {
		if ts[i-1].Outputs() != ts[i].Inputs() {
			panic(fmt.Errorf(
				"outputs/inputs mismatch:\n%v (%d outputs)\n->\n%v (%d inputs)",
				ts[i-1], ts[i-1].Outputs(), ts[i], ts[i].Inputs()))
		}
		maxChans = max(ts[i].Outputs(), maxChans)
	}
	b1 := make([][]float32, maxChans)
	for i := range b1 {
		b1[i] = make([]float32, MaxBlock)
	}
	b2 := make([][]float32, maxChans)
	for i := range b2 {
		b2[i] = make([]float32, MaxBlock)
	}
	return Chain{
		ts:      ts,
		inputs:  ts[0].Inputs(),
		outputs: ts[len(ts)-1].Outputs(),
		b1:      b1,
		b2:      b2,
	}
}

func (c Chain) Inputs() int    { return c.inputs }
func (c Chain) Outputs() int   { return c.outputs }
func (c Chain) String() string { return fmt.Sprintf("Chain(%v)", c.ts) }

func (c Chain) Tick(input, output [][]float32) {
	n := blockLen(input, output)
	// The scratch slices are resliced in place, so the headers in b1 and b2
	// are shared between calls; everything stays within MaxBlock.
	in, out := c.b1, c.b2
	for i := range input {
		in[i] = in[i][:n]
		copy(in[i], input[i])
	}
	for _, t := range c.ts {
		in = in[:t.Inputs()]
		out = out[:t.Outputs()]
		for i := range out {
			out[i] = out[i][:n]
		}
		t.Tick(in, out)
		in, out = out, in[:cap(in)]
	}
	for i := range output {
		copy(output[i], in[i])
	}
}

// blockLen is the number of samples in this tick.
func blockLen(input, output [][]float32) int {
	if len(output) > 0 {
		return len(output[0])
	}
	if len(input) > 0 {
		return len(input[0])
	}
	return 0
}
