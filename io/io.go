// package io does audio in and out: playing a Ticker on the sound card and
// moving samples in and out of wav files.
package io

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/pfcm/blep"
)

// Backend names the library used to talk to the sound card.
type Backend string

const (
	// BackendMalgo uses miniaudio through github.com/gen2brain/malgo.
	BackendMalgo Backend = "malgo"
	// BackendOto uses github.com/ebitengine/oto/v3.
	BackendOto Backend = "oto"
)

// ParseBackend accepts a backend name in any case.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(s)); b {
	case BackendMalgo, BackendOto:
		return b, nil
	}
	return "", fmt.Errorf("unknown audio backend %q (want %q or %q)", s, BackendMalgo, BackendOto)
}

// Config says how to open the device.
type Config struct {
	SampleRate int
	// BlockSize is the most frames handed to the Ticker at once. Devices
	// asking for more are served in several ticks.
	BlockSize int
	Backend   Backend
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		BlockSize:  256,
		Backend:    BackendMalgo,
	}
}

func (c Config) validate(t blep.Ticker) error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.BlockSize < 1 || c.BlockSize > blep.MaxBlock {
		return fmt.Errorf("block size %d outside [1, %d]", c.BlockSize, blep.MaxBlock)
	}
	if t.Outputs() < 1 {
		return fmt.Errorf("%v has no outputs to play", t)
	}
	return nil
}

// Play runs t on the default output device until ctx is cancelled. Tickers
// with inputs are fed from the default capture device when the backend has
// one, otherwise silence.
func Play(ctx context.Context, t blep.Ticker, cfg Config) error {
	if err := cfg.validate(t); err != nil {
		return err
	}
	switch cfg.Backend {
	case BackendMalgo, "":
		return playMalgo(ctx, t, cfg)
	case BackendOto:
		return playOto(ctx, t, cfg)
	}
	return fmt.Errorf("unknown audio backend %q", cfg.Backend)
}

// renderer adapts a Ticker to interleaved little-endian float32 frames. All
// of its buffers are allocated up front so that fill is safe in a device
// callback.
type renderer struct {
	t               blep.Ticker
	block           int
	inputs, outputs [][]float32
}

func newRenderer(t blep.Ticker, block int) *renderer {
	block = min(max(block, 1), blep.MaxBlock)
	r := &renderer{
		t:       t,
		block:   block,
		inputs:  make([][]float32, t.Inputs()),
		outputs: make([][]float32, t.Outputs()),
	}
	for i := range r.inputs {
		r.inputs[i] = make([]float32, block)
	}
	for i := range r.outputs {
		r.outputs[i] = make([]float32, block)
	}
	return r
}

func (r *renderer) frameSize() int { return 4 * len(r.outputs) }

// fill renders as many whole frames as fit in out, returning the number of
// bytes written. Any trailing partial frame is zeroed. in holds interleaved
// capture frames; if it is short the inputs are padded with silence.
func (r *renderer) fill(out, in []byte) int {
	frames := len(out) / r.frameSize()
	inFrame := 4 * len(r.inputs)
	o := out[:0]
	for done := 0; done < frames; {
		n := min(r.block, frames-done)
		for c := range r.inputs {
			r.inputs[c] = r.inputs[c][:n]
			for j := range n {
				k := (done+j)*inFrame + 4*c
				if k+4 > len(in) {
					r.inputs[c][j] = 0
					continue
				}
				r.inputs[c][j] = math.Float32frombits(binary.LittleEndian.Uint32(in[k:]))
			}
		}
		for c := range r.outputs {
			r.outputs[c] = r.outputs[c][:n]
		}
		r.t.Tick(r.inputs, r.outputs)
		for j := range n {
			for c := range r.outputs {
				o = binary.LittleEndian.AppendUint32(o, math.Float32bits(r.outputs[c][j]))
			}
		}
		done += n
	}
	clear(out[len(o):])
	return len(o)
}

// Read lets the renderer be pulled from like a stream of samples.
func (r *renderer) Read(p []byte) (int, error) {
	return r.fill(p, nil), nil
}
