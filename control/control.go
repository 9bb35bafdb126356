// package control receives note events from the outside world and pushes
// them towards the synth: UDP packets in one of a few encodings, or keys
// typed at the terminal.
package control

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pfcm/blep"
)

// DefaultAddr is where the listener binds if not told otherwise.
const DefaultAddr = "127.0.0.1:3579"

var (
	// ErrUnknownAddress is returned for OSC messages this package doesn't
	// understand.
	ErrUnknownAddress = errors.New("unknown OSC address")
	// ErrArguments is returned when a message has the wrong number or
	// type of arguments.
	ErrArguments = errors.New("bad arguments")
)

// Decoder turns one packet into events. A packet that fails to decode is
// dropped whole: on error the events, if any, are ignored.
type Decoder interface {
	Decode(packet []byte) ([]blep.Event, error)
}

// Sink receives decoded events. It must not block; bridge.Bridge is one.
type Sink interface {
	Push(blep.Event) bool
}

// Format names a packet encoding.
type Format string

const (
	FormatMIOSC Format = "osc"
	FormatMIDI  Format = "midi"
	FormatUMP   Format = "ump"
)

var formats = []Format{FormatMIOSC, FormatMIDI, FormatUMP}

// NewDecoder returns the decoder for a format.
func NewDecoder(f Format) (Decoder, error) {
	switch Format(strings.ToLower(string(f))) {
	case FormatMIOSC:
		return MIOSC{}, nil
	case FormatMIDI:
		return MIDI{}, nil
	case FormatUMP:
		return UMP{}, nil
	}
	return nil, fmt.Errorf("unknown packet format %q (want one of %v)", f, formats)
}

// noteOn and noteOff build events from MIDI note numbers, where note 69 is
// A440.
func noteOn(channel, note, velocity byte) blep.Event {
	return blep.NoteOnEvent(int32(channel), float64(note)-69, float64(velocity)/127)
}

func noteOff(channel byte) blep.Event {
	return blep.NoteOffEvent(int32(channel))
}

// midiNote is the inverse of noteOn, rounding to the nearest note and
// clamping into MIDI range. Velocity is at least 1 so it still reads as a
// note on.
func midiNote(ev blep.Event) (key, velocity byte) {
	k := math.Round(ev.Pitch) + 69
	if !(k >= 0) {
		k = 0
	}
	v := math.Round(ev.Velocity * 127)
	if !(v >= 1) {
		v = 1
	}
	return byte(min(k, 127)), byte(min(v, 127))
}
