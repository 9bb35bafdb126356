package control

import (
	"fmt"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/pfcm/blep"
)

// MIOSC addresses. Note on carries (id int, pitch float, velocity float)
// with pitch in semitones relative to A440, note off carries (id int).
const (
	MIOSCNoteOn  = "/mi/note_on"
	MIOSCNoteOff = "/mi/note_off"
)

// MIOSC decodes musical instrument OSC messages, singly or in bundles.
// Within a bundle, its own messages come out first, in order, followed by
// each nested bundle depth first. The parsed bundle keeps messages and
// bundles apart, so a bundle interleaving the two is reordered.
type MIOSC struct{}

var _ Decoder = MIOSC{}

func (MIOSC) Decode(packet []byte) ([]blep.Event, error) {
	p, err := goosc.ParsePacket(string(packet))
	if err != nil {
		return nil, fmt.Errorf("parsing OSC packet: %w", err)
	}
	var events []blep.Event
	if err := appendPacket(&events, p); err != nil {
		return nil, err
	}
	return events, nil
}

func appendPacket(events *[]blep.Event, p goosc.Packet) error {
	switch p := p.(type) {
	case *goosc.Message:
		ev, err := MIOSCEvent(p)
		if err != nil {
			return err
		}
		*events = append(*events, ev)
	case *goosc.Bundle:
		for _, m := range p.Messages {
			if err := appendPacket(events, m); err != nil {
				return err
			}
		}
		for _, b := range p.Bundles {
			if err := appendPacket(events, b); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unexpected OSC packet %T", p)
	}
	return nil
}

// MIOSCEvent converts a single message.
func MIOSCEvent(m *goosc.Message) (blep.Event, error) {
	switch m.Address {
	case MIOSCNoteOn:
		if len(m.Arguments) != 3 {
			return blep.Event{}, fmt.Errorf("%w: %s wants 3 arguments, got %d", ErrArguments, m.Address, len(m.Arguments))
		}
		id, err := intArg(m.Arguments[0])
		if err != nil {
			return blep.Event{}, fmt.Errorf("%s id: %w", m.Address, err)
		}
		pitch, err := floatArg(m.Arguments[1])
		if err != nil {
			return blep.Event{}, fmt.Errorf("%s pitch: %w", m.Address, err)
		}
		velocity, err := floatArg(m.Arguments[2])
		if err != nil {
			return blep.Event{}, fmt.Errorf("%s velocity: %w", m.Address, err)
		}
		return blep.NoteOnEvent(id, pitch, velocity), nil
	case MIOSCNoteOff:
		if len(m.Arguments) != 1 {
			return blep.Event{}, fmt.Errorf("%w: %s wants 1 argument, got %d", ErrArguments, m.Address, len(m.Arguments))
		}
		id, err := intArg(m.Arguments[0])
		if err != nil {
			return blep.Event{}, fmt.Errorf("%s id: %w", m.Address, err)
		}
		return blep.NoteOffEvent(id), nil
	}
	return blep.Event{}, fmt.Errorf("%w: %q", ErrUnknownAddress, m.Address)
}

// NewMIOSCMessage encodes an event as an OSC message.
func NewMIOSCMessage(ev blep.Event) *goosc.Message {
	if ev.Type == blep.NoteOn {
		return goosc.NewMessage(MIOSCNoteOn, ev.Channel, float32(ev.Pitch), float32(ev.Velocity))
	}
	return goosc.NewMessage(MIOSCNoteOff, ev.Channel)
}

func intArg(a any) (int32, error) {
	switch v := a.(type) {
	case int32:
		return v, nil
	case int64:
		return int32(v), nil
	case float32:
		return int32(v), nil
	case float64:
		return int32(v), nil
	}
	return 0, fmt.Errorf("%w: want a number, got %T", ErrArguments, a)
}

func floatArg(a any) (float64, error) {
	switch v := a.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: want a number, got %T", ErrArguments, a)
}
