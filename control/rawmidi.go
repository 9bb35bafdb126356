package control

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/pfcm/blep"
)

// MIDI decodes a stream of classic MIDI 1.0 bytes, as sent by rtpMIDI-style
// bridges that put one or more messages in each datagram. Running status is
// honoured within a packet. Only note on and note off produce events; other
// messages are skipped.
type MIDI struct{}

var _ Decoder = MIDI{}

var errNoStatus = errors.New("MIDI data byte with no status")

func (MIDI) Decode(packet []byte) ([]blep.Event, error) {
	var (
		events  []blep.Event
		running byte
		msg     [3]byte
	)
	for i := 0; i < len(packet); {
		status := packet[i]
		if status&0x80 != 0 {
			i++
		} else if running != 0 {
			status = running
		} else {
			return nil, fmt.Errorf("byte %d: %w", i, errNoStatus)
		}

		if status == 0xF0 {
			// sysex runs to the next end-of-exclusive.
			for i < len(packet) && packet[i] != 0xF7 {
				i++
			}
			if i == len(packet) {
				return nil, fmt.Errorf("unterminated sysex")
			}
			i++
			running = 0
			continue
		}

		n := dataBytes(status)
		if len(packet)-i < n {
			return nil, fmt.Errorf("truncated MIDI message %#02x: want %d data bytes, have %d", status, n, len(packet)-i)
		}
		if status < 0xF0 {
			running = status
		} else if status < 0xF8 {
			// system common cancels running status, real time doesn't.
			running = 0
		}
		msg[0] = status
		copy(msg[1:], packet[i:i+n])
		i += n

		var ch, key, vel uint8
		m := gomidi.Message(msg[:n+1])
		switch {
		case m.GetNoteStart(&ch, &key, &vel):
			events = append(events, noteOn(ch, key, vel))
		case m.GetNoteEnd(&ch, &key):
			events = append(events, noteOff(ch))
		}
	}
	return events, nil
}

// dataBytes is the number of data bytes following a status byte.
func dataBytes(status byte) int {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 2
	case 0xC0, 0xD0:
		return 1
	}
	switch status {
	case 0xF1, 0xF3:
		return 1
	case 0xF2:
		return 2
	}
	return 0
}

// MIDIBytes encodes an event as a MIDI 1.0 message. Pitches are rounded to
// the nearest note; note off is sent for note 69.
func MIDIBytes(ev blep.Event) []byte {
	ch := uint8(ev.Channel & 0xF)
	if ev.Type == blep.NoteOn {
		key, vel := midiNote(ev)
		return gomidi.NoteOn(ch, key, vel)
	}
	return gomidi.NoteOff(ch, 69)
}
