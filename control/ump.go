package control

import (
	"fmt"

	"github.com/pfcm/blep"
	"github.com/pfcm/blep/midi"
)

// UMP decodes datagrams of big-endian Universal MIDI Packet words. Only MIDI
// 1.0 channel voice note messages on the selected channels produce events; a
// note on with zero velocity is a note off.
type UMP struct {
	// Channels restricts which channels are listened to. Zero means all.
	Channels midi.ChannelMask
}

var _ Decoder = UMP{}

func (u UMP) Decode(packet []byte) ([]blep.Event, error) {
	words, err := midi.Words(packet)
	if err != nil {
		return nil, err
	}
	msgs, err := midi.ParseMessages(words)
	if err != nil {
		return nil, fmt.Errorf("parsing UMP: %w", err)
	}
	mask := u.Channels
	if mask == 0 {
		mask = midi.AllChannels
	}
	var events []blep.Event
	for _, m := range msgs {
		if m.Type != midi.MTChannelVoice1 || !mask.Match(m.Channel) {
			continue
		}
		switch {
		case m.CV1Type == midi.CV1NoteOn && m.Velocity > 0:
			events = append(events, noteOn(m.Channel, m.Note, m.Velocity))
		case m.CV1Type == midi.CV1NoteOn, m.CV1Type == midi.CV1NoteOff:
			events = append(events, noteOff(m.Channel))
		}
	}
	return events, nil
}

// UMPBytes encodes an event as a single UMP word. Pitches are rounded to the
// nearest note.
func UMPBytes(ev blep.Event) []byte {
	ch := byte(ev.Channel & 0xF)
	if ev.Type == blep.NoteOn {
		key, vel := midiNote(ev)
		return midi.AppendWords(nil, midi.NoteOn(0, ch, key, vel))
	}
	return midi.AppendWords(nil, midi.NoteOff(0, ch, 69, 0))
}
