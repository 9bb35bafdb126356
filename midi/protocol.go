package midi

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned for message types this package can't parse.
	ErrUnsupported = errors.New("unsupported UMP message")
	// ErrTruncated is returned when a message runs off the end of the input.
	ErrTruncated = errors.New("truncated UMP message")
)

// messageTypeSizes is size in uint32s of each type of message.
var messageTypeSizes = [16]int{
	MTUtility:       1,
	MTSystem:        1,
	MTChannelVoice1: 1,
	MTData:          2,
	MTChannelVoice2: 2,
	MTLongData:      4,
	0x6:             1,
	0x7:             1,
	0x8:             2,
	0x9:             2,
	0xA:             2,
	0xB:             3,
	0xC:             3,
	MTFlexData:      4,
	0xE:             4,
	MTUMPStream:     4,
}

func parseChannelVoice1(raw []uint32) (Message, []uint32, error) {
	// This message is only 32 bits.
	p, raw := raw[0], raw[1:]
	// Group is second-most significant set of 4 bits.
	g := byte(p>>24) & 0xF
	// The remaining 3 bytes are more or less the traditional bytes from the
	// old format.
	msg := Message{
		Type:    MTChannelVoice1,
		Group:   g,
		CV1Type: CV1MessageType((p >> 20) & 0xF),
		Channel: byte((p >> 16) & 0xF),
	}
	switch msg.CV1Type {
	case CV1NoteOff, CV1NoteOn, CV1PolyPressure, CV1ControlChange:
		// a byte of note, and a byte of velocity. High bit
		// _should_ be zero.
		msg.Note = byte(p>>8) & 0x7F
		msg.Velocity = byte(p) & 0x7F
	case CV1ProgramChange:
		msg.Note = byte(p>>8) & 0x7F
	case CV1ChannelPressure:
		msg.Velocity = byte(p>>8) & 0x7F
	case CV1PitchBend:
		low := uint16(p>>8) & 0x7F
		high := uint16(p) & 0x7F
		msg.PitchBend = (high << 7) | low
	default:
		return msg, nil, fmt.Errorf("invalid 1.0 Channel Voice message type: %d", msg.CV1Type)
	}
	return msg, raw, nil
}

// ParseMessage parses a single (possibly variable-length) UMP message from a
// slice of raw data. Returns the original slice, advanced to the start of the
// next message (or the end). Messages of other types are skipped over and
// reported with an error wrapping ErrUnsupported, along with the advanced
// slice so callers can carry on.
func ParseMessage(raw []uint32) (Message, []uint32, error) {
	if len(raw) == 0 {
		return Message{}, nil, errors.New("no input")
	}
	// The type is always the most significant 4 bits.
	t := MessageType(raw[0] >> 28)
	size := messageTypeSizes[t]
	if len(raw) < size {
		return Message{}, nil, fmt.Errorf("%w: %v needs %d words, have %d", ErrTruncated, t, size, len(raw))
	}
	switch t {
	case MTChannelVoice1:
		return parseChannelVoice1(raw)
	}
	return Message{Type: t}, raw[size:], fmt.Errorf("%w: %v", ErrUnsupported, t)
}

// ParseMessages calls ParseMessage until the input is exhausted, skipping
// unsupported messages. Any other error fails the whole input.
func ParseMessages(raw []uint32) ([]Message, error) {
	var messages []Message
	for len(raw) > 0 {
		msg, next, err := ParseMessage(raw)
		if errors.Is(err, ErrUnsupported) {
			raw = next
			continue
		}
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
		raw = next
	}
	return messages, nil
}

// Words splits big-endian bytes into UMP words. The length must be a
// multiple of four.
func Words(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of words", ErrTruncated, len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// AppendWords appends the big-endian encoding of words to b.
func AppendWords(b []byte, words ...uint32) []byte {
	for _, w := range words {
		b = binary.BigEndian.AppendUint32(b, w)
	}
	return b
}

func channelVoice1(t CV1MessageType, group, channel, data1, data2 byte) uint32 {
	return uint32(MTChannelVoice1)<<28 |
		uint32(group&0xF)<<24 |
		uint32(t&0xF)<<20 |
		uint32(channel&0xF)<<16 |
		uint32(data1&0x7F)<<8 |
		uint32(data2&0x7F)
}

// NoteOn encodes a 1.0 Channel Voice note on.
func NoteOn(group, channel, note, velocity byte) uint32 {
	return channelVoice1(CV1NoteOn, group, channel, note, velocity)
}

// NoteOff encodes a 1.0 Channel Voice note off.
func NoteOff(group, channel, note, velocity byte) uint32 {
	return channelVoice1(CV1NoteOff, group, channel, note, velocity)
}
