// package midi handles Universal MIDI Packets (UMP), the 32-bit word format
// of MIDI 2.0 that also carries classic MIDI 1.0 channel voice messages.
package midi

import "fmt"

// ChannelMask selects a subset of the 16 channels, bit n for channel n.
type ChannelMask uint16

const AllChannels ChannelMask = 0xFFFF

// Match reports whether channel is selected.
func (m ChannelMask) Match(channel byte) bool {
	return channel < 16 && m&(1<<channel) != 0
}

// MessageType is a UMP message type, a group of types of message.
type MessageType byte

const (
	MTUtility       MessageType = 0x0
	MTSystem        MessageType = 0x1
	MTChannelVoice1 MessageType = 0x2
	MTData          MessageType = 0x3
	MTChannelVoice2 MessageType = 0x4
	MTLongData      MessageType = 0x5
	// several reserved.
	MTFlexData MessageType = 0xD
	// 0xE is reserved
	MTUMPStream MessageType = 0xF
)

var messageTypeNames = map[MessageType]string{
	MTUtility:       "Utility",
	MTSystem:        "System",
	MTChannelVoice1: "ChannelVoice1",
	MTData:          "Data",
	MTChannelVoice2: "ChannelVoice2",
	MTLongData:      "LongData",
	MTFlexData:      "FlexData",
	MTUMPStream:     "UMPStream",
}

func (t MessageType) String() string {
	if s, ok := messageTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("MessageType(%#x)", byte(t))
}

// CV1MessageType is the type of a 1.0 Channel Voice message. Also the high 4
// bits of the first actual message byte (and the high 4 bits of the classic
// format, as they all have the first bit set).
type CV1MessageType byte

const (
	CV1NoteOff = CV1MessageType(0x8 | byte(iota))
	CV1NoteOn
	CV1PolyPressure
	CV1ControlChange
	CV1ProgramChange
	CV1ChannelPressure
	CV1PitchBend
)

func (t CV1MessageType) String() string {
	switch t {
	case CV1NoteOff:
		return "NoteOff"
	case CV1NoteOn:
		return "NoteOn"
	case CV1PolyPressure:
		return "PolyPressure"
	case CV1ControlChange:
		return "ControlChange"
	case CV1ProgramChange:
		return "ProgramChange"
	case CV1ChannelPressure:
		return "ChannelPressure"
	case CV1PitchBend:
		return "PitchBend"
	}
	return fmt.Sprintf("CV1MessageType(%#x)", byte(t))
}

type Message struct {
	Type  MessageType
	Group byte
	// fields for 1.0 Channel Voice messages.
	CV1Type CV1MessageType
	Channel byte
	// MIDI note for note on/note off/poly pressure, but also
	// index for control change and program for program change.
	Note      byte
	Velocity  byte // for note {on, off}, {poly,channel} pressure.
	PitchBend uint16
}

func (m Message) String() string {
	if m.Type != MTChannelVoice1 {
		return fmt.Sprintf("%v(group=%d)", m.Type, m.Group)
	}
	return fmt.Sprintf("%v(group=%d, ch=%d, note=%d, vel=%d)", m.CV1Type, m.Group, m.Channel, m.Note, m.Velocity)
}
