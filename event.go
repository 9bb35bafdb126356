package blep

import "fmt"

// EventType distinguishes the kinds of Event.
type EventType byte

const (
	NoteOff EventType = iota
	NoteOn
)

func (t EventType) String() string {
	switch t {
	case NoteOff:
		return "NoteOff"
	case NoteOn:
		return "NoteOn"
	}
	return fmt.Sprintf("EventType(%d)", t)
}

// Event is a note event from the control plane. Pitch is in semitones
// relative to A440 and, like Velocity, only means anything for NoteOn.
// Channel and Velocity are carried through but the synth ignores them.
type Event struct {
	Type     EventType
	Channel  int32
	Pitch    float64
	Velocity float64
}

// NoteOnEvent starts a note.
func NoteOnEvent(channel int32, pitch, velocity float64) Event {
	return Event{Type: NoteOn, Channel: channel, Pitch: pitch, Velocity: velocity}
}

// NoteOffEvent stops whatever is playing.
func NoteOffEvent(channel int32) Event {
	return Event{Type: NoteOff, Channel: channel}
}

func (e Event) String() string {
	if e.Type == NoteOn {
		return fmt.Sprintf("NoteOn(ch=%d, pitch=%+.2f, vel=%.2f)", e.Channel, e.Pitch, e.Velocity)
	}
	return fmt.Sprintf("%v(ch=%d)", e.Type, e.Channel)
}
