package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/pfcm/blep"
)

// ErrQuit is returned by Keys.Run when the quit key is pressed.
var ErrQuit = errors.New("quit")

// keyRow is a chromatic octave from C laid out like a piano on a QWERTY
// keyboard: the home row is the white keys.
const keyRow = "awsedftgyhujk"

// middleC is C4 in semitones relative to A440.
const middleC = -9

type keyAction byte

const (
	keyIgnore keyAction = iota
	keyNote
	keyOctave
	keyQuit
)

// Keys plays notes from the terminal keyboard. A key press starts a note;
// terminals don't report releases, so space stops it.
type Keys struct {
	Sink    Sink
	Channel int32
	// Octave shifts the keyboard, in octaves from middle C.
	Octave int

	Logger *slog.Logger

	refused atomic.Uint64
}

// Refused counts notes the Sink turned down.
func (k *Keys) Refused() uint64 { return k.refused.Load() }

// press handles one key, pushing any event it makes.
func (k *Keys) press(b byte) keyAction {
	ev, action := k.Event(b)
	if action == keyNote && !k.Sink.Push(ev) {
		k.refused.Add(1)
		log := k.Logger
		if log == nil {
			log = slog.Default()
		}
		log.Warn("event queue refused key", "event", ev.String())
	}
	return action
}

// Event interprets one byte typed at the terminal.
func (k *Keys) Event(b byte) (blep.Event, keyAction) {
	switch b {
	case 'q', 0x03: // ctrl-c in raw mode
		return blep.Event{}, keyQuit
	case ' ':
		return blep.NoteOffEvent(k.Channel), keyNote
	case 'z':
		k.Octave = max(k.Octave-1, -4)
		return blep.Event{}, keyOctave
	case 'x':
		k.Octave = min(k.Octave+1, 4)
		return blep.Event{}, keyOctave
	}
	for i := 0; i < len(keyRow); i++ {
		if keyRow[i] == b {
			pitch := float64(middleC + 12*k.Octave + i)
			return blep.NoteOnEvent(k.Channel, pitch, 1), keyNote
		}
	}
	return blep.Event{}, keyIgnore
}

// Run puts the terminal in raw mode and reads keys until ctx is cancelled or
// q is pressed, in which case it returns ErrQuit.
func (k *Keys) Run(ctx context.Context) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("keyboard input needs stdin to be a terminal")
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, old)
	fmt.Fprint(os.Stderr, "keys: "+keyRow+" play, z/x octave, space stops, q quits\r\n")

	// The read can't be interrupted, so this goroutine outlives Run until
	// the next key press.
	keys := make(chan byte)
	go func() {
		b := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(b); err != nil {
				close(keys)
				return
			}
			select {
			case keys <- b[0]:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-keys:
			if !ok {
				return nil
			}
			if k.press(b) == keyQuit {
				return ErrQuit
			}
		}
	}
}
