package control

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pfcm/blep"
	"github.com/pfcm/blep/bridge"
)

func TestListener(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket: %v", err)
	}
	defer conn.Close()

	events := bridge.New[blep.Event](16)
	l := &Listener{Decoder: MIOSC{}, Sink: events, PollInterval: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx, conn) }()

	client, err := net.Dial("udp", conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	send := []blep.Event{blep.NoteOnEvent(0, 0, 1), blep.NoteOnEvent(0, 5, 1), blep.NoteOffEvent(0)}
	for i, ev := range send {
		b, err := NewMIOSCMessage(ev).MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary: %v", err)
		}
		if _, err := client.Write(b); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if i == 0 {
			// garbage in between is dropped without disturbing anything.
			if _, err := client.Write([]byte("garbage")); err != nil {
				t.Fatalf("Write: %v", err)
			}
		}
	}

	var got []blep.Event
	deadline := time.Now().Add(5 * time.Second)
	for len(got) < len(send) && time.Now().Before(deadline) {
		if ev, ok := events.Poll(); ok {
			got = append(got, ev)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	sameEvents(t, got, send)

	// Counters are updated after the push, so may lag the last poll.
	for s := l.Stats(); (s.Packets < 4 || s.Events < 3) && time.Now().Before(deadline); s = l.Stats() {
		time.Sleep(time.Millisecond)
	}
	if s := l.Stats(); s.Packets != 4 || s.Malformed != 1 || s.Events != 3 || s.Refused != 0 {
		t.Errorf("Stats() = %+v, want 4 packets, 1 malformed, 3 events", s)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v after cancel, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListenerCountsRefusals(t *testing.T) {
	events := bridge.New[blep.Event](1)
	l := &Listener{Decoder: MIDI{}, Sink: events}
	from := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9}
	l.handle(l.logger(), []byte{0x90, 60, 100, 62, 100, 64, 100}, from)
	if s := l.Stats(); s.Events != 1 || s.Refused != 2 {
		t.Errorf("Stats() = %+v, want 1 event and 2 refused", s)
	}
}

func TestServeNeedsDecoderAndSink(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket: %v", err)
	}
	defer conn.Close()
	if err := (&Listener{}).Serve(context.Background(), conn); err == nil {
		t.Error("Serve with no decoder succeeded")
	}
}
