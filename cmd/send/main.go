// command send sends note events to a running play.
//
//	send on 0 0.8     # A440
//	send -hold 500ms on -12
//	send off
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/pfcm/blep"
	"github.com/pfcm/blep/control"
	"github.com/pfcm/blep/internal/logging"
)

var (
	addrFlag     = flag.String("addr", control.DefaultAddr, "UDP address of the synth")
	formatFlag   = flag.String("format", string(control.FormatMIOSC), "packet encoding: osc, midi or ump")
	channelFlag  = flag.Int("channel", 0, "channel (note id for osc)")
	holdFlag     = flag.Duration("hold", 0, "if set, send a note off this long after a note on")
	logLevelFlag = flag.String("log-level", "info", "debug, info, warn or error")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] on PITCH [VELOCITY] | off\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if _, err := logging.Setup(os.Stderr, *logLevelFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ev, err := parseEvent(flag.Args(), int32(*channelFlag))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	if err := run(ev); err != nil {
		slog.Error("send failed", "err", err)
		os.Exit(1)
	}
}

func run(ev blep.Event) error {
	s, err := newSender(control.Format(*formatFlag), *addrFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	events := []blep.Event{ev}
	if ev.Type == blep.NoteOn && *holdFlag > 0 {
		events = append(events, blep.NoteOffEvent(ev.Channel))
	}
	for i, ev := range events {
		if i > 0 {
			time.Sleep(*holdFlag)
		}
		if err := s.Send(ev); err != nil {
			return fmt.Errorf("sending %v: %w", ev, err)
		}
		slog.Debug("sent", "event", ev.String(), "addr", *addrFlag)
	}
	return nil
}

func parseEvent(args []string, channel int32) (blep.Event, error) {
	if len(args) == 0 {
		return blep.Event{}, fmt.Errorf("no event given")
	}
	switch args[0] {
	case "off":
		if len(args) != 1 {
			return blep.Event{}, fmt.Errorf("off takes no arguments")
		}
		return blep.NoteOffEvent(channel), nil
	case "on":
		if len(args) < 2 || len(args) > 3 {
			return blep.Event{}, fmt.Errorf("on wants a pitch and optional velocity")
		}
		pitch, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return blep.Event{}, fmt.Errorf("bad pitch %q: %w", args[1], err)
		}
		velocity := 1.0
		if len(args) == 3 {
			if velocity, err = strconv.ParseFloat(args[2], 64); err != nil {
				return blep.Event{}, fmt.Errorf("bad velocity %q: %w", args[2], err)
			}
		}
		return blep.NoteOnEvent(channel, pitch, velocity), nil
	}
	return blep.Event{}, fmt.Errorf("unknown event %q", args[0])
}

// sender delivers events in one encoding.
type sender interface {
	Send(blep.Event) error
	Close() error
}

func newSender(f control.Format, addr string) (sender, error) {
	if _, err := control.NewDecoder(f); err != nil {
		return nil, err
	}
	f = control.Format(strings.ToLower(string(f)))
	if f == control.FormatMIOSC {
		host, p, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad port %q: %w", p, err)
		}
		return oscSender{goosc.NewClient(host, port)}, nil
	}
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}
	encode := control.MIDIBytes
	if f == control.FormatUMP {
		encode = control.UMPBytes
	}
	return rawSender{conn: conn, encode: encode}, nil
}

type oscSender struct{ c *goosc.Client }

func (s oscSender) Send(ev blep.Event) error { return s.c.Send(control.NewMIOSCMessage(ev)) }
func (s oscSender) Close() error             { return nil }

type rawSender struct {
	conn   net.Conn
	encode func(blep.Event) []byte
}

func (s rawSender) Send(ev blep.Event) error {
	_, err := s.conn.Write(s.encode(ev))
	return err
}

func (s rawSender) Close() error { return s.conn.Close() }
