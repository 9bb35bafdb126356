package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is how long the listener waits for a packet before
// checking whether it should stop.
const DefaultPollInterval = 8 * time.Millisecond

// maxPacket is the largest datagram the listener reads.
const maxPacket = 1 << 16

// Listener reads packets from a UDP socket, decodes them and pushes the
// events into a Sink. Packets that fail to decode are dropped.
type Listener struct {
	Addr         string
	Decoder      Decoder
	Sink         Sink
	PollInterval time.Duration
	Logger       *slog.Logger

	packets, events, malformed, refused atomic.Uint64
}

// Stats counts what a Listener has seen.
type Stats struct {
	// Packets is every datagram read, Malformed those that failed to
	// decode.
	Packets, Malformed uint64
	// Events is every event pushed, Refused those the Sink turned down.
	Events, Refused uint64
}

func (l *Listener) Stats() Stats {
	return Stats{
		Packets:   l.packets.Load(),
		Malformed: l.malformed.Load(),
		Events:    l.events.Load(),
		Refused:   l.refused.Load(),
	}
}

func (l *Listener) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Run binds Addr (DefaultAddr if empty) and serves until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	addr := l.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	defer conn.Close()
	return l.Serve(ctx, conn)
}

// Serve reads from conn until ctx is cancelled, returning nil, or the
// connection fails.
func (l *Listener) Serve(ctx context.Context, conn net.PacketConn) error {
	if l.Decoder == nil || l.Sink == nil {
		return errors.New("listener needs a Decoder and a Sink")
	}
	interval := l.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	log := l.logger().With("addr", conn.LocalAddr().String())
	log.Info("listening for note events", "decoder", fmt.Sprintf("%T", l.Decoder))
	defer log.Info("stopped listening", "packets", l.packets.Load(), "malformed", l.malformed.Load())

	buf := make([]byte, maxPacket)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := conn.SetReadDeadline(time.Now().Add(interval)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}
		n, from, err := conn.ReadFrom(buf)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading packet: %w", err)
		}
		l.handle(log, buf[:n], from)
	}
}

func (l *Listener) handle(log *slog.Logger, packet []byte, from net.Addr) {
	l.packets.Add(1)
	events, err := l.Decoder.Decode(packet)
	if err != nil {
		l.malformed.Add(1)
		log.Debug("dropping malformed packet", "from", from.String(), "len", len(packet), "err", err)
		return
	}
	for _, ev := range events {
		if !l.Sink.Push(ev) {
			l.refused.Add(1)
			log.Warn("event queue refused event", "event", ev.String())
			continue
		}
		l.events.Add(1)
		log.Debug("event", "event", ev.String(), "from", from.String())
	}
}
