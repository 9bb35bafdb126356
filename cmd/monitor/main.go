// command monitor checks that note events are arriving, printing everything
// it decodes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pfcm/blep"
	"github.com/pfcm/blep/control"
	"github.com/pfcm/blep/internal/logging"
)

var (
	addrFlag     = flag.String("addr", control.DefaultAddr, "UDP address to listen on")
	formatFlag   = flag.String("format", string(control.FormatMIOSC), "packet encoding: osc, midi or ump")
	logLevelFlag = flag.String("log-level", "debug", "debug, info, warn or error")
)

func main() {
	flag.Parse()
	if _, err := logging.Setup(os.Stderr, *logLevelFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	dec, err := control.NewDecoder(control.Format(*formatFlag))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	l := &control.Listener{
		Addr:    *addrFlag,
		Decoder: dec,
		Sink:    printer{w: os.Stdout, t0: time.Now()},
	}
	if err := l.Run(interruptContext()); err != nil {
		slog.Error("monitor failed", "err", err)
		os.Exit(1)
	}
	s := l.Stats()
	slog.Info("all done", "packets", s.Packets, "malformed", s.Malformed, "events", s.Events)
}

// printer is a Sink that writes every event on its own line.
type printer struct {
	w  io.Writer
	t0 time.Time
}

func (p printer) Push(ev blep.Event) bool {
	_, err := fmt.Fprintf(p.w, "%9.4f %v\n", time.Since(p.t0).Seconds(), ev)
	return err == nil
}

func interruptContext() context.Context {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}
