// command play runs the synth on the sound card, playing notes sent over UDP
// or typed at the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfcm/blep"
	"github.com/pfcm/blep/control"
	"github.com/pfcm/blep/internal/logging"
	"github.com/pfcm/blep/io"
	"github.com/pfcm/blep/osc"
)

var (
	addrFlag     = flag.String("addr", control.DefaultAddr, "UDP address to listen for note events on")
	formatFlag   = flag.String("format", string(control.FormatMIOSC), "encoding of incoming packets: osc, midi or ump")
	algFlag      = flag.String("alg", osc.AlgorithmPolyBLEP.String(), "oscillator: polyblep, blit or naive")
	backendFlag  = flag.String("backend", string(io.BackendMalgo), "audio library: malgo or oto")
	rateFlag     = flag.Int("rate", 48000, "sample rate")
	blockFlag    = flag.Int("block", 256, "frames rendered per tick")
	eventsFlag   = flag.Int("events-per-block", blep.DefaultEventsPerBlock, "note events applied per block, 0 for all pending")
	queueFlag    = flag.Int("queue", 256, "note event queue size")
	gainFlag     = flag.Float64("gain", 0.5, "output gain")
	channelsFlag = flag.Int("channels", 2, "output channels, each a copy of the synth")
	keysFlag     = flag.Bool("keys", false, "play from the terminal keyboard instead of listening on UDP")
	profileFlag  = flag.Bool("profile", false, "whether to write pprof profiles to the current working directory")
	logLevelFlag = flag.String("log-level", "info", "debug, info, warn or error")
)

func main() {
	flag.Parse()
	if _, err := logging.Setup(os.Stderr, *logLevelFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(); err != nil {
		slog.Error("play failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	if *profileFlag {
		finish, err := startProfiles()
		if err != nil {
			return fmt.Errorf("starting profiling: %w", err)
		}
		defer func() {
			if err := finish(); err != nil {
				slog.Error("finishing profiles", "err", err)
			}
		}()
	}

	alg, err := osc.ParseAlgorithm(*algFlag)
	if err != nil {
		return err
	}
	backend, err := io.ParseBackend(*backendFlag)
	if err != nil {
		return err
	}
	dec, err := control.NewDecoder(control.Format(*formatFlag))
	if err != nil {
		return err
	}
	cfg := io.Config{SampleRate: *rateFlag, BlockSize: *blockFlag, Backend: backend}
	if *rateFlag <= 0 {
		return fmt.Errorf("invalid sample rate %d", *rateFlag)
	}

	synth := blep.NewSynth(blep.SynthConfig{
		Algorithm:      alg,
		SampleRate:     float64(*rateFlag),
		EventsPerBlock: *eventsFlag,
		QueueSize:      *queueFlag,
	})
	defer synth.Events().Close()
	if *channelsFlag < 1 {
		return fmt.Errorf("invalid channel count %d", *channelsFlag)
	}
	meter := blep.NewMeter(*channelsFlag)
	chain := blep.Serially(synth, blep.Scale{Mul: float32(*gainFlag)}, blep.Mult{N: *channelsFlag}, meter)

	g, ctx := errgroup.WithContext(interruptContext())
	g.Go(func() error {
		return io.Play(ctx, chain, cfg)
	})

	var listener *control.Listener
	if *keysFlag {
		keys := &control.Keys{Sink: synth.Events()}
		g.Go(func() error { return keys.Run(ctx) })
	} else {
		listener = &control.Listener{
			Addr:    *addrFlag,
			Decoder: dec,
			Sink:    synth.Events(),
		}
		g.Go(func() error { return listener.Run(ctx) })
	}

	g.Go(func() error {
		t0 := time.Now()
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Print("\r\n")
				return nil
			case <-t.C:
				q := synth.Events()
				fmt.Printf("\r%.4f: level %.2f queued %d dropped %d", time.Since(t0).Seconds(), meter.Levels()[0], q.Len(), q.Dropped())
				if listener != nil {
					s := listener.Stats()
					fmt.Printf(" packets %d malformed %d", s.Packets, s.Malformed)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, control.ErrQuit) {
		return err
	}
	return nil
}

func interruptContext() context.Context {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}

func startProfiles() (func() error, error) {
	cpu, err := os.Create("cpu.pprof")
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(cpu); err != nil {
		return nil, fmt.Errorf("starting cpu profile: %w", err)
	}

	mem, err := os.Create("mem.pprof")
	if err != nil {
		return nil, err
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := cpu.Close(); err != nil {
			return err
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(mem); err != nil {
			return err
		}
		return mem.Close()
	}, nil
}
