package io

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/pfcm/blep"
)

func playMalgo(ctx context.Context, t blep.Ticker, cfg Config) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		slog.Debug("malgo", "msg", strings.TrimSpace(msg))
	})
	if err != nil {
		return fmt.Errorf("initialising audio context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	kind := malgo.Playback
	if t.Inputs() > 0 {
		kind = malgo.Duplex
	}
	dcfg := malgo.DefaultDeviceConfig(kind)
	dcfg.Playback.Format = malgo.FormatF32
	dcfg.Playback.Channels = uint32(t.Outputs())
	if kind == malgo.Duplex {
		dcfg.Capture.Format = malgo.FormatF32
		dcfg.Capture.Channels = uint32(t.Inputs())
	}
	dcfg.SampleRate = uint32(cfg.SampleRate)
	dcfg.PeriodSizeInFrames = uint32(cfg.BlockSize)

	r := newRenderer(t, cfg.BlockSize)
	frameSize := r.frameSize()
	recv := func(out, in []byte, framecount uint32) {
		if framecount == 0 {
			return
		}
		r.fill(out[:min(len(out), int(framecount)*frameSize)], in)
	}

	device, err := malgo.InitDevice(mctx.Context, dcfg, malgo.DeviceCallbacks{
		Data: recv,
	})
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}
	defer device.Uninit()
	if err := device.Start(); err != nil {
		return fmt.Errorf("starting audio device: %w", err)
	}
	slog.Info("playing", "backend", BackendMalgo, "sample_rate", cfg.SampleRate, "block", cfg.BlockSize, "ticker", t.String())

	<-ctx.Done()
	if err := device.Stop(); err != nil {
		return fmt.Errorf("stopping audio device: %w", err)
	}
	return nil
}
