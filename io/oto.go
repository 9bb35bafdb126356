package io

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/pfcm/blep"
)

// playOto plays through oto, which pulls samples through the renderer's
// Read from its own goroutine. oto has no capture, so inputs are silent.
func playOto(ctx context.Context, t blep.Ticker, cfg Config) error {
	opts := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: t.Outputs(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(cfg.BlockSize) * time.Second / time.Duration(cfg.SampleRate),
	}
	octx, ready, err := oto.NewContext(opts)
	if err != nil {
		return fmt.Errorf("initialising oto: %w", err)
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return nil
	}

	player := octx.NewPlayer(newRenderer(t, cfg.BlockSize))
	defer player.Close()
	player.Play()
	slog.Info("playing", "backend", BackendOto, "sample_rate", cfg.SampleRate, "block", cfg.BlockSize, "ticker", t.String())

	<-ctx.Done()
	if err := player.Err(); err != nil {
		return fmt.Errorf("oto player: %w", err)
	}
	return nil
}
