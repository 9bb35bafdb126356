package io

import (
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// fullScale is the largest magnitude a 16 bit sample holds on both sides.
const fullScale = float32(math.MaxInt16) / (math.MaxInt16 + 1)

// WriteWAV writes mono samples in [-1, 1] as a 16 bit wav file. Samples
// outside that range are clipped.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	data := make([]float32, len(samples))
	for i, s := range samples {
		data[i] = min(max(s, -fullScale), fullScale)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing %s: %w", path, err)
	}
	return f.Close()
}

// ReadWAV reads a wav file, mixing it down to mono. It returns the samples
// and the sample rate.
func ReadWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	if ch == 1 {
		return buf.Data, buf.Format.SampleRate, nil
	}
	out := make([]float32, len(buf.Data)/ch)
	for i := range out {
		var sum float32
		for c := range ch {
			sum += buf.Data[i*ch+c]
		}
		out[i] = sum / float32(ch)
	}
	return out, buf.Format.SampleRate, nil
}
