package main

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/pfcm/blep"
)

// cue is an event and the time it happens.
type cue struct {
	At    float64 // seconds
	Event blep.Event
}

// parseScript reads a note script, one cue per line:
//
//	# comment
//	0.0  on  0    0.8   # A440 at velocity 0.8
//	0.5  on  +12        # velocity defaults to 1
//	1.0  off
//
// Cues are returned sorted by time; cues at the same time keep their order.
func parseScript(r io.Reader, channel int32) ([]cue, error) {
	var cues []cue
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text, _, _ := strings.Cut(scanner.Text(), "#")
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		c, err := parseCue(fields, channel)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cues = append(cues, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(cues, func(a, b cue) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return cues, nil
}

func parseCue(fields []string, channel int32) (cue, error) {
	if len(fields) < 2 {
		return cue{}, fmt.Errorf("want a time and on or off, got %q", strings.Join(fields, " "))
	}
	at, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || at < 0 {
		return cue{}, fmt.Errorf("bad time %q", fields[0])
	}
	switch strings.ToLower(fields[1]) {
	case "off":
		if len(fields) != 2 {
			return cue{}, fmt.Errorf("off takes no arguments")
		}
		return cue{At: at, Event: blep.NoteOffEvent(channel)}, nil
	case "on":
		if len(fields) < 3 || len(fields) > 4 {
			return cue{}, fmt.Errorf("on wants a pitch and optional velocity")
		}
		pitch, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return cue{}, fmt.Errorf("bad pitch %q", fields[2])
		}
		velocity := 1.0
		if len(fields) == 4 {
			if velocity, err = strconv.ParseFloat(fields[3], 64); err != nil {
				return cue{}, fmt.Errorf("bad velocity %q", fields[3])
			}
		}
		return cue{At: at, Event: blep.NoteOnEvent(channel, pitch, velocity)}, nil
	}
	return cue{}, fmt.Errorf("unknown action %q", fields[1])
}
