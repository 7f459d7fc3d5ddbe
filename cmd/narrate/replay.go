package main

import (
	"context"
	"io"
	"time"

	"portfolio/narrative"
)

// replay writes segments at their reveal offsets and returns once the last
// animation would have finished. sleep waits for the given duration.
func replay(w io.Writer, segments []narrative.Segment, timing narrative.RevealTiming, sleep func(time.Duration) error) error {
	var elapsed time.Duration
	for i, s := range segments {
		if d := timing.Delay(i) - elapsed; d > 0 {
			if err := sleep(d); err != nil {
				return err
			}
			elapsed += d
		}
		if _, err := io.WriteString(w, s.Text); err != nil {
			return err
		}
	}
	if d := timing.Total(len(segments)) - elapsed; d > 0 {
		return sleep(d)
	}
	return nil
}

func sleepContext(ctx context.Context) func(time.Duration) error {
	return func(d time.Duration) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}
