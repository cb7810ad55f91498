package core

import (
	"context"
	"time"
)

// Run drives d in real time at fps frames per second until ctx is done.
// afterFrame runs after every produced frame; its error stops the loop.
// Ticks that fire while the loop is suspended are skipped.
func Run(ctx context.Context, d *Driver, fps float64, afterFrame func() error) error {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		ok, err := d.Tick()
		if err != nil {
			return err
		}
		d.Events.Dispatch()
		if ok && afterFrame != nil {
			if err := afterFrame(); err != nil {
				return err
			}
		}
	}
}
