package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoSnapshot = errors.New("no seat layout captured")

// Snapshot is one sample of the seat layout element. Markers counts seat
// elements whose description already carries a status.
type Snapshot struct {
	Markup  string
	Markers int
}

func (s Snapshot) better(than Snapshot) bool {
	if s.Markup == "" {
		return false
	}
	return than.Markup == "" || s.Markers > than.Markers
}

// Sampler reads the current DOM once.
type Sampler func(ctx context.Context) (Snapshot, error)

// PollSnapshot samples every interval until a snapshot with status markers
// shows up. When timeout elapses it settles for the best layout seen so far
// and only fails if nothing was ever captured.
func PollSnapshot(ctx context.Context, interval, timeout time.Duration, sample Sampler) (Snapshot, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var best Snapshot
	var lastErr error
	for {
		snap, err := sample(pollCtx)
		switch {
		case err != nil:
			lastErr = err
		case snap.better(best):
			best = snap
		}
		if best.Markers > 0 {
			return best, nil
		}
		if pollCtx.Err() != nil {
			break
		}

		select {
		case <-pollCtx.Done():
		case <-ticker.C:
		}
	}

	if best.Markup != "" {
		return best, nil
	}
	if lastErr != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrNoSnapshot, lastErr)
	}
	return Snapshot{}, ErrNoSnapshot
}
