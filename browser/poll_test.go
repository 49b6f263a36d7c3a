package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(snaps []Snapshot, errs []error) (Sampler, *int) {
	calls := 0
	return func(ctx context.Context) (Snapshot, error) {
		i := min(calls, len(snaps)-1)
		calls++
		var err error
		if i < len(errs) {
			err = errs[i]
		}
		return snaps[i], err
	}, &calls
}

func TestPollSnapshot_ReturnsOnceMarkersAppear(t *testing.T) {
	sampler, calls := scripted([]Snapshot{
		{},
		{Markup: "<svg id=\"svg-seatmap\"></svg>"},
		{Markup: "<svg id=\"svg-seatmap\"><g></g></svg>", Markers: 3},
		{Markup: "never reached", Markers: 9},
	}, nil)

	snap, err := PollSnapshot(context.Background(), time.Millisecond, time.Second, sampler)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Markers)
	assert.Equal(t, 3, *calls)
}

func TestPollSnapshot_BestEffortOnTimeout(t *testing.T) {
	sampler, _ := scripted([]Snapshot{
		{Markup: "<svg id=\"svg-seatmap\">layout</svg>"},
		{},
	}, []error{nil, errors.New("frame detached")})

	snap, err := PollSnapshot(context.Background(), time.Millisecond, 20*time.Millisecond, sampler)
	require.NoError(t, err)
	assert.Equal(t, "<svg id=\"svg-seatmap\">layout</svg>", snap.Markup)
	assert.Zero(t, snap.Markers)
}

func TestPollSnapshot_NothingCaptured(t *testing.T) {
	sampler, _ := scripted([]Snapshot{{}}, []error{errors.New("no frame")})

	_, err := PollSnapshot(context.Background(), time.Millisecond, 10*time.Millisecond, sampler)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.ErrorContains(t, err, "no frame")
}

func TestPollSnapshot_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sampler, calls := scripted([]Snapshot{{}}, nil)

	_, err := PollSnapshot(ctx, time.Millisecond, time.Minute, sampler)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Equal(t, 1, *calls)
}

func TestDecodeSnapshot(t *testing.T) {
	snap := decodeSnapshot(map[string]any{"markup": "<svg></svg>", "markers": float64(4)})
	assert.Equal(t, Snapshot{Markup: "<svg></svg>", Markers: 4}, snap)

	snap = decodeSnapshot(map[string]any{"markup": "<svg></svg>", "markers": 2})
	assert.Equal(t, 2, snap.Markers)

	assert.Equal(t, Snapshot{}, decodeSnapshot(nil))
}

func TestDecodeAnchors(t *testing.T) {
	raw := []any{
		map[string]any{"label": " 18:30 ", "url": "https://tickets.example/order/1", "attrs": map[string]any{"data-format": "IMAX"}},
		map[string]any{"label": "", "url": "https://tickets.example/order/2"},
		"garbage",
	}
	anchors := decodeAnchors(raw)
	require.Len(t, anchors, 2)
	assert.Equal(t, "18:30", anchors[0].Label)
	assert.Equal(t, map[string]string{"data-format": "IMAX"}, anchors[0].Attrs)
	assert.Equal(t, "https://tickets.example/order/2", anchors[1].OrderURL)
}
