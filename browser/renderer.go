// Package browser drives a headless browser for pages the plain HTTP client
// cannot read: the rendered seat map and the script-built showtime list.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/constant"
)

// Renderer is a live browser session. Close must always be called, it tears
// down the browser process.
type Renderer interface {
	// SeatmapMarkup returns the outer markup of the seat layout element of a booking page.
	SeatmapMarkup(ctx context.Context, orderURL string) (string, error)
	// ShowtimePage lists the showtime buttons of a movie page and where the browser landed.
	ShowtimePage(ctx context.Context, movieURL string) (*ShowtimePage, error)
	// Cookies returns the cookie header the browser holds after visiting pageURL.
	Cookies(ctx context.Context, pageURL string) (string, error)
	Close() error
}

type ShowtimeAnchor struct {
	Label    string
	OrderURL string
	Attrs    map[string]string
}

type ShowtimePage struct {
	LandedURL string
	Anchors   []ShowtimeAnchor
}

type Options struct {
	Headless          bool
	Locale            string
	NavigationTimeout time.Duration
	DiscoveryTimeout  time.Duration
	PollTimeout       time.Duration
	PollInterval      time.Duration
	Logger            *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Headless:          true,
		Locale:            "en_GB",
		NavigationTimeout: constant.DefaultNavTimeout,
		DiscoveryTimeout:  constant.DiscoveryNavTimeout,
		PollTimeout:       constant.DefaultPollTimeout,
		PollInterval:      constant.SeatPollInterval,
	}
}

const (
	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"
	EngineNone       = "none"
)

// Launch starts the named engine. EngineNone yields a nil Renderer.
func Launch(engine string, opts Options) (Renderer, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	switch strings.ToLower(engine) {
	case EnginePlaywright, "":
		return LaunchPlaywright(opts)
	case EngineChromedp:
		return LaunchChromedp(opts)
	case EngineNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", engine)
	}
}

func decodeSnapshot(raw any) Snapshot {
	m, ok := raw.(map[string]any)
	if !ok {
		return Snapshot{}
	}
	snap := Snapshot{}
	snap.Markup, _ = m["markup"].(string)
	switch n := m["markers"].(type) {
	case float64:
		snap.Markers = int(n)
	case int:
		snap.Markers = n
	case int64:
		snap.Markers = int(n)
	}
	return snap
}

func decodeAnchors(raw any) []ShowtimeAnchor {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var anchors []ShowtimeAnchor
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		url, _ := m["url"].(string)
		if url == "" {
			continue
		}
		label, _ := m["label"].(string)
		anchor := ShowtimeAnchor{Label: strings.TrimSpace(label), OrderURL: url}
		if attrs, ok := m["attrs"].(map[string]any); ok && len(attrs) > 0 {
			anchor.Attrs = make(map[string]string, len(attrs))
			for k, v := range attrs {
				anchor.Attrs[k] = fmt.Sprint(v)
			}
		}
		anchors = append(anchors, anchor)
	}
	return anchors
}
