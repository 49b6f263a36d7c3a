package screenings

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/browser"
	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
)

// BrowserDiscovery renders the movie page for showtimes built by scripts.
type BrowserDiscovery struct {
	renderer browser.Renderer
	logger   *zap.Logger
}

func NewBrowserDiscovery(renderer browser.Renderer, logger *zap.Logger) *BrowserDiscovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserDiscovery{renderer: renderer, logger: logger}
}

func (b *BrowserDiscovery) Discover(ctx context.Context, movieURL string, filter Filter, targetDate time.Time) ([]entities.ScreeningDescriptor, error) {
	page, err := b.renderer.ShowtimePage(ctx, movieURL)
	if err != nil {
		return nil, &DiscoveryError{URL: movieURL, Err: err}
	}

	requested := targetDate.Format(constant.DATE_LAYOUT)
	if landed, ok := LandedDate(page.LandedURL); ok && landed != requested {
		b.logger.Warn("movie page redirected to another date",
			zap.String("requested", requested), zap.String("landed", landed), zap.String("url", page.LandedURL))
		return nil, nil
	}

	var found []entities.ScreeningDescriptor
	for _, anchor := range page.Anchors {
		if anchor.OrderURL == "" || anchor.Label == "" {
			continue
		}
		showTime, ok := ParseShowTime(anchor.Label)
		if !ok {
			continue
		}
		metadata := make(map[string]string, len(anchor.Attrs))
		for k, v := range anchor.Attrs {
			metadata[k] = v
		}
		found = append(found, entities.ScreeningDescriptor{
			Label:    anchor.Label,
			ShowTime: showTime,
			OrderURL: anchor.OrderURL,
			Metadata: metadata,
		})
	}
	kept := filter.Apply(found, targetDate)
	b.logger.Debug("browser showtimes",
		zap.String("url", movieURL), zap.Int("found", len(found)), zap.Int("kept", len(kept)))
	return kept, nil
}

// LandedDate reads the at= parameter from the query or the fragment of a
// movie page URL.
func LandedDate(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if at := u.Query().Get("at"); at != "" {
		return at, true
	}
	fragment := u.Fragment
	if i := strings.Index(fragment, "?"); i >= 0 {
		fragment = fragment[i+1:]
	}
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return "", false
	}
	if at := values.Get("at"); at != "" {
		return at, true
	}
	return "", false
}
