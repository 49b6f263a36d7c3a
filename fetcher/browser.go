package fetcher

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/browser"
	"github.com/paologalligit/cinema-seat-advisor/constant"
)

// BrowserStrategy renders the booking page and keeps the seat layout only if
// it already carries seat statuses.
type BrowserStrategy struct {
	renderer browser.Renderer
	attempts int
	logger   *zap.Logger
}

func NewBrowserStrategy(renderer browser.Renderer, attempts int, logger *zap.Logger) *BrowserStrategy {
	if attempts < 1 {
		attempts = constant.BrowserFetchAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserStrategy{renderer: renderer, attempts: attempts, logger: logger}
}

func (b *BrowserStrategy) Name() string { return "browser" }

func (b *BrowserStrategy) Fetch(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= b.attempts; attempt++ {
		markup, err := b.renderer.SeatmapMarkup(ctx, req.URL)
		switch {
		case err != nil:
			lastErr = err
		case !HasStatusMarker(markup):
			lastErr = ErrNoStatusMarker
		default:
			return markup, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		b.logger.Debug("browser seat map attempt failed",
			zap.Int("attempt", attempt), zap.Int("of", b.attempts), zap.Error(lastErr))
	}
	return "", lastErr
}

// HasStatusMarker reports whether some seat element in markup names a status.
func HasStatusMarker(markup string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return false
	}
	found := false
	doc.Find(constant.SeatStatusMarkerSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		description := strings.ToLower(s.AttrOr(constant.SeatDescriptionAttr, ""))
		for _, kw := range constant.SeatStatusKeywords {
			if strings.Contains(description, kw) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
