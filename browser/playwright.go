package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/constant"
)

// PlaywrightSession owns one Chromium process. Every call gets its own
// browser context so calls never share cookies or pages.
type PlaywrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
	logger  *zap.Logger
}

func LaunchPlaywright(opts Options) (*PlaywrightSession, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not launch playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	return &PlaywrightSession{pw: pw, browser: browser, opts: opts, logger: opts.Logger}, nil
}

func (s *PlaywrightSession) Close() error {
	browserErr := s.browser.Close()
	if err := s.pw.Stop(); err != nil {
		return fmt.Errorf("could not stop playwright: %w", err)
	}
	return browserErr
}

func (s *PlaywrightSession) newPage(locale string) (playwright.BrowserContext, playwright.Page, error) {
	options := playwright.BrowserNewContextOptions{}
	if locale != "" {
		options.Locale = playwright.String(strings.ReplaceAll(locale, "_", "-"))
	}
	bctx, err := s.browser.NewContext(options)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, nil, fmt.Errorf("could not create page: %w", err)
	}
	return bctx, page, nil
}

func (s *PlaywrightSession) goTo(page playwright.Page, url string, timeout time.Duration) error {
	_, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("could not navigate to %s: %w", url, err)
	}
	return nil
}

func (s *PlaywrightSession) SeatmapMarkup(ctx context.Context, orderURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	bctx, page, err := s.newPage("")
	if err != nil {
		return "", err
	}
	defer bctx.Close()

	s.logger.Info("loading seat map via playwright", zap.String("url", orderURL))
	if err := s.goTo(page, orderURL, s.opts.NavigationTimeout); err != nil {
		return "", err
	}
	s.dismissCookies(page)
	s.continueAsGuest(page)

	snap, err := PollSnapshot(ctx, s.opts.PollInterval, s.opts.PollTimeout, func(context.Context) (Snapshot, error) {
		return s.sampleFrames(page)
	})
	if err != nil {
		return "", fmt.Errorf("seat map at %s: %w", orderURL, err)
	}
	return snap.Markup, nil
}

// sampleFrames looks at every frame, the seat map often lives in an iframe.
func (s *PlaywrightSession) sampleFrames(page playwright.Page) (Snapshot, error) {
	var best Snapshot
	var lastErr error
	for _, frame := range page.Frames() {
		raw, err := frame.Evaluate(seatSnapshotScript)
		if err != nil {
			lastErr = err
			continue
		}
		if snap := decodeSnapshot(raw); snap.better(best) {
			best = snap
		}
	}
	if best.Markup == "" && lastErr != nil {
		return best, lastErr
	}
	return best, nil
}

func (s *PlaywrightSession) dismissCookies(page playwright.Page) {
	textOpts := playwright.PageGetByTextOptions{Exact: playwright.Bool(false)}
	locator := page.GetByText(constant.CookieRejectLabels[0], textOpts)
	for _, label := range constant.CookieRejectLabels[1:] {
		locator = locator.Or(page.GetByText(label, textOpts))
	}
	button := locator.First()
	if visible, err := button.IsVisible(); err == nil && visible {
		if err := button.Click(); err != nil {
			s.logger.Debug("cookie banner click failed", zap.Error(err))
		}
	}
}

func (s *PlaywrightSession) continueAsGuest(page playwright.Page) {
	button := page.Locator(constant.GuestButtonSelector).First()
	err := button.WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(constant.GuestButtonWait.Milliseconds())),
	})
	if err != nil {
		return
	}
	if visible, err := button.IsVisible(); err == nil && visible {
		if err := button.Click(); err != nil {
			s.logger.Debug("guest button click failed", zap.Error(err))
		}
	}
}

func (s *PlaywrightSession) ShowtimePage(ctx context.Context, movieURL string) (*ShowtimePage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bctx, page, err := s.newPage(s.opts.Locale)
	if err != nil {
		return nil, err
	}
	defer bctx.Close()

	s.logger.Info("loading movie page via playwright", zap.String("url", movieURL))
	if err := s.goTo(page, movieURL, s.opts.DiscoveryTimeout); err != nil {
		return nil, err
	}

	anchors, err := s.readAnchors(page)
	if err != nil {
		return nil, err
	}
	if len(anchors) == 0 {
		page.WaitForTimeout(float64(constant.ShowtimeRetryWait.Milliseconds()))
		if anchors, err = s.readAnchors(page); err != nil {
			return nil, err
		}
	}
	return &ShowtimePage{LandedURL: page.URL(), Anchors: anchors}, nil
}

func (s *PlaywrightSession) readAnchors(page playwright.Page) ([]ShowtimeAnchor, error) {
	raw, err := page.Evaluate(showtimeAnchorsScript)
	if err != nil {
		return nil, fmt.Errorf("could not read showtimes: %w", err)
	}
	return decodeAnchors(raw), nil
}

func (s *PlaywrightSession) Cookies(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	bctx, page, err := s.newPage(s.opts.Locale)
	if err != nil {
		return "", err
	}
	defer bctx.Close()

	if _, err := page.Goto(pageURL, playwright.PageGotoOptions{Timeout: playwright.Float(45000)}); err != nil {
		return "", fmt.Errorf("could not navigate to %s: %w", pageURL, err)
	}
	// networkidle is best effort, some pages keep polling forever
	_ = page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(10000),
	})

	cookies, err := bctx.Cookies()
	if err != nil {
		return "", fmt.Errorf("could not get cookies: %w", err)
	}
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; "), nil
}
