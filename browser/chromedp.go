package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/constant"
)

// ChromedpSession keeps one exec allocator alive; each call opens a tab.
type ChromedpSession struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	opts     Options
	logger   *zap.Logger
}

func LaunchChromedp(opts Options) (*ChromedpSession, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.Locale != "" {
		allocOpts = append(allocOpts, chromedp.Flag("lang", strings.ReplaceAll(opts.Locale, "_", "-")))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return &ChromedpSession{allocCtx: allocCtx, cancel: cancel, opts: opts, logger: opts.Logger}, nil
}

func (s *ChromedpSession) Close() error {
	s.cancel()
	return nil
}

// tab opens a new target and starts it with an unbounded context, so later
// timeouts only cancel single actions and not the tab itself.
func (s *ChromedpSession) tab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	tabCtx, cancelTab := chromedp.NewContext(s.allocCtx)
	stop := context.AfterFunc(ctx, cancelTab)
	cancel := func() {
		stop()
		cancelTab()
	}
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("could not start chrome tab: %w", err)
	}
	return tabCtx, cancel, nil
}

func (s *ChromedpSession) navigate(tabCtx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("could not navigate to %s: %w", url, err)
	}
	return nil
}

func (s *ChromedpSession) SeatmapMarkup(ctx context.Context, orderURL string) (string, error) {
	tabCtx, cancel, err := s.tab(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	s.logger.Info("loading seat map via chromedp", zap.String("url", orderURL))
	if err := s.navigate(tabCtx, orderURL, s.opts.NavigationTimeout); err != nil {
		return "", err
	}

	var clicked bool
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(clickByTextScript(constant.CookieRejectLabels), &clicked)); err != nil {
		s.logger.Debug("cookie banner check failed", zap.Error(err))
	}

	guestCtx, guestCancel := context.WithTimeout(tabCtx, constant.GuestButtonWait)
	if err := chromedp.Run(guestCtx, chromedp.Click(constant.GuestButtonSelector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		s.logger.Debug("no guest button", zap.Error(err))
	}
	guestCancel()

	snap, err := PollSnapshot(ctx, s.opts.PollInterval, s.opts.PollTimeout, func(context.Context) (Snapshot, error) {
		var res struct {
			Markup  string `json:"markup"`
			Markers int    `json:"markers"`
		}
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(invoke(seatSnapshotScript), &res)); err != nil {
			return Snapshot{}, err
		}
		return Snapshot{Markup: res.Markup, Markers: res.Markers}, nil
	})
	if err != nil {
		return "", fmt.Errorf("seat map at %s: %w", orderURL, err)
	}
	return snap.Markup, nil
}

func (s *ChromedpSession) ShowtimePage(ctx context.Context, movieURL string) (*ShowtimePage, error) {
	tabCtx, cancel, err := s.tab(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	s.logger.Info("loading movie page via chromedp", zap.String("url", movieURL))
	if err := s.navigate(tabCtx, movieURL, s.opts.DiscoveryTimeout); err != nil {
		return nil, err
	}

	var raw []any
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(invoke(showtimeAnchorsScript), &raw)); err != nil {
		return nil, fmt.Errorf("could not read showtimes: %w", err)
	}
	if len(raw) == 0 {
		err := chromedp.Run(tabCtx,
			chromedp.Sleep(constant.ShowtimeRetryWait),
			chromedp.Evaluate(invoke(showtimeAnchorsScript), &raw),
		)
		if err != nil {
			return nil, fmt.Errorf("could not read showtimes: %w", err)
		}
	}

	var landed string
	if err := chromedp.Run(tabCtx, chromedp.Location(&landed)); err != nil {
		return nil, fmt.Errorf("could not read page location: %w", err)
	}
	return &ShowtimePage{LandedURL: landed, Anchors: decodeAnchors(any(raw))}, nil
}

// Cookies only sees cookies visible to scripts; HttpOnly ones stay behind.
func (s *ChromedpSession) Cookies(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancel, err := s.tab(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	var cookies string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Evaluate(`document.cookie`, &cookies),
	)
	if err != nil {
		return "", fmt.Errorf("could not get cookies from %s: %w", pageURL, err)
	}
	return cookies, nil
}
