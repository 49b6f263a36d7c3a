package header

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type TimeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now()
}

// CookieSource harvests the cookie header a real browser receives for a page.
type CookieSource interface {
	Cookies(ctx context.Context, pageURL string) (string, error)
}

// CookiesManager caches browser cookies and refreshes them once they age
// past the TTL or the site-issued access token expires.
type CookiesManager struct {
	mu           sync.Mutex
	cookies      string
	fetchedAt    time.Time
	ttl          time.Duration
	baseURL      string
	source       CookieSource
	timeProvider TimeProvider
	logger       *zap.Logger
}

func New(ctx context.Context, source CookieSource, baseURL string, ttl time.Duration, logger *zap.Logger) (*CookiesManager, error) {
	return NewWithTimeProvider(ctx, source, baseURL, ttl, realTimeProvider{}, logger)
}

func NewWithTimeProvider(ctx context.Context, source CookieSource, baseURL string, ttl time.Duration, tp TimeProvider, logger *zap.Logger) (*CookiesManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CookiesManager{
		ttl:          ttl,
		baseURL:      baseURL,
		source:       source,
		timeProvider: tp,
		logger:       logger,
	}
	logger.Info("retrieving cookies for the first time", zap.String("url", baseURL))
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CookiesManager) GetCookies(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.IsExpired() {
		c.logger.Info("cookies expired, fetching them again")
		if err := c.refresh(ctx); err != nil {
			return "", err
		}
	}
	return c.cookies, nil
}

func (c *CookiesManager) refresh(ctx context.Context) error {
	cookies, err := c.source.Cookies(ctx, c.baseURL)
	if err != nil {
		return fmt.Errorf("failed to get cookies: %w", err)
	}
	c.cookies = cookies
	c.fetchedAt = c.timeProvider.Now()
	return nil
}

func (c *CookiesManager) IsExpired() bool {
	now := c.timeProvider.Now()
	if c.ttl > 0 && now.After(c.fetchedAt.Add(c.ttl)) {
		return true
	}
	decodedValue, err := extractAccessTokenExpirationTime(c.cookies)
	if err != nil {
		// no site-issued expiry, the TTL alone decides
		return false
	}
	t, err := time.Parse(time.RFC3339, decodedValue)
	if err != nil {
		return true
	}
	return now.After(t.Local())
}

func extractAccessTokenExpirationTime(cookies string) (string, error) {
	for pair := range strings.SplitSeq(cookies, "; ") {
		if after, ok := strings.CutPrefix(pair, "accessTokenExpirationTime="); ok {
			decodedValue, err := url.QueryUnescape(after)
			if err != nil {
				return "", err
			}
			return decodedValue, nil
		}
	}
	return "", fmt.Errorf("accessTokenExpirationTime not found")
}
