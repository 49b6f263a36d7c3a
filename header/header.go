package header

import (
	"context"

	"github.com/paologalligit/cinema-seat-advisor/constant"
)

// GetHeaders returns the request headers; the cookie header is only set when
// a manager is configured.
func GetHeaders(ctx context.Context, cookiesManager *CookiesManager) (map[string]string, error) {
	headers := map[string]string{
		"User-Agent": constant.USER_AGENT,
	}
	if cookiesManager == nil {
		return headers, nil
	}
	cookies, err := cookiesManager.GetCookies(ctx)
	if err != nil {
		return nil, err
	}
	if cookies != "" {
		headers["Cookie"] = cookies
	}
	return headers, nil
}
