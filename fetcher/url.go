package fetcher

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	internalOrderPath = "/api/order/"
	publicOrderPath   = "/order/"
)

// NormalizeOrderURL rewrites the internal /api/order/ path to the public /order/ one.
func NormalizeOrderURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.Replace(raw, internalOrderPath, publicOrderPath, 1)
	}
	u.Path = strings.Replace(u.Path, internalOrderPath, publicOrderPath, 1)
	if u.RawPath != "" {
		u.RawPath = strings.Replace(u.RawPath, internalOrderPath, publicOrderPath, 1)
	}
	return u.String()
}

// PresentationID reads the integer presentation id from the last path segment.
func PresentationID(orderURL string) (int, error) {
	u, err := url.Parse(orderURL)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPresentationID, err)
	}
	var last string
	for _, segment := range strings.Split(u.Path, "/") {
		if segment != "" {
			last = segment
		}
	}
	if last == "" {
		return 0, fmt.Errorf("%w: no path in %s", ErrInvalidPresentationID, orderURL)
	}
	id, err := strconv.Atoi(last)
	if err != nil {
		return 0, fmt.Errorf("%w: %q in %s", ErrInvalidPresentationID, last, orderURL)
	}
	return id, nil
}
