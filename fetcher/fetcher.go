// Package fetcher obtains the raw seat-layout markup for a booking page.
//
// Strategies run in order and never mix: the booking API is asked for a full
// reconstruction first, a browser render is the fallback, and only when every
// strategy failed does FetchLayout return a FetchError.
package fetcher

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrInvalidPresentationID = errors.New("invalid presentation id")
	ErrEmptySeatplan         = errors.New("seat plan has no sections")
	ErrNoStatusMarker        = errors.New("rendered seat map has no seat status")
	ErrNoStrategies          = errors.New("no fetch strategies configured")
)

// FetchError is returned once every strategy gave up on an order URL.
// Retryable is false when retrying the same URL cannot help.
type FetchError struct {
	URL       string
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching seat map for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Request is what a strategy gets: the normalized order URL and its presentation id.
type Request struct {
	URL            string
	PresentationID int
}

type Strategy interface {
	Name() string
	Fetch(ctx context.Context, req Request) (string, error)
}

type SeatmapFetcher struct {
	strategies []Strategy
	logger     *zap.Logger
}

func New(logger *zap.Logger, strategies ...Strategy) *SeatmapFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeatmapFetcher{strategies: strategies, logger: logger}
}

func (f *SeatmapFetcher) FetchLayout(ctx context.Context, orderURL string) (string, error) {
	normalized := NormalizeOrderURL(orderURL)
	id, err := PresentationID(normalized)
	if err != nil {
		return "", &FetchError{URL: normalized, Err: err}
	}
	if len(f.strategies) == 0 {
		return "", &FetchError{URL: normalized, Err: ErrNoStrategies}
	}

	req := Request{URL: normalized, PresentationID: id}
	var errs []error
	for _, strategy := range f.strategies {
		markup, err := strategy.Fetch(ctx, req)
		if err == nil {
			f.logger.Info("fetched seat map", zap.String("strategy", strategy.Name()), zap.String("url", normalized))
			return markup, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &FetchError{URL: normalized, Err: ctxErr}
		}
		f.logger.Warn("seat map strategy failed", zap.String("strategy", strategy.Name()), zap.String("url", normalized), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", strategy.Name(), err))
	}
	return "", &FetchError{URL: normalized, Retryable: true, Err: errors.Join(errs...)}
}
