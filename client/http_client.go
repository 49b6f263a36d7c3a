package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
	"github.com/paologalligit/cinema-seat-advisor/header"
)

// Extractor is the network side of the pipeline: the showtime listing page and
// the three booking API lookups behind a seat map.
type Extractor interface {
	GetPage(ctx context.Context, url string) (string, error)
	CallPresentation(ctx context.Context, presentationId int) (*entities.PresentationResponse, error)
	CallSeatplan(ctx context.Context, venueId, seatplanId int) (*entities.Seatplan, error)
	CallSeatStatus(ctx context.Context, presentationId, venueTypeId int) (*entities.SeatStatusResponse, error)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

type ExtractorClient struct {
	client        *http.Client
	cookieManager *header.CookiesManager
	apiBase       string
}

type Option func(*ExtractorClient)

func WithHTTPClient(c *http.Client) Option {
	return func(ec *ExtractorClient) { ec.client = c }
}

func WithCookieManager(cm *header.CookiesManager) Option {
	return func(ec *ExtractorClient) { ec.cookieManager = cm }
}

// WithAPIBase points the booking API calls somewhere else, tests use it with httptest.
func WithAPIBase(base string) Option {
	return func(ec *ExtractorClient) { ec.apiBase = strings.TrimRight(base, "/") }
}

func New(opts ...Option) *ExtractorClient {
	ec := &ExtractorClient{
		client:  &http.Client{Timeout: constant.DefaultHTTPTimeout},
		apiBase: constant.TICKETS_API_URL,
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

func (c *ExtractorClient) GetPage(ctx context.Context, url string) (string, error) {
	body, err := c.doGet(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *ExtractorClient) CallPresentation(ctx context.Context, presentationId int) (*entities.PresentationResponse, error) {
	var resp entities.PresentationResponse
	if err := c.getJSON(ctx, c.apiBase+fmt.Sprintf(constant.PRESENTATION_PATH, presentationId), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ExtractorClient) CallSeatplan(ctx context.Context, venueId, seatplanId int) (*entities.Seatplan, error) {
	var resp entities.Seatplan
	if err := c.getJSON(ctx, c.apiBase+fmt.Sprintf(constant.SEATPLAN_PATH, venueId, seatplanId), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ExtractorClient) CallSeatStatus(ctx context.Context, presentationId, venueTypeId int) (*entities.SeatStatusResponse, error) {
	var resp entities.SeatStatusResponse
	if err := c.getJSON(ctx, c.apiBase+fmt.Sprintf(constant.SEAT_STATUS_PATH, presentationId, venueTypeId), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ExtractorClient) HTTPClient() *http.Client {
	return c.client
}

func (c *ExtractorClient) getJSON(ctx context.Context, url string, out any) error {
	body, err := c.doGet(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// doGet is an internal helper for GET requests
func (c *ExtractorClient) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	headers, err := header.GetHeaders(ctx, c.cookieManager)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
