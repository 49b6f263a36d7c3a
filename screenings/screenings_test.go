package screenings

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paologalligit/cinema-seat-advisor/browser"
	"github.com/paologalligit/cinema-seat-advisor/entities"
)

var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func loadPage(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/movie_page.html")
	require.NoError(t, err)
	return string(data)
}

func tod(t *testing.T, h, m int) *entities.TimeOfDay {
	t.Helper()
	v, err := entities.NewTimeOfDay(h, m)
	require.NoError(t, err)
	return &v
}

func orderURLs(found []entities.ScreeningDescriptor) []string {
	var out []string
	for _, s := range found {
		out = append(out, s.OrderURL)
	}
	return out
}

type mockExtractor struct {
	page string
	err  error
	urls []string
}

func (m *mockExtractor) GetPage(ctx context.Context, url string) (string, error) {
	m.urls = append(m.urls, url)
	return m.page, m.err
}

func (m *mockExtractor) CallPresentation(ctx context.Context, presentationId int) (*entities.PresentationResponse, error) {
	return nil, errors.New("not used")
}

func (m *mockExtractor) CallSeatplan(ctx context.Context, venueId, seatplanId int) (*entities.Seatplan, error) {
	return nil, errors.New("not used")
}

func (m *mockExtractor) CallSeatStatus(ctx context.Context, presentationId, venueTypeId int) (*entities.SeatStatusResponse, error) {
	return nil, errors.New("not used")
}

type mockRenderer struct {
	page  *browser.ShowtimePage
	err   error
	calls int
}

func (m *mockRenderer) SeatmapMarkup(ctx context.Context, orderURL string) (string, error) {
	return "", errors.New("not used")
}

func (m *mockRenderer) ShowtimePage(ctx context.Context, movieURL string) (*browser.ShowtimePage, error) {
	m.calls++
	return m.page, m.err
}

func (m *mockRenderer) Cookies(ctx context.Context, pageURL string) (string, error) { return "", nil }

func (m *mockRenderer) Close() error { return nil }

type stubDiscoverer struct {
	found []entities.ScreeningDescriptor
	err   error
	calls int
}

func (s *stubDiscoverer) Discover(ctx context.Context, movieURL string, filter Filter, targetDate time.Time) ([]entities.ScreeningDescriptor, error) {
	s.calls++
	return s.found, s.err
}

func TestParseShowtimes(t *testing.T) {
	found, err := ParseShowtimes(loadPage(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://tickets.example.com/api/order/101",
		"https://tickets.example.com/api/order/102",
		"https://tickets.example.com/api/order/103",
		"https://tickets.example.com/api/order/106",
	}, orderURLs(found))

	assert.Equal(t, "14:15", found[0].Label)
	assert.Equal(t, "14:15", found[0].ShowTime.String())
	assert.Equal(t, map[string]string{"data-format": "IMAX 3D", "data-language": "EN (CZ sub)"}, found[0].Metadata)
	assert.Equal(t, "21:45 Late show", found[2].Label)
	assert.Empty(t, found[2].Metadata)
	assert.Equal(t, "09:30", found[3].ShowTime.String())
}

func TestParseShowTime(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"18:30", "18:30", true},
		{"Tue 9:05 IMAX", "09:05", true},
		{"14:15 / 17:00", "14:15", true},
		{"sold out", "", false},
		{"25:10", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := ParseShowTime(tc.text)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got.String())
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	found, err := ParseShowtimes(loadPage(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter Filter
		date   time.Time
		want   []string
	}{
		{
			name:   "no rules",
			filter: Filter{},
			date:   monday,
			want:   []string{"101", "102", "103", "106"},
		},
		{
			name:   "earliest show time",
			filter: Filter{EarliestShowTime: tod(t, 15, 0)},
			date:   monday,
			want:   []string{"102", "103"},
		},
		{
			name:   "earliest is inclusive",
			filter: Filter{EarliestShowTime: tod(t, 18, 30)},
			date:   monday,
			want:   []string{"102", "103"},
		},
		{
			name:   "weekday allowed",
			filter: Filter{AllowedWeekdays: map[time.Weekday]bool{time.Monday: true}},
			date:   monday,
			want:   []string{"101", "102", "103", "106"},
		},
		{
			name:   "weekday drops every showtime",
			filter: Filter{AllowedWeekdays: map[time.Weekday]bool{time.Saturday: true}, EarliestShowTime: tod(t, 0, 0)},
			date:   monday,
			want:   nil,
		},
		{
			name:   "language and format tags",
			filter: Filter{Language: "en", Format: "imax"},
			date:   monday,
			want:   []string{"101", "103"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, s := range tc.filter.Apply(found, tc.date) {
				got = append(got, s.OrderURL[len(s.OrderURL)-3:])
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStaticDiscovery(t *testing.T) {
	ext := &mockExtractor{page: loadPage(t)}
	found, err := NewStaticDiscovery(ext, nil).Discover(context.Background(), "https://cinema/films/x", Filter{EarliestShowTime: tod(t, 20, 0)}, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://tickets.example.com/api/order/103"}, orderURLs(found))
	assert.Equal(t, []string{"https://cinema/films/x"}, ext.urls)

	ext = &mockExtractor{err: errors.New("502")}
	_, err = NewStaticDiscovery(ext, nil).Discover(context.Background(), "https://cinema/films/x", Filter{}, monday)
	var discoveryErr *DiscoveryError
	require.ErrorAs(t, err, &discoveryErr)
	assert.Equal(t, "https://cinema/films/x", discoveryErr.URL)
}

func TestBrowserDiscovery(t *testing.T) {
	anchors := []browser.ShowtimeAnchor{
		{Label: "17:00", OrderURL: "https://t/order/1", Attrs: map[string]string{"data-format": "IMAX"}},
		{Label: "", OrderURL: "https://t/order/2"},
		{Label: "soon", OrderURL: "https://t/order/3"},
		{Label: "20:10", OrderURL: "https://t/order/4"},
	}
	tests := []struct {
		name   string
		landed string
		want   []string
	}{
		{name: "landed on requested date", landed: "https://c/films/x?lang=en_GB#/buy-tickets-by-film?in-cinema=prague&at=2026-01-05", want: []string{"https://t/order/1", "https://t/order/4"}},
		{name: "redirected to another date", landed: "https://c/films/x#/buy-tickets-by-film?at=2026-01-09", want: nil},
		{name: "landed date unknown", landed: "https://c/films/x", want: []string{"https://t/order/1", "https://t/order/4"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &mockRenderer{page: &browser.ShowtimePage{LandedURL: tc.landed, Anchors: anchors}}
			found, err := NewBrowserDiscovery(r, nil).Discover(context.Background(), "https://c/films/x", Filter{Format: "imax"}, monday)
			require.NoError(t, err)
			assert.Equal(t, tc.want, orderURLs(found))
		})
	}

	r := &mockRenderer{err: errors.New("navigation timeout")}
	_, err := NewBrowserDiscovery(r, nil).Discover(context.Background(), "https://c/films/x", Filter{}, monday)
	var discoveryErr *DiscoveryError
	assert.ErrorAs(t, err, &discoveryErr)
}

func TestLandedDate(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://c/films/x?at=2026-01-06", "2026-01-06", true},
		{"https://c/films/x?lang=en#/buy?in-cinema=prague&at=2026-01-07&view-mode=list", "2026-01-07", true},
		{"https://c/films/x#at=2026-01-08", "2026-01-08", true},
		{"https://c/films/x#/buy", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			got, ok := LandedDate(tc.url)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDiscovery_Fallback(t *testing.T) {
	one := []entities.ScreeningDescriptor{{Label: "18:00", OrderURL: "https://t/order/1"}}

	t.Run("static result is final", func(t *testing.T) {
		static := &stubDiscoverer{found: one}
		br := &stubDiscoverer{}
		found, err := NewDiscovery(static, br, nil).Discover(context.Background(), "u", Filter{}, monday)
		require.NoError(t, err)
		assert.Equal(t, one, found)
		assert.Equal(t, 0, br.calls)
	})
	t.Run("empty static falls back", func(t *testing.T) {
		static := &stubDiscoverer{}
		br := &stubDiscoverer{found: one}
		found, err := NewDiscovery(static, br, nil).Discover(context.Background(), "u", Filter{}, monday)
		require.NoError(t, err)
		assert.Equal(t, one, found)
	})
	t.Run("failed static falls back", func(t *testing.T) {
		static := &stubDiscoverer{err: &DiscoveryError{URL: "u", Err: errors.New("503")}}
		br := &stubDiscoverer{found: one}
		found, err := NewDiscovery(static, br, nil).Discover(context.Background(), "u", Filter{}, monday)
		require.NoError(t, err)
		assert.Equal(t, one, found)
	})
	t.Run("no browser", func(t *testing.T) {
		static := &stubDiscoverer{err: &DiscoveryError{URL: "u", Err: errors.New("503")}}
		_, err := NewDiscovery(static, nil, nil).Discover(context.Background(), "u", Filter{}, monday)
		var discoveryErr *DiscoveryError
		assert.ErrorAs(t, err, &discoveryErr)
	})
}
