package constant

import "time"

const (
	DEFAULT_BASE_URL = "https://www.cinemacity.cz"
	TICKETS_API_URL  = "https://tickets.cinemacity.cz/api"

	PRESENTATION_PATH = "/presentations/%d?referralMiniSiteId=0"
	SEATPLAN_PATH     = "/seats/seatplanV2?venueId=%d&seatplanId=%d"
	SEAT_STATUS_PATH  = "/seats/seats-statusV2?presentationId=%d&venueTypeId=%d&isReserved=1"

	MOVIE_URL_FORMAT = "%s/films/%s/%s?lang=%s#/buy-tickets-by-film?in-cinema=%s&at=%s&for-movie=%s&filtered=%s&view-mode=%s"

	USER_AGENT = "cinema-monitor/2.0"

	DATE_LAYOUT = "2006-01-02"
)

// Seat layout markup
const (
	SeatmapContainerSelector = "svg#svg-seatmap"
	SeatmapViewportSelector  = "svg#svg-seatmap g.svg-pan-zoom_viewport"
	SeatElementSelector      = "g[aria-description]"
	SeatStatusMarkerSelector = "svg#svg-seatmap g[aria-description]"
	SeatDescriptionAttr      = "aria-description"
	SeatPositionAttr         = "s"
)

// Showtime listing markup
const (
	ShowtimeColumnSelector  = "div.qb-movie-info-column"
	ShowtimeAnchorSelector  = "a.btn.btn-primary.btn-lg"
	ShowtimeBrowserSelector = "a.btn.btn-primary.btn-lg[data-url]"
	ShowtimeOrderURLAttr    = "data-url"
	ShowtimeLanguageAttr    = "data-language"
	ShowtimeFormatAttr      = "data-format"
)

// Booking page controls
const (
	GuestButtonSelector = "button[data-automation-id='guest-button']"
)

var (
	SeatmapSelectors     = []string{"svg#svg-seatmap", ".seatmap svg#svg-seatmap"}
	CookieRejectLabels   = []string{"Reject All Cookies", "Odmítnout vše"}
	SeatStatusKeywords   = []string{"available", "occupied", "wheelchair"}
	DefaultHTTPTimeout   = 10 * time.Second
	DefaultNavTimeout    = 2 * time.Second
	DiscoveryNavTimeout  = 15 * time.Second
	DefaultPollTimeout   = 8 * time.Second
	SeatPollInterval     = 250 * time.Millisecond
	GuestButtonWait      = 3 * time.Second
	ShowtimeRetryWait    = 2 * time.Second
	BrowserFetchAttempts = 2
)
