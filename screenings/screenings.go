// Package screenings resolves a movie page and date into bookable showtimes.
package screenings

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/config"
	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
)

var timePattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// DiscoveryError means the showtime list could not be fetched or read.
type DiscoveryError struct {
	URL string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering screenings at %s: %v", e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

type Discoverer interface {
	Discover(ctx context.Context, movieURL string, filter Filter, targetDate time.Time) ([]entities.ScreeningDescriptor, error)
}

// Filter drops showtimes the user does not want. Zero values disable each rule.
type Filter struct {
	EarliestShowTime *entities.TimeOfDay
	AllowedWeekdays  map[time.Weekday]bool
	Language         string
	Format           string
}

func FilterFromConfig(cfg *config.AppConfig) Filter {
	return Filter{
		EarliestShowTime: cfg.EarliestShowTime,
		AllowedWeekdays:  cfg.AllowedWeekdays,
		Language:         cfg.FilmLanguage,
		Format:           cfg.FilmFormat,
	}
}

// Apply keeps the screenings that pass every rule, in order. The weekday rule
// looks at targetDate, so it drops all or nothing.
func (f Filter) Apply(screenings []entities.ScreeningDescriptor, targetDate time.Time) []entities.ScreeningDescriptor {
	if len(f.AllowedWeekdays) > 0 && !f.AllowedWeekdays[targetDate.Weekday()] {
		return nil
	}
	var kept []entities.ScreeningDescriptor
	for _, s := range screenings {
		if f.EarliestShowTime != nil && s.ShowTime < *f.EarliestShowTime {
			continue
		}
		if !matchesTag(s.Metadata, constant.ShowtimeLanguageAttr, f.Language) {
			continue
		}
		if !matchesTag(s.Metadata, constant.ShowtimeFormatAttr, f.Format) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// matchesTag passes when either side is missing.
func matchesTag(metadata map[string]string, key, want string) bool {
	if want == "" {
		return true
	}
	have, ok := metadata[key]
	if !ok || strings.TrimSpace(have) == "" {
		return true
	}
	return strings.Contains(strings.ToLower(have), strings.ToLower(want))
}

// ParseShowTime finds the first H:MM or HH:MM token in text.
func ParseShowTime(text string) (entities.TimeOfDay, bool) {
	m := timePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	t, err := entities.NewTimeOfDay(hour, minute)
	if err != nil {
		return 0, false
	}
	return t, true
}

// Discovery runs the static discoverer and falls back to the browser one
// when the static result is empty or failed.
type Discovery struct {
	static  Discoverer
	browser Discoverer
	logger  *zap.Logger
}

// NewDiscovery accepts a nil browser discoverer, static results are then final.
func NewDiscovery(static, browser Discoverer, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{static: static, browser: browser, logger: logger}
}

func (d *Discovery) Discover(ctx context.Context, movieURL string, filter Filter, targetDate time.Time) ([]entities.ScreeningDescriptor, error) {
	found, err := d.static.Discover(ctx, movieURL, filter, targetDate)
	if err == nil && len(found) > 0 {
		return found, nil
	}
	if err != nil {
		d.logger.Warn("static discovery failed", zap.String("url", movieURL), zap.Error(err))
	}
	if d.browser == nil || ctx.Err() != nil {
		return found, err
	}
	return d.browser.Discover(ctx, movieURL, filter, targetDate)
}
