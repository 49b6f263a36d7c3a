// Package config loads the monitor configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
)

const (
	StateBackendFile     = "file"
	StateBackendRedis    = "redis"
	StateBackendPostgres = "postgres"
)

type AppConfig struct {
	BaseURL          string
	UserEmail        string
	UserPassword     string
	TelegramBotToken string
	TelegramChatID   string
	LogLevel         string
	LogFile          string

	MinScore      *float64
	AvoidAisle    bool
	AisleDistance int

	MovieNameSlug string
	MovieID       string
	City          string
	Date          string
	FilmFormat    string
	FilmLanguage  string
	ViewMode      string
	Lang          string

	// EarliestShowTime is nil when unset.
	EarliestShowTime *entities.TimeOfDay
	// AllowedWeekdays is nil when every day is allowed.
	AllowedWeekdays map[time.Weekday]bool

	PollInterval      time.Duration
	MaxRetries        int
	BackoffFactor     float64
	HorizonDays       int
	PartySize         int
	TopN              int
	IncludeWheelchair bool
	Workers           int

	HTTPTimeout                time.Duration
	NavigationTimeout          time.Duration
	DiscoveryNavigationTimeout time.Duration
	SeatPollTimeout            time.Duration
	BrowserEngine              string
	BrowserHeadless            bool
	ProxyURL                   string
	CookieTTL                  time.Duration

	StateBackend  string
	StateFile     string
	AlertLogFile  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AMQPURL       string
	AMQPQueue     string
	PreviewDir    string
}

// Load reads .env when present and then the process environment.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return LoadFrom(os.LookupEnv)
}

func LoadFrom(lookup LookupFunc) (*AppConfig, error) {
	env := &envReader{lookup: lookup}
	defaultMinScore := 0.8

	cfg := &AppConfig{
		BaseURL:          strings.TrimRight(env.String("CINEMA_BASE_URL", constant.DEFAULT_BASE_URL), "/"),
		UserEmail:        env.String("USER_EMAIL", ""),
		UserPassword:     env.String("USER_PASSWORD", ""),
		TelegramBotToken: env.String("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   env.String("TELEGRAM_CHAT_ID", ""),
		LogLevel:         env.String("LOG_LEVEL", "info"),
		LogFile:          env.String("LOG_FILE", ""),

		MinScore:      env.OptionalFloat("MIN_SCORE", &defaultMinScore),
		AvoidAisle:    env.Bool("AVOID_AISLE", true),
		AisleDistance: env.Int("AISLE_DISTANCE", 3),

		MovieNameSlug: env.String("MOVIE_NAME_SLUG", "avatar-ohen-a-popel"),
		MovieID:       env.String("MOVIE_ID", "7148s2r"),
		City:          env.String("CITY", "prague"),
		Date:          env.String("DATE", "2026-01-05"),
		FilmFormat:    env.String("FILM_FORMAT", "imax"),
		FilmLanguage:  env.String("FILM_LANGUAGE", ""),
		ViewMode:      env.String("VIEW_MODE", "list"),
		Lang:          env.String("SITE_LANG", "en_GB"),

		PollInterval:      env.Duration("POLL_INTERVAL", 300*time.Second),
		MaxRetries:        env.Int("MAX_RETRIES", 3),
		BackoffFactor:     env.Float("BACKOFF_FACTOR", 2.0),
		HorizonDays:       env.Int("HORIZON_DAYS", 3),
		PartySize:         env.Int("PARTY_SIZE", 2),
		TopN:              env.Int("TOP_N", 3),
		IncludeWheelchair: env.Bool("INCLUDE_WHEELCHAIR", false),
		Workers:           env.Int("WORKERS", 2),

		HTTPTimeout:                env.Duration("HTTP_TIMEOUT", constant.DefaultHTTPTimeout),
		NavigationTimeout:          env.Duration("NAVIGATION_TIMEOUT", constant.DefaultNavTimeout),
		DiscoveryNavigationTimeout: env.Duration("DISCOVERY_NAVIGATION_TIMEOUT", constant.DiscoveryNavTimeout),
		SeatPollTimeout:            env.Duration("SEAT_POLL_TIMEOUT", constant.DefaultPollTimeout),
		BrowserEngine:              strings.ToLower(env.String("BROWSER_ENGINE", "playwright")),
		BrowserHeadless:            env.Bool("BROWSER_HEADLESS", true),
		ProxyURL:                   env.String("PROXY_URL", ""),
		CookieTTL:                  env.Duration("COOKIE_TTL", 0),

		StateBackend:  strings.ToLower(env.String("STATE_BACKEND", StateBackendFile)),
		StateFile:     env.String("STATE_FILE", defaultStateFile()),
		AlertLogFile:  env.String("ALERT_LOG_FILE", ""),
		DatabaseURL:   env.String("DATABASE_URL", ""),
		RedisAddr:     env.String("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env.String("REDIS_PASSWORD", ""),
		RedisDB:       env.Int("REDIS_DB", 0),
		AMQPURL:       env.String("AMQP_URL", ""),
		AMQPQueue:     env.String("AMQP_QUEUE", "cinema.alerts"),
		PreviewDir:    env.String("PREVIEW_DIR", filepath.Join(os.TempDir(), "cinema-monitor", "renders")),
	}

	if v := env.String("EARLIEST_SHOW_TIME", ""); v != "" {
		t, err := ParseTimeOfDay(v)
		if err != nil {
			env.fail("EARLIEST_SHOW_TIME", v, "time", err)
		} else {
			cfg.EarliestShowTime = &t
		}
	}
	if v := env.String("ALLOWED_WEEKDAYS", ""); v != "" {
		days, err := ParseWeekdays(v)
		if err != nil {
			env.fail("ALLOWED_WEEKDAYS", v, "weekday list", err)
		} else {
			cfg.AllowedWeekdays = days
		}
	}
	if _, err := time.Parse(constant.DATE_LAYOUT, cfg.Date); err != nil {
		env.fail("DATE", cfg.Date, "date", err)
	}
	switch cfg.StateBackend {
	case StateBackendFile, StateBackendRedis, StateBackendPostgres:
	default:
		env.fail("STATE_BACKEND", cfg.StateBackend, "backend", nil)
	}

	if err := env.Err(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "cinema-monitor", "latest_screening_date.txt")
}

// MovieDate is the configured start date at UTC midnight.
func (c *AppConfig) MovieDate() time.Time {
	d, err := time.Parse(constant.DATE_LAYOUT, c.Date)
	if err != nil {
		// LoadFrom validated Date; a hand-built config falls back to today.
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return d
}

func (c *AppConfig) MovieURL() string {
	return c.MovieURLForDate(c.MovieDate())
}

// MovieURLForDate builds the movie page URL whose fragment selects date.
func (c *AppConfig) MovieURLForDate(date time.Time) string {
	return fmt.Sprintf(constant.MOVIE_URL_FORMAT,
		c.BaseURL,
		url.PathEscape(c.MovieNameSlug),
		url.PathEscape(c.MovieID),
		url.QueryEscape(c.Lang),
		url.QueryEscape(c.City),
		date.Format(constant.DATE_LAYOUT),
		url.QueryEscape(c.MovieID),
		url.QueryEscape(c.FilmFormat),
		url.QueryEscape(c.ViewMode),
	)
}

func (c *AppConfig) TelegramConfigured() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// ParseTimeOfDay reads "HH:MM" or "H:MM".
func ParseTimeOfDay(value string) (entities.TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	return entities.NewTimeOfDay(t.Hour(), t.Minute())
}

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// ParseWeekdays reads a comma list of short or full weekday names.
func ParseWeekdays(value string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(value, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" {
			continue
		}
		day, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days[day] = true
	}
	if len(days) == 0 {
		return nil, nil
	}
	return days, nil
}
