package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "https://www.cinemacity.cz", cfg.BaseURL)
	require.NotNil(t, cfg.MinScore)
	assert.Equal(t, 0.8, *cfg.MinScore)
	assert.True(t, cfg.AvoidAisle)
	assert.Equal(t, 3, cfg.AisleDistance)
	assert.Equal(t, "en_GB", cfg.Lang)
	assert.Equal(t, 300*time.Second, cfg.PollInterval)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2.0, cfg.BackoffFactor)
	assert.Equal(t, 2, cfg.PartySize)
	assert.Equal(t, "playwright", cfg.BrowserEngine)
	assert.Equal(t, StateBackendFile, cfg.StateBackend)
	assert.Nil(t, cfg.EarliestShowTime)
	assert.Nil(t, cfg.AllowedWeekdays)
	assert.False(t, cfg.TelegramConfigured())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(map[string]string{
		"CINEMA_BASE_URL":    "http://localhost:8080/",
		"MIN_SCORE":          "none",
		"AVOID_AISLE":        "off",
		"POLL_INTERVAL":      "90",
		"SEAT_POLL_TIMEOUT":  "1500ms",
		"EARLIEST_SHOW_TIME": "18:30",
		"ALLOWED_WEEKDAYS":   "fri, Saturday,sun",
		"STATE_BACKEND":      "Redis",
		"TELEGRAM_BOT_TOKEN": "t",
		"TELEGRAM_CHAT_ID":   "c",
		"SITE_LANG":          "cs_CZ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Nil(t, cfg.MinScore)
	assert.False(t, cfg.AvoidAisle)
	assert.Equal(t, 90*time.Second, cfg.PollInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.SeatPollTimeout)
	require.NotNil(t, cfg.EarliestShowTime)
	assert.Equal(t, "18:30", cfg.EarliestShowTime.String())
	assert.Equal(t, map[time.Weekday]bool{time.Friday: true, time.Saturday: true, time.Sunday: true}, cfg.AllowedWeekdays)
	assert.Equal(t, StateBackendRedis, cfg.StateBackend)
	assert.True(t, cfg.TelegramConfigured())
	assert.Equal(t, "cs_CZ", cfg.Lang)
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "int", env: map[string]string{"AISLE_DISTANCE": "three"}},
		{name: "float", env: map[string]string{"MIN_SCORE": "high"}},
		{name: "bool", env: map[string]string{"AVOID_AISLE": "maybe"}},
		{name: "duration", env: map[string]string{"POLL_INTERVAL": "soon"}},
		{name: "time", env: map[string]string{"EARLIEST_SHOW_TIME": "25:00"}},
		{name: "weekday", env: map[string]string{"ALLOWED_WEEKDAYS": "mon,funday"}},
		{name: "date", env: map[string]string{"DATE": "05/01/2026"}},
		{name: "backend", env: map[string]string{"STATE_BACKEND": "s3"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFrom(mapLookup(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_ReportsEveryBadKey(t *testing.T) {
	_, err := LoadFrom(mapLookup(map[string]string{"AISLE_DISTANCE": "x", "TOP_N": "y"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AISLE_DISTANCE")
	assert.Contains(t, err.Error(), "TOP_N")
}

func TestMovieURLForDate(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(nil))
	require.NoError(t, err)

	got := cfg.MovieURLForDate(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC))
	assert.Equal(t,
		"https://www.cinemacity.cz/films/avatar-ohen-a-popel/7148s2r?lang=en_GB#/buy-tickets-by-film?in-cinema=prague&at=2026-01-07&for-movie=7148s2r&filtered=imax&view-mode=list",
		got)
	assert.Equal(t, cfg.MovieURLForDate(cfg.MovieDate()), cfg.MovieURL())
	assert.Equal(t, time.Monday, cfg.MovieDate().Weekday())
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("9:05")
	require.NoError(t, err)
	assert.Equal(t, 9, tod.Hour())
	assert.Equal(t, 5, tod.Minute())

	_, err = ParseTimeOfDay("noon")
	assert.Error(t, err)
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays(" , ")
	require.NoError(t, err)
	assert.Nil(t, days)

	days, err = ParseWeekdays("MON,tuesday")
	require.NoError(t, err)
	assert.Len(t, days, 2)
	assert.True(t, days[time.Tuesday])
}
