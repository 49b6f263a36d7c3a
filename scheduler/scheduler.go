// Package scheduler runs the advisor on a schedule and turns good
// suggestions into alerts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/advisor"
	"github.com/paologalligit/cinema-seat-advisor/config"
	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
	"github.com/paologalligit/cinema-seat-advisor/fetcher"
	"github.com/paologalligit/cinema-seat-advisor/notify"
	"github.com/paologalligit/cinema-seat-advisor/persistence"
	"github.com/paologalligit/cinema-seat-advisor/render"
)

type Recommender interface {
	Recommend(ctx context.Context, cfg *config.AppConfig, opts advisor.RecommendOptions) ([]entities.SeatRecommendation, error)
	LastScreeningDates() []time.Time
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type SchedulerConfig struct {
	PollInterval      time.Duration
	MaxRetries        int
	BackoffFactor     float64
	HorizonDays       int
	PartySize         int
	TopN              int
	IncludeWheelchair bool
	// MinScore is nil when score filtering is disabled.
	MinScore      *float64
	AvoidAisle    bool
	AisleBoundary int
}

func DefaultSchedulerConfig() SchedulerConfig {
	minScore := 0.8
	return SchedulerConfig{
		PollInterval:  300 * time.Second,
		MaxRetries:    3,
		BackoffFactor: 2.0,
		HorizonDays:   3,
		PartySize:     2,
		TopN:          3,
		MinScore:      &minScore,
		AvoidAisle:    true,
		AisleBoundary: 3,
	}
}

func SchedulerConfigFromApp(cfg *config.AppConfig) SchedulerConfig {
	return SchedulerConfig{
		PollInterval:      cfg.PollInterval,
		MaxRetries:        cfg.MaxRetries,
		BackoffFactor:     cfg.BackoffFactor,
		HorizonDays:       cfg.HorizonDays,
		PartySize:         cfg.PartySize,
		TopN:              cfg.TopN,
		IncludeWheelchair: cfg.IncludeWheelchair,
		MinScore:          cfg.MinScore,
		AvoidAisle:        cfg.AvoidAisle,
		AisleBoundary:     cfg.AisleDistance,
	}
}

// Deps are the collaborators of a Scheduler. Renderer and Alerts are optional.
type Deps struct {
	Advisor  Recommender
	Notifier notify.Notifier
	Renderer render.Renderer
	State    persistence.StateStore
	Alerts   persistence.AlertLog
}

type Scheduler struct {
	app    *config.AppConfig
	config SchedulerConfig
	deps   Deps
	logger *zap.Logger

	sleep    SleepFunc
	now      func() time.Time
	newRunID func() string
}

func New(app *config.AppConfig, cfg SchedulerConfig, deps Deps, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Alerts == nil {
		deps.Alerts = persistence.NopAlertLog{}
	}
	return &Scheduler{
		app:      app,
		config:   cfg,
		deps:     deps,
		logger:   logger,
		sleep:    Sleep,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// RunOnce checks every planned date and returns how many alerts went out.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	dates := PlanDates(s.app.MovieDate(), s.config.HorizonDays, s.app.AllowedWeekdays)
	if len(dates) == 0 {
		s.logger.Info("no eligible dates to check, weekday filters excluded every day")
		return 0, nil
	}

	recommendations, err := s.deps.Advisor.Recommend(ctx, s.app, advisor.RecommendOptions{
		PartySize:         s.config.PartySize,
		TopN:              s.config.TopN,
		IncludeWheelchair: s.config.IncludeWheelchair,
		Dates:             dates,
	})
	if err != nil {
		return 0, fmt.Errorf("error getting recommendations: %w", err)
	}

	runID := s.newRunID()
	dispatched := 0
	for _, rec := range recommendations {
		for _, suggestion := range s.FilterSuggestions(rec) {
			if err := s.dispatch(ctx, runID, rec, suggestion); err != nil {
				s.logger.Error("failed to dispatch alert", zap.String("url", rec.Screening.OrderURL), zap.Error(err))
				continue
			}
			dispatched++
		}
	}
	s.trackLatestDate(ctx)

	if dispatched == 0 {
		s.logger.Info("no seat suggestions available for configured dates")
	}
	return dispatched, nil
}

func (s *Scheduler) dispatch(ctx context.Context, runID string, rec entities.SeatRecommendation, suggestion entities.SeatBlockSuggestion) error {
	var imagePath string
	if s.deps.Renderer != nil {
		path, err := s.deps.Renderer.Render(rec.SeatMap, suggestion)
		if err != nil {
			s.logger.Warn("seat map rendering failed", zap.Error(err))
		} else {
			imagePath = path
		}
	}

	message := FormatAlert(s.app.MovieNameSlug, rec.ScreeningDate, rec.Screening, suggestion, imagePath != "")
	s.logger.Info("sending alert",
		zap.String("screening", rec.Screening.Label),
		zap.String("date", rec.ScreeningDate.Format(constant.DATE_LAYOUT)),
		zap.Int("row", suggestion.RowNumber),
		zap.Ints("seats", suggestion.SeatNumbers),
	)
	if err := s.deps.Notifier.SendAlert(ctx, message, imagePath); err != nil {
		return err
	}

	entry := entities.AlertLogEntry{
		RunId:         runID,
		Movie:         s.app.MovieNameSlug,
		ScreeningDate: rec.ScreeningDate.Format(constant.DATE_LAYOUT),
		ShowLabel:     rec.Screening.Label,
		OrderURL:      fetcher.NormalizeOrderURL(rec.Screening.OrderURL),
		RowNumber:     suggestion.RowNumber,
		SeatNumbers:   suggestion.SeatNumbers,
		Score:         suggestion.Score,
		ImagePath:     imagePath,
		LoggedAt:      s.now().UTC(),
	}
	if err := s.deps.Alerts.WriteAlert(ctx, entry); err != nil {
		s.logger.Warn("failed to write alert log", zap.Error(err))
	}
	return nil
}

// trackLatestDate stores the newest screening date seen, or tells the user
// nothing new appeared since the last stored one.
func (s *Scheduler) trackLatestDate(ctx context.Context) {
	if s.deps.State == nil {
		return
	}
	seen := s.deps.Advisor.LastScreeningDates()
	if len(seen) == 0 {
		s.logger.Info("no screening dates discovered, skipping latest-date tracking")
		return
	}
	latest := seen[0]
	for _, d := range seen[1:] {
		if d.After(latest) {
			latest = d
		}
	}

	previous, err := s.deps.State.LoadLatestDate(ctx)
	if err != nil && !errors.Is(err, persistence.ErrNoState) {
		s.logger.Debug("failed to read latest screening date", zap.Error(err))
	}
	if err != nil || latest.After(previous) {
		if err := s.deps.State.StoreLatestDate(ctx, latest); err != nil {
			s.logger.Warn("failed to store latest screening date", zap.Error(err))
			return
		}
		s.logger.Info("stored latest screening date", zap.String("date", latest.Format(constant.DATE_LAYOUT)))
		return
	}

	if err := s.deps.Notifier.SendAlert(ctx, FormatNoNewDay(previous), ""); err != nil {
		s.logger.Error("failed to send no-new-day notice", zap.Error(err))
	}
}

// PollWithRetry runs RunOnce, retrying up to MaxRetries times with
// exponential backoff between attempts.
func (s *Scheduler) PollWithRetry(ctx context.Context) (int, error) {
	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := s.backoff(attempt)
			s.logger.Warn("monitor attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", s.config.MaxRetries),
				zap.Duration("wait", wait),
				zap.Error(lastErr),
			)
			if err := s.sleep(ctx, wait); err != nil {
				return 0, err
			}
		}
		n, err := s.RunOnce(ctx)
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	s.logger.Error("monitor aborted after retries", zap.Error(lastErr))
	return 0, lastErr
}

func (s *Scheduler) backoff(attempt int) time.Duration {
	return time.Duration(float64(s.config.PollInterval) * math.Pow(s.config.BackoffFactor, float64(attempt-1)))
}

// RunForever polls until ctx is cancelled. Failed cycles are only logged.
func (s *Scheduler) RunForever(ctx context.Context) {
	s.logger.Info("starting scheduler loop", zap.Duration("interval", s.config.PollInterval))
	for ctx.Err() == nil {
		if _, err := s.PollWithRetry(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("polling failed", zap.Error(err))
		}
		if err := s.sleep(ctx, s.config.PollInterval); err != nil {
			break
		}
	}
	s.logger.Info("scheduler loop stopped")
}

// FilterSuggestions drops suggestions under the minimum score and, when
// enabled, the ones too close to either end of their row.
func (s *Scheduler) FilterSuggestions(rec entities.SeatRecommendation) []entities.SeatBlockSuggestion {
	var out []entities.SeatBlockSuggestion
	for _, suggestion := range rec.Suggestions {
		if s.config.MinScore != nil && suggestion.Score < *s.config.MinScore {
			s.logger.Debug("skipping suggestion below min score",
				zap.Float64("min_score", *s.config.MinScore), zap.String("screening", rec.Screening.Label))
			continue
		}
		if s.config.AvoidAisle && s.config.AisleBoundary > 0 && nearAisle(rec.SeatMap, suggestion, s.config.AisleBoundary) {
			s.logger.Debug("skipping suggestion near aisle",
				zap.Int("boundary", s.config.AisleBoundary), zap.String("screening", rec.Screening.Label))
			continue
		}
		out = append(out, suggestion)
	}
	return out
}

func nearAisle(seatMap *entities.SeatMap, suggestion entities.SeatBlockSuggestion, boundary int) bool {
	if seatMap == nil || boundary <= 0 {
		return false
	}
	row, ok := seatMap.Row(suggestion.RowNumber)
	if !ok || len(row.Seats) == 0 {
		return false
	}
	rowMin, rowMax := row.Extent()
	bySeat := make(map[int]entities.Seat, len(row.Seats))
	for _, seat := range row.Seats {
		bySeat[seat.SeatNumber] = seat
	}

	for i, n := range suggestion.SeatNumbers {
		var gx int
		if seat, ok := bySeat[n]; ok {
			gx = seat.GridX
		} else if i < len(suggestion.GridPositions) {
			gx = suggestion.GridPositions[i]
		} else {
			continue
		}
		if gx-rowMin < boundary || rowMax-gx < boundary {
			return true
		}
	}
	return false
}

func FormatAlert(movie string, date time.Time, screening entities.ScreeningDescriptor, suggestion entities.SeatBlockSuggestion, hasAttachment bool) string {
	seats := make([]string, len(suggestion.SeatNumbers))
	for i, n := range suggestion.SeatNumbers {
		seats[i] = strconv.Itoa(n)
	}
	var b strings.Builder
	b.WriteString("🎬 Seat Alert\n\n")
	fmt.Fprintf(&b, "Movie: %s\n", movie)
	fmt.Fprintf(&b, "Date: %s at %s\n", date.Format(constant.DATE_LAYOUT), screening.Label)
	fmt.Fprintf(&b, "Row: %d — Seats: %s\n", suggestion.RowNumber, strings.Join(seats, ", "))
	fmt.Fprintf(&b, "Score: %.2f\n", suggestion.Score)
	fmt.Fprintf(&b, "Booking Link: %s", fetcher.NormalizeOrderURL(screening.OrderURL))
	if hasAttachment {
		b.WriteString("\nSeat map preview attached.")
	}
	return b.String()
}

func FormatNoNewDay(latest time.Time) string {
	return fmt.Sprintf("📅 No new screening day yet.\n\nLatest available screening date remains %s.", latest.Format(constant.DATE_LAYOUT))
}
