// Package advisor goes from a movie and a set of dates to ranked seat
// suggestions per screening.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/config"
	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/entities"
	"github.com/paologalligit/cinema-seat-advisor/screenings"
	"github.com/paologalligit/cinema-seat-advisor/selection"
	"github.com/paologalligit/cinema-seat-advisor/team"
)

var ErrInvalidPartySize = errors.New("party size must be at least 1")

var errNoSuggestions = errors.New("no seat suggestions")

type LayoutFetcher interface {
	FetchLayout(ctx context.Context, orderURL string) (string, error)
}

type LayoutParser interface {
	Parse(markup string) (*entities.SeatMap, error)
}

type RecommendOptions struct {
	PartySize         int
	TopN              int
	IncludeWheelchair bool
	// Dates defaults to the configured movie date.
	Dates []time.Time
}

type Advisor struct {
	discovery screenings.Discoverer
	fetcher   LayoutFetcher
	parser    LayoutParser
	workers   int
	logger    *zap.Logger

	mu        sync.Mutex
	lastDates []time.Time
}

func New(discovery screenings.Discoverer, fetcher LayoutFetcher, parser LayoutParser, workers int, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		discovery: discovery,
		fetcher:   fetcher,
		parser:    parser,
		workers:   workers,
		logger:    logger,
	}
}

type screeningJob struct {
	dateIndex      int
	screeningIndex int
	date           time.Time
	screening      entities.ScreeningDescriptor
}

type screeningResult struct {
	job            screeningJob
	recommendation entities.SeatRecommendation
}

// Recommend discovers the screenings of every date and scores each of them.
// A failing date or screening is logged and skipped.
func (a *Advisor) Recommend(ctx context.Context, cfg *config.AppConfig, opts RecommendOptions) ([]entities.SeatRecommendation, error) {
	if opts.PartySize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPartySize, opts.PartySize)
	}
	dates := opts.Dates
	if len(dates) == 0 {
		dates = []time.Time{cfg.MovieDate()}
	}
	filter := screenings.FilterFromConfig(cfg)

	var jobs []screeningJob
	var seen []time.Time
	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		movieURL := cfg.MovieURLForDate(date)
		found, err := a.discovery.Discover(ctx, movieURL, filter, date)
		if err != nil {
			a.logger.Warn("failed to discover screenings", zap.String("url", movieURL), zap.Error(err))
			continue
		}
		if len(found) == 0 {
			a.logger.Info("no screenings", zap.String("date", date.Format(constant.DATE_LAYOUT)))
			continue
		}
		seen = append(seen, date)
		for j, s := range found {
			jobs = append(jobs, screeningJob{dateIndex: i, screeningIndex: j, date: date, screening: s})
		}
	}
	a.setLastDates(seen)

	scoring := selection.DefaultScoringConfig()
	scoring.IncludeWheelchair = opts.IncludeWheelchair

	pool := team.Team[screeningJob, screeningResult]{
		WorkerCount: a.workers,
		Worker: func(ctx context.Context, job screeningJob) (screeningResult, error) {
			return a.score(ctx, job, scoring, opts)
		},
		OnError: func(job screeningJob, err error) {
			if errors.Is(err, errNoSuggestions) {
				a.logger.Info("no seat suggestions", zap.String("url", job.screening.OrderURL))
				return
			}
			a.logger.Warn("skipping screening", zap.String("url", job.screening.OrderURL), zap.Error(err))
			if strings.Contains(strings.ToLower(err.Error()), "captcha") {
				a.logger.Warn("possible CAPTCHA encountered", zap.String("url", job.screening.OrderURL))
			}
		},
	}
	results := pool.Run(ctx, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		x, y := results[i].job, results[j].job
		if x.dateIndex != y.dateIndex {
			return x.dateIndex < y.dateIndex
		}
		return x.screeningIndex < y.screeningIndex
	})
	recommendations := make([]entities.SeatRecommendation, 0, len(results))
	for _, r := range results {
		recommendations = append(recommendations, r.recommendation)
	}
	return recommendations, nil
}

// score fetches and parses one screening's seat map once; every suggestion
// comes from that single snapshot.
func (a *Advisor) score(ctx context.Context, job screeningJob, scoring selection.ScoringConfig, opts RecommendOptions) (screeningResult, error) {
	markup, err := a.fetcher.FetchLayout(ctx, job.screening.OrderURL)
	if err != nil {
		return screeningResult{}, err
	}
	seatMap, err := a.parser.Parse(markup)
	if err != nil {
		return screeningResult{}, err
	}

	selector := selection.New(seatMap, scoring)
	var suggestions []entities.SeatBlockSuggestion
	if opts.PartySize > 1 {
		suggestions = selector.BestBlocks(opts.PartySize, opts.TopN)
	} else {
		suggestions = selector.BestSingleSeats(opts.TopN)
	}
	if len(suggestions) == 0 {
		return screeningResult{}, errNoSuggestions
	}

	return screeningResult{
		job: job,
		recommendation: entities.SeatRecommendation{
			ScreeningDate: job.date,
			Screening:     job.screening,
			SeatMap:       seatMap,
			Suggestions:   suggestions,
		},
	}, nil
}

func (a *Advisor) setLastDates(dates []time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastDates = dates
}

// LastScreeningDates returns the dates that had at least one screening in the
// most recent Recommend call.
func (a *Advisor) LastScreeningDates() []time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]time.Time(nil), a.lastDates...)
}
