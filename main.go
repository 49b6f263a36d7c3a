package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/paologalligit/cinema-seat-advisor/advisor"
	"github.com/paologalligit/cinema-seat-advisor/browser"
	"github.com/paologalligit/cinema-seat-advisor/client"
	"github.com/paologalligit/cinema-seat-advisor/config"
	"github.com/paologalligit/cinema-seat-advisor/constant"
	"github.com/paologalligit/cinema-seat-advisor/fetcher"
	"github.com/paologalligit/cinema-seat-advisor/header"
	"github.com/paologalligit/cinema-seat-advisor/logger"
	"github.com/paologalligit/cinema-seat-advisor/notify"
	"github.com/paologalligit/cinema-seat-advisor/persistence"
	"github.com/paologalligit/cinema-seat-advisor/render"
	"github.com/paologalligit/cinema-seat-advisor/scheduler"
	"github.com/paologalligit/cinema-seat-advisor/screenings"
	"github.com/paologalligit/cinema-seat-advisor/seatmap"
	"github.com/paologalligit/cinema-seat-advisor/utils"
)

const schemaFile = "db/schema.sql"

type options struct {
	once    bool
	dump    string
	workers int
}

func main() {
	var opts options
	flag.BoolVar(&opts.once, "once", false, "Run a single monitoring pass and exit")
	flag.StringVar(&opts.dump, "dump", "", "Write the recommendations of one advisor run to this JSON file and exit")
	flag.IntVar(&opts.workers, "workers", 0, "Number of concurrent screening workers (overrides WORKERS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := 0
	if err := run(ctx, cfg, log, opts); err != nil {
		log.Error("monitor stopped", zap.Error(err))
		code = 1
	}
	stop()
	_ = log.Sync()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.AppConfig, log *zap.Logger, opts options) error {
	log.Info("configuration loaded",
		zap.String("movie", cfg.MovieNameSlug),
		zap.String("date", cfg.Date),
		zap.Int("horizon_days", cfg.HorizonDays),
		zap.Int("workers", cfg.Workers),
		zap.String("browser", cfg.BrowserEngine),
		zap.String("state_backend", cfg.StateBackend),
	)

	renderer := launchBrowser(cfg, log)
	if renderer != nil {
		defer func() {
			if err := renderer.Close(); err != nil {
				log.Warn("failed to close browser", zap.Error(err))
			}
		}()
	}

	extractor, err := newExtractor(ctx, cfg, renderer, log)
	if err != nil {
		return err
	}

	strategies := []fetcher.Strategy{fetcher.NewAPIStrategy(extractor)}
	var browserDiscovery screenings.Discoverer
	if renderer != nil {
		strategies = append(strategies, fetcher.NewBrowserStrategy(renderer, constant.BrowserFetchAttempts, log.Named("fetcher")))
		browserDiscovery = screenings.NewBrowserDiscovery(renderer, log.Named("discovery"))
	}
	discovery := screenings.NewDiscovery(screenings.NewStaticDiscovery(extractor, log.Named("discovery")), browserDiscovery, log.Named("discovery"))
	seatAdvisor := advisor.New(
		discovery,
		fetcher.New(log.Named("fetcher"), strategies...),
		seatmap.NewParser(log.Named("parser")),
		cfg.Workers,
		log.Named("advisor"),
	)

	if opts.dump != "" {
		return dumpRecommendations(ctx, cfg, seatAdvisor, opts.dump, log)
	}

	state, alerts, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	var fallback notify.FallbackHandler
	if cfg.AMQPURL != "" {
		publisher := &notify.AMQPPublisher{URL: cfg.AMQPURL, Queue: cfg.AMQPQueue}
		fallback = notify.NewQueueFallback(publisher, log.Named("notify")).Handle
	}
	if !cfg.TelegramConfigured() {
		log.Warn("telegram is not configured, alerts go to the fallback")
	}
	notifier := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, log.Named("notify"), notify.WithFallback(fallback))

	sched := scheduler.New(cfg, scheduler.SchedulerConfigFromApp(cfg), scheduler.Deps{
		Advisor:  seatAdvisor,
		Notifier: notifier,
		Renderer: render.NewPNGRenderer(cfg.PreviewDir),
		State:    state,
		Alerts:   alerts,
	}, log.Named("scheduler"))

	if opts.once {
		n, err := sched.RunOnce(ctx)
		if err != nil {
			return err
		}
		log.Info("🏁 monitoring pass done", zap.Int("alerts", n))
		return nil
	}
	sched.RunForever(ctx)
	return nil
}

// launchBrowser returns nil when no engine is configured or it fails to
// start; the pipeline then runs on the HTTP client alone.
func launchBrowser(cfg *config.AppConfig, log *zap.Logger) browser.Renderer {
	renderer, err := browser.Launch(cfg.BrowserEngine, browser.Options{
		Headless:          cfg.BrowserHeadless,
		Locale:            cfg.Lang,
		NavigationTimeout: cfg.NavigationTimeout,
		DiscoveryTimeout:  cfg.DiscoveryNavigationTimeout,
		PollTimeout:       cfg.SeatPollTimeout,
		PollInterval:      constant.SeatPollInterval,
		Logger:            log.Named("browser"),
	})
	if err != nil {
		log.Warn("browser unavailable, continuing without browser fallbacks", zap.Error(err))
		return nil
	}
	return renderer
}

func newExtractor(ctx context.Context, cfg *config.AppConfig, renderer browser.Renderer, log *zap.Logger) (*client.ExtractorClient, error) {
	httpClient, err := client.NewHTTPClient(cfg.HTTPTimeout, cfg.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("error creating http client: %w", err)
	}
	clientOpts := []client.Option{client.WithHTTPClient(httpClient)}

	if cfg.CookieTTL > 0 && renderer != nil {
		cookies, err := header.New(ctx, renderer, cfg.BaseURL, cfg.CookieTTL, log.Named("cookies"))
		if err != nil {
			log.Warn("could not harvest cookies, calling without them", zap.Error(err))
		} else {
			log.Info("🍪 cookies fetched")
			clientOpts = append(clientOpts, client.WithCookieManager(cookies))
		}
	}
	return client.New(clientOpts...), nil
}

func openStores(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (persistence.StateStore, persistence.AlertLog, func(), error) {
	var alerts persistence.AlertLog = persistence.NopAlertLog{}
	if cfg.AlertLogFile != "" {
		alerts = persistence.NewFileAlertLog(cfg.AlertLogFile)
	}

	switch cfg.StateBackend {
	case config.StateBackendRedis:
		rdb, err := persistence.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("using redis state", zap.String("addr", cfg.RedisAddr))
		return persistence.NewRedisState(rdb), alerts, func() { _ = rdb.Close() }, nil

	case config.StateBackendPostgres:
		pool, err := persistence.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := persistence.InitPostgresSchema(ctx, pool, schemaFile); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		log.Info("using postgres state")
		return persistence.NewPostgresState(pool), persistence.NewPostgresAlertLog(pool), pool.Close, nil

	default:
		log.Info("using file state", zap.String("path", cfg.StateFile))
		return persistence.NewFileState(cfg.StateFile), alerts, func() {}, nil
	}
}

func dumpRecommendations(ctx context.Context, cfg *config.AppConfig, seatAdvisor *advisor.Advisor, filename string, log *zap.Logger) error {
	recs, err := seatAdvisor.Recommend(ctx, cfg, advisor.RecommendOptions{
		PartySize:         cfg.PartySize,
		TopN:              cfg.TopN,
		IncludeWheelchair: cfg.IncludeWheelchair,
		Dates:             scheduler.PlanDates(cfg.MovieDate(), cfg.HorizonDays, cfg.AllowedWeekdays),
	})
	if err != nil {
		return err
	}
	if err := utils.WriteResultsToFile(recs, filename); err != nil {
		return err
	}
	log.Info("🏁 results written", zap.String("file", filename), zap.Int("screenings", len(recs)))
	return nil
}
