package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/clambin/gerald/internal/config"
	"github.com/clambin/gerald/internal/gerald"
	"github.com/clambin/gerald/internal/papers"
	"github.com/clambin/gerald/internal/quotes"
	"github.com/clambin/gerald/internal/roster"
	"github.com/clambin/gerald/internal/rotation"
	"github.com/clambin/gerald/internal/schedule"
	"github.com/clambin/gerald/internal/slackapp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"net/http"
	"runtime"
	"time"
)

// app holds everything gerald runs: the bot, the scheduler for the daily jobs and the metrics server.
type app struct {
	bot       *slackapp.Bot
	scheduler *schedule.Scheduler
	metrics   *http.Server
	logger    *slog.Logger
}

func newApp(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	var days [3]time.Weekday
	for i, name := range []string{cfg.Schedule.Whinetime, cfg.Schedule.Quote, cfg.Schedule.Papers} {
		if days[i], err = config.ParseWeekday(name); err != nil {
			return nil, err
		}
	}

	client := slack.New(cfg.Slack.BotToken, slack.OptionAppLevelToken(cfg.Slack.AppToken))
	g := gerald.New(client,
		gerald.Configuration{
			Channels: gerald.Channels{
				Announce:  cfg.Channels.Announce,
				Whinetime: cfg.Channels.Whinetime,
				Quotes:    cfg.Channels.Quotes,
				Papers:    cfg.Channels.Papers,
			},
			Location:         loc,
			BirthdayGIFURL:   cfg.Birthday.GIFURL,
			BirthdayGIFCount: cfg.Birthday.GIFCount,
			WhinetimeDay:     days[0],
			QuoteDay:         days[1],
			PapersDay:        days[2],
		},
		gerald.Stores{
			Rotation: rotation.New(cfg.Data.Rotation, nil),
			Quotes:   quotes.New(cfg.Data.Quotes, nil),
			Roster:   roster.New(cfg.Data.Roster),
			Feed:     newFeed(cfg, logger),
		},
		gerald.WithLogger(logger.With("component", "gerald")),
	)

	metrics, err := slackapp.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gerald_build_info",
		Help: "Gerald version info.",
	}, []string{"version", "goversion"})
	if err = reg.Register(buildInfo); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	buildInfo.WithLabelValues(version, runtime.Version()).Set(1)

	bot := slackapp.NewBot(client, append(g.BotOptions(),
		slackapp.WithLogger(logger.With("component", "bot")),
		slackapp.WithMetrics(metrics),
	)...)

	scheduler := schedule.New(loc, logger.With("component", "scheduler"))
	if err = scheduler.Add(cfg.Schedule.Morning, "morning", func(ctx context.Context) { g.Morning(ctx, time.Now()) }); err != nil {
		return nil, err
	}

	a := app{bot: bot, scheduler: scheduler, logger: logger}
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		gatherer := prometheus.DefaultGatherer
		if r, ok := reg.(prometheus.Gatherer); ok {
			gatherer = r
		}
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		a.metrics = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}
	return &a, nil
}

// newFeed returns the NASA/ADS client if a token is configured, and the arXiv client otherwise.
func newFeed(cfg config.Config, logger *slog.Logger) papers.Feed {
	if cfg.ADS.Token != "" {
		ads := papers.NewADS(cfg.ADS.Token, cfg.ADS.Rate)
		ads.URL = cfg.ADS.URL
		logger.Debug("using NASA/ADS for papers", "url", ads.URL)
		return ads
	}
	arxiv := papers.NewArxiv()
	arxiv.URL = cfg.Arxiv.URL
	logger.Debug("no ADS token. using arXiv for papers", "url", arxiv.URL)
	return arxiv
}

// Run runs the bot, the scheduler and the metrics server until ctx is cancelled, or one of them fails.
func (a *app) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return a.bot.Run(ctx) })
	eg.Go(func() error { return a.scheduler.Run(ctx) })
	if a.metrics != nil {
		eg.Go(func() error {
			a.logger.Info("metrics server listening", "addr", a.metrics.Addr)
			if err := a.metrics.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.metrics.Shutdown(ctx)
		})
	}
	return eg.Wait()
}
