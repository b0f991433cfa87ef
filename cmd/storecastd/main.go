// Command storecastd serves the store forecasting HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/storefront-labs/storecast"
	"github.com/storefront-labs/storecast/cache"
	"github.com/storefront-labs/storecast/dailyseries"
	"github.com/storefront-labs/storecast/history"
	"github.com/storefront-labs/storecast/internal/api"
	"github.com/storefront-labs/storecast/internal/config"
	"github.com/storefront-labs/storecast/internal/metrics"
	"github.com/storefront-labs/storecast/weather"
)

const shutdownTimeout = 10 * time.Second

func main() {
	profileFlag := flag.Bool("profile", false, "enable cpu profiling")
	flag.Parse()
	if *profileFlag {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("loading config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	var hist storecast.HistoryProvider
	var store *history.Store
	var dbConfigured bool
	if cfg.DatabaseURL != "" {
		db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connecting to postgres")
		}
		defer db.Close()
		store = history.NewStore(db, &history.Options{
			PageSize:          1000,
			MinAggregatedRows: storecast.MinHistoryDays,
			Logger:            logger,
		})
		hist = store
		dbConfigured = true
	} else {
		logger.Warn().Msg("no database configured, serving simulated history")
		hist = demoHistory{}
	}

	wxOpt := weather.NewDefaultClientOptions()
	wxOpt.APIKey = cfg.WeatherAPIKey
	if cfg.WeatherAPIURL != "" {
		wxOpt.BaseURL = cfg.WeatherAPIURL
	}
	wxOpt.Logger = logger
	wx := weather.NewClient(wxOpt)

	m := metrics.New()
	opt := storecast.NewDefaultOptions()
	opt.Logger = logger
	opt.Cache = &cache.Options{TTL: time.Duration(cfg.CacheTTLHours) * time.Hour}
	opt.Hooks = storecast.Hooks{
		CacheLookup:  m.CacheLookup,
		TrainingDone: m.TrainingDone,
	}
	if store != nil {
		opt.Hooks.PredictionIssued = savePrediction(store, opt.Confidence, logger)
	}
	forecaster, err := storecast.New(hist, wx, opt)
	if err != nil {
		logger.Fatal().Err(err).Msg("building forecaster")
	}

	server := api.NewServer(forecaster, &api.Options{
		APIKey:             cfg.APIKey,
		Logger:             logger,
		Metrics:            m,
		WeatherConfigured:  cfg.WeatherAPIKey != "",
		DatabaseConfigured: dbConfigured,
	})
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Handler(),
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}

// savePrediction persists each freshly issued forecast for later accuracy
// review. Failures are logged, never surfaced to the request.
func savePrediction(store *history.Store, confidence float64, logger zerolog.Logger) func(context.Context, *storecast.Result) {
	return func(ctx context.Context, res *storecast.Result) {
		date, err := time.Parse("2006-01-02", res.PredictionDate)
		if err != nil {
			return
		}
		rec := history.PredictionRecord{
			UserID:       res.UserID,
			TargetDate:   date,
			VisitorCount: res.Visitors.Point,
			SalesAmount:  res.Sales.Point,
			Confidence:   confidence,
			ModelVersion: res.ModelVersion,
		}
		if err := store.SavePrediction(ctx, rec); err != nil {
			logger.Warn().Err(err).
				Str("user_id", res.UserID).
				Str("date", res.PredictionDate).
				Msg("failed to persist prediction")
		}
	}
}

// demoHistory serves a simulated oscillating series so the API stays
// explorable without a database.
type demoHistory struct{}

func (demoHistory) History(_ context.Context, _ string) (*dailyseries.Series, error) {
	const days = 90
	dates := dailyseries.GenerateDates(days, time.Now)
	visitors := dailyseries.GenerateWeeklyWave(days, 100, 25)
	sales := dailyseries.Scale(visitors, 1200)
	return dailyseries.New(dates, visitors, sales)
}
