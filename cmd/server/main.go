// Package main is the entry point for the offer aggregation service.
//
//	@title						Offer Aggregation API
//	@version					1.0.0
//	@description				Searches several flight offer providers, merges and prices their offers, and returns one ranked list.
//
//	@contact.name				API Support
//	@contact.url				https://github.com/flight-search/offer-aggregation-engine/issues
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@schemes					http https
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	// Import generated docs for swagger
	_ "github.com/flight-search/offer-aggregation-engine/docs"

	"github.com/flight-search/offer-aggregation-engine/internal/adapter/commission"
	offerhttp "github.com/flight-search/offer-aggregation-engine/internal/adapter/http"
	"github.com/flight-search/offer-aggregation-engine/internal/adapter/http/middleware"
	"github.com/flight-search/offer-aggregation-engine/internal/adapter/provider"
	"github.com/flight-search/offer-aggregation-engine/internal/adapter/provider/amadeus"
	"github.com/flight-search/offer-aggregation-engine/internal/adapter/provider/duffel"
	"github.com/flight-search/offer-aggregation-engine/internal/config"
	"github.com/flight-search/offer-aggregation-engine/internal/domain"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/cache"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/database"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/logger"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/metrics"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/ratelimit"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/retry"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/timeutil"
	"github.com/flight-search/offer-aggregation-engine/internal/infrastructure/tracing"
	"github.com/flight-search/offer-aggregation-engine/internal/usecase"
)

const startupTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	log := logger.New(logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.IsDevelopment(),
		ServiceName:  cfg.Tracing.ServiceName,
	}).Logger

	log.Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.Server.Port).
		Msg("Configuration loaded")

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	shutdownTracing, err := tracing.Init(startCtx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise tracing")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	clock := timeutil.NewRealClock()

	store, cacheName := setupStore(startCtx, cfg, clock, log)
	defer store.Close()

	rates, db := setupCommission(startCtx, cfg, log)
	if db != nil {
		defer db.Close()
	}

	providers := setupProviders(cfg, recorder, log)
	if len(providers) == 0 {
		log.Warn().Msg("No offer providers configured; every search will fail")
	}
	providerNames := make([]string, len(providers))
	for i, p := range providers {
		providerNames[i] = p.Name()
	}

	ucConfig := useCaseConfig(cfg)
	offerUseCase := usecase.NewOfferSearchUseCase(usecase.Dependencies{
		Providers: providers,
		Store:     store,
		Rates:     rates,
		Calendar:  timeutil.NewCalendar(clock, cfg.App.MarketTimeZone),
		Recorder:  recorder,
		Logger:    log,
	}, &ucConfig)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	middleware.Setup(e, log)

	handler := offerhttp.NewOfferHandler(offerUseCase,
		offerhttp.WithHealthInfo(providerNames, cacheName),
		offerhttp.WithLogger(log),
	)
	offerhttp.RegisterRoutes(e, handler)
	offerhttp.RegisterSwagger(e)
	if cfg.Metrics.Enabled {
		offerhttp.RegisterMetrics(e, cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		log.Info().Str("address", addr).Strs("providers", providerNames).Str("cache", cacheName).Msg("Starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	gracefulShutdown(e, cfg.Server.ShutdownTimeout, log)
	tracing.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

// setupStore connects to Redis when configured and falls back to the in-process store.
func setupStore(ctx context.Context, cfg *config.Config, clock timeutil.Clock, log zerolog.Logger) (cache.Store, string) {
	if cfg.Redis.URL == "" {
		return cache.NewMemoryStore(clock), "memory"
	}

	store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		if cfg.IsProduction() {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Warn().Err(err).Msg("Redis unavailable; using in-process cache")
		return cache.NewMemoryStore(clock), "memory"
	}
	return store, "redis"
}

// setupCommission picks the commission table: Postgres, then the YAML file, then an empty table.
func setupCommission(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.CommissionRateSource, *sql.DB) {
	if cfg.Postgres.URL != "" {
		db, err := database.Open(ctx, database.Config{
			URL:             cfg.Postgres.URL,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err == nil {
			log.Info().Msg("Commission rates served from Postgres")
			return commission.NewPostgresSource(db), db
		}
		log.Warn().Err(err).Msg("Postgres unavailable; falling back to commission file")
	}

	if cfg.Commission.File != "" {
		source, err := commission.LoadFile(cfg.Commission.File)
		if err == nil {
			log.Info().Str("file", cfg.Commission.File).Int("rates", source.Len()).Msg("Commission rates loaded")
			return source, nil
		}
		log.Warn().Err(err).Str("file", cfg.Commission.File).Msg("Failed to load commission file")
	}

	return commission.NewStaticSource(nil), nil
}

// setupProviders builds every enabled provider behind rate limiting, retries and metrics.
func setupProviders(cfg *config.Config, recorder *metrics.Recorder, log zerolog.Logger) []domain.OfferProvider {
	limiter := ratelimit.NewProviderLimiter(ratelimit.Limit{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})
	retryCfg := retry.ProviderConfig.WithMaxAttempts(cfg.RateLimit.RetryAttempts)

	guard := func(p domain.OfferProvider) domain.OfferProvider {
		return provider.Guard(p,
			provider.WithLimiter(limiter),
			provider.WithRetry(retryCfg),
			provider.WithRecorder(recorder),
			provider.WithLogger(log),
		)
	}

	var providers []domain.OfferProvider
	if cfg.Amadeus.Enabled {
		if cfg.Amadeus.Configured() {
			providers = append(providers, guard(amadeus.NewAdapter(amadeus.Config{
				BaseURL:      cfg.Amadeus.BaseURL,
				ClientID:     cfg.Amadeus.ClientID,
				ClientSecret: cfg.Amadeus.ClientSecret,
				Timeout:      cfg.Amadeus.Timeout,
				MockPath:     cfg.Amadeus.MockPath,
			}, log)))
		} else {
			log.Warn().Str("provider", "amadeus").Msg("Provider enabled without credentials; skipping")
		}
	}
	if cfg.Duffel.Enabled {
		if cfg.Duffel.Configured() {
			providers = append(providers, guard(duffel.NewAdapter(duffel.Config{
				BaseURL:     cfg.Duffel.BaseURL,
				AccessToken: cfg.Duffel.AccessToken,
				Timeout:     cfg.Duffel.Timeout,
				MockPath:    cfg.Duffel.MockPath,
			}, log)))
		} else {
			log.Warn().Str("provider", "duffel").Msg("Provider enabled without credentials; skipping")
		}
	}
	return providers
}

// useCaseConfig maps the environment configuration onto the pipeline settings.
func useCaseConfig(cfg *config.Config) usecase.Config {
	uc := usecase.DefaultConfig()
	uc.GlobalTimeout = cfg.Timeouts.GlobalSearch
	uc.ProviderTimeout = cfg.Timeouts.PerProvider
	uc.MaxSubSearches = cfg.App.MaxSubSearches
	uc.FarFutureDays = cfg.App.FarFutureDays
	uc.MinConnection = cfg.App.MinConnection
	uc.OneWayTTL = cfg.Cache.OneWayTTL

	uc.Markup = usecase.MarkupPolicy{
		MinFee: cfg.Markup.MinFee,
		Rate:   cfg.Markup.Rate,
		Cap:    cfg.Markup.Cap,
	}

	uc.Routing.BatchSize = cfg.Routing.BatchSize
	uc.Routing.Concurrency = cfg.Routing.Concurrency
	uc.Routing.OfferTimeout = cfg.Routing.OfferTimeout
	uc.Routing.HighFareThreshold = cfg.Routing.HighFareThreshold
	uc.Routing.GroupSize = cfg.Routing.GroupSize
	uc.Routing.DefaultCommissionPercent = cfg.Commission.DefaultPercent

	uc.Combiner.AutoEnabled = cfg.Combiner.AutoEnabled
	uc.Combiner.MinSavingsAmount = cfg.Combiner.MinSavingsAmount
	uc.Combiner.MinSavingsPercent = cfg.Combiner.MinSavingsPercent
	uc.Combiner.CandidatesPerLeg = cfg.Combiner.CandidatesPerLeg
	uc.Combiner.MaxCombinations = cfg.Combiner.MaxCombinations
	uc.Combiner.MinConnection = cfg.App.MinConnection
	uc.Combiner.Cabins = make([]domain.CabinClass, len(cfg.Combiner.Cabins))
	for i, c := range cfg.Combiner.Cabins {
		uc.Combiner.Cabins[i] = domain.CabinClass(c)
	}

	uc.TTL.Base = cfg.Cache.BaseTTL
	uc.TTL.Min = cfg.Cache.MinTTL
	uc.TTL.Max = cfg.Cache.MaxTTL
	return uc
}

// gracefulShutdown handles graceful server shutdown on interrupt signals.
func gracefulShutdown(e *echo.Echo, timeout time.Duration, log zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
