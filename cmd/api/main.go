package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/reelay-dev/reelay/docs"
	"github.com/reelay-dev/reelay/internal/cache"
	"github.com/reelay-dev/reelay/internal/enhance"
	"github.com/reelay-dev/reelay/internal/http/handlers"
	httpapi "github.com/reelay-dev/reelay/internal/http/httpapi"
	"github.com/reelay-dev/reelay/internal/infra"
	"github.com/reelay-dev/reelay/internal/infra/geoip"
	"github.com/reelay-dev/reelay/internal/metrics"
	"github.com/reelay-dev/reelay/internal/middleware"
	"github.com/reelay-dev/reelay/internal/videogen"
)

// @title Reelay API
// @version 1.0
// @description Relay service for long-running video generation operations.
// @BasePath /
func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if !cfg.HasVideoCredentials() {
		logger.Warn().Msg("VIDEO_API_KEY is not set, generation requests will be rejected")
	}

	// GeoIP is optional; locale detection degrades to headers without it.
	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
		defer resolver.Close()
	}

	enhancer := buildEnhancer(cfg, logger)

	httpClient := &http.Client{
		Timeout:   cfg.Video.RequestTimeout,
		Transport: metrics.InstrumentTransport(http.DefaultTransport),
	}
	videos, err := videogen.NewClient(videogen.Options{
		APIKey:     cfg.Video.APIKey,
		BaseURL:    cfg.Video.BaseURL,
		Model:      cfg.Video.Model,
		HTTPClient: httpClient,
		Logger:     &logger,
		Polling: videogen.PollingPolicy{
			Interval: cfg.Video.PollInterval,
			MaxWait:  cfg.Video.MaxWait,
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build video client")
	}

	app := handlers.NewApp(videos, enhancer, logger)

	if cfg.CacheEnable {
		results := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := results.Ping(pingCtx); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, results will not be cached until it recovers")
		}
		cancel()
		app.SetCache(results)
		defer results.Close()
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("result cache enabled")
	}

	router := httpapi.NewRouter(app, cfg, logger, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildEnhancer(cfg *infra.Config, logger infra.Logger) enhance.Enhancer {
	fallback := enhance.NewStaticEnhancer()
	onFallback := func(reason string, err error) {
		logger.Warn().Err(err).Str("reason", reason).Msg("prompt enhancer fell back to static")
	}
	switch cfg.Enhancer.Provider {
	case "anthropic":
		e, err := enhance.NewAnthropicEnhancer(enhance.AnthropicOptions{
			APIKey:     cfg.Enhancer.AnthropicAPIKey,
			Model:      cfg.Enhancer.AnthropicModel,
			Fallback:   fallback,
			OnFallback: onFallback,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("anthropic enhancer unavailable, using static")
			return fallback
		}
		return e
	case "openai":
		e, err := enhance.NewOpenAIEnhancer(enhance.OpenAIOptions{
			APIKey:     cfg.Enhancer.OpenAIAPIKey,
			Model:      cfg.Enhancer.OpenAIModel,
			BaseURL:    cfg.Enhancer.OpenAIBaseURL,
			Fallback:   fallback,
			OnFallback: onFallback,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("openai enhancer unavailable, using static")
			return fallback
		}
		return e
	default:
		return fallback
	}
}
