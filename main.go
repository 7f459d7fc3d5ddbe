package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"portfolio/agent"
	"portfolio/blocks"
	"portfolio/bootstrap"
	"portfolio/config"
	"portfolio/handlers"
	"portfolio/logger"
	"portfolio/metrics"
	"portfolio/middleware"
	"portfolio/narrative"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath("config.yml"), "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cache, res, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			log.Warn("Failed to close connections", logger.Error(err))
		}
	}()

	var gen handlers.Generator
	basePrompt := ""
	if settings, err := store.Settings(ctx); err == nil {
		basePrompt = settings.BasePrompt
	}
	summarizer, err := agent.New(ctx, agent.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		BasePrompt:  basePrompt,
		Temperature: cfg.Gemini.Temperature,
	}, log.With(logger.String("component", "agent")))
	switch {
	case errors.Is(err, agent.ErrNoAPIKey):
		log.Warn("GEMINI_API_KEY not set, project overviews are disabled")
	case err != nil:
		return err
	default:
		gen = summarizer
	}

	if cfg.Logging.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.Server.AllowedOrigins),
	)

	handlers.Register(router, handlers.Deps{
		Store:           store,
		Blocks:          blocks.Default(),
		Generator:       gen,
		Cache:           cache,
		Metrics:         metrics.New(prometheus.DefaultRegisterer),
		Gatherer:        prometheus.DefaultGatherer,
		Log:             log,
		GenerateTimeout: cfg.Narrative.GenerateTimeout,
		Timing:          narrative.DefaultRevealTiming,
		Checks:          res.Checks,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server running", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
