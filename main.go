package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raine/wardrobe-editorial/config"
	"github.com/raine/wardrobe-editorial/internal/llm"
	"github.com/raine/wardrobe-editorial/internal/metrics"
	"github.com/raine/wardrobe-editorial/internal/pipeline"
	"github.com/raine/wardrobe-editorial/internal/server"
	"github.com/raine/wardrobe-editorial/internal/wardrobe"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	logFileName     = "wardrobe-editorial.log"
	shutdownTimeout = 15 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DefaultContextLogger = &log.Logger

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		fatal("invalid config: %v", err)
	}

	closeLog := setupLogging(cfg.LogFile)
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	generator, err := llm.NewGeminiGenerator(ctx, llm.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		fatal("failed to initialize gemini generator: %v", err)
	}
	log.Info().Str("model", generator.Model()).Msg("gemini generator initialized")

	reg := metrics.NewRegistry()
	svc := pipeline.New(generator,
		pipeline.WithGate(wardrobe.Gate{MinItems: cfg.MinItems, MinRawChars: cfg.MinRawChars}),
		pipeline.WithRetryDelay(cfg.RetryDelay),
		pipeline.WithMetrics(reg),
	)

	srv := server.New(server.Config{
		Address:        cfg.Address,
		APIKeys:        cfg.APIKeys,
		RatePerMinute:  cfg.RatePerMinute,
		TrustProxy:     cfg.TrustProxy,
		RequestTimeout: cfg.RequestTimeout,
	}, svc, reg)

	if len(cfg.APIKeys) == 0 {
		log.Warn().Msg("API_KEYS is empty, authorization is disabled")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("address", cfg.Address).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

// setupLogging writes to stderr, mirrored to a plain-text file unless
// running under systemd.
func setupLogging(path string) func() {
	// JOURNAL_STREAM is set by systemd when running as a service; journald
	// keeps the logs there.
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return func() {}
	}

	if path == "" {
		path = logFileName
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fatal("failed to open log file: %v", err)
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))

	log.Info().Str("logFile", path).Msg("logging to file")
	return func() { logFile.Close() }
}

func fatal(format string, args ...any) {
	log.Error().Msgf(format, args...)
	os.Exit(1)
}
