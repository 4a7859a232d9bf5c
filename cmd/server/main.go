// Package main is the entry point for the etf-lens HTTP server.
// In Go, the `main` package with a `main()` function is what gets executed,
// and `go build` turns it into a single static binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/app"
	"github.com/fleveque/etf-lens/internal/config"
	"github.com/fleveque/etf-lens/internal/logging"
	"github.com/fleveque/etf-lens/internal/server"
)

func main() {
	// run() keeps deferred cleanup working: deferred functions don't run
	// when os.Exit is called directly.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("ETF_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	// defer runs when run() returns, like Ruby's ensure or a finally block.
	// Sync commonly fails on stdout/stderr; nothing to do about it.
	defer func() { _ = logger.Sync() }()

	services, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	srv := server.New(cfg, server.Deps{
		Analyzer:    services.Analysis,
		Visuals:     services.Visuals,
		Chat:        services.Chat,
		LLMCallRepo: services.LLMCallRepo,
	}, logger)

	// Graceful shutdown: wait for SIGINT (Ctrl+C) or SIGTERM (docker stop).
	// Channels are how goroutines talk to each other; select blocks until
	// one of them delivers.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// In-flight model calls get 10 seconds; a cancelled call records a failure.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
