package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flyscore/flyscore/go/internal/config"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", config.FileName, "path to the configuration file")
	dataRoot := flag.String("data", "", "resources directory, overrides data_root")
	flag.Parse()

	// Load .env file if it exists
	config.LoadDotEnv()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	if *dataRoot != "" {
		cfg.DataRoot = *dataRoot
	}
	if level, err := cfg.Level(); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	services, err := setupServices(cfg, *configPath, clockwork.NewRealClock())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up controller")
	}
	server := setupServer(services)

	log.Info().
		Str("data_root", cfg.DataRoot).
		Int("port", services.Port()).
		Str("host", cfg.Host).
		Msg("starting scoreboard controller")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	services.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or a server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("overlay server failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("overlay server shutdown failed")
	}
	services.Stop(shutdownCtx)
	cancel()

	log.Info().Msg("scoreboard controller shutdown complete")
}
