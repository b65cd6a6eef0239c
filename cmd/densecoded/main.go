// densecoded serves comparison sessions over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qubitlab/densecode"
	"github.com/qubitlab/densecode/config"
	"github.com/qubitlab/densecode/logger"
	"github.com/qubitlab/densecode/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New(logger.Config{})
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting densecoded")

	mgr := web.NewManager(densecode.SessionOpts{
		Shots: cfg.Shots,
		Runs:  cfg.Runs,
	})

	srv := web.New(web.Config{
		Port:    cfg.Port,
		Log:     log,
		Manager: mgr,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
