package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-enrich-go/internal/api"
	"video-enrich-go/internal/app"
	"video-enrich-go/internal/config"
	"video-enrich-go/internal/logger"
)

func main() {
	log := logger.New()
	log.WithField("service", "video-enrich-go").Info("starting service")

	cfg, err := config.Load("")
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if cfg.Analysis.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set; uploads will be rejected")
	}

	a, err := app.Build(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build service")
	}

	srv := api.New(a.Pool, repository(a), cfg.Analysis.APIKey, cfg.Media.TempDir)
	srv.WithModels(a.Models)
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 45 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown incomplete")
		}
	}()

	log.WithField("addr", addr).Info("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	if err := a.Close(); err != nil {
		log.WithError(err).Warn("close failed")
	}
}

// repository avoids handing the server a typed-nil store.
func repository(a *app.App) api.Repository {
	if a.Store == nil {
		return nil
	}
	return a.Store
}
