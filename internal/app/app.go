// Package app wires configuration into a ready enrichment service.
package app

import (
	"fmt"

	"video-enrich-go/internal/analyzer"
	"video-enrich-go/internal/config"
	"video-enrich-go/internal/logger"
	"video-enrich-go/internal/media"
	"video-enrich-go/internal/pipeline"
	"video-enrich-go/internal/processor"
	"video-enrich-go/internal/store"
	"video-enrich-go/internal/transcription"
)

type App struct {
	Config   config.Config
	Models   *transcription.ModelCache
	Pipeline *pipeline.Pipeline
	Pool     *processor.Pool
	// Store is nil when persistence is disabled.
	Store *store.Store
}

func Build(cfg config.Config) (*App, error) {
	provider, err := transcription.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	size, err := transcription.ParseModelSize(cfg.Transcription.Model)
	if err != nil {
		return nil, err
	}
	models := transcription.NewModelCache(provider)

	p := pipeline.New(
		media.NewExtractor(cfg.Media.FFmpegBinary, cfg.Media.TempDir, cfg.ExtractionTimeout()),
		transcription.NewTranscriber(models, cfg.TranscriptionTimeout()),
		analyzer.New(cfg.Analysis.URL, cfg.AnalysisTimeout()),
		pipeline.Options{ModelSize: size, KeywordsTopN: cfg.KeywordsTopN},
	)

	a := &App{Config: cfg, Models: models, Pipeline: p}
	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.Store = st
	}
	a.Pool = processor.NewPool(p, cfg.Workers)

	logger.Component("app").
		WithField("provider", provider.Name()).
		WithField("model", size).
		WithField("workers", a.Pool.Workers()).
		WithField("store", cfg.DBPath).
		Info("enrichment service ready")
	return a, nil
}

// Close drains the pool and closes the store.
func (a *App) Close() error {
	a.Pool.Close()
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
