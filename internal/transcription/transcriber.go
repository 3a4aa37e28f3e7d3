package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"video-enrich-go/internal/logger"
	"video-enrich-go/internal/types"
)

// Transcriber runs speech-to-text on audio files.
type Transcriber struct {
	cache   *ModelCache
	timeout time.Duration
}

// NewTranscriber creates a transcriber. timeout bounds a single inference;
// zero leaves it bounded only by the caller's context.
func NewTranscriber(cache *ModelCache, timeout time.Duration) *Transcriber {
	return &Transcriber{cache: cache, timeout: timeout}
}

// Transcribe returns the recognised text of audioPath. An empty transcript is
// not an error.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string, size ModelSize) (string, error) {
	if _, err := os.Stat(audioPath); errors.Is(err, os.ErrNotExist) {
		return "", &types.NotFoundError{Path: audioPath}
	} else if err != nil {
		return "", fmt.Errorf("stat audio: %w", err)
	}
	parsed, err := ParseModelSize(string(size))
	if err != nil {
		return "", &types.TranscriptionError{Model: string(size), Err: err}
	}
	size = parsed

	log := logger.Component("transcription").WithField("model", size).WithField("provider", t.cache.Provider())
	log.Info("transcribing audio, this may take a while")

	model, err := t.cache.Acquire(ctx, size)
	if err != nil {
		return "", &types.TranscriptionError{Model: string(size), Err: err}
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := model.Transcribe(ctx, audioPath)
	if err != nil {
		return "", &types.TranscriptionError{Model: string(size), Err: err}
	}
	text = strings.TrimSpace(text)
	log.WithField("duration_ms", time.Since(start).Milliseconds()).
		WithField("chars", len(text)).
		Info("transcription finished")
	return text, nil
}
