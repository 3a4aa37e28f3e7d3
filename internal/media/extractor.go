// Package media pulls the audio track out of uploaded video containers.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"video-enrich-go/internal/logger"
	"video-enrich-go/internal/types"
)

const (
	DefaultFFmpegBinary = "ffmpeg"
	// AudioExt is the extension of extracted audio files.
	AudioExt = ".mp3"
	// TempPrefix prefixes every extracted audio file name.
	TempPrefix = "enrich-audio-"
)

// CommandRunner executes an external process and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Extractor runs ffmpeg to write the best audio stream of a video to a
// uniquely named temporary file.
type Extractor struct {
	ffmpegBinary string
	tempDir      string
	timeout      time.Duration
	runner       CommandRunner
}

// NewExtractor creates an extractor. A zero timeout leaves the process bounded
// only by the caller's context.
func NewExtractor(ffmpegBinary, tempDir string, timeout time.Duration) *Extractor {
	if ffmpegBinary == "" {
		ffmpegBinary = DefaultFFmpegBinary
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Extractor{
		ffmpegBinary: ffmpegBinary,
		tempDir:      tempDir,
		timeout:      timeout,
		runner:       runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		e.runner = runner
	}
}

// Extract writes the audio of videoPath to a new temporary file and returns
// its path. The caller owns the file and must remove it.
func (e *Extractor) Extract(ctx context.Context, videoPath string) (string, error) {
	info, err := os.Stat(videoPath)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", &types.NotFoundError{Path: videoPath}
	}
	if err != nil {
		return "", fmt.Errorf("stat video: %w", err)
	}

	dest := filepath.Join(e.tempDir, TempPrefix+uuid.NewString()+AudioExt)
	log := logger.Component("media").WithField("video", videoPath).WithField("audio", dest)
	log.Info("extracting audio")

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	output, err := e.runner(ctx, e.ffmpegBinary, BuildExtractArgs(videoPath, dest)...)
	if err != nil {
		// ffmpeg may leave a truncated file behind
		_ = os.Remove(dest)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return "", &types.ExtractionError{Source: videoPath, Output: string(output), Err: err}
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("audio extraction successful")
	return dest, nil
}

// BuildExtractArgs returns the ffmpeg arguments for extracting the default
// (best) audio stream of source into dest at the highest VBR quality.
func BuildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-q:a", "0",
		dest,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
