package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"video-enrich-go/internal/types"
)

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lecture.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0o644))
	return path
}

func TestExtractWritesUniqueTempFile(t *testing.T) {
	tempDir := t.TempDir()
	video := writeVideo(t)
	var gotName string
	var gotArgs []string

	ex := NewExtractor("ffmpeg-test", tempDir, time.Minute)
	ex.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil, os.WriteFile(args[len(args)-1], []byte("audio"), 0o644)
	})

	first, err := ex.Extract(context.Background(), video)
	require.NoError(t, err)
	second, err := ex.Extract(context.Background(), video)
	require.NoError(t, err)

	assert.Equal(t, "ffmpeg-test", gotName)
	assert.Equal(t, tempDir, filepath.Dir(first))
	assert.True(t, strings.HasPrefix(filepath.Base(first), TempPrefix))
	assert.Equal(t, AudioExt, filepath.Ext(first))
	assert.NotEqual(t, first, second)
	assert.FileExists(t, first)
	assert.Contains(t, gotArgs, video)
	assert.Contains(t, gotArgs, "-vn")
}

func TestExtractMissingVideo(t *testing.T) {
	called := false
	ex := NewExtractor("", t.TempDir(), 0)
	ex.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		called = true
		return nil, nil
	})

	_, err := ex.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
	var nf *types.NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.False(t, called, "ffmpeg must not run for a missing input")
}

func TestExtractFailureCarriesDiagnostics(t *testing.T) {
	tempDir := t.TempDir()
	ex := NewExtractor("", tempDir, 0)
	ex.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return []byte("Output file #0 does not contain any stream\n"), errors.New("exit status 1")
	})

	_, err := ex.Extract(context.Background(), writeVideo(t))
	require.Error(t, err)
	var exErr *types.ExtractionError
	require.True(t, errors.As(err, &exErr))
	assert.Contains(t, exErr.Output, "does not contain any stream")
	assert.ErrorIs(t, err, types.ErrExtraction)

	entries, readErr := os.ReadDir(tempDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "partial audio must be removed")
}

func TestBuildExtractArgs(t *testing.T) {
	args := BuildExtractArgs("in.mkv", "out.mp3")
	assert.Equal(t, "out.mp3", args[len(args)-1])
	assert.Equal(t, []string{"-i", "in.mkv"}, args[4:6])
}
