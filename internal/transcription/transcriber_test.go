package transcription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"video-enrich-go/internal/types"
)

type fakeModel struct {
	text string
	err  error
}

func (m fakeModel) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return m.text, m.err
}

type fakeProvider struct {
	loads   atomic.Int32
	model   Model
	loadErr error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Load(ctx context.Context, size ModelSize) (Model, error) {
	p.loads.Add(1)
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return p.model, nil
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0o644))
	return path
}

func TestParseModelSize(t *testing.T) {
	for _, s := range []string{"tiny", "base", "small", "medium", "large"} {
		size, err := ParseModelSize(s)
		require.NoError(t, err)
		assert.Equal(t, ModelSize(s), size)
	}
	size, err := ParseModelSize("")
	require.NoError(t, err)
	assert.Equal(t, DefaultModelSize, size)

	size, err = ParseModelSize(" Base ")
	require.NoError(t, err)
	assert.Equal(t, Base, size)

	_, err = ParseModelSize("enormous")
	assert.Error(t, err)
}

func TestModelCacheLoadsOncePerSize(t *testing.T) {
	provider := &fakeProvider{model: fakeModel{text: "hi"}}
	cache := NewModelCache(provider)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Acquire(context.Background(), Tiny)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err := cache.Acquire(context.Background(), Base)
	require.NoError(t, err)

	assert.EqualValues(t, 2, provider.loads.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestModelCacheDoesNotCacheFailures(t *testing.T) {
	provider := &fakeProvider{loadErr: errors.New("cuda out of memory")}
	cache := NewModelCache(provider)

	_, err := cache.Acquire(context.Background(), Small)
	require.Error(t, err)
	_, err = cache.Acquire(context.Background(), Small)
	require.Error(t, err)
	assert.EqualValues(t, 2, provider.loads.Load())
	assert.Equal(t, 0, cache.Len())
}

func TestTranscribe(t *testing.T) {
	provider := &fakeProvider{model: fakeModel{text: "  hello world \n"}}
	tr := NewTranscriber(NewModelCache(provider), time.Minute)

	text, err := tr.Transcribe(context.Background(), writeAudio(t), Tiny)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestTranscribeEmptyTextIsNotAnError(t *testing.T) {
	tr := NewTranscriber(NewModelCache(&fakeProvider{model: fakeModel{}}), 0)
	text, err := tr.Transcribe(context.Background(), writeAudio(t), Tiny)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestTranscribeMissingAudio(t *testing.T) {
	provider := &fakeProvider{model: fakeModel{text: "x"}}
	tr := NewTranscriber(NewModelCache(provider), 0)

	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "none.mp3"), Tiny)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.EqualValues(t, 0, provider.loads.Load())
}

func TestTranscribeModelFailure(t *testing.T) {
	tr := NewTranscriber(NewModelCache(&fakeProvider{model: fakeModel{err: errors.New("decoder crashed")}}), 0)

	_, err := tr.Transcribe(context.Background(), writeAudio(t), Base)
	require.Error(t, err)
	var trErr *types.TranscriptionError
	require.True(t, errors.As(err, &trErr))
	assert.Equal(t, "base", trErr.Model)
	assert.ErrorIs(t, err, types.ErrTranscription)
	assert.Contains(t, err.Error(), "decoder crashed")
}

func TestTranscribeUnknownSize(t *testing.T) {
	tr := NewTranscriber(NewModelCache(&fakeProvider{model: fakeModel{}}), 0)
	_, err := tr.Transcribe(context.Background(), writeAudio(t), ModelSize("xl"))
	assert.ErrorIs(t, err, types.ErrTranscription)
}
