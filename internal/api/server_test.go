package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"video-enrich-go/internal/pipeline"
	"video-enrich-go/internal/processor"
	"video-enrich-go/internal/store"
	"video-enrich-go/internal/types"
)

type fakePool struct {
	job     processor.Job
	existed bool
	report  pipeline.Report
	err     error
	calls   int
}

func (f *fakePool) Submit(_ context.Context, job processor.Job) (pipeline.Report, error) {
	f.calls++
	f.job = job
	_, statErr := os.Stat(job.VideoPath)
	f.existed = statErr == nil
	if f.err != nil {
		return pipeline.Report{}, f.err
	}
	r := f.report
	r.Metadata.VideoMetadata = job.Metadata
	return r, nil
}

type fakeRepo struct {
	saved   []pipeline.Report
	records map[string]store.Record
}

func (f *fakeRepo) Save(_ context.Context, report pipeline.Report) (string, error) {
	f.saved = append(f.saved, report)
	return "rec-1", nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (store.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return store.Record{}, store.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRepo) List(_ context.Context, limit int) ([]store.Record, error) {
	var out []store.Record
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func uploadRequest(t *testing.T, filename, metadata string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("video", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake video bytes"))
		require.NoError(t, err)
	}
	if metadata != "" {
		require.NoError(t, mw.WriteField("metadata", metadata))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/video/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	srv := New(&fakePool{}, nil, "key", t.TempDir())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

type fakeModels struct{}

func (fakeModels) Provider() string { return "whisper-cli" }
func (fakeModels) Len() int { return 1 }

func TestHealthReportsModels(t *testing.T) {
	srv := New(&fakePool{}, nil, "key", t.TempDir())
	srv.WithModels(fakeModels{})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","provider":"whisper-cli","models_loaded":1}`, rec.Body.String())
}

func TestUploadSuccess(t *testing.T) {
	dir := t.TempDir()
	pool := &fakePool{report: pipeline.Report{RunID: "run", Duration: time.Second}}
	repo := &fakeRepo{}
	srv := New(pool, repo, "key", dir)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, uploadRequest(t, "lesson.MP4", `{"title":"Intro","category":"Math","duration":60,"difficulty":"Beginner","tags":["a"]}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Status string                 `json:"status"`
		ID     string                 `json:"id"`
		Data   types.EnrichedMetadata `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "rec-1", body.ID)
	assert.Equal(t, "Intro", body.Data.Title)

	assert.Equal(t, "key", pool.job.APIKey)
	assert.True(t, pool.existed)
	assert.Len(t, repo.saved, 1)
	_, err := os.Stat(pool.job.VideoPath)
	assert.True(t, os.IsNotExist(err), "upload should be removed after the run")
}

func TestUploadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		metadata string
	}{
		{"no file", "", `{"title":"x"}`},
		{"bad extension", "notes.txt", `{"title":"x"}`},
		{"no metadata", "a.mp4", ""},
		{"invalid metadata", "a.mkv", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &fakePool{}
			srv := New(pool, nil, "key", t.TempDir())
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, uploadRequest(t, tt.filename, tt.metadata))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, pool.calls)
		})
	}
}

func TestUploadMissingAPIKey(t *testing.T) {
	pool := &fakePool{}
	srv := New(pool, nil, "", t.TempDir())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, uploadRequest(t, "a.mov", `{"title":"x"}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, pool.calls)
}

func TestUploadRunFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"extraction", &types.ExtractionError{Source: "a", Output: "no audio", Err: errors.New("exit 1")}, http.StatusInternalServerError},
		{"missing", &types.NotFoundError{Path: "a"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&fakePool{err: tt.err}, nil, "key", t.TempDir())
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, uploadRequest(t, "a.avi", `{"title":"x"}`))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), "enrichment failed")
		})
	}
}

func TestVideosRoutes(t *testing.T) {
	repo := &fakeRepo{records: map[string]store.Record{
		"abc": {ID: "abc", RunID: "run"},
	}}
	srv := New(&fakePool{}, repo, "key", t.TempDir())
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos/abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id": "abc"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos?limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVideosWithoutStore(t *testing.T) {
	srv := New(&fakePool{}, nil, "key", t.TempDir())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
