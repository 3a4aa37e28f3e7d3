// Package api exposes the enrichment pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"video-enrich-go/internal/logger"
	"video-enrich-go/internal/pipeline"
	"video-enrich-go/internal/processor"
	"video-enrich-go/internal/store"
	"video-enrich-go/internal/types"
)

const (
	maxUploadBytes = 2 << 30
	memoryBytes    = 32 << 20
	defaultLimit   = 20
)

var allowedExt = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true}

// Submitter runs one job to completion.
type Submitter interface {
	Submit(ctx context.Context, job processor.Job) (pipeline.Report, error)
}

// Repository persists reports.
type Repository interface {
	Save(ctx context.Context, report pipeline.Report) (string, error)
	Get(ctx context.Context, id string) (store.Record, error)
	List(ctx context.Context, limit int) ([]store.Record, error)
}

// ModelInfo reports the transcription backend and how many model sizes are loaded.
type ModelInfo interface {
	Provider() string
	Len() int
}

type Server struct {
	pool    Submitter
	repo    Repository
	models  ModelInfo
	apiKey  string
	tempDir string
}

// New builds a Server. repo may be nil, in which case records are not kept
// and the /api/videos routes answer 404.
func New(pool Submitter, repo Repository, apiKey, tempDir string) *Server {
	return &Server{pool: pool, repo: repo, apiKey: apiKey, tempDir: tempDir}
}

// WithModels makes the health route report the model cache.
func (s *Server) WithModels(models ModelInfo) {
	s.models = models
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/video/upload", s.upload).Methods(http.MethodPost)
	r.HandleFunc("/api/videos", s.listVideos).Methods(http.MethodGet)
	r.HandleFunc("/api/videos/{id}", s.getVideo).Methods(http.MethodGet)
	return r
}

type uploadResponse struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message"`
	ID      string                  `json:"id,omitempty"`
	Data    *types.EnrichedMetadata `json:"data,omitempty"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Provider     string `json:"provider,omitempty"`
	ModelsLoaded *int   `json:"models_loaded,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	logger.New().WithRequest(r).Debug("health check")
	resp := healthResponse{Status: "healthy"}
	if s.models != nil {
		n := s.models.Len()
		resp.Provider = s.models.Provider()
		resp.ModelsLoaded = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "upload")
	reqLog.Info("upload request received")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(memoryBytes); err != nil {
		reqLog.WithField("error", err.Error()).Warn("bad multipart form")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form", Details: err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no video file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExt[ext] {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid file type", Details: header.Filename})
		return
	}

	raw := r.FormValue("metadata")
	if strings.TrimSpace(raw) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no metadata provided"})
		return
	}
	var meta types.VideoMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid metadata", Details: err.Error()})
		return
	}

	if s.apiKey == "" {
		reqLog.Error("analysis api key not configured")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "analysis api key not configured"})
		return
	}

	videoPath, err := s.saveUpload(file, ext)
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("failed to save upload")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save upload"})
		return
	}
	defer os.Remove(videoPath)

	reqLog = reqLog.WithField("video", header.Filename).WithField("title", meta.Title)
	start := time.Now()
	report, err := s.pool.Submit(r.Context(), processor.Job{VideoPath: videoPath, Metadata: meta, APIKey: s.apiKey})
	reqLog = reqLog.WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		reqLog.WithField("error", err.Error()).Warn("enrichment failed")
		writeJSON(w, statusFor(err), errorResponse{Error: "enrichment failed", Details: err.Error()})
		return
	}

	resp := uploadResponse{Status: "success", Message: "video processed", Data: &report.Metadata}
	if report.AnalysisErr != nil {
		resp.Message = "video processed; analysis unavailable"
	}
	if s.repo != nil {
		id, err := s.repo.Save(r.Context(), report)
		if err != nil {
			reqLog.WithField("error", err.Error()).Error("failed to persist enrichment")
		} else {
			resp.ID = id
		}
	}
	reqLog.WithField("id", resp.ID).Info("enrichment finished")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) saveUpload(src io.Reader, ext string) (string, error) {
	path := filepath.Join(s.dir(), uuid.NewString()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *Server) dir() string {
	if s.tempDir != "" {
		return s.tempDir
	}
	return os.TempDir()
}

func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "persistence disabled"})
		return
	}
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit", Details: v})
			return
		}
		limit = n
	}
	records, err := s.repo.List(r.Context(), limit)
	if err != nil {
		logger.New().WithRequest(r).WithField("error", err.Error()).Error("list failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "list failed"})
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getVideo(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "persistence disabled"})
		return
	}
	id := mux.Vars(r)["id"]
	rec, err := s.repo.Get(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Details: id})
	case err != nil:
		logger.New().WithRequest(r).WithField("error", err.Error()).Error("get failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "get failed"})
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

// statusFor maps a run error to an HTTP status. Only a missing input is the
// caller's fault.
func statusFor(err error) int {
	if errors.Is(err, types.ErrNotFound) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Component("api").WithField("error", err.Error()).Error("failed to write response")
	}
}
