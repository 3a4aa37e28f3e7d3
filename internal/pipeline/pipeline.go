// Package pipeline sequences audio extraction, transcription, keyword
// extraction and semantic analysis into one enrichment run.
//
// Extraction and transcription failures abort the run. Analysis failures are
// absorbed: the affected fields fall back to caller-supplied or empty values.
// The temporary audio file is removed on every exit path once acquired.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"video-enrich-go/internal/keywords"
	"video-enrich-go/internal/logger"
	"video-enrich-go/internal/transcription"
	"video-enrich-go/internal/types"
)

// AudioExtractor writes the audio of a video to a new file it hands over.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath string) (string, error)
}

// SpeechTranscriber turns an audio file into text.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, audioPath string, size transcription.ModelSize) (string, error)
}

// SemanticAnalyzer rates a transcript. Errors are soft.
type SemanticAnalyzer interface {
	Analyze(ctx context.Context, transcript string, meta types.VideoMetadata, apiKey string) (types.Analysis, error)
}

type Options struct {
	ModelSize    transcription.ModelSize
	KeywordsTopN int
}

type Pipeline struct {
	extractor   AudioExtractor
	transcriber SpeechTranscriber
	analyzer    SemanticAnalyzer
	modelSize   transcription.ModelSize
	topN        int
}

func New(extractor AudioExtractor, transcriber SpeechTranscriber, analyzer SemanticAnalyzer, opts Options) *Pipeline {
	if opts.ModelSize == "" {
		opts.ModelSize = transcription.DefaultModelSize
	}
	if opts.KeywordsTopN <= 0 {
		opts.KeywordsTopN = keywords.DefaultTopN
	}
	return &Pipeline{
		extractor:   extractor,
		transcriber: transcriber,
		analyzer:    analyzer,
		modelSize:   opts.ModelSize,
		topN:        opts.KeywordsTopN,
	}
}

// Report describes one completed run.
type Report struct {
	RunID       string
	VideoPath   string
	Metadata    types.EnrichedMetadata
	Transcript  string
	AnalysisErr *types.AnalysisError
	Duration    time.Duration
}

// Run enriches meta with attributes derived from the video at videoPath.
func (p *Pipeline) Run(ctx context.Context, videoPath string, meta types.VideoMetadata, apiKey string) (types.EnrichedMetadata, error) {
	report, err := p.Execute(ctx, videoPath, meta, apiKey)
	if err != nil {
		return types.EnrichedMetadata{}, err
	}
	return report.Metadata, nil
}

// Execute is Run with the transcript and any absorbed analysis error attached.
func (p *Pipeline) Execute(ctx context.Context, videoPath string, meta types.VideoMetadata, apiKey string) (Report, error) {
	start := time.Now()
	report := Report{RunID: uuid.NewString(), VideoPath: videoPath}
	log := logger.Component("pipeline").WithField("run_id", report.RunID).WithField("video", videoPath)
	log.Info("enrichment started")

	// 1) audio extraction
	audioPath, err := p.extractor.Extract(ctx, videoPath)
	if err != nil {
		log.WithField("error", err.Error()).Warn("audio extraction failed")
		return report, fmt.Errorf("extract audio: %w", err)
	}
	defer release(audioPath, log)

	// 2) transcription
	transcript, err := p.transcriber.Transcribe(ctx, audioPath, p.modelSize)
	if err != nil {
		log.WithField("error", err.Error()).Warn("transcription failed")
		return report, fmt.Errorf("transcribe: %w", err)
	}
	report.Transcript = transcript
	log.WithField("chars", len(transcript)).Debug("transcript ready")

	// 3) keywords
	kw := keywords.Extract(transcript, p.topN)
	log.WithField("keywords", kw).Debug("keywords extracted")

	// 4) semantic analysis (soft)
	analysis, err := p.analyzer.Analyze(ctx, transcript, meta, apiKey)
	if err != nil {
		report.AnalysisErr = asAnalysisError(err)
		log.WithFields(logrus.Fields{
			"error":   report.AnalysisErr.Message,
			"details": snippet(report.AnalysisErr.Details),
		}).Warn("analysis failed, using defaults")
	}

	// 5) merge
	if report.AnalysisErr != nil {
		report.Metadata = Merge(meta, kw, types.Analysis{}, report.AnalysisErr)
	} else {
		report.Metadata = Merge(meta, kw, analysis, nil)
	}
	report.Duration = time.Since(start)
	log.WithField("duration_ms", report.Duration.Milliseconds()).Info("enrichment finished")
	return report, nil
}

// Merge copies meta and overlays the derived fields. When analysisErr is set
// the analysis fields take their defaults: the caller's difficulty, no score,
// no tags and an empty summary.
func Merge(meta types.VideoMetadata, kw []string, analysis types.Analysis, analysisErr error) types.EnrichedMetadata {
	out := types.EnrichedMetadata{
		VideoMetadata:   meta.Clone(),
		DifficultyLevel: meta.Difficulty,
		AdditionalTags:  []string{},
		Keywords:        append([]string{}, kw...),
	}
	if analysisErr != nil {
		return out
	}
	if analysis.DifficultyLevel != "" {
		out.DifficultyLevel = analysis.DifficultyLevel
	}
	out.ComplexityScore = analysis.ComplexityScore.Float()
	if len(analysis.AdditionalTags) > 0 {
		out.AdditionalTags = append([]string{}, analysis.AdditionalTags...)
	}
	out.Summary = analysis.Summary
	return out
}

func asAnalysisError(err error) *types.AnalysisError {
	var aErr *types.AnalysisError
	if errors.As(err, &aErr) {
		return aErr
	}
	return &types.AnalysisError{Message: err.Error()}
}

func release(path string, log *logrus.Entry) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithField("error", err.Error()).WithField("audio", path).Warn("failed to remove temporary audio")
		return
	}
	log.WithField("audio", path).Debug("cleaned up temporary audio")
}

func snippet(s string) string {
	const limit = 200
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
