// Package analyzer asks a remote text-generation service (Gemini
// generateContent) to rate and summarise a transcript.
//
// Every failure is reported as a *types.AnalysisError carrying the raw
// upstream text; callers decide whether to degrade or abort.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"video-enrich-go/internal/logger"
	"video-enrich-go/internal/types"
)

const (
	DefaultURL     = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	DefaultTimeout = 30 * time.Second
	apiKeyHeader   = "X-Goog-Api-Key"
)

// Analyzer calls the generateContent endpoint once per transcript, no retries.
type Analyzer struct {
	url        string
	httpClient *http.Client
}

func New(url string, timeout time.Duration) *Analyzer {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Analyzer{url: url, httpClient: &http.Client{Timeout: timeout}}
}


type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Analyze sends one prompt built from transcript and meta. A non-nil error is
// always a *types.AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, transcript string, meta types.VideoMetadata, apiKey string) (types.Analysis, error) {
	log := logger.Component("analyzer")

	if strings.TrimSpace(apiKey) == "" {
		return types.Analysis{}, &types.AnalysisError{Message: "analysis api key not configured"}
	}

	payload := generateRequest{Contents: []content{{Parts: []part{{Text: BuildPrompt(transcript, meta)}}}}}
	data, err := json.Marshal(payload)
	if err != nil {
		return types.Analysis{}, &types.AnalysisError{Message: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(data))
	if err != nil {
		return types.Analysis{}, &types.AnalysisError{Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, apiKey)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("analysis request failed")
		return types.Analysis{}, &types.AnalysisError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Analysis{}, &types.AnalysisError{Message: fmt.Sprintf("read response: %v", err)}
	}
	log.WithField("http_status", resp.StatusCode).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("analysis response received")

	if resp.StatusCode != http.StatusOK {
		return types.Analysis{}, &types.AnalysisError{
			Message: fmt.Sprintf("request failed: %d", resp.StatusCode),
			Details: string(body),
		}
	}

	analysis, err := ParseResponse(body)
	if err != nil {
		return types.Analysis{}, &types.AnalysisError{
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Details: string(body),
		}
	}
	return analysis, nil
}

// ParseResponse extracts the generated text from a generateContent envelope
// and decodes it as an Analysis.
func ParseResponse(body []byte) (types.Analysis, error) {
	var envelope generateResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return types.Analysis{}, fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope.Candidates) == 0 {
		return types.Analysis{}, errors.New("no candidates in response")
	}
	parts := envelope.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return types.Analysis{}, errors.New("no content parts in first candidate")
	}
	return ParseGeneratedText(parts[0].Text)
}

// ParseGeneratedText decodes the model's reply, tolerating a Markdown code fence.
func ParseGeneratedText(text string) (types.Analysis, error) {
	var analysis types.Analysis
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &analysis); err != nil {
		return types.Analysis{}, err
	}
	return analysis, nil
}

// StripCodeFence removes a leading ``` line and a trailing ``` fence.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		if idx := strings.Index(trimmed, "\n"); idx >= 0 {
			trimmed = trimmed[idx+1:]
		} else {
			trimmed = ""
		}
		trimmed = strings.TrimSuffix(strings.TrimRight(trimmed, " \t\r\n"), "```")
	}
	return strings.TrimSpace(trimmed)
}
