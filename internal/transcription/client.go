package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"video-enrich-go/internal/logger"
)

const (
	defaultPollInterval    = 1500 * time.Millisecond
	defaultMaxPollInterval = 10 * time.Second
)

var errPending = errors.New("transcription pending")

type PublishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		MediaId           string `json:"MediaId"`
		Status            string `json:"Status"`
		TranscriptionURL  string `json:"TranscriptionURL"`
		TranscriptionText string `json:"TranscriptionText"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type StatusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		Status               string `json:"Status"` // Success, Queued, Processing, Failed
		TranscriptionTextURL string `json:"TranscriptionTextURL"`
		TranscriptionText    string `json:"TranscriptionText"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

// RemoteProvider talks to a publish/poll transcription service:
// POST /transcribe, then GET /getstatus?mediaId=... until done.
type RemoteProvider struct {
	host            string
	httpClient      *http.Client
	pollInterval    time.Duration
	maxPollInterval time.Duration
}

func NewRemoteProvider(host string) *RemoteProvider {
	return &RemoteProvider{
		host:            strings.TrimRight(host, "/"),
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		pollInterval:    defaultPollInterval,
		maxPollInterval: defaultMaxPollInterval,
	}
}

// WithPollInterval overrides the polling schedule (useful for tests).
func (p *RemoteProvider) WithPollInterval(initial, maxInterval time.Duration) {
	p.pollInterval = initial
	p.maxPollInterval = maxInterval
}

func (p *RemoteProvider) Name() string { return "remote" }

// Load returns a handle bound to size; the service owns the weights.
func (p *RemoteProvider) Load(ctx context.Context, size ModelSize) (Model, error) {
	if p.host == "" {
		return nil, errors.New("TRANSCRIBE_URL not set")
	}
	return &remoteModel{provider: p, size: size}, nil
}

type remoteModel struct {
	provider *RemoteProvider
	size     ModelSize
}

func (m *remoteModel) Transcribe(ctx context.Context, audioPath string) (string, error) {
	log := logger.Component("transcription").WithField("provider", "remote").WithField("audio", audioPath)
	p := m.provider

	mediaID, text, textURL, err := p.publish(ctx, audioPath, m.size)
	if err != nil {
		return "", err
	}
	if text != "" || textURL != "" {
		log.Info("transcription already available")
		return p.resolve(ctx, text, textURL)
	}

	text, textURL, err = p.poll(ctx, mediaID, log)
	if err != nil {
		return "", err
	}
	log.WithField("media_id", mediaID).Info("transcription completed")
	return p.resolve(ctx, text, textURL)
}

func (p *RemoteProvider) publish(ctx context.Context, audioPath string, size ModelSize) (string, string, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", "", "", err
	}
	defer f.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", "", "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", "", "", fmt.Errorf("copy audio: %w", err)
	}
	_ = w.WriteField("model", string(size))
	_ = w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/transcribe", &b)
	if err != nil {
		return "", "", "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp PublishResponse
	if err := p.doJSON(req, &resp); err != nil {
		return "", "", "", fmt.Errorf("transcribe publish: %w", err)
	}
	if resp.Code != http.StatusOK {
		return "", "", "", fmt.Errorf("transcribe publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if strings.EqualFold(resp.Data.Status, "success") {
		return "", resp.Data.TranscriptionText, resp.Data.TranscriptionURL, nil
	}
	if resp.Data.MediaId == "" {
		return "", "", "", errors.New("transcribe publish: no media id in response")
	}
	return resp.Data.MediaId, "", "", nil
}

// poll queries the status endpoint on an exponential schedule until the job
// finishes or ctx ends. Failed status polls count as still pending.
func (p *RemoteProvider) poll(ctx context.Context, mediaID string, log *logrus.Entry) (string, string, error) {
	u, err := url.Parse(p.host + "/getstatus")
	if err != nil {
		return "", "", err
	}
	q := u.Query()
	q.Set("mediaId", mediaID)
	u.RawQuery = q.Encode()

	var text, textURL string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		var s StatusResponse
		if err := p.doJSON(req, &s); err != nil {
			log.WithError(err).Warn("polling failed")
			return err
		}
		log.WithFields(logrus.Fields{"media_id": mediaID, "status": s.Data.Status}).Debug("polling transcription")
		switch s.Data.Status {
		case "Success":
			text, textURL = s.Data.TranscriptionText, s.Data.TranscriptionTextURL
			return nil
		case "Failed":
			return backoff.Permanent(fmt.Errorf("transcription failed: %s", s.Reason))
		default:
			return errPending
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.pollInterval
	bo.MaxInterval = p.maxPollInterval
	bo.MaxElapsedTime = 0 // bounded by ctx
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return "", "", err
	}
	return text, textURL, nil
}

func (p *RemoteProvider) resolve(ctx context.Context, text, textURL string) (string, error) {
	if text != "" || textURL == "" {
		return text, nil
	}
	return p.download(ctx, textURL)
}

func (p *RemoteProvider) download(ctx context.Context, textURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, textURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("download failed: %s", string(b))
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *RemoteProvider) doJSON(req *http.Request, target interface{}) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: %s", string(body))
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("json decode error: %v body=%s", err, string(body))
	}
	return nil
}
