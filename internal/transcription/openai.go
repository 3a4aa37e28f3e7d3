package transcription

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider uses the hosted Whisper API. The API exposes a single model,
// so every size maps to whisper-1.
type OpenAIProvider struct {
	client *openai.Client
}

func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Load(ctx context.Context, size ModelSize) (Model, error) {
	if p.client == nil {
		return nil, errors.New("openai client not configured")
	}
	return &openAIModel{client: p.client}, nil
}

type openAIModel struct {
	client *openai.Client
}

func (m *openAIModel) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := m.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
