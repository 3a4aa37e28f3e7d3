package transcription

import (
	"fmt"

	"video-enrich-go/internal/config"
)

// NewProvider builds the provider selected in cfg.
func NewProvider(cfg config.Config) (ModelProvider, error) {
	switch cfg.Transcription.Provider {
	case config.ProviderCLI, "":
		return NewCLIProvider(cfg.Transcription.WhisperBinary, cfg.Media.TempDir), nil
	case config.ProviderRemote:
		return NewRemoteProvider(cfg.Transcription.RemoteURL), nil
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.Transcription.OpenAIAPIKey, ""), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Transcription.Provider)
	}
}
