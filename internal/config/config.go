// Package config loads service settings from an optional TOML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	ProviderCLI    = "cli"
	ProviderRemote = "remote"
	ProviderOpenAI = "openai"
)

var modelSizes = []string{"tiny", "base", "small", "medium", "large"}

// Analysis holds the text-generation service settings.
type Analysis struct {
	APIKey         string `toml:"api_key"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription holds speech-to-text settings.
type Transcription struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	WhisperBinary  string `toml:"whisper_binary"`
	RemoteURL      string `toml:"remote_url"`
	OpenAIAPIKey   string `toml:"openai_api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Media holds audio extraction settings.
type Media struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	TempDir        string `toml:"temp_dir"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Config is the full runtime configuration.
type Config struct {
	Port          string        `toml:"port"`
	Workers       int           `toml:"workers"`
	KeywordsTopN  int           `toml:"keywords_top_n"`
	DBPath        string        `toml:"db_path"`
	Analysis      Analysis      `toml:"analysis"`
	Transcription Transcription `toml:"transcription"`
	Media         Media         `toml:"media"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:         "8080",
		Workers:      3,
		KeywordsTopN: 10,
		DBPath:       "enrichments.db",
		Analysis: Analysis{
			URL:            "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
			TimeoutSeconds: 30,
		},
		Transcription: Transcription{
			Provider:       ProviderCLI,
			Model:          "tiny",
			WhisperBinary:  "whisper",
			TimeoutSeconds: 1800,
		},
		Media: Media{
			FFmpegBinary:   "ffmpeg",
			TimeoutSeconds: 600,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// ENRICH_CONFIG is consulted; a missing file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // loads .env

	cfg := Default()
	if path == "" {
		path = os.Getenv("ENRICH_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var err error
	num := func(key string, dst *int) {
		v := strings.TrimSpace(getenv(key))
		if v == "" || err != nil {
			return
		}
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			err = fmt.Errorf("%s: invalid integer %q", key, v)
			return
		}
		*dst = n
	}

	str("PORT", &c.Port)
	num("WORKERS", &c.Workers)
	num("KEYWORDS_TOP_N", &c.KeywordsTopN)
	str("DB_PATH", &c.DBPath)
	if strings.EqualFold(c.DBPath, "off") {
		c.DBPath = ""
	}
	str("GEMINI_API_KEY", &c.Analysis.APIKey)
	str("GEMINI_URL", &c.Analysis.URL)
	num("GEMINI_TIMEOUT_SEC", &c.Analysis.TimeoutSeconds)
	str("TRANSCRIBE_PROVIDER", &c.Transcription.Provider)
	str("WHISPER_MODEL", &c.Transcription.Model)
	str("WHISPER_BIN", &c.Transcription.WhisperBinary)
	str("TRANSCRIBE_URL", &c.Transcription.RemoteURL)
	str("OPENAI_API_KEY", &c.Transcription.OpenAIAPIKey)
	num("TRANSCRIBE_TIMEOUT_SEC", &c.Transcription.TimeoutSeconds)
	str("FFMPEG_BIN", &c.Media.FFmpegBinary)
	str("TEMP_DIR", &c.Media.TempDir)
	num("EXTRACT_TIMEOUT_SEC", &c.Media.TimeoutSeconds)
	return err
}

func (c *Config) normalize() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	c.Transcription.Model = strings.ToLower(strings.TrimSpace(c.Transcription.Model))
	c.Analysis.URL = strings.TrimSpace(c.Analysis.URL)
	c.Transcription.RemoteURL = strings.TrimRight(strings.TrimSpace(c.Transcription.RemoteURL), "/")
	if c.Media.TempDir == "" {
		c.Media.TempDir = os.TempDir()
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.KeywordsTopN < 1 {
		return fmt.Errorf("keywords_top_n must be at least 1, got %d", c.KeywordsTopN)
	}
	if !validModel(c.Transcription.Model) {
		return fmt.Errorf("unknown whisper model %q (want one of %s)", c.Transcription.Model, strings.Join(modelSizes, ", "))
	}
	switch c.Transcription.Provider {
	case ProviderCLI:
	case ProviderRemote:
		if c.Transcription.RemoteURL == "" {
			return errors.New("transcription provider remote requires TRANSCRIBE_URL")
		}
	case ProviderOpenAI:
		if c.Transcription.OpenAIAPIKey == "" {
			return errors.New("transcription provider openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown transcription provider %q", c.Transcription.Provider)
	}
	if c.Analysis.TimeoutSeconds <= 0 || c.Transcription.TimeoutSeconds <= 0 || c.Media.TimeoutSeconds <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

func validModel(m string) bool {
	for _, s := range modelSizes {
		if s == m {
			return true
		}
	}
	return false
}

func (c Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}

func (c Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.Transcription.TimeoutSeconds) * time.Second
}

func (c Config) ExtractionTimeout() time.Duration {
	return time.Duration(c.Media.TimeoutSeconds) * time.Second
}
