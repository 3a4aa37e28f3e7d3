package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	cfg.normalize()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "tiny", cfg.Transcription.Model)
	assert.Equal(t, 30, cfg.Analysis.TimeoutSeconds)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"WORKERS":             "5",
		"GEMINI_API_KEY":      " secret ",
		"TRANSCRIBE_PROVIDER": "remote",
		"TRANSCRIBE_URL":      "http://asr.local/",
		"DB_PATH":             "off",
	}))
	require.NoError(t, err)
	cfg.normalize()

	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "secret", cfg.Analysis.APIKey)
	assert.Equal(t, ProviderRemote, cfg.Transcription.Provider)
	assert.Equal(t, "http://asr.local", cfg.Transcription.RemoteURL)
	assert.Empty(t, cfg.DBPath)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnvRejectsBadInteger(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{"WORKERS": "many"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKERS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"unknown model", func(c *Config) { c.Transcription.Model = "huge" }},
		{"unknown provider", func(c *Config) { c.Transcription.Provider = "carrier-pigeon" }},
		{"remote without url", func(c *Config) { c.Transcription.Provider = ProviderRemote }},
		{"openai without key", func(c *Config) { c.Transcription.Provider = ProviderOpenAI }},
		{"zero timeout", func(c *Config) { c.Analysis.TimeoutSeconds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enrich.toml")
	content := `
workers = 2
keywords_top_n = 5

[transcription]
model = "base"

[media]
ffmpeg_binary = "/opt/ffmpeg/bin/ffmpeg"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("WORKERS", "")
	t.Setenv("WHISPER_MODEL", "")
	t.Setenv("FFMPEG_BIN", "")
	t.Setenv("TRANSCRIBE_PROVIDER", "")
	t.Setenv("KEYWORDS_TOP_N", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 5, cfg.KeywordsTopN)
	assert.Equal(t, "base", cfg.Transcription.Model)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.Media.FFmpegBinary)
	assert.Equal(t, "ffmpeg", Default().Media.FFmpegBinary)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("WORKERS", "")
	t.Setenv("WHISPER_MODEL", "")
	t.Setenv("TRANSCRIBE_PROVIDER", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
}
