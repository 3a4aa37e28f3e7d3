package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const DefaultWhisperBinary = "whisper"

// CommandRunner executes an external process and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// CLIProvider runs the openai-whisper command line tool.
type CLIProvider struct {
	binary   string
	workDir  string
	runner   CommandRunner
	lookPath func(string) (string, error)
}

func NewCLIProvider(binary, workDir string) *CLIProvider {
	if binary == "" {
		binary = DefaultWhisperBinary
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &CLIProvider{
		binary:   binary,
		workDir:  workDir,
		runner:   runCommand,
		lookPath: exec.LookPath,
	}
}

// WithCommandRunner sets a custom command runner and skips binary lookup (for testing).
func (p *CLIProvider) WithCommandRunner(runner CommandRunner) {
	p.runner = runner
	p.lookPath = func(name string) (string, error) { return name, nil }
}

func (p *CLIProvider) Name() string { return "whisper-cli" }

// Load resolves the whisper binary. Weights are fetched and cached by the tool
// itself on first use of each size.
func (p *CLIProvider) Load(ctx context.Context, size ModelSize) (Model, error) {
	resolved, err := p.lookPath(p.binary)
	if err != nil {
		return nil, fmt.Errorf("binary %q not found: %w", p.binary, err)
	}
	return &cliModel{provider: p, binary: resolved, size: size}, nil
}

type cliModel struct {
	provider *CLIProvider
	binary   string
	size     ModelSize
}

type whisperOutput struct {
	Text string `json:"text"`
}

func (m *cliModel) Transcribe(ctx context.Context, audioPath string) (string, error) {
	outDir, err := os.MkdirTemp(m.provider.workDir, "enrich-whisper-")
	if err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	output, err := m.provider.runner(ctx, m.binary, buildWhisperArgs(audioPath, outDir, m.size)...)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", m.binary, err, strings.TrimSpace(string(output)))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	data, err := os.ReadFile(filepath.Join(outDir, base+".json"))
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	var parsed whisperOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse whisper json: %w", err)
	}
	return parsed.Text, nil
}

func buildWhisperArgs(audioPath, outDir string, size ModelSize) []string {
	return []string{
		audioPath,
		"--model", string(size),
		"--output_format", "json",
		"--output_dir", outDir,
		"--fp16", "False",
		"--verbose", "False",
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
