package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"video-enrich-go/internal/processor"
	"video-enrich-go/internal/types"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var metadataFlag string
	var modelFlag string
	var reportFlag bool

	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Enrich a single video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := parseMetadataFlag(metadataFlag)
			if err != nil {
				return err
			}
			a, err := ctx.ensureApp(modelFlag)
			if err != nil {
				return err
			}
			report, err := a.Pool.Submit(cmd.Context(), processor.Job{
				VideoPath: args[0],
				Metadata:  meta,
				APIKey:    a.Config.Analysis.APIKey,
			})
			if err != nil {
				return err
			}
			if a.Store != nil {
				id, err := a.Store.Save(cmd.Context(), report)
				if err != nil {
					return fmt.Errorf("save enrichment: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "saved as %s\n", id)
			}
			if report.AnalysisErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "analysis unavailable: %s\n", report.AnalysisErr.Message)
			}
			if reportFlag {
				return writeJSON(cmd, runReport{
					RunID:      report.RunID,
					DurationMs: report.Duration.Milliseconds(),
					Transcript: report.Transcript,
					Analysis:   report.AnalysisErr,
					Metadata:   report.Metadata,
				})
			}
			return writeJSON(cmd, report.Metadata)
		},
	}

	cmd.Flags().StringVarP(&metadataFlag, "metadata", "m", "", "Metadata as JSON or @path to a JSON file")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Transcription model size (tiny, base, small, medium, large)")
	cmd.Flags().BoolVar(&reportFlag, "report", false, "Include transcript and run details in the output")
	return cmd
}

type runReport struct {
	RunID      string                 `json:"run_id"`
	DurationMs int64                  `json:"duration_ms"`
	Transcript string                 `json:"transcript"`
	Analysis   *types.AnalysisError   `json:"analysis_error,omitempty"`
	Metadata   types.EnrichedMetadata `json:"metadata"`
}

// parseMetadataFlag accepts inline JSON or @file. Empty input yields empty
// metadata.
func parseMetadataFlag(value string) (types.VideoMetadata, error) {
	var meta types.VideoMetadata
	value = strings.TrimSpace(value)
	if value == "" {
		return meta, nil
	}
	data := []byte(value)
	if strings.HasPrefix(value, "@") {
		raw, err := os.ReadFile(strings.TrimPrefix(value, "@"))
		if err != nil {
			return meta, fmt.Errorf("read metadata: %w", err)
		}
		data = raw
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse metadata: %w", err)
	}
	return meta, nil
}
