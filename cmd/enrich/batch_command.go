package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"video-enrich-go/internal/actionable"
	"video-enrich-go/internal/aggregator"
	"video-enrich-go/internal/dataset"
	"video-enrich-go/internal/processor"
)

const summaryKeywords = 10

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var outFlag string
	var modelFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "batch <manifest.xlsx>",
		Short: "Enrich every video listed in a manifest workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest := args[0]
			entries, err := dataset.Load(manifest)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("manifest %s lists no videos", manifest)
			}
			a, err := ctx.ensureApp(modelFlag)
			if err != nil {
				return err
			}

			jobs := make([]processor.Job, len(entries))
			for i, e := range entries {
				jobs[i] = processor.Job{VideoPath: e.VideoPath, Metadata: e.Metadata, APIKey: a.Config.Analysis.APIKey}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "processing %d videos with %d workers\n", len(jobs), a.Pool.Workers())
			outcomes := a.Pool.SubmitAll(cmd.Context(), jobs)

			results, aggEntries := collect(entries, outcomes)
			for _, o := range outcomes {
				if o.Err != nil || a.Store == nil {
					continue
				}
				if _, err := a.Store.Save(cmd.Context(), o.Report); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "save %s: %v\n", o.Job.VideoPath, err)
				}
			}

			out := outFlag
			if out == "" {
				out = defaultResultsPath(manifest)
			}
			if err := dataset.WriteResults(out, results); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "results written to %s\n", out)

			insight := aggregator.Aggregate(aggEntries, summaryKeywords)
			card := actionable.Generate(insight)
			if jsonFlag {
				return writeJSON(cmd, struct {
					Insight aggregator.Insight    `json:"insight"`
					Action  actionable.ActionCard `json:"action"`
				}{insight, card})
			}
			printSummary(cmd.OutOrStdout(), results, insight, card)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Results workbook path (default <manifest>_enriched.xlsx)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Transcription model size (tiny, base, small, medium, large)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the batch summary as JSON")
	return cmd
}

// collect pairs outcomes with their manifest rows.
func collect(entries []dataset.Entry, outcomes []processor.Outcome) ([]dataset.Result, []aggregator.Entry) {
	results := make([]dataset.Result, len(entries))
	agg := make([]aggregator.Entry, len(entries))
	for i, e := range entries {
		results[i] = dataset.Result{Entry: e}
		o := outcomes[i]
		if o.Err != nil {
			results[i].Err = o.Err.Error()
			continue
		}
		meta := o.Report.Metadata
		results[i].Metadata = &meta
		agg[i] = aggregator.Entry{Metadata: &meta, Degraded: o.Report.AnalysisErr != nil}
		if o.Report.AnalysisErr != nil {
			results[i].Err = o.Report.AnalysisErr.Error()
		}
	}
	return results, agg
}

func defaultResultsPath(manifest string) string {
	ext := filepath.Ext(manifest)
	return strings.TrimSuffix(manifest, ext) + "_enriched.xlsx"
}

func printSummary(w io.Writer, results []dataset.Result, ins aggregator.Insight, card actionable.ActionCard) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status, level, score := "ok", "", ""
		if r.Metadata == nil {
			status = "failed"
		} else {
			level = r.Metadata.DifficultyLevel
			if r.Metadata.ComplexityScore != nil {
				score = strconv.FormatFloat(*r.Metadata.ComplexityScore, 'f', 1, 64)
			}
			if r.Err != "" {
				status = "degraded"
			}
		}
		rows = append(rows, []string{strconv.Itoa(r.Entry.Row), filepath.Base(r.Entry.VideoPath), status, level, score})
	}
	fmt.Fprintln(w, renderTable("Videos", []string{"Row", "Video", "Status", "Level", "Score"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}))

	fmt.Fprintln(w, renderTable("Summary", []string{"Metric", "Value"}, [][]string{
		{"Total", strconv.Itoa(ins.Total)},
		{"Failed", strconv.Itoa(ins.Failed)},
		{"Degraded", strconv.Itoa(ins.Degraded)},
	}, []columnAlignment{alignLeft, alignRight}))

	for _, section := range []struct {
		title  string
		counts []aggregator.Count
	}{
		{"Categories", ins.ByCategory},
		{"Difficulty levels", ins.ByDifficulty},
		{"Top keywords", ins.TopKeywords},
	} {
		if len(section.counts) == 0 {
			continue
		}
		fmt.Fprintln(w, renderTable(section.title, []string{"Value", "Count"}, countRows(section.counts),
			[]columnAlignment{alignLeft, alignRight}))
	}

	fmt.Fprintf(w, "%s\n  action: %s\n  impact: %s\n", card.Insight, card.Action, card.Impact)
}

func countRows(counts []aggregator.Count) [][]string {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Key, strconv.Itoa(c.Count)}
	}
	return rows
}
