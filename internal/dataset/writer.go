package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"video-enrich-go/internal/types"
)

// Result is one processed manifest entry. Metadata is nil when the run failed.
type Result struct {
	Entry    Entry
	Metadata *types.EnrichedMetadata
	Err      string
}

var resultHeader = []interface{}{
	"video_path", "title", "category", "duration", "difficulty", "tags",
	"difficulty_level", "complexity_score", "additional_tags", "summary", "keywords", "error",
}

// WriteResults saves results to a new workbook at path.
func WriteResults(path string, results []Result) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := f.SetSheetRow(sheet, "A1", &resultHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, res := range results {
		meta := res.Entry.Metadata
		row := []interface{}{
			res.Entry.VideoPath,
			meta.Title,
			meta.Category,
			meta.Duration,
			meta.Difficulty,
			strings.Join(meta.Tags, ", "),
		}
		if m := res.Metadata; m != nil {
			score := ""
			if m.ComplexityScore != nil {
				score = strconv.FormatFloat(*m.ComplexityScore, 'f', -1, 64)
			}
			row = append(row,
				m.DifficultyLevel,
				score,
				strings.Join(m.AdditionalTags, ", "),
				m.Summary,
				strings.Join(m.Keywords, ", "),
				res.Err,
			)
		} else {
			row = append(row, "", "", "", "", "", res.Err)
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
