// Package dataset reads batch manifests and writes batch results as Excel
// workbooks.
package dataset

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"video-enrich-go/internal/logger"
	"video-enrich-go/internal/types"
)

// Entry is one manifest row.
type Entry struct {
	Row       int
	VideoPath string
	Metadata  types.VideoMetadata
}

type columns struct {
	video, title, category, duration, difficulty, tags int
}

func detectColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case c.video == -1 && (strings.Contains(l, "video") || strings.Contains(l, "path") || strings.Contains(l, "file")):
			c.video = i
		case c.title == -1 && strings.Contains(l, "title"):
			c.title = i
		case c.category == -1 && strings.Contains(l, "category"):
			c.category = i
		case c.duration == -1 && strings.Contains(l, "duration"):
			c.duration = i
		case c.difficulty == -1 && strings.Contains(l, "difficulty"):
			c.difficulty = i
		case c.tags == -1 && strings.Contains(l, "tag"):
			c.tags = i
		}
	}
	return c
}

func cell(r []string, idx int) string {
	if idx >= 0 && idx < len(r) {
		return strings.TrimSpace(r[idx])
	}
	return ""
}

// Load reads the first sheet of the manifest at path. Relative video paths are
// resolved against the manifest's directory; rows without a video are skipped.
func Load(path string) ([]Entry, error) {
	log := logger.New().WithField("component", "dataset.loader").WithField("path", path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}
	cols := detectColumns(rows[0])
	if cols.video == -1 {
		return nil, fmt.Errorf("no video path column in header %v", rows[0])
	}

	base := filepath.Dir(path)
	var out []Entry
	for i, r := range rows[1:] {
		video := cell(r, cols.video)
		if video == "" {
			continue
		}
		if !filepath.IsAbs(video) {
			video = filepath.Join(base, video)
		}
		meta := types.VideoMetadata{
			Title:      cell(r, cols.title),
			Category:   cell(r, cols.category),
			Difficulty: cell(r, cols.difficulty),
			Tags:       types.SplitList(cell(r, cols.tags)),
		}
		if d := cell(r, cols.duration); d != "" {
			v, err := strconv.ParseFloat(d, 64)
			if err != nil {
				log.WithField("row", i+2).WithField("duration", d).Warn("ignoring invalid duration")
			} else {
				meta.Duration = v
			}
		}
		if meta.Tags == nil {
			meta.Tags = []string{}
		}
		out = append(out, Entry{Row: i + 2, VideoPath: video, Metadata: meta})
	}
	log.WithField("entries", len(out)).Info("manifest loaded")
	return out, nil
}
