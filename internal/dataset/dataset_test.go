package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"video-enrich-go/internal/types"
)

func writeManifest(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, addr, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, [][]interface{}{
		{"Video Path", "Title", "Category", "Duration (min)", "Difficulty", "Tags"},
		{"lectures/intro.mp4", "Intro", "Physics", "12.5", "Beginner", "motion, forces"},
		{"", "Missing video", "Physics", "3", "Beginner", ""},
		{"/abs/advanced.mkv", "Advanced", "Physics", "oops", "Advanced", ""},
	})

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "lectures/intro.mp4"), first.VideoPath)
	assert.Equal(t, "Intro", first.Metadata.Title)
	assert.Equal(t, 12.5, first.Metadata.Duration)
	assert.Equal(t, []string{"motion", "forces"}, first.Metadata.Tags)

	second := entries[1]
	assert.Equal(t, 4, second.Row)
	assert.Equal(t, "/abs/advanced.mkv", second.VideoPath)
	assert.Zero(t, second.Metadata.Duration)
	assert.Equal(t, []string{}, second.Metadata.Tags)
}

func TestLoadRequiresVideoColumn(t *testing.T) {
	path := writeManifest(t, [][]interface{}{
		{"Title", "Category"},
		{"Intro", "Physics"},
	})
	_, err := Load(path)
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	score := 3.0
	results := []Result{
		{
			Entry: Entry{VideoPath: "/v/a.mp4", Metadata: types.VideoMetadata{Title: "A", Tags: []string{"x"}}},
			Metadata: &types.EnrichedMetadata{
				DifficultyLevel: "Intermediate",
				ComplexityScore: &score,
				AdditionalTags:  []string{"y", "z"},
				Summary:         "About A.",
				Keywords:        []string{"alpha", "beta"},
			},
		},
		{
			Entry: Entry{VideoPath: "/v/b.mp4", Metadata: types.VideoMetadata{Title: "B"}},
			Err:   "extract audio: file not found: /v/b.mp4",
		},
	}
	out := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, WriteResults(out, results))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "difficulty_level", rows[0][6])
	assert.Equal(t, "Intermediate", rows[1][6])
	assert.Equal(t, "3", rows[1][7])
	assert.Equal(t, "y, z", rows[1][8])
	assert.Equal(t, "alpha, beta", rows[1][10])
	assert.Equal(t, "extract audio: file not found: /v/b.mp4", rows[2][11])
}
