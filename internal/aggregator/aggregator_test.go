package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"video-enrich-go/internal/types"
)

func enriched(category, level string, kw ...string) *types.EnrichedMetadata {
	return &types.EnrichedMetadata{
		VideoMetadata:   types.VideoMetadata{Category: category},
		DifficultyLevel: level,
		Keywords:        kw,
	}
}

func TestAggregate(t *testing.T) {
	ins := Aggregate([]Entry{
		{Metadata: enriched("Math", "Beginner", "x", "y")},
		{Metadata: enriched("Math", "Advanced", "x", "z"), Degraded: true},
		{Metadata: enriched("Physics", "Beginner", "x")},
		{},
	}, 2)

	assert.Equal(t, 4, ins.Total)
	assert.Equal(t, 1, ins.Failed)
	assert.Equal(t, 1, ins.Degraded)
	assert.Equal(t, []Count{{"Math", 2}, {"Physics", 1}}, ins.ByCategory)
	assert.Equal(t, []Count{{"Beginner", 2}, {"Advanced", 1}}, ins.ByDifficulty)
	assert.Equal(t, []Count{{"x", 3}, {"y", 1}}, ins.TopKeywords)
}

func TestAggregateEmpty(t *testing.T) {
	ins := Aggregate(nil, 5)
	assert.Zero(t, ins.Total)
	assert.Empty(t, ins.ByCategory)
	assert.Empty(t, ins.TopKeywords)
}
