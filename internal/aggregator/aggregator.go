package aggregator

import (
	"sort"

	"video-enrich-go/internal/types"
)

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Insight struct {
	Total        int     `json:"total"`
	Failed       int     `json:"failed"`
	Degraded     int     `json:"degraded"`
	ByCategory   []Count `json:"by_category"`
	ByDifficulty []Count `json:"by_difficulty_level"`
	TopKeywords  []Count `json:"top_keywords"`
}

// Entry is one batch outcome; Metadata is nil for failed runs.
type Entry struct {
	Metadata *types.EnrichedMetadata
	Degraded bool
}

// Aggregate summarises a batch. Counts are sorted by descending count, then key.
func Aggregate(entries []Entry, topKeywords int) Insight {
	cats := map[string]int{}
	levels := map[string]int{}
	kws := map[string]int{}
	ins := Insight{Total: len(entries)}
	for _, e := range entries {
		if e.Metadata == nil {
			ins.Failed++
			continue
		}
		if e.Degraded {
			ins.Degraded++
		}
		if e.Metadata.Category != "" {
			cats[e.Metadata.Category]++
		}
		if e.Metadata.DifficultyLevel != "" {
			levels[e.Metadata.DifficultyLevel]++
		}
		for _, k := range e.Metadata.Keywords {
			kws[k]++
		}
	}
	ins.ByCategory = ranked(cats, 0)
	ins.ByDifficulty = ranked(levels, 0)
	ins.TopKeywords = ranked(kws, topKeywords)
	return ins
}

func ranked(m map[string]int, limit int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
