package actionable

import (
	"fmt"

	"video-enrich-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

const threshold = 0.35

// Generate turns a batch summary into an operator hint. Fatal failures take
// precedence over degraded analyses.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.Total == 0 {
		return ActionCard{
			Insight: "Empty batch",
			Action:  "Check the manifest's video path column",
			Impact:  "Nothing was enriched",
		}
	}
	failRate := float64(ins.Failed) / float64(ins.Total)
	if failRate >= threshold {
		return ActionCard{
			Insight: fmt.Sprintf("High failure rate (%.0f%%)", failRate*100),
			Action:  "Verify video paths exist and contain an audio track; check ffmpeg and whisper installs",
			Impact:  "Failed rows produced no enriched metadata",
		}
	}
	enriched := ins.Total - ins.Failed
	if enriched > 0 {
		degradedRate := float64(ins.Degraded) / float64(enriched)
		if degradedRate >= threshold {
			return ActionCard{
				Insight: fmt.Sprintf("Analysis degraded for %.0f%% of enriched videos", degradedRate*100),
				Action:  "Check GEMINI_API_KEY, quota and service status, then re-run the batch",
				Impact:  "Difficulty, score, tags and summary fell back to defaults",
			}
		}
	}
	return ActionCard{
		Insight: "No strong failure pattern detected",
		Action:  "Review suggested tags and summaries before publishing",
		Impact:  "Low immediate intervention",
	}
}
