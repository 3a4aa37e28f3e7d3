package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"video-enrich-go/internal/types"
)

const promptTemplate = `
Transcript:
%s

Metadata:
Title: %s
Category: %s
Duration: %s minutes
Difficulty (user input): %s
Tags: %s

Tasks:
1. Determine the difficulty level (Beginner, Intermediate, Advanced)
2. Suggest a complexity score (0-5)
3. Suggest additional tags/topics covered in the video
4. Generate a concise 1-2 line summary of the entire video content

Return the result in JSON format with keys:
"difficulty_level", "complexity_score", "additional_tags", "summary"
`

// BuildPrompt embeds the transcript verbatim together with the caller metadata.
func BuildPrompt(transcript string, meta types.VideoMetadata) string {
	return fmt.Sprintf(promptTemplate,
		transcript,
		meta.Title,
		meta.Category,
		strconv.FormatFloat(meta.Duration, 'f', -1, 64),
		meta.Difficulty,
		strings.Join(meta.Tags, ", "),
	)
}
