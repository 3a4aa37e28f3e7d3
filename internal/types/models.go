package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

var metadataKeys = map[string]bool{
	"title":      true,
	"category":   true,
	"duration":   true,
	"difficulty": true,
	"tags":       true,
}

var derivedKeys = map[string]bool{
	"difficulty_level": true,
	"complexity_score": true,
	"additional_tags":  true,
	"summary":          true,
	"keywords":         true,
}

// VideoMetadata is the caller-supplied description of an uploaded video.
// Keys outside the fixed set are kept in Extra and passed through untouched.
type VideoMetadata struct {
	Title      string
	Category   string
	Duration   float64 // minutes
	Difficulty string
	Tags       []string
	Extra      map[string]json.RawMessage
}

// Clone returns a copy that shares no slices or maps with m.
func (m VideoMetadata) Clone() VideoMetadata {
	out := m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	if m.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func (m VideoMetadata) fields() map[string]any {
	out := make(map[string]any, len(m.Extra)+len(metadataKeys)+len(derivedKeys))
	for k, v := range m.Extra {
		out[k] = v
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	out["title"] = m.Title
	out["category"] = m.Category
	out["duration"] = m.Duration
	out["difficulty"] = m.Difficulty
	out["tags"] = tags
	return out
}

func (m VideoMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.fields())
}

// UnmarshalJSON accepts duration as a JSON number or a numeric string, since
// multipart form clients frequently send it quoted.
func (m *VideoMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var known struct {
		Title      string   `json:"title"`
		Category   string   `json:"category"`
		Difficulty string   `json:"difficulty"`
		Tags       []string `json:"tags"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var duration float64
	if d, ok := raw["duration"]; ok {
		v, err := parseNumber(d)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		duration = v
	}
	*m = VideoMetadata{
		Title:      known.Title,
		Category:   known.Category,
		Duration:   duration,
		Difficulty: known.Difficulty,
		Tags:       known.Tags,
	}
	for k, v := range raw {
		if metadataKeys[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage)
		}
		m.Extra[k] = v
	}
	return nil
}

// EnrichedMetadata is VideoMetadata plus the transcript-derived fields.
type EnrichedMetadata struct {
	VideoMetadata
	DifficultyLevel string
	ComplexityScore *float64
	AdditionalTags  []string
	Summary         string
	Keywords        []string
}

func (e EnrichedMetadata) MarshalJSON() ([]byte, error) {
	out := e.VideoMetadata.fields()
	out["difficulty_level"] = e.DifficultyLevel
	out["complexity_score"] = e.ComplexityScore
	out["additional_tags"] = nonNil(e.AdditionalTags)
	out["summary"] = e.Summary
	out["keywords"] = nonNil(e.Keywords)
	return json.Marshal(out)
}

func (e *EnrichedMetadata) UnmarshalJSON(data []byte) error {
	var base VideoMetadata
	if err := base.UnmarshalJSON(data); err != nil {
		return err
	}
	for k := range derivedKeys {
		delete(base.Extra, k)
	}
	if len(base.Extra) == 0 {
		base.Extra = nil
	}
	var derived struct {
		DifficultyLevel string   `json:"difficulty_level"`
		ComplexityScore *float64 `json:"complexity_score"`
		AdditionalTags  []string `json:"additional_tags"`
		Summary         string   `json:"summary"`
		Keywords        []string `json:"keywords"`
	}
	if err := json.Unmarshal(data, &derived); err != nil {
		return err
	}
	*e = EnrichedMetadata{
		VideoMetadata:   base,
		DifficultyLevel: derived.DifficultyLevel,
		ComplexityScore: derived.ComplexityScore,
		AdditionalTags:  derived.AdditionalTags,
		Summary:         derived.Summary,
		Keywords:        derived.Keywords,
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func parseNumber(raw json.RawMessage) (float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("expected number, got %s", trimmed)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("expected number, got %q", s)
	}
	return f, nil
}
