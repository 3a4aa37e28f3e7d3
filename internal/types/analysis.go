package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Analysis is the structured reply of the semantic analysis service.
type Analysis struct {
	DifficultyLevel string     `json:"difficulty_level"`
	ComplexityScore *Score     `json:"complexity_score"`
	AdditionalTags  StringList `json:"additional_tags"`
	Summary         string     `json:"summary"`
}

// AnalysisError is the soft failure of the analysis stage. Details carries the
// raw upstream text for diagnosis.
type AnalysisError struct {
	Message string `json:"error"`
	Details string `json:"details"`
}

func (e *AnalysisError) Error() string {
	return e.Message
}

// Score is a complexity score; models sometimes quote it.
type Score float64

// UnmarshalJSON decodes the reply leniently. A complexity_score that is not a
// number is treated as absent so the other fields survive.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	type plain Analysis
	var aux struct {
		plain
		ComplexityScore json.RawMessage `json:"complexity_score"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Analysis(aux.plain)
	a.ComplexityScore = parseScore(aux.ComplexityScore)
	return nil
}

func parseScore(raw json.RawMessage) *Score {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", `""`:
		return nil
	}
	v, err := parseNumber(raw)
	if err != nil {
		return nil
	}
	s := Score(v)
	return &s
}

// Float returns the score as a *float64, nil when absent.
func (s *Score) Float() *float64 {
	if s == nil {
		return nil
	}
	v := float64(*s)
	return &v
}

// StringList decodes either a JSON array of strings or a single
// comma-separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("additional_tags: expected list or string")
	}
	*l = SplitList(joined)
	return nil
}

// SplitList splits a comma-separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
