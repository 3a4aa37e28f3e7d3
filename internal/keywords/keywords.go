// Package keywords ranks transcript words by frequency.
//
// Ranking is deterministic: words are ordered by descending count, and words
// with equal counts keep the order in which they first appear in the text.
package keywords

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const DefaultTopN = 10

var contractionSuffixes = []string{"n't", "'s", "'re", "'ve", "'ll", "'d", "'m"}

var lower = cases.Lower(language.Und)

// Extract returns at most topN distinct alphabetic words of text, most frequent
// first. It never returns nil.
func Extract(text string, topN int) []string {
	if topN <= 0 {
		return []string{}
	}
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, tok := range Tokenize(text) {
		if !isAlpha(tok) {
			continue
		}
		if _, seen := counts[tok]; !seen {
			order = append(order, tok)
		}
		counts[tok]++
	}
	// stable: equal counts stay in first-occurrence order
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topN {
		order = order[:topN]
	}
	return order
}

// Tokenize lower-cases text and splits it into word and punctuation tokens.
// Leading and trailing punctuation become their own tokens and English
// contractions are split off ("don't" -> "do", "n't").
func Tokenize(text string) []string {
	text = lower.String(norm.NFKC.String(text))
	text = strings.ReplaceAll(text, "’", "'")
	var out []string
	for _, field := range strings.Fields(text) {
		out = splitWord(field, out)
	}
	return out
}

func splitWord(word string, out []string) []string {
	runes := []rune(word)
	start, end := 0, len(runes)
	for start < end && isPunct(runes[start]) {
		out = append(out, string(runes[start]))
		start++
	}
	var trailing []string
	for end > start && isPunct(runes[end-1]) {
		trailing = append(trailing, string(runes[end-1]))
		end--
	}
	if start < end {
		out = append(out, splitContraction(string(runes[start:end]))...)
	}
	for i := len(trailing) - 1; i >= 0; i-- {
		out = append(out, trailing[i])
	}
	return out
}

func splitContraction(word string) []string {
	for _, suffix := range contractionSuffixes {
		if len(word) > len(suffix) && strings.HasSuffix(word, suffix) {
			return []string{word[:len(word)-len(suffix)], suffix}
		}
	}
	return []string{word}
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isAlpha(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
