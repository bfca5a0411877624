// Package textutil provides tokenized text comparison for title matching.
package textutil

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Vector is a term-frequency vector for text similarity comparison.
type Vector struct {
	tokens map[string]float64
	norm   float64
}

// NewVector creates a vector from the provided text. Returns nil if the text
// produces no valid tokens.
func NewVector(text string) *Vector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Vector{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Tokenize splits text into lowercase alphanumeric tokens. Anime titles are
// often one or two characters ("86", "K-On"), so no minimum length applies.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// DisplayTitle returns a presentable form of a parsed title. Titles that
// already carry uppercase letters keep their casing; all-lowercase titles
// common in ripped filenames are title-cased.
func DisplayTitle(title string) string {
	trimmed := strings.TrimSpace(title)
	if strings.ToLower(trimmed) != trimmed {
		return trimmed
	}
	return cases.Title(language.Und).String(trimmed)
}

// Similarity computes the cosine similarity between two vectors. Returns 0
// if either vector is nil or has zero norm.
func Similarity(a, b *Vector) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}
