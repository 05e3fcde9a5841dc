package insight

import (
	"sort"
	"strings"
	"unicode"

	"survey-analyzer/internal/models"

	"golang.org/x/text/cases"
)

// WordSet is a set of case-folded words or phrases.
type WordSet map[string]struct{}

// NewWordSet builds a set from words, folding each one.
func NewWordSet(words ...string) WordSet {
	fold := cases.Fold()
	set := make(WordSet, len(words))
	for _, w := range words {
		w = fold.String(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// Contains reports whether w is in the set.
func (s WordSet) Contains(w string) bool {
	_, ok := s[w]
	return ok
}

// DefaultStopWords are common English words that carry no insight on their own.
var DefaultStopWords = NewWordSet(
	"a", "about", "after", "all", "also", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "being", "but", "by", "can", "could", "did", "do", "does",
	"doing", "for", "from", "get", "had", "has", "have", "having", "he", "her", "here",
	"him", "his", "how", "i", "if", "im", "in", "into", "is", "it", "its", "just", "me",
	"more", "most", "my", "myself", "no", "not", "of", "on", "or", "other", "our", "out",
	"over", "she", "so", "some", "such", "than", "that", "the", "their", "them", "then",
	"there", "these", "they", "this", "those", "to", "too", "up", "very", "was", "we",
	"were", "what", "when", "which", "while", "who", "will", "with", "would", "you", "your",
)

// DefaultBoilerplate are answers that mean "nothing to report".
var DefaultBoilerplate = NewWordSet(
	"none", "no", "not sure", "nothing", "no response", "n/a", "na",
)

// Tokenize strips punctuation, splits on whitespace and case-folds each token, the
// same folding NewWordSet applies.
func Tokenize(response string) []string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, response)

	fold := cases.Fold()
	fields := strings.Fields(stripped)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, fold.String(f))
	}
	return tokens
}

// Extract counts words across all responses, skipping stop words, and returns at
// most topN entries sorted by count descending. Ties keep first-encountered order.
func Extract(responses []string, stopwords WordSet, topN int) []models.WordCount {
	if topN <= 0 {
		return []models.WordCount{}
	}

	index := make(map[string]int)
	var counts []models.WordCount
	for _, response := range responses {
		for _, token := range Tokenize(response) {
			if token == "" || stopwords.Contains(token) {
				continue
			}
			i, ok := index[token]
			if !ok {
				i = len(counts)
				index[token] = i
				counts = append(counts, models.WordCount{Word: token})
			}
			counts[i].Count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if len(counts) > topN {
		counts = counts[:topN]
	}
	if counts == nil {
		counts = []models.WordCount{}
	}
	return counts
}

// DiscardLowSignal returns the responses that are neither blank nor, once trimmed
// and case-folded, exactly one of phrases. The input slice is left untouched.
func DiscardLowSignal(responses []string, phrases WordSet) []string {
	fold := cases.Fold()
	out := make([]string, 0, len(responses))
	for _, r := range responses {
		trimmed := strings.TrimSpace(r)
		if trimmed == "" || phrases.Contains(fold.String(trimmed)) {
			continue
		}
		out = append(out, r)
	}
	return out
}
