package insight

import (
	"testing"

	"survey-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		responses []string
		stopwords WordSet
		topN      int
		expected  []models.WordCount
	}{
		{
			name:      "ranks by count",
			responses: []string{"I love the greens!", "greens and beans"},
			stopwords: NewWordSet("i", "the", "and"),
			topN:      5,
			expected: []models.WordCount{
				{Word: "greens", Count: 2},
				{Word: "love", Count: 1},
				{Word: "beans", Count: 1},
			},
		},
		{
			name:      "stop words match regardless of case form",
			responses: []string{"Straße STRASSE straße greens"},
			stopwords: NewWordSet("straße"),
			topN:      5,
			expected: []models.WordCount{
				{Word: "greens", Count: 1},
			},
		},
		{
			name:      "truncates to top n",
			responses: []string{"time money time cost money time"},
			stopwords: NewWordSet(),
			topN:      2,
			expected: []models.WordCount{
				{Word: "time", Count: 3},
				{Word: "money", Count: 2},
			},
		},
		{
			name:      "ties keep first encountered order",
			responses: []string{"Cost, time.", "taste; cost", "time taste"},
			stopwords: NewWordSet(),
			topN:      10,
			expected: []models.WordCount{
				{Word: "cost", Count: 2},
				{Word: "time", Count: 2},
				{Word: "taste", Count: 2},
			},
		},
		{
			name:      "punctuation only tokens are dropped",
			responses: []string{"-- ... !!", "Fast food -- everywhere"},
			stopwords: NewWordSet(),
			topN:      10,
			expected: []models.WordCount{
				{Word: "fast", Count: 1},
				{Word: "food", Count: 1},
				{Word: "everywhere", Count: 1},
			},
		},
		{
			name:      "case is folded and stop words apply after stripping",
			responses: []string{"THE Family's budget", "family"},
			stopwords: NewWordSet("the"),
			topN:      10,
			expected: []models.WordCount{
				{Word: "familys", Count: 1},
				{Word: "budget", Count: 1},
				{Word: "family", Count: 1},
			},
		},
		{
			name:      "no responses",
			responses: nil,
			stopwords: DefaultStopWords,
			topN:      5,
			expected:  []models.WordCount{},
		},
		{
			name:      "non positive top n",
			responses: []string{"greens"},
			stopwords: NewWordSet(),
			topN:      0,
			expected:  []models.WordCount{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract(tt.responses, tt.stopwords, tt.topN)
			assert.Equal(t, tt.expected, result)
			assert.LessOrEqual(t, len(result), max(tt.topN, 0))
		})
	}
}

func TestDiscardLowSignal(t *testing.T) {
	tests := []struct {
		name      string
		responses []string
		phrases   WordSet
		expected  []string
	}{
		{
			name:      "drops boilerplate",
			responses: []string{"None", "no", "Loved the tubers class"},
			phrases:   NewWordSet("none", "no"),
			expected:  []string{"Loved the tubers class"},
		},
		{
			name:      "adjacent matches are all removed",
			responses: []string{"Not sure", "NOTHING", " none ", "no response", "More recipes please"},
			phrases:   DefaultBoilerplate,
			expected:  []string{"More recipes please"},
		},
		{
			name:      "partial matches are kept verbatim",
			responses: []string{"No time to cook", "  Nothing beats greens  "},
			phrases:   DefaultBoilerplate,
			expected:  []string{"No time to cook", "  Nothing beats greens  "},
		},
		{
			name:      "blank answers are dropped",
			responses: []string{"", "   ", "Cost"},
			phrases:   DefaultBoilerplate,
			expected:  []string{"Cost"},
		},
		{
			name:      "everything filtered",
			responses: []string{"no", "None"},
			phrases:   DefaultBoilerplate,
			expected:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]string(nil), tt.responses...)

			result := DiscardLowSignal(input, tt.phrases)

			assert.Equal(t, tt.expected, result)
			assert.Equal(t, tt.responses, input)
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"dont", "like", "kale"}, Tokenize("Don't  like\tKALE!!"))
	assert.Empty(t, Tokenize("  ?! "))
	assert.Equal(t, []string{"strasse", "σοφοσ"}, Tokenize("Straße ΣΟΦΟΣ"))
}
