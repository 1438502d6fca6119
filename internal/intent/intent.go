// ABOUTME: Tool intent classifier for speech transcripts
// ABOUTME: Keyword categories with edit-distance tolerance for STT noise
package intent

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// maxEditDistance is how far a transcript word may drift from a keyword
// and still count. STT output routinely mangles a character or two.
const maxEditDistance = 1

// minFuzzyLen guards short words: below this length an edit distance of
// one matches too much ("me" vs "mail").
const minFuzzyLen = 5

// Intent is the classification result for one transcript.
type Intent struct {
	// RequiresTools reports whether any tool category matched.
	RequiresTools bool

	// DetectedTools lists the matched category names, in category order.
	DetectedTools []string

	// Confidence is the fraction of transcript words that contributed a
	// match, in [0, 1]. Zero when nothing matched.
	Confidence float64
}

// category maps a tool name to the keywords that implicate it.
type category struct {
	name     string
	keywords []string
}

// Classifier detects which external tool categories a transcript
// implicates. Stateless; safe for concurrent use. It never touches
// playback and shares no state with the engine.
type Classifier struct {
	categories []category
}

// NewClassifier returns a classifier with the built-in categories.
func NewClassifier() *Classifier {
	return &Classifier{categories: defaultCategories()}
}

// DetectToolIntent classifies one transcript. An empty or whitespace
// transcript yields the zero Intent.
func (c *Classifier) DetectToolIntent(transcript string) Intent {
	words := strings.Fields(strings.ToLower(transcript))
	if len(words) == 0 {
		return Intent{}
	}

	var detected []string
	matchedWords := make(map[int]bool)

	for _, cat := range c.categories {
		hit := false
		for i, w := range words {
			if matchesKeyword(w, cat.keywords) {
				hit = true
				matchedWords[i] = true
			}
		}
		if hit {
			detected = append(detected, cat.name)
		}
	}

	if len(detected) == 0 {
		return Intent{}
	}

	return Intent{
		RequiresTools: true,
		DetectedTools: detected,
		Confidence:    float64(len(matchedWords)) / float64(len(words)),
	}
}

// matchesKeyword tests one transcript word against a keyword list,
// exact first, then within edit distance for longer words.
func matchesKeyword(word string, keywords []string) bool {
	word = strings.Trim(word, ".,!?;:'\"")
	if word == "" {
		return false
	}

	for _, k := range keywords {
		if word == k {
			return true
		}
		if len(word) >= minFuzzyLen && len(k) >= minFuzzyLen {
			if matchr.Levenshtein(word, k) <= maxEditDistance {
				return true
			}
		}
	}
	return false
}

// defaultCategories returns the built-in tool categories.
func defaultCategories() []category {
	return []category{
		{
			name:     "search",
			keywords: []string{"search", "find", "lookup", "google"},
		},
		{
			name:     "weather",
			keywords: []string{"weather", "forecast", "temperature", "rain"},
		},
		{
			name:     "calendar",
			keywords: []string{"calendar", "schedule", "meeting", "appointment", "remind", "reminder"},
		},
		{
			name:     "email",
			keywords: []string{"email", "inbox", "compose", "unread"},
		},
		{
			name:     "timer",
			keywords: []string{"timer", "alarm", "countdown", "stopwatch"},
		},
	}
}
