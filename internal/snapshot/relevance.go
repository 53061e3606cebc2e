package snapshot

import (
	"math"
	"strings"
)

// Scorer decides whether page text is relevant to a query by counting which
// query keywords occur in the text.
type Scorer struct {
	// ThresholdFraction is the fraction of keywords that must match.
	ThresholdFraction float64
	// MinKeywordLength drops query tokens at or below this length.
	MinKeywordLength int
}

// NewScorer creates a scorer with the given threshold fraction and minimum
// keyword length.
func NewScorer(thresholdFraction float64, minKeywordLength int) *Scorer {
	return &Scorer{
		ThresholdFraction: thresholdFraction,
		MinKeywordLength:  minKeywordLength,
	}
}

// Keywords splits a query into scoring tokens: whitespace-separated,
// lower-cased, dropping tokens at or below MinKeywordLength.
func (s *Scorer) Keywords(query string) []string {
	var keywords []string
	for _, token := range strings.Fields(strings.ToLower(query)) {
		if len(token) > s.MinKeywordLength {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

// Relevant reports whether content matches enough of the query's keywords.
// The threshold is ceil(keywordCount × ThresholdFraction), clamped to at
// least 1. A query with no qualifying keywords is vacuously relevant:
// rejecting everything for a query of stopwords would make short queries
// silently return nothing.
func (s *Scorer) Relevant(query, content string) bool {
	keywords := s.Keywords(query)
	if len(keywords) == 0 {
		return true
	}

	threshold := int(math.Ceil(float64(len(keywords)) * s.ThresholdFraction))
	if threshold < 1 {
		threshold = 1
	}

	lower := strings.ToLower(content)
	matched := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matched++
			if matched >= threshold {
				return true
			}
		}
	}
	return false
}
