// Package search scores catalog names against free text queries.
//
// It backs result ranking in the in-memory catalog and the "did you mean"
// suggestion attached to completed searches.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"
)

const (
	// minSuggestConfidence is the score a candidate must beat to be suggested.
	minSuggestConfidence = 0.1

	// minSuggestPrefix is the shortest query prefix Suggest retries with.
	minSuggestPrefix = 3
)

// Matcher implements fuzzy matching of queries against names.
type Matcher struct {
	logger *logrus.Logger
}

// NewMatcher creates a new matcher. A nil logger discards trace output.
func NewMatcher(logger *logrus.Logger) *Matcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &Matcher{logger: logger}
}

// Match is a ranked hit against one candidate name.
type Match struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Rank returns the candidates matching query, best first. Ties keep the
// candidate order.
func (m *Matcher) Rank(query string, names []string) []Match {
	normalizedQuery := normalize(query)
	if normalizedQuery == "" {
		return nil
	}

	normalized := make([]string, len(names))
	for i, name := range names {
		normalized[i] = normalize(name)
	}

	found := fuzzy.Find(normalizedQuery, normalized)
	matches := make([]Match, 0, len(found))
	for _, f := range found {
		matches = append(matches, Match{
			Index:      f.Index,
			Name:       names[f.Index],
			Confidence: m.Confidence(query, names[f.Index]),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Index < matches[j].Index
	})

	m.logger.WithFields(logrus.Fields{
		"query":      query,
		"candidates": len(names),
		"matches":    len(matches),
	}).Trace("Ranked candidates")

	return matches
}

// Suggest returns the best scoring candidate that differs from the query,
// or "" when no candidate matches better than an unrelated string. When
// nothing matches the whole query, shorter prefixes of it are tried so that
// a typo near the end still finds a suggestion.
func (m *Matcher) Suggest(query string, candidates []string) string {
	normalizedQuery := normalize(query)
	runes := []rune(normalizedQuery)

	for n := len(runes); n > 0 && (n >= minSuggestPrefix || n == len(runes)); n-- {
		best, confidence := m.suggest(normalizedQuery, string(runes[:n]), candidates)
		if best != "" {
			m.logger.WithFields(logrus.Fields{
				"query":      query,
				"prefix":     string(runes[:n]),
				"suggestion": best,
				"confidence": confidence,
			}).Trace("Computed suggestion")
			return best
		}
	}

	m.logger.WithField("query", query).Trace("No suggestion")
	return ""
}

func (m *Matcher) suggest(normalizedQuery, prefix string, candidates []string) (string, float64) {
	best := ""
	bestConfidence := minSuggestConfidence
	for _, candidate := range candidates {
		if candidate == "" || normalize(candidate) == normalizedQuery {
			continue
		}
		confidence := m.Confidence(prefix, candidate)
		if confidence > bestConfidence {
			best = candidate
			bestConfidence = confidence
		}
	}
	return best, bestConfidence
}

// Confidence calculates a score between 0.0 and 1.0 for how well name
// matches query.
func (m *Matcher) Confidence(query, name string) float64 {
	normalizedQuery := normalize(query)
	normalizedItem := normalize(name)

	if normalizedQuery == "" || normalizedItem == "" {
		return 0.0
	}

	// Exact match gets perfect score
	if normalizedQuery == normalizedItem {
		return 1.0
	}

	// Query contained in the name scores between 0.8 and 1.0
	if strings.Contains(normalizedItem, normalizedQuery) {
		ratio := float64(len(normalizedQuery)) / float64(len(normalizedItem))
		return 0.8 + (ratio * 0.2)
	}

	// Name contained in the query scores between 0.7 and 0.9
	if strings.Contains(normalizedQuery, normalizedItem) {
		ratio := float64(len(normalizedItem)) / float64(len(normalizedQuery))
		return 0.7 + (ratio * 0.2)
	}

	matches := fuzzy.Find(normalizedQuery, []string{normalizedItem})
	if len(matches) > 0 {
		// fuzzy scores are unbounded, squeeze them into 0.1-0.7
		fuzzyScore := float64(matches[0].Score)
		maxExpectedScore := float64(len(normalizedQuery) * 2)
		confidence := (fuzzyScore / maxExpectedScore) * 0.7

		if confidence > 0.7 {
			confidence = 0.7
		}
		if confidence < 0.1 {
			confidence = 0.1
		}
		return confidence
	}

	return 0.1
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
