package executor

import "strings"

// resultIndicators is the fixed vocabulary that bumps the confidence of
// a response. Matching is case-insensitive substring search.
var resultIndicators = []string{"analysis", "recommendation", "solution", "result"}

const (
	minResponseLen = 10
	confidenceCap  = 0.95
	indicatorBonus = 0.1
)

// Confidence scores a response heuristically in [0, 0.95]. Empty or
// near-empty responses score zero; longer responses score by length up
// to the cap, with a bonus when the text names a concrete outcome.
func Confidence(response string) float64 {
	if len(response) < minResponseLen {
		return 0
	}

	score := float64(len(response)) / 1000
	if score > confidenceCap {
		score = confidenceCap
	}

	lower := strings.ToLower(response)
	for _, indicator := range resultIndicators {
		if strings.Contains(lower, indicator) {
			score += indicatorBonus
			if score > confidenceCap {
				score = confidenceCap
			}
			break
		}
	}
	return score
}
