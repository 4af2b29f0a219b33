package artwork

import (
	"regexp"

	"github.com/hbollon/go-edlib"
)

// MatchThreshold is the minimum similarity accepted by the catalog.
const MatchThreshold = 0.85

var numberRegex = regexp.MustCompile(`\b(\d+)\b`)

// MatchResult is the best fuzzy match of a name against candidate titles.
type MatchResult struct {
	Index int     // index into candidates, -1 when nothing matched
	Title string  // matched candidate
	Score float64 // Jaro-Winkler similarity after number adjustment
}

// Matched reports whether the score clears MatchThreshold.
func (m MatchResult) Matched() bool {
	return m.Index >= 0 && m.Score >= MatchThreshold
}

// MatchTitle finds the closest candidate to name.
// Titles are compared after CleanTitle; sequence numbers that agree earn a
// bonus and numbers that disagree a penalty, so "Mario Kart 64" does not
// match "Mario Kart".
func MatchTitle(name string, candidates []string) MatchResult {
	best := MatchResult{Index: -1}
	if len(candidates) == 0 {
		return best
	}

	cleaned := CleanTitle(name)
	nameNumbers := numberRegex.FindAllString(cleaned, -1)

	for i, candidate := range candidates {
		cleanedCandidate := CleanTitle(candidate)

		score := float64(edlib.JaroWinklerSimilarity(cleaned, cleanedCandidate))
		score = adjustScoreForNumbers(score, nameNumbers, numberRegex.FindAllString(cleanedCandidate, -1))

		if score > best.Score {
			best = MatchResult{Index: i, Title: candidate, Score: score}
		}
	}

	return best
}

func adjustScoreForNumbers(score float64, nameNums, candidateNums []string) float64 {
	if len(nameNums) == 0 && len(candidateNums) == 0 {
		return score
	}
	if len(nameNums) == 0 || len(candidateNums) == 0 {
		return score * 0.85
	}

	candidateSet := make(map[string]bool, len(candidateNums))
	for _, n := range candidateNums {
		candidateSet[n] = true
	}
	for _, n := range nameNums {
		if candidateSet[n] {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}
