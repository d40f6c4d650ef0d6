package scoring

import (
	"context"
	"strings"
)

// JaccardScorer compares the lower-cased whitespace-separated word sets of the
// two answers. It never fails and is meant to be the last tier.
type JaccardScorer struct{}

func NewJaccardScorer() *JaccardScorer { return &JaccardScorer{} }

func (s *JaccardScorer) Name() string { return StrategyJaccard }

func (s *JaccardScorer) Attempt(_ context.Context, texts Texts) (int, error) {
	return JaccardSimilarity(texts.Student, texts.Reference), nil
}

// JaccardSimilarity returns round(100*|A∩B|/|A∪B|), or 0 when either text has
// no words.
func JaccardSimilarity(a, b string) int {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return toPercent(float64(intersection) / float64(union))
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
