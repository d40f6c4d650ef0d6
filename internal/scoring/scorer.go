// Package scoring turns a (question, student answer, reference answer) triple
// into an integer similarity percentage. Strategies are tried in order until
// one of them produces a score.
package scoring

import (
	"context"
	"errors"
	"math"
)

const (
	StrategyModel   = "model"
	StrategyTfIdf   = "tfidf"
	StrategyJaccard = "jaccard"
)

var (
	ErrModelUnavailable  = errors.New("custom scoring model is not available")
	ErrEmptyVocabulary   = errors.New("empty vocabulary; texts contain no terms")
	ErrNoScorerSucceeded = errors.New("no scoring strategy produced a score")
)

type Texts struct {
	Question  string
	Student   string
	Reference string
}

// Scorer is one tier of the fallback chain. A non-nil error hands the
// texts to the next tier.
type Scorer interface {
	Name() string
	Attempt(ctx context.Context, texts Texts) (int, error)
}

type Result struct {
	Score    int
	Strategy string
}

// toPercent scales a [0,1] similarity to a percentage, rounding half to even.
func toPercent(similarity float64) int {
	return int(math.RoundToEven(similarity * 100))
}
