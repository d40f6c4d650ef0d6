package scoring

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Observer is told which tier failed and which one finally scored.
type Observer interface {
	ObserveScoringFallback(strategy string)
	ObserveScoringStrategy(strategy string)
}

// switchable is implemented by scorers that can be disabled at startup.
type switchable interface {
	Available() bool
}

// Chain tries its scorers in order and returns the first score produced.
type Chain struct {
	scorers  []Scorer
	observer Observer
	logger   *zap.Logger
}

func NewChain(logger *zap.Logger, observer Observer, scorers ...Scorer) *Chain {
	return &Chain{
		scorers:  scorers,
		observer: observer,
		logger:   logger.With(zap.String("component", "scoring")),
	}
}

// NewDefaultChain builds the model → TF-IDF → Jaccard chain.
func NewDefaultChain(logger *zap.Logger, observer Observer, model *ModelScorer) *Chain {
	return NewChain(logger, observer, model, NewTfIdfScorer(), NewJaccardScorer())
}

// Score runs the chain, skipping disabled tiers. An error is returned only if
// every remaining tier failed.
func (c *Chain) Score(ctx context.Context, texts Texts) (Result, error) {
	for _, scorer := range c.scorers {
		if sw, ok := scorer.(switchable); ok && !sw.Available() {
			// already reported once at startup
			c.logger.Debug("[Scoring] strategy disabled, skipping", zap.String("strategy", scorer.Name()))
			continue
		}
		score, err := c.attempt(ctx, scorer, texts)
		if err != nil {
			c.logger.Warn("[Scoring] strategy failed, trying next",
				zap.String("strategy", scorer.Name()), zap.Error(err))
			if c.observer != nil {
				c.observer.ObserveScoringFallback(scorer.Name())
			}
			continue
		}
		if c.observer != nil {
			c.observer.ObserveScoringStrategy(scorer.Name())
		}
		c.logger.Debug("[Scoring] similarity computed",
			zap.String("strategy", scorer.Name()), zap.Int("score", score))
		return Result{Score: score, Strategy: scorer.Name()}, nil
	}
	return Result{}, ErrNoScorerSucceeded
}

func (c *Chain) attempt(ctx context.Context, scorer Scorer, texts Texts) (score int, err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		score, err = scorer.Attempt(ctx, texts)
	})
	if r := catcher.Recovered(); r != nil {
		return 0, fmt.Errorf("scorer %s panicked: %w", scorer.Name(), r.AsError())
	}
	return score, err
}
