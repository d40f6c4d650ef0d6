package scoring

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
)

const inputSeparator = " [SEP] "

// Predictor runs the custom answer-assessment model on one combined input
// and returns its sigmoid output in [0,1].
type Predictor interface {
	Predict(ctx context.Context, input string) (float64, error)
}

// ReadyPredictor is a Predictor that can report whether it is able to serve.
type ReadyPredictor interface {
	Predictor
	Ping() error
}

// ModelScorer is the primary tier. It is the only tier that reads the
// question text.
type ModelScorer struct {
	predictor Predictor
	truncator Truncator
}

// NewModelScorer returns a scorer backed by predictor. A nil predictor yields
// a scorer that always reports ErrModelUnavailable.
func NewModelScorer(predictor Predictor, truncator Truncator) *ModelScorer {
	return &ModelScorer{predictor: predictor, truncator: truncator}
}

// LoadModelScorer checks the weights file and the inference server once at
// startup. Either failing is logged and leaves the scorer disabled; it never
// stops the process.
func LoadModelScorer(weightsPath string, predictor ReadyPredictor, truncator Truncator, logger *zap.Logger) *ModelScorer {
	log := logger.With(zap.String("component", "model_scorer"))

	if predictor == nil {
		log.Warn("[Model] no inference client configured; falling back to TF-IDF similarity")
		return NewModelScorer(nil, truncator)
	}
	if _, err := os.Stat(weightsPath); err != nil {
		log.Warn("[Model] custom model weights not found; falling back to TF-IDF similarity",
			zap.String("weights_path", weightsPath), zap.Error(err))
		return NewModelScorer(nil, truncator)
	}
	if err := predictor.Ping(); err != nil {
		log.Warn("[Model] inference server not ready; falling back to TF-IDF similarity", zap.Error(err))
		return NewModelScorer(nil, truncator)
	}

	log.Info("[Model] custom model loaded", zap.String("weights_path", weightsPath))
	return NewModelScorer(predictor, truncator)
}

func (s *ModelScorer) Name() string { return StrategyModel }

func (s *ModelScorer) Available() bool { return s != nil && s.predictor != nil }

func (s *ModelScorer) Attempt(ctx context.Context, texts Texts) (int, error) {
	if !s.Available() {
		return 0, ErrModelUnavailable
	}

	input := CombineInput(texts)
	if s.truncator != nil {
		truncated, err := s.truncator.Truncate(input)
		if err != nil {
			return 0, fmt.Errorf("tokenize model input: %w", err)
		}
		input = truncated
	}

	prob, err := s.predictor.Predict(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("model prediction: %w", err)
	}
	if math.IsNaN(prob) || math.IsInf(prob, 0) {
		return 0, fmt.Errorf("model prediction is not a number: %v", prob)
	}
	return toPercent(prob), nil
}

// CombineInput joins the three texts the way the model was trained on.
func CombineInput(texts Texts) string {
	return texts.Question + inputSeparator + texts.Student + inputSeparator + texts.Reference
}

// Sigmoid maps a logit to (0,1).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
