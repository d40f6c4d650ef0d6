package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"Answer-Evaluation-Backend/internal/metrics"
	"Answer-Evaluation-Backend/internal/model"
	"Answer-Evaluation-Backend/internal/ocr"
	"Answer-Evaluation-Backend/internal/repository"
	"Answer-Evaluation-Backend/internal/scoring"
	"Answer-Evaluation-Backend/internal/utils"
)

var (
	ErrMissingImage    = errors.New("missing image")
	ErrEmptyFilename   = errors.New("empty filename")
	ErrInvalidFileType = errors.New("invalid file type")
)

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// EvaluationService is built once at startup and shared by all requests. It
// holds no per-request state.
type EvaluationService struct {
	uploads   *repository.UploadRepository
	extractor *ocr.Extractor
	scorer    *scoring.Chain
	model     *scoring.ModelScorer
	collector *metrics.Collector
	logger    *zap.Logger
}

func NewEvaluationService(
	uploads *repository.UploadRepository,
	extractor *ocr.Extractor,
	scorer *scoring.Chain,
	modelScorer *scoring.ModelScorer,
	collector *metrics.Collector,
	logger *zap.Logger,
) *EvaluationService {
	return &EvaluationService{
		uploads:   uploads,
		extractor: extractor,
		scorer:    scorer,
		model:     modelScorer,
		collector: collector,
		logger:    logger.With(zap.String("component", "evaluation")),
	}
}

func (s *EvaluationService) ModelAvailable() bool { return s.model.Available() }

func (s *EvaluationService) OCRAvailable() bool { return s.extractor.Available() }

// ValidateUploads checks that all three uploads are present, then checks each
// one in order for an empty filename and an allowed extension.
func ValidateUploads(u *model.EvaluationUploads) error {
	uploads := u.ByRole()
	for _, up := range uploads {
		if up.File == nil {
			return fmt.Errorf("%w: %s", ErrMissingImage, up.Role)
		}
	}
	for _, up := range uploads {
		if up.File.Filename == "" {
			return fmt.Errorf("%w: %s", ErrEmptyFilename, up.Role)
		}
		if _, ok := allowedExtensions[utils.FileExtension(up.File.Filename)]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidFileType, up.File.Filename)
		}
	}
	return nil
}

// Evaluate validates and stores the uploads, extracts their text, scores the
// student answer against the reference and adjusts the score. Extraction and
// scoring failures degrade to placeholder text and weaker scorers; an error
// is returned only for invalid input or when nothing could produce a score.
func (s *EvaluationService) Evaluate(ctx context.Context, u *model.EvaluationUploads) (*model.EvaluationResult, error) {
	start := time.Now()
	if err := ValidateUploads(u); err != nil {
		s.collector.RecordEvaluation(metrics.OutcomeInvalid, time.Since(start))
		return nil, err
	}

	result, err := s.evaluate(ctx, u)
	if err != nil {
		s.collector.RecordEvaluation(metrics.OutcomeError, time.Since(start))
		return nil, err
	}
	s.collector.RecordEvaluation(metrics.OutcomeSuccess, time.Since(start))
	s.logger.Info("[Evaluate] evaluation complete",
		zap.Int("score", result.Score), zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (s *EvaluationService) evaluate(ctx context.Context, u *model.EvaluationUploads) (*model.EvaluationResult, error) {
	paths := make(map[string]string, 3)
	for _, up := range u.ByRole() {
		path, err := s.uploads.SaveFile(up.File)
		if err != nil {
			return nil, fmt.Errorf("save %s image: %w", up.Role, err)
		}
		paths[up.Role] = path
	}
	s.logger.Debug("[Evaluate] files saved",
		zap.String("question", paths[model.RoleQuestion]),
		zap.String("student_answer", paths[model.RoleStudentAnswer]),
		zap.String("reference_answer", paths[model.RoleReferenceAnswer]))

	texts := scoring.Texts{
		Question:  s.extractText(ctx, model.RoleQuestion, paths[model.RoleQuestion]),
		Student:   s.extractText(ctx, model.RoleStudentAnswer, paths[model.RoleStudentAnswer]),
		Reference: s.extractText(ctx, model.RoleReferenceAnswer, paths[model.RoleReferenceAnswer]),
	}

	scored, err := s.scorer.Score(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("calculate similarity: %w", err)
	}
	final := AdjustScore(scored.Score)
	s.logger.Info("[Evaluate] similarity score",
		zap.String("strategy", scored.Strategy),
		zap.Int("raw_score", scored.Score),
		zap.Int("adjusted_score", final))

	return &model.EvaluationResult{
		Success:             true,
		Score:               final,
		QuestionText:        texts.Question,
		StudentAnswerText:   texts.Student,
		ReferenceAnswerText: texts.Reference,
	}, nil
}

func (s *EvaluationService) extractText(ctx context.Context, role, path string) string {
	res := s.extractor.ExtractDetailed(ctx, path)
	switch {
	case res.Failed():
		s.collector.RecordExtraction(role, metrics.ExtractionFailed)
	case res.Text == "":
		s.collector.RecordExtraction(role, metrics.ExtractionEmpty)
	default:
		s.collector.RecordExtraction(role, metrics.ExtractionText)
	}
	text := res.Value()
	s.logger.Debug("[Evaluate] text extracted", zap.String("role", role), zap.String("text", text))
	return text
}
