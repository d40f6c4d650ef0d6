package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/parnurzeal/gorequest"
	"go.uber.org/zap"

	"Answer-Evaluation-Backend/internal/model"
	"Answer-Evaluation-Backend/internal/scoring"
)

var ErrEmptyPrediction = errors.New("inference server returned neither score nor logit")

// ModelServerClient talks to the inference server that hosts the custom
// answer-assessment model.
type ModelServerClient struct {
	BaseURL   string
	ModelName string
	Timeout   time.Duration
	logger    *zap.Logger
}

func NewModelServerClient(baseURL, modelName string, timeoutSec int, logger *zap.Logger) *ModelServerClient {
	return &ModelServerClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		Timeout:   time.Duration(timeoutSec) * time.Second,
		logger:    logger.With(zap.String("component", "model_client")),
	}
}

// Headers must be set after Get/Post, which reset the agent.
func (c *ModelServerClient) request() *gorequest.SuperAgent {
	return gorequest.New().Timeout(c.Timeout)
}

// Ping succeeds when the server reports ready.
func (c *ModelServerClient) Ping() error {
	url := c.BaseURL + "/ping"
	resp, body, errs := c.request().Get(url).Set("Accept", "application/json").End()
	if len(errs) > 0 {
		return fmt.Errorf("ping inference server: %w", errors.Join(errs...))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference server not ready: %s: %s", resp.Status, strings.TrimSpace(body))
	}
	return nil
}

// Predict sends one combined input and returns the sigmoid output of the
// scoring head. A logit-only response is passed through the sigmoid.
func (c *ModelServerClient) Predict(ctx context.Context, input string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/predictions/%s", c.BaseURL, c.ModelName)
	start := time.Now()
	resp, body, errs := c.request().
		Post(url).
		Set("Accept", "application/json").
		Send(model.PredictionRequest{Inputs: input}).
		EndBytes()
	if len(errs) > 0 {
		return 0, fmt.Errorf("prediction request failed: %w", errors.Join(errs...))
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("[ModelServer] non-200 prediction response",
			zap.String("status", resp.Status), zap.ByteString("body", body))
		return 0, fmt.Errorf("prediction API returned error status: %s", resp.Status)
	}

	var out model.PredictionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("parse prediction response: %w", err)
	}
	c.logger.Debug("[ModelServer] prediction received",
		zap.Duration("elapsed", time.Since(start)), zap.Int("body_bytes", len(body)))

	switch {
	case out.Score != nil:
		if *out.Score < 0 || *out.Score > 1 || math.IsNaN(*out.Score) {
			return 0, fmt.Errorf("prediction score %v outside [0,1]", *out.Score)
		}
		return *out.Score, nil
	case out.Logit != nil:
		return scoring.Sigmoid(*out.Logit), nil
	default:
		return 0, ErrEmptyPrediction
	}
}
