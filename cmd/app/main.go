package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"Answer-Evaluation-Backend/internal/api"
	"Answer-Evaluation-Backend/internal/client"
	"Answer-Evaluation-Backend/internal/config"
	"Answer-Evaluation-Backend/internal/metrics"
	"Answer-Evaluation-Backend/internal/ocr"
	"Answer-Evaluation-Backend/internal/ocr/tesseract"
	"Answer-Evaluation-Backend/internal/repository"
	"Answer-Evaluation-Backend/internal/router"
	"Answer-Evaluation-Backend/internal/scoring"
	"Answer-Evaluation-Backend/internal/service"
	"Answer-Evaluation-Backend/internal/utils"
)

func main() {
	cfg, found, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}

	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("failed to build logger: %s", err)
	}
	defer func() { _ = logger.Sync() }()
	if !found {
		logger.Warn("config.yaml not found, relying on defaults and " + config.EnvPrefix + "_* environment variables")
	}

	collector := metrics.NewCollector(cfg.Metrics.Namespace)

	uploadRepo, err := repository.NewUploadRepository(afero.NewOsFs(), cfg.Storage.UploadDir, cfg.Storage.UniqueNames, logger)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	var reader ocr.Reader
	if tr, err := tesseract.NewReader(cfg.OCR.Language); err != nil {
		logger.Warn("OCR engine unavailable, every extraction will return the placeholder text", zap.Error(err))
	} else {
		reader = tr
	}
	extractor := ocr.NewExtractor(reader, logger, ocr.WithMaxPixels(cfg.OCR.MaxPixels))

	var truncator scoring.Truncator
	if budget, err := scoring.NewTokenBudget(cfg.Model.Encoding, cfg.Model.MaxTokens); err != nil {
		logger.Warn("tokenizer unavailable, model input will not be truncated", zap.Error(err))
	} else {
		truncator = budget
	}

	var predictor scoring.ReadyPredictor
	if cfg.Model.Enabled() {
		predictor = client.NewModelServerClient(cfg.Model.BaseURL, cfg.Model.Name, cfg.Model.TimeoutSeconds, logger)
	}
	modelScorer := scoring.LoadModelScorer(cfg.Model.WeightsPath, predictor, truncator, logger)
	chain := scoring.NewDefaultChain(logger, collector, modelScorer)

	evaluationService := service.NewEvaluationService(uploadRepo, extractor, chain, modelScorer, collector, logger)
	evaluateHandler := api.NewEvaluateHandler(evaluationService, cfg.Server.MaxUploadBytes(), logger)

	r := router.SetupRouter(evaluateHandler, collector, logger, cfg.CORS.AllowedOrigins, cfg.Server.MaxUploadBytes())

	server := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server started",
			zap.String("addr", "http://localhost"+cfg.Server.Port),
			zap.Bool("model_available", modelScorer.Available()),
			zap.Bool("ocr_available", extractor.Available()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	logger.Info("server gracefully stopped")
}
