// Package app assembles the extraction pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/affidavit-tracker/internal/classify"
	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/llm"
	"github.com/joseph-ayodele/affidavit-tracker/internal/llm/gemini"
	"github.com/joseph-ayodele/affidavit-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
	"github.com/joseph-ayodele/affidavit-tracker/internal/pipeline"
	"github.com/joseph-ayodele/affidavit-tracker/internal/repository"
)

// OCRConfig maps the OCR section of the process config onto ocr.Config.
func OCRConfig(cfg common.OCRConfig) ocr.Config {
	return ocr.Config{
		Pdftoppm:    cfg.Pdftoppm,
		Tesseract:   cfg.Tesseract,
		TessdataDir: cfg.TessdataDir,
		DPI:         cfg.DPI,
		PSM:         cfg.PSM,
		MaxPages:    cfg.MaxPages,
	}
}

// NewOCREngine picks the tesseract CLI or the cgo gosseract binding.
func NewOCREngine(cfg common.OCRConfig, logger *slog.Logger) (ocr.Engine, error) {
	switch cfg.Engine {
	case "", "tesseract":
		return ocr.NewTesseractEngine(OCRConfig(cfg), logger), nil
	case "gosseract":
		return newGosseractEngine(OCRConfig(cfg), logger)
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
}

// NewVisionModel constructs the configured multimodal client.
func NewVisionModel(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.VisionModel, error) {
	switch cfg.Provider {
	case "", "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// NewProcessor builds the full pipeline: rasterizer, classifier, extractor.
func NewProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*pipeline.Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	engine, err := NewOCREngine(cfg.OCR, logger)
	if err != nil {
		return nil, err
	}
	model, err := NewVisionModel(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	raster := ocr.NewRasterizer(OCRConfig(cfg.OCR), logger)
	classifier := classify.NewClassifier(engine, classify.Options{PageTimeout: cfg.OCR.Timeout}, logger)
	extractor := llm.NewExtractor(model, cfg.LLM.Timeout, logger, llm.WithRateLimit(float64(cfg.LLM.RateLimit)))

	logger.Info("pipeline.ready",
		"ocr_engine", cfg.OCR.Engine,
		"dpi", cfg.OCR.DPI,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"concurrent", cfg.Pipeline.Concurrent,
	)
	return pipeline.NewProcessor(raster, classifier, extractor, pipeline.Options{Concurrent: cfg.Pipeline.Concurrent}, logger), nil
}

// StoreConfig maps the database section onto repository settings.
func StoreConfig(cfg common.DatabaseConfig) repository.Config {
	return repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}
}
