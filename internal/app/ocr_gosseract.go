//go:build gosseract

package app

import (
	"log/slog"

	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr/gosseract"
)

func newGosseractEngine(cfg ocr.Config, logger *slog.Logger) (ocr.Engine, error) {
	return gosseract.NewEngine(cfg, logger), nil
}
