//go:build !gosseract

package app

import (
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
)

// ErrEngineNotCompiled is returned for OCR_ENGINE=gosseract in builds without -tags gosseract.
var ErrEngineNotCompiled = errors.New("gosseract OCR engine not compiled in (build with -tags gosseract)")

func newGosseractEngine(ocr.Config, *slog.Logger) (ocr.Engine, error) {
	return nil, ErrEngineNotCompiled
}
