package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Config drives rasterization and the tesseract CLI engine.
type Config struct {
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string

	DPI      int // rasterization DPI, default 300
	PSM      int // page segmentation mode, default 6 (uniform block of text)
	MaxPages int // 0 = no limit
}

func (c Config) withDefaults() Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.DPI <= 0 {
		c.DPI = DefaultDPI
	}
	if c.PSM <= 0 {
		c.PSM = 6
	}
	return c
}

// Engine turns a raster image into best-effort plain text.
type Engine interface {
	Recognize(ctx context.Context, image []byte, lang string) (string, error)
}

// TesseractEngine runs the tesseract CLI, feeding the image through stdin.
type TesseractEngine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

var _ Engine = (*TesseractEngine)(nil)

func NewTesseractEngine(cfg Config, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractEngine{cfg: cfg.withDefaults(), runner: execRunner{logger: logger}, logger: logger}
}

// Recognize runs `tesseract stdin stdout -l <lang> --psm <psm>`.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("tesseract: empty image")
	}
	if lang == "" {
		lang = "eng"
	}
	args := []string{"stdin", "stdout", "-l", lang, "--psm", strconv.Itoa(e.cfg.PSM)}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, image, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return Normalize(string(out)), nil
}
