//go:build gosseract

package gosseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
)

// Engine implements ocr.Engine using a fresh gosseract client per call.
type Engine struct {
	clientFactory func() *gosseract.Client
	tessdataDir   string
	psm           gosseract.PageSegMode
	logger        *slog.Logger
}

var _ ocr.Engine = (*Engine)(nil)

func NewEngine(cfg ocr.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	psm := gosseract.PSM_SINGLE_BLOCK
	if cfg.PSM > 0 {
		psm = gosseract.PageSegMode(cfg.PSM)
	}
	return &Engine{
		clientFactory: gosseract.NewClient,
		tessdataDir:   cfg.TessdataDir,
		psm:           psm,
		logger:        logger,
	}
}

// Recognize runs tesseract over image. lang uses the CLI form ("hin+eng").
func (e *Engine) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	if err := e.configure(c, image, lang); err != nil {
		e.close(c)
		return "", err
	}

	// gosseract blocks without honoring ctx; run it aside so a deadline still returns.
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := c.Text()
		e.close(c)
		done <- result{text, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("recognize text: %w", res.err)
		}
		return ocr.Normalize(res.text), nil
	}
}

func (e *Engine) configure(c *gosseract.Client, image []byte, lang string) error {
	if e.tessdataDir != "" {
		if err := c.SetTessdataPrefix(e.tessdataDir); err != nil {
			return fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if lang != "" {
		if err := c.SetLanguage(strings.Split(lang, "+")...); err != nil {
			return fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(e.psm); err != nil {
		return fmt.Errorf("set psm: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	return nil
}

func (e *Engine) close(c *gosseract.Client) {
	if err := c.Close(); err != nil {
		e.logger.Warn("gosseract.close_failed", "error", err)
	}
}
