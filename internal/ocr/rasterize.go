package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultDPI is the rasterization resolution used when none is configured.
const DefaultDPI = 300

// Page is one rasterized PDF page, PNG-encoded.
type Page struct {
	Index int // 0-based, document order
	Image []byte
	DPI   int
	Scale float64 // DPI/72, applied to both axes
}

// DocumentOpenError reports a file that could not be opened or rendered as a PDF.
type DocumentOpenError struct {
	Path string
	Err  error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("open document %q: %v", e.Path, e.Err)
}

func (e *DocumentOpenError) Unwrap() error { return e.Err }

// Rasterizer renders every page of a PDF to a PNG at a fixed DPI.
type Rasterizer struct {
	cfg       Config
	runner    Runner
	pageCount func(path string) (int, error)
	logger    *slog.Logger
}

func NewRasterizer(cfg Config, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rasterizer{
		cfg:       cfg.withDefaults(),
		runner:    execRunner{logger: logger},
		pageCount: pdfPageCount,
		logger:    logger,
	}
}

func pdfPageCount(path string) (int, error) {
	return api.PageCountFile(path)
}

// Rasterize validates path as a PDF and returns its pages in document order.
// The source file is only read; rendered images live in a private temp dir
// that is removed before returning.
func (r *Rasterizer) Rasterize(ctx context.Context, path string) ([]Page, error) {
	start := time.Now()
	if st, err := os.Stat(path); err != nil {
		return nil, &DocumentOpenError{Path: path, Err: err}
	} else if st.IsDir() {
		return nil, &DocumentOpenError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	n, err := r.pageCount(path)
	if err != nil {
		return nil, &DocumentOpenError{Path: path, Err: fmt.Errorf("read pdf: %w", err)}
	}
	if n == 0 {
		return nil, &DocumentOpenError{Path: path, Err: fmt.Errorf("pdf has no pages")}
	}

	tmpDir, err := os.MkdirTemp("", "aff-pp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("rasterize.cleanup_failed", "dir", dir, "error", err)
		}
	}(tmpDir)

	// pdftoppm -r 300 -png [-f 1 -l N] <in.pdf> <tmp/page>
	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(r.cfg.DPI), "-png"}
	if r.cfg.MaxPages > 0 && n > r.cfg.MaxPages {
		args = append(args, "-f", "1", "-l", strconv.Itoa(r.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := r.runner.Run(ctx, nil, r.cfg.Pdftoppm, args...); err != nil {
		// a killed pdftoppm says nothing about the document
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("pdftoppm: %w", ctxErr)
		}
		return nil, &DocumentOpenError{Path: path, Err: fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))}
	}

	files, err := renderedPages(prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &DocumentOpenError{Path: path, Err: fmt.Errorf("pdftoppm produced no images")}
	}

	scale := float64(r.cfg.DPI) / 72
	pages := make([]Page, 0, len(files))
	for i, f := range files {
		img, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read rendered page %d: %w", i+1, err)
		}
		pages = append(pages, Page{Index: i, Image: img, DPI: r.cfg.DPI, Scale: scale})
	}

	r.logger.Info("rasterize.ok",
		"path", path,
		"pages", len(pages),
		"pdf_pages", n,
		"dpi", r.cfg.DPI,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

// renderedPages collects prefix-N.png files ordered by page number
// (pdftoppm zero-pads N, but only to the width of the last page).
func renderedPages(prefix string) ([]string, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n, err := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		if err != nil {
			return -1
		}
		return n
	}
	sort.Slice(matches, func(i, j int) bool { return num(matches[i]) < num(matches[j]) })
	return matches, nil
}
