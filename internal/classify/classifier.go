// Package classify locates the PAN page and the user-details page of an affidavit.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/affidavit-tracker/constants"
	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
)

// Assignment maps each role to a 0-based page index.
type Assignment struct {
	PANPage         int
	UserDetailsPage int
}

// PageNotFoundError is returned when a full scan leaves one or both roles unassigned.
type PageNotFoundError struct {
	Missing []constants.PageRole
}

func (e *PageNotFoundError) Error() string {
	names := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		names[i] = string(r)
	}
	return fmt.Sprintf("page not found for role(s): %s", strings.Join(names, ", "))
}

// Options tune the OCR call made for each page.
type Options struct {
	Language    string        // default constants.OCRLanguage
	PageTimeout time.Duration // 0 = no per-page deadline
}

// Classifier OCRs pages in order and matches them against the role keyword sets.
type Classifier struct {
	engine      ocr.Engine
	opts        Options
	panKeywords []string
	udKeywords  []string
	logger      *slog.Logger
}

func NewClassifier(engine ocr.Engine, opts Options, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Language == "" {
		opts.Language = constants.OCRLanguage
	}
	return &Classifier{
		engine:      engine,
		opts:        opts,
		panKeywords: foldAll(constants.Keywords(constants.RolePAN)),
		udKeywords:  foldAll(constants.Keywords(constants.RoleUserDetails)),
		logger:      logger,
	}
}

// Classify scans pages in document order. The first page matching a role's
// keyword set takes that role; one page may take both. Scanning stops as soon
// as both roles are assigned. A page whose OCR fails is treated as blank.
func (c *Classifier) Classify(ctx context.Context, pages []ocr.Page) (Assignment, error) {
	panPage, udPage := -1, -1
	scanned := 0

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return Assignment{}, fmt.Errorf("classify: %w", err)
		}
		scanned++
		text := strings.ToLower(c.recognize(ctx, page))

		if panPage < 0 && containsAny(text, c.panKeywords) {
			c.logger.Info("classify.pan_page.detected", "page", page.Index+1)
			panPage = page.Index
		}
		if udPage < 0 && containsAny(text, c.udKeywords) {
			c.logger.Info("classify.user_details_page.detected", "page", page.Index+1)
			udPage = page.Index
		}
		if panPage >= 0 && udPage >= 0 {
			break
		}
	}

	// OCR failures are soft per page, but not when the whole run ran out of time
	if err := ctx.Err(); err != nil {
		return Assignment{}, fmt.Errorf("classify: %w", err)
	}

	var missing []constants.PageRole
	if panPage < 0 {
		missing = append(missing, constants.RolePAN)
	}
	if udPage < 0 {
		missing = append(missing, constants.RoleUserDetails)
	}
	if len(missing) > 0 {
		c.logger.Error("classify.page_not_found", "missing", missing, "pages", len(pages))
		return Assignment{}, &PageNotFoundError{Missing: missing}
	}

	c.logger.Debug("classify.ok", "pan_page", panPage, "user_details_page", udPage, "scanned", scanned, "pages", len(pages))
	return Assignment{PANPage: panPage, UserDetailsPage: udPage}, nil
}

func (c *Classifier) recognize(ctx context.Context, page ocr.Page) string {
	if c.opts.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.PageTimeout)
		defer cancel()
	}
	start := time.Now()
	text, err := c.engine.Recognize(ctx, page.Image, c.opts.Language)
	if err != nil {
		c.logger.Warn("classify.ocr_failed", "page", page.Index+1, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return ""
	}
	c.logger.Debug("classify.ocr_ok", "page", page.Index+1, "chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds())
	return text
}

func foldAll(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = strings.ToLower(k)
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
