package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCallTimeout bounds a single model call when none is configured.
const DefaultCallTimeout = 45 * time.Second

// Extractor issues the two fixed extraction requests against a VisionModel.
// It returns raw model text; parsing and validation are left to the caller.
type Extractor struct {
	model   VisionModel
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

type ExtractorOption func(*Extractor)

// WithRateLimit caps model calls per second across all runs sharing the
// extractor. perSecond <= 0 leaves calls unthrottled.
func WithRateLimit(perSecond float64) ExtractorOption {
	return func(x *Extractor) {
		if perSecond <= 0 {
			x.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		x.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func NewExtractor(model VisionModel, timeout time.Duration, logger *slog.Logger, opts ...ExtractorOption) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	x := &Extractor{model: model, timeout: timeout, logger: logger}
	for _, o := range opts {
		o(x)
	}
	return x
}

// ExtractUserFields asks for name, guardians_name, age, address and phone.
func (x *Extractor) ExtractUserFields(ctx context.Context, img Image) (string, error) {
	return x.call(ctx, TaskUserFields, img)
}

// ExtractPANFields asks for the PAN and its confidence score.
func (x *Extractor) ExtractPANFields(ctx context.Context, img Image) (string, error) {
	return x.call(ctx, TaskPANFields, img)
}

func (x *Extractor) call(ctx context.Context, task Task, img Image) (string, error) {
	if x.model == nil {
		return "", &ExtractionCallError{Task: task, Err: errors.New("no vision model configured")}
	}
	if len(img.Data) == 0 {
		return "", &ExtractionCallError{Task: task, Err: errors.New("empty page image")}
	}

	if x.limiter != nil {
		if err := x.limiter.Wait(ctx); err != nil {
			x.logger.Warn("llm.extract.throttled", "task", task, "error", err)
			return "", &ExtractionCallError{Task: task, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	x.logger.Info("llm.extract.start", "task", task, "image_bytes", len(img.Data), "timeout", x.timeout)

	raw, err := x.model.Generate(cctx, PromptFor(task), img)
	if err != nil {
		x.logger.Error("llm.extract.failed",
			"task", task,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &ExtractionCallError{Task: task, Err: err}
	}

	x.logger.Info("llm.extract.ok",
		"task", task,
		"chars", len(strings.TrimSpace(raw)),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, nil
}
