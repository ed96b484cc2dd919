// Package pipeline runs one affidavit PDF through rasterization, page
// classification and the two model extractions, and merges the result.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/affidavit-tracker/constants"
	"github.com/joseph-ayodele/affidavit-tracker/internal/classify"
	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/entity"
	"github.com/joseph-ayodele/affidavit-tracker/internal/llm"
	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
)

// Rasterizer renders a PDF into page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string) ([]ocr.Page, error)
}

// PageClassifier assigns the PAN and user-details roles to pages.
type PageClassifier interface {
	Classify(ctx context.Context, pages []ocr.Page) (classify.Assignment, error)
}

// FieldExtractor issues the two extraction requests and returns raw model text.
type FieldExtractor interface {
	ExtractUserFields(ctx context.Context, img llm.Image) (string, error)
	ExtractPANFields(ctx context.Context, img llm.Image) (string, error)
}

// Degradation records a soft failure: the stage it happened in and why the
// affected fields were left null.
type Degradation struct {
	Stage constants.Stage
	Err   error
}

// Result is the outcome of one run. Record is always populated on success,
// possibly with null fields listed in Degraded.
type Result struct {
	Record     entity.ExtractionRecord
	Stage      constants.Stage
	Pages      int
	Assignment classify.Assignment
	Degraded   []Degradation
}

// Options control the orchestration.
type Options struct {
	// Concurrent runs the user-details and PAN extractions in parallel.
	Concurrent bool
}

type Processor struct {
	raster    Rasterizer
	classify  PageClassifier
	extractor FieldExtractor
	opts      Options
	logger    *slog.Logger
}

func NewProcessor(raster Rasterizer, classifier PageClassifier, extractor FieldExtractor, opts Options, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{raster: raster, classify: classifier, extractor: extractor, opts: opts, logger: logger}
}

// Process runs the pipeline on an already-saved PDF. Only a document that
// cannot be opened (*ocr.DocumentOpenError) or a missing page role
// (*classify.PageNotFoundError) fail the run; everything after classification
// degrades to null fields instead.
func (p *Processor) Process(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	res := Result{Stage: constants.StageStart}
	log := p.logger.With("path", path)

	pages, err := p.raster.Rasterize(ctx, path)
	if err != nil {
		log.Error("pipeline.rasterize.failed", "error", err)
		res.Stage = constants.StageFailed
		return res, common.WrapError(err, "rasterize")
	}
	res.Stage = constants.StageRasterized
	res.Pages = len(pages)
	log.Info("pipeline.rasterize.ok", "pages", len(pages))

	assign, err := p.classify.Classify(ctx, pages)
	if err != nil {
		log.Error("pipeline.classify.failed", "error", err)
		res.Stage = constants.StageFailed
		return res, common.WrapError(err, "classify")
	}
	res.Stage = constants.StageClassified
	res.Assignment = assign
	log.Info("pipeline.classify.ok", "pan_page", assign.PANPage+1, "user_details_page", assign.UserDetailsPage+1)

	udImg := pageImage(pages, assign.UserDetailsPage)
	panImg := pageImage(pages, assign.PANPage)

	var udRaw, panRaw string
	var udErr, panErr error
	if p.opts.Concurrent {
		// Errors are absorbed per task, so the group never short-circuits.
		var g errgroup.Group
		g.Go(func() error {
			udRaw, udErr = p.extractor.ExtractUserFields(ctx, udImg)
			return nil
		})
		g.Go(func() error {
			panRaw, panErr = p.extractor.ExtractPANFields(ctx, panImg)
			return nil
		})
		_ = g.Wait()
	} else {
		udRaw, udErr = p.extractor.ExtractUserFields(ctx, udImg)
		panRaw, panErr = p.extractor.ExtractPANFields(ctx, panImg)
	}

	p.mergeUserFields(&res, udRaw, udErr, log)
	res.Stage = constants.StageUserExtracted

	p.mergePAN(&res, panRaw, panErr, log)
	res.Stage = constants.StagePANExtracted

	res.Stage = constants.StageDone
	log.Info("pipeline.done",
		"degraded", len(res.Degraded),
		"has_pan", res.Record.PAN != nil,
		"pan_confidence", res.Record.PANConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) mergeUserFields(res *Result, raw string, callErr error, log *slog.Logger) {
	stage := constants.StageUserExtracted
	if callErr != nil {
		log.Warn("pipeline.user_fields.degraded", "error", callErr)
		res.Degraded = append(res.Degraded, Degradation{Stage: stage, Err: callErr})
		return
	}
	fields, err := llm.ParseResponse(raw)
	if err != nil {
		log.Warn("pipeline.user_fields.parse_failed", "error", err)
		res.Degraded = append(res.Degraded, Degradation{Stage: stage, Err: err})
		return
	}
	if err := llm.CheckContract(llm.TaskUserFields, fields); err != nil && len(fields) > 0 {
		log.Debug("pipeline.user_fields.contract_mismatch", "error", err)
	}
	llm.ApplyUserFields(fields, &res.Record, log)
}

func (p *Processor) mergePAN(res *Result, raw string, callErr error, log *slog.Logger) {
	stage := constants.StagePANExtracted
	llm.ClearPAN(&res.Record)
	if callErr != nil {
		log.Warn("pipeline.pan.degraded", "error", callErr)
		res.Degraded = append(res.Degraded, Degradation{Stage: stage, Err: callErr})
		return
	}
	fields, err := llm.ParseResponse(raw)
	if err != nil {
		log.Warn("pipeline.pan.parse_failed", "error", err)
		res.Degraded = append(res.Degraded, Degradation{Stage: stage, Err: err})
		return
	}
	if err := llm.CheckContract(llm.TaskPANFields, fields); err != nil && len(fields) > 0 {
		log.Debug("pipeline.pan.contract_mismatch", "error", err)
	}
	llm.ApplyPAN(fields, &res.Record)
	if res.Record.PAN == nil && llm.PANReported(fields) {
		log.Warn("pipeline.pan.rejected", "reported", fields["pan"], "confidence", fields["confidence_score"])
		res.Degraded = append(res.Degraded, Degradation{Stage: stage, Err: llm.ErrInvalidPAN})
	}
}

// pageImage returns the image of the page with the given 0-based index.
func pageImage(pages []ocr.Page, index int) llm.Image {
	for _, pg := range pages {
		if pg.Index == index {
			return llm.Image{Data: pg.Image, MIMEType: constants.PageImageMIME}
		}
	}
	return llm.Image{MIMEType: constants.PageImageMIME}
}
