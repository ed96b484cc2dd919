// Command runextract runs the pipeline on a local PDF and prints the record as
// JSON. The record is also stored when DB_URL is set.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/joseph-ayodele/affidavit-tracker/internal/app"
	"github.com/joseph-ayodele/affidavit-tracker/internal/classify"
	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
	repo "github.com/joseph-ayodele/affidavit-tracker/internal/repository"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.LogLevel)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runextract <affidavit.pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.Timeout)
	defer cancel()

	processor, err := app.NewProcessor(ctx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	res, err := processor.Process(ctx, path)
	dur := time.Since(start)
	if err != nil {
		var openErr *ocr.DocumentOpenError
		var pageErr *classify.PageNotFoundError
		code := 1
		if errors.As(err, &openErr) || errors.As(err, &pageErr) {
			code = 3
		}
		logger.Error("extraction failed", "path", path, "stage", res.Stage, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(code)
	}

	for _, d := range res.Degraded {
		logger.Warn("field extraction degraded", "stage", d.Stage, "error", d.Err)
	}
	logger.Info("extraction OK",
		"path", path,
		"pages", res.Pages,
		"pan_page", res.Assignment.PANPage+1,
		"user_details_page", res.Assignment.UserDetailsPage+1,
		"duration_ms", dur.Milliseconds(),
	)

	if cfg.Database.DSN != "" {
		store, err := repo.Open(ctx, app.StoreConfig(cfg.Database), logger)
		if err != nil {
			logger.Error("open db", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Error("close db", "error", cerr)
			}
		}()
		if err := store.Migrate(ctx); err != nil {
			logger.Error("migrate db", "error", err)
			os.Exit(1)
		}
		stored, err := store.Insert(ctx, path, res.Record)
		if err != nil {
			logger.Error("persist record", "error", err)
		} else {
			logger.Info("record stored", "id", stored.ID)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Record); err != nil {
		logger.Error("encode record", "error", err)
		os.Exit(1)
	}
}
