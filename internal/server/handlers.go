package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/affidavit-tracker/constants"
	"github.com/joseph-ayodele/affidavit-tracker/internal/classify"
	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/entity"
	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
	"github.com/joseph-ayodele/affidavit-tracker/internal/pipeline"
)

// Processor runs the extraction pipeline on a saved PDF.
type Processor interface {
	Process(ctx context.Context, path string) (pipeline.Result, error)
}

// RecordStore is the persistence the handlers use.
type RecordStore interface {
	Insert(ctx context.Context, sourceFilename string, rec entity.ExtractionRecord) (*entity.StoredRecord, error)
	List(ctx context.Context, limit int) ([]*entity.StoredRecord, error)
	Ping(ctx context.Context) error
}

// Exporter renders stored records as a spreadsheet.
type Exporter interface {
	ExportRecordsXLSX(ctx context.Context, limit int) ([]byte, error)
}

const persistTimeout = 5 * time.Second

type Config struct {
	UploadDir string        // temp dir for uploads; "" = os.TempDir()
	Timeout   time.Duration // per-request pipeline deadline; 0 = none
}

type Handlers struct {
	proc     Processor
	store    RecordStore
	exporter Exporter
	cfg      Config
	logger   *slog.Logger
}

// NewHandlers wires the HTTP handlers. store and exporter may be nil, in which
// case extraction still works and the record endpoints answer 503.
func NewHandlers(proc Processor, store RecordStore, exporter Exporter, cfg Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{proc: proc, store: store, exporter: exporter, cfg: cfg, logger: logger}
}

// Extract accepts a multipart "file" upload, runs the pipeline and returns the record.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := common.RequestIDFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(constants.MaxUploadMB << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, fmt.Sprintf("file exceeds %d MB", constants.MaxUploadMB), http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if ext := filepath.Ext(filename); ext != "" && !constants.IsAllowedExt(ext) {
		writeJSONError(w, "only PDF uploads are supported", http.StatusUnsupportedMediaType)
		return
	}

	tmpPath, err := h.saveUpload(file)
	if err != nil {
		h.logger.Error("http.extract.save_failed", "req_id", reqID, "error", err)
		writeJSONError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("http.extract.cleanup_failed", "req_id", reqID, "path", tmpPath, "error", err)
		}
	}()

	h.logger.Info("http.extract.start", "req_id", reqID, "filename", filename, "size", header.Size)

	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	res, err := h.proc.Process(ctx, tmpPath)
	if err != nil {
		status, msg := classifyError(err)
		h.logger.Error("http.extract.failed", "req_id", reqID, "filename", filename, "status", status, "error", err)
		writeJSONError(w, msg, status)
		return
	}

	if len(res.Degraded) > 0 {
		stages := make([]string, len(res.Degraded))
		for i, d := range res.Degraded {
			stages[i] = string(d.Stage)
		}
		w.Header().Set("X-Extraction-Degraded", strings.Join(stages, ","))
	}

	if h.store != nil {
		// the pipeline may have used most of its deadline; storing gets its own
		pctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), persistTimeout)
		stored, err := h.store.Insert(pctx, filename, res.Record)
		cancel()
		if err != nil {
			h.logger.Error("http.extract.persist_failed", "req_id", reqID, "filename", filename, "error", err)
		} else {
			w.Header().Set("X-Record-ID", stored.ID.String())
		}
	}

	writeJSON(w, http.StatusOK, res.Record)
}

// ListRecords returns the most recent stored records: GET /records?limit=N.
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSONError(w, "record storage is not configured", http.StatusServiceUnavailable)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeJSONError(w, errorMessage(err), http.StatusBadRequest)
		return
	}
	recs, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("http.records.list_failed", "req_id", common.RequestIDFromContext(r.Context()), "error", err)
		writeJSONError(w, "failed to list records", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []*entity.StoredRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

// ExportRecords streams an XLSX workbook: GET /records/export?limit=N.
func (h *Handlers) ExportRecords(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeJSONError(w, "record storage is not configured", http.StatusServiceUnavailable)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeJSONError(w, errorMessage(err), http.StatusBadRequest)
		return
	}
	xlsx, err := h.exporter.ExportRecordsXLSX(r.Context(), limit)
	if err != nil {
		h.logger.Error("http.records.export_failed", "req_id", common.RequestIDFromContext(r.Context()), "error", err)
		writeJSONError(w, "failed to export records", http.StatusInternalServerError)
		return
	}
	name := "affidavits-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}

// Health reports liveness and, when a store is wired, database reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) saveUpload(src io.Reader) (string, error) {
	dir := h.cfg.UploadDir
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create upload dir: %w", err)
		}
	}
	f, err := os.CreateTemp(dir, "affidavit-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}
	return f.Name(), nil
}

// classifyError maps pipeline failures onto HTTP statuses.
func classifyError(err error) (int, string) {
	var openErr *ocr.DocumentOpenError
	var pageErr *classify.PageNotFoundError
	switch {
	case errors.As(err, &openErr):
		return http.StatusUnprocessableEntity, "could not open the uploaded file as a PDF"
	case errors.As(err, &pageErr):
		return http.StatusUnprocessableEntity, pageErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "extraction timed out"
	default:
		return http.StatusInternalServerError, "extraction failed"
	}
}

func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, common.NewAppError("INVALID_LIMIT", "limit must be a non-negative integer", common.ErrInvalidInput)
	}
	return n, nil
}

// errorMessage returns the client-facing message of an AppError.
func errorMessage(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
