package export

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/entity"
)

// RecordLister is the slice of the repository the export needs.
type RecordLister interface {
	List(ctx context.Context, limit int) ([]*entity.StoredRecord, error)
}

// Service produces XLSX bytes for record exports.
type Service struct {
	records RecordLister
	logger  *slog.Logger
}

func NewService(records RecordLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

const sheet = "Affidavits"

var headers = []string{
	"Extracted At",
	"Source File",
	"Name",
	"Father/Spouse Name",
	"Age",
	"Address",
	"Phone",
	"PAN",
	"PAN Confidence",
}

// ExportRecordsXLSX returns a workbook with the most recent limit records,
// newest first. limit <= 0 uses the repository default.
func (s *Service) ExportRecordsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	recs, err := s.records.List(ctx, limit)
	if err != nil {
		return nil, common.WrapError(err, "query records")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// rename the default sheet rather than leaving an empty Sheet1 behind
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range recs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.CreatedAt.UTC().Format(time.RFC3339))
		write(2, r.SourceFilename)
		write(3, entity.StrOrEmpty(r.Name))
		write(4, entity.StrOrEmpty(r.GuardiansName))
		write(5, entity.StrOrEmpty(r.Age))
		write(6, truncate(entity.StrOrEmpty(r.Address), 240))
		// phone numbers stay text so leading zeros and +91 survive
		write(7, entity.StrOrEmpty(r.Phone))
		write(8, entity.StrOrEmpty(r.PAN))
		write(9, strconv.FormatFloat(r.PANConfidence, 'f', 2, 64))
	}

	_ = f.SetColWidth(sheet, "A", "A", 22) // timestamp
	_ = f.SetColWidth(sheet, "B", "B", 28) // file
	_ = f.SetColWidth(sheet, "C", "D", 26) // names
	_ = f.SetColWidth(sheet, "E", "E", 6)
	_ = f.SetColWidth(sheet, "F", "F", 60) // address
	_ = f.SetColWidth(sheet, "G", "H", 16)
	_ = f.SetColWidth(sheet, "I", "I", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.WrapError(err, "xlsx write")
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
