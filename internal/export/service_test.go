package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/affidavit-tracker/internal/entity"
)

type fakeLister struct {
	recs      []*entity.StoredRecord
	err       error
	lastLimit int
}

func (f *fakeLister) List(_ context.Context, limit int) ([]*entity.StoredRecord, error) {
	f.lastLimit = limit
	return f.recs, f.err
}

func strPtr(s string) *string { return &s }

func TestExportRecordsXLSX(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	lister := &fakeLister{recs: []*entity.StoredRecord{
		{
			ID:             uuid.New(),
			SourceFilename: "asha.pdf",
			CreatedAt:      created,
			ExtractionRecord: entity.ExtractionRecord{
				Name:          strPtr("Asha Devi"),
				GuardiansName: strPtr("Ram Devi"),
				Age:           strPtr("45"),
				Address:       strPtr("12 MG Road"),
				Phone:         strPtr("+919800000000"),
				PAN:           strPtr("ABCDE1234F"),
				PANConfidence: 0.93,
			},
		},
		{ID: uuid.New(), SourceFilename: "blank.pdf", CreatedAt: created},
	}}

	out, err := NewService(lister, nil).ExportRecordsXLSX(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, 25, lister.lastLimit)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{
		"2025-03-01T10:30:00Z", "asha.pdf", "Asha Devi", "Ram Devi", "45",
		"12 MG Road", "+919800000000", "ABCDE1234F", "0.93",
	}, rows[1])

	// empty trailing cells are dropped by GetRows
	assert.Equal(t, "blank.pdf", rows[2][1])
	assert.Equal(t, "0.00", rows[2][len(rows[2])-1])
}

func TestExportRecordsXLSX_ListError(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewService(&fakeLister{err: boom}, nil).ExportRecordsXLSX(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "abcdef", truncate("abcdef", 0))
}
