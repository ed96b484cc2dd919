package repository

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/entity"
)

func strPtr(s string) *string { return &s }

func newTestStore(t *testing.T) *sqlStore {
	t.Helper()
	store, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "records.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	s, ok := store.(*sqlStore)
	require.True(t, ok)
	return s
}

func TestSQLiteStore_InsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	first, err := s.Insert(ctx, "asha.pdf", entity.ExtractionRecord{
		Name:          strPtr("Asha Devi"),
		GuardiansName: strPtr("Ram Devi"),
		Age:           strPtr("45"),
		Address:       strPtr("12 MG Road"),
		PAN:           strPtr("ABCDE1234F"),
		PANConfidence: 0.93,
	})
	require.NoError(t, err)
	assert.Equal(t, "asha.pdf", first.SourceFilename)

	_, err = s.Insert(ctx, "blank.pdf", entity.ExtractionRecord{})
	require.NoError(t, err)

	recs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// newest first
	assert.Equal(t, "blank.pdf", recs[0].SourceFilename)
	assert.Nil(t, recs[0].Name)
	assert.Nil(t, recs[0].PAN)
	assert.Zero(t, recs[0].PANConfidence)

	got := recs[1]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Asha Devi", entity.StrOrEmpty(got.Name))
	assert.Equal(t, "Ram Devi", entity.StrOrEmpty(got.GuardiansName))
	assert.Equal(t, "45", entity.StrOrEmpty(got.Age))
	assert.Equal(t, "12 MG Road", entity.StrOrEmpty(got.Address))
	assert.Nil(t, got.Phone)
	assert.Equal(t, "ABCDE1234F", entity.StrOrEmpty(got.PAN))
	assert.InDelta(t, 0.93, got.PANConfidence, 1e-9)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", first.CreatedAt, got.CreatedAt)
}

func TestSQLiteStore_ListLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Insert(ctx, "doc.pdf", entity.ExtractionRecord{})
		require.NoError(t, err)
	}

	recs, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, HealthCheck(context.Background(), s, time.Second, nil))
}

func TestSQLiteStore_ErrorsAreDatabaseErrors(t *testing.T) {
	store, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	defer store.Close()

	// no Migrate: the table does not exist
	_, err = store.List(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDatabase))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql", DSN: "x"}, nil)
	require.Error(t, err)
}

func TestNewSQLiteStore_InMemory(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:", slog.Default())
	require.NoError(t, err)

	store := NewSQLiteStore(db, nil)
	defer store.Close()
	require.NoError(t, store.Migrate(ctx))

	saved, err := store.Insert(ctx, "mem.pdf", entity.ExtractionRecord{Phone: strPtr("9800000000")})
	require.NoError(t, err)

	recs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, saved.ID, recs[0].ID)
	assert.Equal(t, "9800000000", entity.StrOrEmpty(recs[0].Phone))
}
