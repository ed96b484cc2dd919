package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/entity"
)

const (
	recordsTable = "affidavit_records"

	// DefaultListLimit applies when List is called with limit <= 0.
	DefaultListLimit = 100
	maxListLimit     = 1000
)

var recordColumns = []string{
	"id", "source_filename",
	"name", "guardians_name", "age", "address", "phone",
	"pan", "pan_confidence", "created_at",
}

// Store persists extraction records.
type Store interface {
	Migrate(ctx context.Context) error
	Insert(ctx context.Context, sourceFilename string, rec entity.ExtractionRecord) (*entity.StoredRecord, error)
	List(ctx context.Context, limit int) ([]*entity.StoredRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

type sqlStore struct {
	drv     *entsql.Driver
	dialect string
	onClose func()
	logger  *slog.Logger
	now     func() time.Time
}

func newSQLStore(drv *entsql.Driver, dialectName string, onClose func(), logger *slog.Logger) *sqlStore {
	return &sqlStore{drv: drv, dialect: dialectName, onClose: onClose, logger: logger, now: time.Now}
}

// NewSQLiteStore wraps an already opened SQLite handle.
func NewSQLiteStore(db *sql.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return newSQLStore(entsql.OpenDB(dialect.SQLite, db), dialect.SQLite, nil, logger)
}

func (s *sqlStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(s.dialect) {
		if err := s.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			s.logger.Error("db.migrate.failed", "dialect", s.dialect, "error", err)
			return fmt.Errorf("migrate: %w: %w", common.ErrDatabase, err)
		}
	}
	s.logger.Info("db.migrate.ok", "dialect", s.dialect, "table", recordsTable)
	return nil
}

func (s *sqlStore) Insert(ctx context.Context, sourceFilename string, rec entity.ExtractionRecord) (*entity.StoredRecord, error) {
	out := &entity.StoredRecord{
		ID:               uuid.New(),
		SourceFilename:   sourceFilename,
		ExtractionRecord: rec,
		CreatedAt:        s.now().UTC().Truncate(time.Microsecond),
	}

	query, args := entsql.Dialect(s.dialect).
		Insert(recordsTable).
		Columns(recordColumns...).
		Values(
			out.ID.String(), out.SourceFilename,
			nullString(rec.Name), nullString(rec.GuardiansName), nullString(rec.Age),
			nullString(rec.Address), nullString(rec.Phone),
			nullString(rec.PAN), rec.PANConfidence, out.CreatedAt,
		).
		Query()

	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		s.logger.Error("failed to insert record", "source_filename", sourceFilename, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	s.logger.Debug("db.record.inserted", "id", out.ID, "source_filename", sourceFilename)
	return out, nil
}

// List returns the most recent records first.
func (s *sqlStore) List(ctx context.Context, limit int) ([]*entity.StoredRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query, args := entsql.Dialect(s.dialect).
		Select(recordColumns...).
		From(entsql.Table(recordsTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		s.logger.Error("failed to list records", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.StoredRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return out, nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.drv.DB().PingContext(ctx)
}

func (s *sqlStore) Close() error {
	err := s.drv.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

func scanRecord(rows *entsql.Rows) (*entity.StoredRecord, error) {
	var (
		r                                        entity.StoredRecord
		name, guardian, age, address, phone, pan sql.NullString
		createdAt                                any
	)
	if err := rows.Scan(&r.ID, &r.SourceFilename, &name, &guardian, &age, &address, &phone, &pan, &r.PANConfidence, &createdAt); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	r.Name = fromNull(name)
	r.GuardiansName = fromNull(guardian)
	r.Age = fromNull(age)
	r.Address = fromNull(address)
	r.Phone = fromNull(phone)
	r.PAN = fromNull(pan)

	ts, err := toTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = ts
	return &r, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// toTime accepts the shapes drivers hand back for a timestamp column.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimestamp(t)
	case []byte:
		return parseTimestamp(string(t))
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected created_at type %T", v)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse created_at %q", s)
}

func schemaFor(dialectName string) []string {
	if dialectName == dialect.Postgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS affidavit_records (
	id UUID PRIMARY KEY,
	source_filename TEXT NOT NULL,
	name TEXT NULL,
	guardians_name TEXT NULL,
	age TEXT NULL,
	address TEXT NULL,
	phone TEXT NULL,
	pan VARCHAR(10) NULL,
	pan_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT pan_null_iff_zero CHECK ((pan IS NULL) = (pan_confidence = 0))
)`,
			`CREATE INDEX IF NOT EXISTS idx_affidavit_records_created_at ON affidavit_records (created_at DESC)`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS affidavit_records (
	id TEXT PRIMARY KEY,
	source_filename TEXT NOT NULL,
	name TEXT NULL,
	guardians_name TEXT NULL,
	age TEXT NULL,
	address TEXT NULL,
	phone TEXT NULL,
	pan TEXT NULL,
	pan_confidence REAL NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_affidavit_records_created_at ON affidavit_records (created_at DESC)`,
	}
}
