package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/aretw0/fieldwork/internal/logging"
	"github.com/aretw0/fieldwork/internal/records"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// RecordStore implements ports.RecordStore and ports.Transactional on Postgres via gorm.
type RecordStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Option configures the RecordStore.
type Option func(*RecordStore)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *RecordStore) {
		s.logger = logger
	}
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to Postgres using dsn and applies pool settings.
func Open(dsn string, pool PoolConfig, opts ...Option) (*RecordStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	return New(db, opts...), nil
}

// New wraps an existing gorm connection.
func New(db *gorm.DB, opts ...Option) *RecordStore {
	s := &RecordStore{db: db, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates the surveys, survey_sections and questions tables.
func (s *RecordStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&SurveyRow{}, &SectionRow{}, &QuestionRow{})
}

// Close releases the underlying connection pool.
func (s *RecordStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Insert creates a record, assigning an id if it has none.
func (s *RecordStore) Insert(ctx context.Context, table string, rec ports.Record) (ports.Record, error) {
	stored := records.WithID(rec)
	row := encodeRow(table, stored)
	if err := s.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		return nil, translate(err)
	}
	return stored, nil
}

// InsertMany creates every record in one statement.
func (s *RecordStore) InsertMany(ctx context.Context, table string, recs []ports.Record) ([]ports.Record, error) {
	if len(recs) == 0 {
		return []ports.Record{}, nil
	}
	out := make([]ports.Record, len(recs))
	rows := make([]map[string]interface{}, len(recs))
	for i, rec := range recs {
		out[i] = records.WithID(rec)
		rows[i] = encodeRow(table, out[i])
	}
	if err := s.db.WithContext(ctx).Table(table).Create(rows).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Upsert inserts rec or updates every provided column of the row with the same id.
func (s *RecordStore) Upsert(ctx context.Context, table string, rec ports.Record) (ports.Record, error) {
	stored := records.WithID(rec)
	row := encodeRow(table, stored)

	cols := make([]string, 0, len(row))
	for col := range row {
		if col != "id" {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)

	err := s.db.WithContext(ctx).Table(table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(row).Error
	if err != nil {
		return nil, translate(err)
	}
	return stored, nil
}

// Select returns the matching records with jsonb columns decoded.
func (s *RecordStore) Select(ctx context.Context, table string, filter ports.Filter) ([]ports.Record, error) {
	q := s.db.WithContext(ctx).Table(table)
	if len(filter.Eq) > 0 {
		q = q.Where(map[string]interface{}(filter.Eq))
	}
	if filter.OrderBy != "" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: filter.OrderBy}})
	}

	var rows []map[string]interface{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	out := make([]ports.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, decodeRow(table, row))
	}
	return out, nil
}

// Delete removes the matching records. An empty filter is rejected by gorm.
func (s *RecordStore) Delete(ctx context.Context, table string, filter ports.Filter) error {
	err := s.db.WithContext(ctx).Table(table).
		Where(map[string]interface{}(filter.Eq)).
		Delete(map[string]interface{}{}).Error
	if err != nil {
		return translate(err)
	}
	return nil
}

// InTx runs fn inside a database transaction.
func (s *RecordStore) InTx(ctx context.Context, fn func(tx ports.RecordStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RecordStore{db: tx, logger: s.logger})
	})
}

// translate maps driver errors onto the domain error shape.
const uniqueViolation = "23505"

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			err = fmt.Errorf("%w: %w", domain.ErrDuplicateRecord, err)
		}
		return &domain.StoreError{
			Message:          pgErr.Message,
			ErrorDescription: pgErr.Hint,
			Details:          pgErr.Detail,
			Code:             pgErr.Code,
			Err:              err,
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.StoreError{Message: "record not found", Err: err}
	}
	return &domain.StoreError{Message: err.Error(), Err: err}
}

func encodeRow(table string, rec ports.Record) map[string]interface{} {
	row := make(map[string]interface{}, len(rec))
	jsonCols := jsonColumns[table]
	for col, v := range rec {
		if jsonCols[col] {
			row[col] = encodeJSON(v)
			continue
		}
		row[col] = encodeScalar(v)
	}
	return row
}

func encodeJSON(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func encodeScalar(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return encodeScalar(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Slice, reflect.Map, reflect.Struct:
		return encodeJSON(v)
	}
	return v
}

func decodeRow(table string, row map[string]interface{}) ports.Record {
	rec := make(ports.Record, len(row))
	jsonCols := jsonColumns[table]
	for col, v := range row {
		if !jsonCols[col] {
			rec[col] = v
			continue
		}
		var raw []byte
		switch val := v.(type) {
		case []byte:
			raw = val
		case string:
			raw = []byte(val)
		default:
			rec[col] = val
			continue
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			rec[col] = string(raw)
			continue
		}
		rec[col] = decoded
	}
	return rec
}
