// Package sqlite is the SQLite backend for criteria filters. Its Builder renders
// predicates with squirrel, its Query resolves paths into table joins, and
// SQLiteInteractor runs the resulting statements with mattn/go-sqlite3.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"github.com/asaidimu/go-anansi-criteria/core/persistence"
	"github.com/asaidimu/go-anansi-criteria/core/schema"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DriverName is the database/sql driver Open uses: go-sqlite3 with lower()
// folding the full Unicode range instead of ASCII only.
const DriverName = "sqlite3_criteria"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", foldLower, true)
		},
	})
}

// foldLower lower-cases text the way strings.ToLower does. NULL stays NULL.
func foldLower(v any) any {
	switch val := v.(type) {
	case string:
		return strings.ToLower(val)
	case []byte:
		if val == nil {
			return nil
		}
		return bytes.ToLower(val)
	}
	return v
}

// Open opens a SQLite database with LIKE comparing case-sensitively and
// foreign keys enforced. In-memory databases are pinned to one connection so
// every statement sees the same data.
func Open(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open(DriverName, path+sep+"_cslike=true&_fk=true")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// dbRunner is an interface that abstracts the common methods of *sql.DB and *sql.Tx,
// allowing for the same code to be used for both transactional and non-transactional
// database operations.
type dbRunner interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteInteractor implements persistence.DatabaseInteractor for SQLite.
type SQLiteInteractor struct {
	db       *sql.DB
	tx       *sql.Tx
	registry *schema.Registry
	builder  *Builder
	logger   *zap.Logger
	options  *persistence.InteractorOptions
}

var _ persistence.DatabaseInteractor = (*SQLiteInteractor)(nil)

// NewSQLiteInteractor creates an interactor resolving relations through
// registry. A non-nil tx makes it transactional.
func NewSQLiteInteractor(db *sql.DB, registry *schema.Registry, logger *zap.Logger, options *persistence.InteractorOptions, tx *sql.Tx) *SQLiteInteractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultInteractorOptions()
	}
	if registry == nil {
		registry = schema.NewRegistry()
	}
	return &SQLiteInteractor{
		db:       db,
		tx:       tx,
		registry: registry,
		builder:  NewBuilder(),
		logger:   logger,
		options:  options,
	}
}

func (i *SQLiteInteractor) runner() dbRunner {
	if i.tx != nil {
		return i.tx
	}
	return i.db
}

func (i *SQLiteInteractor) tableName(name string) string {
	return quoteIdentifier(i.options.CollectionPrefix + name)
}

// prepare builds a query of the given result type and applies filter to it.
func (i *SQLiteInteractor) prepare(sc *schema.SchemaDefinition, result reflect.Type, filter criteria.Filter) (*Query, criteria.Predicate, error) {
	q, err := NewQuery(sc, i.registry, result, i.options.CollectionPrefix)
	if err != nil {
		return nil, nil, err
	}
	if filter == nil {
		return q, nil, nil
	}
	where, err := filter(q.Root(), q, i.builder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build filter for %s: %w", sc.Name, err)
	}
	return q, where, nil
}

// SelectDocuments executes a SELECT for filter and nests fetched relations into
// the returned documents.
func (i *SQLiteInteractor) SelectDocuments(ctx context.Context, sc *schema.SchemaDefinition, filter criteria.Filter) ([]schema.Document, error) {
	q, where, err := i.prepare(sc, criteria.EntityResult, filter)
	if err != nil {
		return nil, err
	}
	sqlQuery, queryParams, err := q.SelectSQL(where)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL query: %w", err)
	}

	i.logger.Debug("Executing SQL SELECT", zap.String("sql", sqlQuery), zap.Any("params", queryParams))

	rows, err := i.runner().QueryContext(ctx, sqlQuery, queryParams...)
	if err != nil {
		i.logger.Error("Failed to execute SELECT query", zap.Error(err), zap.String("sql", sqlQuery))
		return nil, fmt.Errorf("failed to execute SELECT query: %w", err)
	}
	defer rows.Close()
	return readResults(i.logger, q, rows)
}

// CountDocuments executes a COUNT for filter.
func (i *SQLiteInteractor) CountDocuments(ctx context.Context, sc *schema.SchemaDefinition, filter criteria.Filter) (int64, error) {
	q, where, err := i.prepare(sc, criteria.CountResult, filter)
	if err != nil {
		return 0, err
	}
	sqlQuery, queryParams, err := q.CountSQL(where)
	if err != nil {
		return 0, fmt.Errorf("failed to generate SQL query: %w", err)
	}

	i.logger.Debug("Executing SQL COUNT", zap.String("sql", sqlQuery), zap.Any("params", queryParams))

	var count int64
	if err := i.runner().QueryRowContext(ctx, sqlQuery, queryParams...).Scan(&count); err != nil {
		i.logger.Error("Failed to execute COUNT query", zap.Error(err), zap.String("sql", sqlQuery))
		return 0, fmt.Errorf("failed to execute COUNT query: %w", err)
	}
	return count, nil
}

// InsertDocuments writes records and returns the stored rows.
// NOTE: Requires SQLite version 3.35.0+ for RETURNING.
func (i *SQLiteInteractor) InsertDocuments(ctx context.Context, sc *schema.SchemaDefinition, records []map[string]any) ([]schema.Document, error) {
	if len(records) == 0 {
		return []schema.Document{}, nil
	}

	columns := make(map[string]bool)
	for _, record := range records {
		for name := range record {
			if sc.FindField(name) == nil {
				return nil, fmt.Errorf("%w: %s.%s", schema.ErrUnknownAttribute, sc.Name, name)
			}
			columns[name] = true
		}
	}
	fields := make([]string, 0, len(columns))
	for _, name := range sortedFields(sc) {
		if columns[name] {
			fields = append(fields, name)
		}
	}

	quoted := make([]string, len(fields))
	for n, name := range fields {
		quoted[n] = quoteIdentifier(name)
	}
	ib := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question).
		Insert(i.tableName(sc.Name)).
		Columns(quoted...).
		Suffix("RETURNING *")
	for _, record := range records {
		values := make([]any, len(fields))
		for n, name := range fields {
			field := sc.Fields[name]
			raw, ok := record[name]
			if !ok {
				raw = field.Default
			}
			value, err := prepareValue(field, raw)
			if err != nil {
				return nil, fmt.Errorf("error preparing value for field '%s': %w", name, err)
			}
			values[n] = value
		}
		ib = ib.Values(values...)
	}

	sqlQuery, queryParams, err := ib.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate INSERT SQL: %w", err)
	}

	i.logger.Debug("Executing SQL INSERT with RETURNING clause", zap.String("sql", sqlQuery), zap.Any("params", queryParams))

	rows, err := i.runner().QueryContext(ctx, sqlQuery, queryParams...)
	if err != nil {
		i.logger.Error("Failed to execute INSERT ... RETURNING query", zap.Error(err), zap.String("sql", sqlQuery))
		return nil, fmt.Errorf("failed to execute INSERT ... RETURNING query: %w", err)
	}
	defer rows.Close()

	q, err := NewQuery(sc, i.registry, criteria.EntityResult, i.options.CollectionPrefix)
	if err != nil {
		return nil, err
	}
	return readResults(i.logger, q, rows)
}

// prepareValue converts a Go value to what SQLite stores for the field type.
func prepareValue(field *schema.FieldDefinition, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch field.Type {
	case schema.FieldTypeBoolean:
		if b, ok := value.(bool); ok {
			if b {
				return 1, nil
			}
			return 0, nil
		}
		return nil, fmt.Errorf("expected boolean, got %T", value)
	case schema.FieldTypeObject, schema.FieldTypeArray, schema.FieldTypeSet, schema.FieldTypeRecord:
		// Complex types are stored as JSON text.
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize to JSON: %w", err)
		}
		return string(jsonBytes), nil
	default:
		return value, nil
	}
}

// StartTransaction begins a new database transaction and returns a new SQLiteInteractor
// that is scoped to that transaction.
func (i *SQLiteInteractor) StartTransaction(ctx context.Context) (persistence.DatabaseInteractor, error) {
	if i.tx != nil {
		return nil, fmt.Errorf("cannot start a new transaction from an existing transactional interactor")
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	i.logger.Debug("Transaction initiated, returning new transactional interactor")
	return NewSQLiteInteractor(i.db, i.registry, i.logger, i.options, tx), nil
}

// Commit commits the current transaction.
func (i *SQLiteInteractor) Commit(ctx context.Context) error {
	if i.tx == nil {
		return fmt.Errorf("commit not applicable: not in a transactional context")
	}
	i.logger.Debug("Committing transaction")
	return i.tx.Commit()
}

// Rollback rolls back the current transaction.
func (i *SQLiteInteractor) Rollback(ctx context.Context) error {
	if i.tx == nil {
		return fmt.Errorf("rollback not applicable: not in a transactional context")
	}
	i.logger.Debug("Rolling back transaction")
	return i.tx.Rollback()
}
