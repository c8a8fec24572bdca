package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"usedcar-market/models"
	"usedcar-market/utils"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var tableNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLReader loads raw listings from a table in PostgreSQL or SQLite.
// SQL NULL is treated as a missing cell.
type SQLReader struct {
	db     *sql.DB
	table  string
	source string
}

// NewSQLReader opens a connection and waits for it to answer a ping,
// retrying with exponential back-off.
func NewSQLReader(ctx context.Context, driver, dsn, table string, retry *utils.RetryConfig) (*SQLReader, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("sql: unsupported driver %q", driver)
	}
	if !tableNameRegexp.MatchString(table) {
		return nil, fmt.Errorf("sql: invalid table name %q", table)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql: open: %w", err)
	}

	source := driver + ":" + table
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	if err := retry.Do(ctx, "sql ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, &models.MissingInputError{Source: source, Err: err}
	}
	return &SQLReader{db: db, table: table, source: source}, nil
}

// NewSQLReaderFromDB wraps an already open database handle.
func NewSQLReaderFromDB(db *sql.DB, driver, table string) (*SQLReader, error) {
	if !tableNameRegexp.MatchString(table) {
		return nil, fmt.Errorf("sql: invalid table name %q", table)
	}
	return &SQLReader{db: db, table: table, source: driver + ":" + table}, nil
}

// Read selects every required column of the table, in storage order.
func (s *SQLReader) Read(ctx context.Context) ([]models.RawListing, error) {
	if err := s.checkColumns(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(Columns, ", "), s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &models.MissingInputError{Source: s.source, Err: err}
	}
	defer rows.Close()

	index := make(map[string]int, len(Columns))
	for i, c := range Columns {
		index[c] = i
	}

	var out []models.RawListing
	cells := make([]sql.NullString, len(Columns))
	dest := make([]any, len(Columns))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for row := 0; rows.Next(); row++ {
		if err := rows.Scan(dest...); err != nil {
			return nil, &models.DataIntegrityError{Row: row, Field: "record", Reason: err.Error()}
		}
		get := func(col string) (string, bool) {
			c := cells[index[col]]
			return c.String, c.Valid
		}
		listing, err := parseRecord(row, get)
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql: iterate %s: %w", s.source, err)
	}
	return out, nil
}

// checkColumns reports the first required column the table lacks.
func (s *SQLReader) checkColumns(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", s.table))
	if err != nil {
		return &models.MissingInputError{Source: s.source, Err: err}
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("sql: columns of %s: %w", s.source, err)
	}
	have := make(map[string]struct{}, len(names))
	for _, n := range names {
		have[strings.ToLower(n)] = struct{}{}
	}
	for _, col := range Columns {
		if _, ok := have[col]; !ok {
			return &models.SchemaError{Source: s.source, Column: col}
		}
	}
	return nil
}

func (s *SQLReader) Close() error {
	return s.db.Close()
}
