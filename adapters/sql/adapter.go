// Package sql stores contracts in sqlite through sqlx.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL UNIQUE,
	conditions TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_created_at ON %[1]s (created_at);
`

// Store implements core.ContractStore on a sqlx database
type Store struct {
	db      *sqlx.DB
	table   string
	columns []core.Column
	logger  *SQLLogger
}

var _ core.ContractStore = (*Store)(nil)

// Open connects to the sqlite database at dsn and creates the schema.
func Open(ctx context.Context, dsn string, log logrus.FieldLogger, debug bool) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	store := New(db, log, debug)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New creates a store over an open database
func New(db *sqlx.DB, log logrus.FieldLogger, debug bool) *Store {
	return &Store{
		db:      db,
		table:   core.TableName(core.Contract{}),
		columns: core.Columns(core.Contract{}),
		logger:  NewSQLLogger(log, debug),
	}
}

// Migrate creates the contracts table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.loggedExecContext(ctx, fmt.Sprintf(schema, s.table)); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// loggedExecContext wraps ExecContext with logging
func (s *Store) loggedExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := s.db.ExecContext(ctx, query, args...)
	duration := time.Since(start)

	if err != nil {
		s.logger.LogError(query, args, duration, err)
		return nil, err
	}
	s.logger.LogExec(query, args, duration, result)
	return result, nil
}

// loggedSelectContext wraps SelectContext with logging
func (s *Store) loggedSelectContext(ctx context.Context, dest *[]core.Contract, query string, args ...any) error {
	start := time.Now()
	err := s.db.SelectContext(ctx, dest, query, args...)
	duration := time.Since(start)

	if err != nil {
		s.logger.LogError(query, args, duration, err)
		return err
	}
	s.logger.LogQuery(query, args, duration, len(*dest))
	return nil
}

// loggedGetContext wraps GetContext with logging
func (s *Store) loggedGetContext(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()
	err := s.db.GetContext(ctx, dest, query, args...)
	duration := time.Since(start)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.LogError(query, args, duration, err)
		return err
	}
	rows := 1
	if err != nil {
		rows = 0
	}
	s.logger.LogQuery(query, args, duration, rows)
	return err
}

// column resolves a Contract field to its storage column. Unknown fields
// report false so they never reach the SQL text.
func (s *Store) column(field string) (string, bool) {
	if _, ok := reflect.TypeOf(core.Contract{}).FieldByName(field); !ok {
		return "", false
	}
	return core.ColumnName(core.Contract{}, field), true
}

// where builds the WHERE clause of query: exact filters AND a substring
// match of the search term on any searchable column.
func (s *Store) where(query *core.Query) (string, []any, error) {
	var conditions []string
	var args []any

	for field, value := range query.Filters {
		column, ok := s.column(field)
		if !ok {
			return "", nil, fmt.Errorf("unknown filter field %q", field)
		}
		conditions = append(conditions, column+" = ?")
		args = append(args, value)
	}

	if query.HasSearch() {
		var matches []string
		pattern := "%" + escapeLike(query.Search) + "%"
		for _, col := range s.columns {
			if col.Searchable {
				matches = append(matches, col.DBName+` LIKE ? ESCAPE '\'`)
				args = append(args, pattern)
			}
		}
		if len(matches) > 0 {
			conditions = append(conditions, "("+strings.Join(matches, " OR ")+")")
		}
	}

	if len(conditions) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

// orderBy builds the ORDER BY clause. Unknown fields are skipped; id breaks
// ties so paging is stable.
func (s *Store) orderBy(query *core.Query) string {
	var clauses []string
	for _, sort := range query.Sort {
		column, ok := s.column(sort.Field)
		if !ok {
			continue
		}
		direction := "ASC"
		if sort.Direction == core.SortDesc {
			direction = "DESC"
		}
		clauses = append(clauses, column+" "+direction)
	}
	clauses = append(clauses, "id ASC")
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// Find retrieves one page of contracts matching query
func (s *Store) Find(ctx context.Context, query *core.Query) (*core.Result[core.Contract], error) {
	if query == nil {
		return nil, fmt.Errorf("query cannot be nil")
	}
	query.ApplyDefaultSort()

	where, args, err := s.where(query)
	if err != nil {
		return nil, err
	}

	var totalCount int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.table, where)
	if err := s.loggedGetContext(ctx, &totalCount, countQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to count contracts: %w", err)
	}

	selectQuery := fmt.Sprintf("SELECT * FROM %s%s%s LIMIT ? OFFSET ?", s.table, where, s.orderBy(query))
	items := []core.Contract{}
	pageArgs := append(args, query.Pagination.Limit, query.Pagination.Offset)
	if err := s.loggedSelectContext(ctx, &items, selectQuery, pageArgs...); err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	return &core.Result[core.Contract]{
		Items:      items,
		TotalCount: totalCount,
		HasMore:    int64(query.Pagination.Offset+len(items)) < totalCount,
		Query:      *query,
	}, nil
}

// GetByID retrieves a single contract by its ID
func (s *Store) GetByID(ctx context.Context, id string) (*core.Contract, error) {
	var c core.Contract
	err := s.loggedGetContext(ctx, &c, fmt.Sprintf("SELECT * FROM %s WHERE id = ?", s.table), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract %s: %w", id, err)
	}
	return &c, nil
}

// Create inserts c
func (s *Store) Create(ctx context.Context, c *core.Contract) error {
	query, args, err := s.db.BindNamed(fmt.Sprintf(
		"INSERT INTO %s (id, number, conditions, created_at, updated_at) VALUES (:id, :number, :conditions, :created_at, :updated_at)",
		s.table,
	), c)
	if err != nil {
		return err
	}
	if _, err := s.loggedExecContext(ctx, query, args...); err != nil {
		return translate(err, "failed to create contract")
	}
	return nil
}

// Update stores the editable fields and UpdatedAt of c
func (s *Store) Update(ctx context.Context, c *core.Contract) error {
	query, args, err := s.db.BindNamed(fmt.Sprintf(
		"UPDATE %s SET number = :number, conditions = :conditions, updated_at = :updated_at WHERE id = :id",
		s.table,
	), c)
	if err != nil {
		return err
	}
	result, err := s.loggedExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "failed to update contract")
	}
	return requireRow(result)
}

// Delete deletes a contract by ID
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.loggedExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// translate maps driver errors onto core errors.
func translate(err error, msg string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return core.ErrDuplicateNumber
	}
	return fmt.Errorf("%s: %w", msg, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
