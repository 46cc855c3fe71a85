// Package engine ties tables, the buffer pool and the query core together
// into a small database rooted at a data directory.
//
// Every table lives in <data_dir>/<name>.csv. Tables are loaded lazily on
// first reference and kept in an LRU pool; evicted tables are written back
// and transparently reloaded the next time they are used. The engine
// remembers the declared schema of every table it has seen, so a reload
// does not fall back to schema inference.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vegasq/minisql/cache"
	"github.com/vegasq/minisql/query"
	"github.com/vegasq/minisql/table"
)

// storeExt is the backing store file extension
const storeExt = ".csv"

var (
	// ErrTableExists is returned when creating a table whose name is taken
	ErrTableExists = errors.New("table already exists")

	// ErrTableNotFound is returned when a table is neither cached nor on disk
	ErrTableNotFound = errors.New("table not found")

	// ErrInvalidWhere is returned when a where-clause does not parse
	ErrInvalidWhere = errors.New("invalid where clause")

	// ErrInvalidTableName is returned for names that cannot be used as a file name
	ErrInvalidTableName = errors.New("invalid table name")
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	DataDir       string
	CacheCapacity int
	// HashJoinThreshold is the input size at which equality joins switch
	// to the hash strategy
	HashJoinThreshold int
	Logger            *slog.Logger
}

// Engine is a database over a directory of CSV tables. It is not safe for
// concurrent use.
type Engine struct {
	dataDir string
	pool    *cache.Pool[*table.Table]
	planner *query.Planner
	catalog map[string][]query.Column
	logger  *slog.Logger
}

// Result is the output of a query
type Result struct {
	Columns  []string
	Rows     []query.Row
	Warnings []string
}

// Open creates the data directory if needed and returns an engine over it
func Open(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.DataDir == "" {
		opts.DataDir = "."
	}
	if opts.CacheCapacity == 0 {
		opts.CacheCapacity = cache.DefaultCapacity
	}
	if opts.HashJoinThreshold == 0 {
		opts.HashJoinThreshold = query.DefaultHashJoinThreshold
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	pool, err := cache.New[*table.Table](opts.CacheCapacity, logger.With("component", "cache"))
	if err != nil {
		return nil, err
	}

	return &Engine{
		dataDir: opts.DataDir,
		pool:    pool,
		planner: query.NewPlanner(opts.HashJoinThreshold, logger.With("component", "join")),
		catalog: make(map[string][]query.Column),
		logger:  logger,
	}, nil
}

// DataDir returns the directory holding the backing stores
func (e *Engine) DataDir() string {
	return e.dataDir
}

func (e *Engine) storePath(name string) string {
	return filepath.Join(e.dataDir, name+storeExt)
}

func validateTableName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\. ,;()`) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	return nil
}

// Cached reports whether the table is currently held in the pool
func (e *Engine) Cached(name string) bool {
	return e.pool.Contains(name)
}

// Exists reports whether the table is known, cached or on disk
func (e *Engine) Exists(name string) bool {
	if _, ok := e.catalog[name]; ok {
		return true
	}
	if e.pool.Contains(name) {
		return true
	}
	_, err := os.Stat(e.storePath(name))
	return err == nil
}

// CreateTable creates a table with the given schema. If a backing store
// for the name already exists on disk but the engine has not seen the
// table yet, the store is loaded with the declared schema instead of
// being overwritten.
func (e *Engine) CreateTable(name string, columns []query.Column) (*table.Table, error) {
	if err := validateTableName(name); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %s has no columns", table.ErrInvalidDefinition, name)
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: duplicate column %s in table %s", table.ErrInvalidDefinition, c.Name, name)
		}
		seen[c.Name] = true
	}
	if _, known := e.catalog[name]; known || e.pool.Contains(name) {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}

	path := e.storePath(name)
	var t *table.Table
	if _, err := os.Stat(path); err == nil {
		t, err = table.Load(name, path, columns)
		if err != nil {
			return nil, err
		}
		e.logger.Info("loaded existing store for new table", "table", name, "rows", t.Len())
	} else {
		t = table.New(name, columns, path)
		if err := t.Save(); err != nil {
			return nil, err
		}
	}

	e.catalog[name] = t.Columns()
	if err := e.pool.Put(name, t); err != nil {
		e.logger.Warn("eviction during create did not persist", "error", err)
	}
	return t, nil
}

// Table returns the named table, loading it from disk on a cache miss
func (e *Engine) Table(name string) (*table.Table, error) {
	if t, ok := e.pool.Get(name); ok {
		return t, nil
	}
	if err := validateTableName(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	path := e.storePath(name)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	declared := e.catalog[name]
	t, err := table.Load(name, path, declared)
	if err != nil {
		return nil, err
	}
	if declared == nil {
		e.logger.Debug("inferred schema", "table", name, "columns", describeColumns(t.Columns()))
		e.catalog[name] = t.Columns()
	}
	e.logger.Debug("table loaded", "table", name, "rows", t.Len())

	if err := e.pool.Put(name, t); err != nil {
		e.logger.Warn("eviction during load did not persist", "error", err)
	}
	return t, nil
}

// Schema returns the columns of the named table
func (e *Engine) Schema(name string) ([]query.Column, error) {
	if cols, ok := e.catalog[name]; ok {
		return cols, nil
	}
	t, err := e.Table(name)
	if err != nil {
		return nil, err
	}
	return t.Columns(), nil
}

// DropTable removes the table from the pool and deletes its backing store
func (e *Engine) DropTable(name string) error {
	if !e.Exists(name) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	if _, err := e.pool.Remove(name); err != nil {
		// The store is about to be deleted anyway
		e.logger.Debug("ignoring persist failure of dropped table", "table", name, "error", err)
	}
	delete(e.catalog, name)

	if err := os.Remove(e.storePath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete store of %s: %w", name, err)
	}
	e.logger.Info("table dropped", "table", name)
	return nil
}

// Tables returns the names of all known tables, sorted
func (e *Engine) Tables() ([]string, error) {
	seen := make(map[string]bool)
	for name := range e.catalog {
		seen[name] = true
	}
	for _, name := range e.pool.Names() {
		seen[name] = true
	}

	entries, err := os.ReadDir(e.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), storeExt) {
			seen[strings.TrimSuffix(entry.Name(), storeExt)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// parseWhere parses an optional where-clause; blank means no filter
func parseWhere(where string, schema []query.Column) (*query.Expression, error) {
	if query.Trim(where) == "" {
		return nil, nil
	}
	expr, err := query.Parse(where, schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWhere, err)
	}
	return expr, nil
}

// Insert adds one row of typed values
func (e *Engine) Insert(name string, values []query.Value) error {
	t, err := e.Table(name)
	if err != nil {
		return err
	}
	return t.Insert(values)
}

// InsertLiterals adds one row given as literals, e.g. from INSERT ... VALUES
func (e *Engine) InsertLiterals(name string, literals []string) error {
	t, err := e.Table(name)
	if err != nil {
		return err
	}
	cols := t.Columns()
	if len(literals) != len(cols) {
		return fmt.Errorf("%w: got %d, table %s has %d", table.ErrArityMismatch, len(literals), name, len(cols))
	}
	values := make([]query.Value, len(cols))
	for i, raw := range literals {
		v, err := table.ParseLiteral(raw, cols[i])
		if err != nil {
			return err
		}
		values[i] = v
	}
	return t.Insert(values)
}

// Select runs a single-table query
func (e *Engine) Select(name string, columns []string, where string) (*Result, error) {
	t, err := e.Table(name)
	if err != nil {
		return nil, err
	}
	filter, err := parseWhere(where, t.Columns())
	if err != nil {
		return nil, err
	}
	labels, rows, err := t.Select(columns, filter)
	if err != nil {
		return nil, err
	}
	return &Result{Columns: labels, Rows: rows}, nil
}

// Delete removes matching rows and returns the count
func (e *Engine) Delete(name, where string) (int, error) {
	t, err := e.Table(name)
	if err != nil {
		return 0, err
	}
	filter, err := parseWhere(where, t.Columns())
	if err != nil {
		return 0, err
	}
	return t.Delete(filter)
}

// Assignment is one "column = literal" pair of an UPDATE
type Assignment struct {
	Column  string
	Literal string
}

// Update applies literal assignments to matching rows and returns the count
func (e *Engine) Update(name string, assignments []Assignment, where string) (int, error) {
	t, err := e.Table(name)
	if err != nil {
		return 0, err
	}
	filter, err := parseWhere(where, t.Columns())
	if err != nil {
		return 0, err
	}

	typed := make([]table.Assignment, 0, len(assignments))
	for _, a := range assignments {
		idx := t.ColumnIndex(a.Column)
		if idx < 0 {
			return 0, fmt.Errorf("%w: %s", table.ErrUnknownColumn, a.Column)
		}
		v, err := table.ParseLiteral(a.Literal, t.Columns()[idx])
		if err != nil {
			return 0, err
		}
		typed = append(typed, table.Assignment{Column: a.Column, Value: v})
	}
	return t.Update(typed, filter)
}

// Close writes every cached table back to its store
func (e *Engine) Close() error {
	return e.pool.SaveAll()
}

func describeColumns(cols []query.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
