package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/vegasq/minisql/query"
)

var (
	// ErrArityMismatch is returned when a row does not have one value per column
	ErrArityMismatch = errors.New("value count does not match column count")

	// ErrUnknownColumn is returned when an operation names a column the table lacks
	ErrUnknownColumn = errors.New("unknown column")

	// ErrTypeMismatch is returned when a value cannot be stored in a column
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrPersist is returned when the backing store could not be written.
	// The in-memory change has been applied when this is returned.
	ErrPersist = errors.New("persist table")

	// ErrInvalidDefinition is returned for malformed column definitions
	ErrInvalidDefinition = errors.New("invalid column definition")
)

// Table is a named relation with an ordered schema, an in-memory row set
// and a CSV backing store. Every mutation rewrites the backing store.
//
// Table is not safe for concurrent use.
type Table struct {
	name    string
	columns []query.Column
	rows    []query.Row
	path    string
}

// Assignment sets one column in UPDATE
type Assignment struct {
	Column string
	Value  query.Value
}

// New creates an empty table. Nothing is written until the first mutation
// or an explicit Save. An empty path makes the table memory-only.
func New(name string, columns []query.Column, path string) *Table {
	cols := make([]query.Column, len(columns))
	copy(cols, columns)
	return &Table{name: name, columns: cols, path: path}
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Columns returns the ordered schema
func (t *Table) Columns() []query.Column {
	return t.columns
}

// Rows returns the current rows. Callers must not modify them.
func (t *Table) Rows() []query.Row {
	return t.rows
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Path returns the backing store path
func (t *Table) Path() string {
	return t.path
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	return query.ColumnNames(t.columns)
}

// ColumnIndex returns the position of the named column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Save rewrites the whole backing store. Memory-only tables are a no-op.
func (t *Table) Save() error {
	if t.path == "" {
		return nil
	}
	if err := writeCSV(t.path, t.columns, t.rows); err != nil {
		return fmt.Errorf("%w %s: %v", ErrPersist, t.name, err)
	}
	return nil
}

// Insert appends one row after coercing each value to its column's kind
func (t *Table) Insert(values []query.Value) error {
	row, err := t.coerceRow(values)
	if err != nil {
		return err
	}
	t.rows = append(t.rows, row)
	return t.Save()
}

// Append adds many rows and persists once. It is used for bulk loads such
// as imports and saved join results.
func (t *Table) Append(rows []query.Row) error {
	coerced := make([]query.Row, 0, len(rows))
	for i, r := range rows {
		row, err := t.coerceRow(r)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		coerced = append(coerced, row)
	}
	t.rows = append(t.rows, coerced...)
	return t.Save()
}

// Filter returns the rows that satisfy filter; nil keeps every row
func (t *Table) Filter(filter *query.Expression) []query.Row {
	return query.ApplyFilter(t.rows, t.ColumnNames(), filter)
}

// Select filters the table and projects the named columns. A nil or
// ["*"] column list selects every column. It returns the output column
// labels alongside the rows.
func (t *Table) Select(columns []string, filter *query.Expression) ([]string, []query.Row, error) {
	rows := t.Filter(filter)
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "*") {
		return t.ColumnNames(), rows, nil
	}

	indices := make([]int, len(columns))
	labels := make([]string, len(columns))
	for i, ref := range columns {
		table, name := query.SplitQualifier(ref)
		idx := -1
		if table == "" || table == t.name {
			idx = t.ColumnIndex(name)
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownColumn, ref)
		}
		indices[i] = idx
		labels[i] = ref
	}

	result := make([]query.Row, 0, len(rows))
	for _, row := range rows {
		out := make(query.Row, len(indices))
		for i, idx := range indices {
			out[i] = row[idx]
		}
		result = append(result, out)
	}
	return labels, result, nil
}

// Delete removes the rows that satisfy filter (every row when filter is
// nil) and returns how many were removed. The store is rewritten only if
// something was deleted.
func (t *Table) Delete(filter *query.Expression) (int, error) {
	if len(t.rows) == 0 {
		return 0, nil
	}

	names := t.ColumnNames()
	remaining := make([]query.Row, 0, len(t.rows))
	for _, row := range t.rows {
		if filter == nil || query.Evaluate(row, names, filter) {
			continue
		}
		remaining = append(remaining, row)
	}

	deleted := len(t.rows) - len(remaining)
	if deleted == 0 {
		return 0, nil
	}
	t.rows = remaining
	return deleted, t.Save()
}

// Update applies the assignments to every row that satisfies filter
// (every row when filter is nil) and returns how many rows changed.
// All assignments are validated before any row is touched.
func (t *Table) Update(assignments []Assignment, filter *query.Expression) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	indices := make([]int, len(assignments))
	values := make([]query.Value, len(assignments))
	for i, a := range assignments {
		idx := t.ColumnIndex(a.Column)
		if idx < 0 {
			return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, a.Column)
		}
		v, err := Coerce(a.Value, t.columns[idx])
		if err != nil {
			return 0, err
		}
		indices[i] = idx
		values[i] = v
	}

	names := t.ColumnNames()
	updated := 0
	for _, row := range t.rows {
		if filter != nil && !query.Evaluate(row, names, filter) {
			continue
		}
		for i, idx := range indices {
			row[idx] = values[i]
		}
		updated++
	}

	if updated == 0 {
		return 0, nil
	}
	return updated, t.Save()
}

// coerceRow checks arity and converts every value to its column's kind
func (t *Table) coerceRow(values []query.Value) (query.Row, error) {
	if len(values) != len(t.columns) {
		return nil, fmt.Errorf("%w: got %d, table %s has %d", ErrArityMismatch, len(values), t.name, len(t.columns))
	}
	row := make(query.Row, len(values))
	for i, v := range values {
		c, err := Coerce(v, t.columns[i])
		if err != nil {
			return nil, err
		}
		row[i] = c
	}
	return row, nil
}

// Coerce converts v to the kind of col. Integers widen to DOUBLE, integral
// DOUBLEs narrow to INT, numbers render into VARCHAR and text parses into
// numeric columns. Anything else is ErrTypeMismatch.
func Coerce(v query.Value, col query.Column) (query.Value, error) {
	if v.Kind() == col.Kind {
		return v, nil
	}

	switch col.Kind {
	case query.KindText:
		return query.Text(v.String()), nil

	case query.KindFloat:
		if n, ok := v.Numeric(); ok {
			return query.Float(n), nil
		}
		s, _ := v.Str()
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return query.Float(f), nil
		}

	case query.KindInteger:
		if f, ok := v.Float64(); ok && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return query.Int(int64(f)), nil
		}
		s, _ := v.Str()
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return query.Int(i), nil
		}
	}

	return query.Value{}, fmt.Errorf("%w: cannot store %s %q in %s", ErrTypeMismatch, v.Kind(), v.String(), col)
}
