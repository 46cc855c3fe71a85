package reader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/minisql/query"
)

// columnOrderKey is the key-value metadata entry holding the original
// column order of an exported table; parquet groups sort fields by name
const columnOrderKey = "minisql.columns"

// maxGlobFiles limits how many files a single import may read
const maxGlobFiles = 1000

// Reader reads a parquet file as table rows.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type Reader struct {
	file   *os.File
	pqFile *parquet.File
}

// NewReader opens a parquet file.
//
// The file is opened and validated as a parquet file. Returns an error if
// the file doesn't exist or is not a valid parquet file.
//
// Example:
//
//	r, err := reader.NewReader("people.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	return &Reader{
		file:   file,
		pqFile: pqFile,
	}, nil
}

// Schema returns the parquet file schema
func (r *Reader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// Columns maps the file's top-level fields to table columns. Files written
// by WriteTable keep their original column order; other files use the
// order of the parquet schema.
func (r *Reader) Columns() ([]query.Column, error) {
	fields := r.Schema().Fields()
	byName := make(map[string]parquet.Field, len(fields))
	for _, f := range fields {
		byName[f.Name()] = f
	}

	order := make([]string, 0, len(fields))
	if stored, ok := r.pqFile.Lookup(columnOrderKey); ok && stored != "" {
		order = strings.Split(stored, ",")
	} else {
		for _, f := range fields {
			order = append(order, f.Name())
		}
	}

	columns := make([]query.Column, 0, len(order))
	for _, name := range order {
		field, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: column %s listed in metadata is missing", ErrUnsupportedField, name)
		}
		col, err := columnOf(field)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// ReadAll reads all rows from the parquet file into memory.
//
// Each row is returned as a map where keys are column names and values are
// the column values. The entire file is loaded into memory, so this method
// may not be suitable for very large files.
func (r *Reader) ReadAll() ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0)

	reader := parquet.NewReader(r.pqFile)
	defer func() { _ = reader.Close() }()

	for {
		row := make(map[string]interface{})
		err := reader.Read(&row)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ReadRows reads every row converted to the file's table columns
func (r *Reader) ReadRows() ([]query.Column, []query.Row, error) {
	columns, err := r.Columns()
	if err != nil {
		return nil, nil, err
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	rows := make([]query.Row, 0, len(records))
	for _, rec := range records {
		row := make(query.Row, len(columns))
		for i, col := range columns {
			row[i] = toValue(rec[col.Name], col.Kind)
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// Close closes the parquet reader and releases associated resources.
//
// Should be called when done reading to avoid resource leaks.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ReadTable reads one parquet file, or every file matching a glob
// pattern, as table rows.
//
// The pattern can include wildcards:
//   - * matches any sequence of non-separator characters
//   - ? matches any single non-separator character
//   - [range] matches any character in range
//
// All matched files must have the same column names in the same order as
// the first one.
func ReadTable(pattern string) ([]query.Column, []query.Row, error) {
	if !strings.ContainsAny(pattern, "*?[]") {
		return readFile(pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	if len(matches) > maxGlobFiles {
		return nil, nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxGlobFiles)
	}

	var columns []query.Column
	var all []query.Row
	for _, path := range matches {
		cols, rows, err := readFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if columns == nil {
			columns = cols
		} else if !sameNames(columns, cols) {
			return nil, nil, fmt.Errorf("%w: %s has columns %v, expected %v",
				ErrSchemaMismatch, path, query.ColumnNames(cols), query.ColumnNames(columns))
		}
		all = append(all, rows...)
	}
	return columns, all, nil
}

func readFile(path string) ([]query.Column, []query.Row, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, nil, err
	}

	cols, rows, readErr := r.ReadRows()
	closeErr := r.Close()

	// Preserve the first error encountered
	if readErr != nil {
		return nil, nil, readErr
	}
	if closeErr != nil {
		return nil, nil, fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	return cols, rows, nil
}

func sameNames(a, b []query.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

// toValue converts a value decoded by parquet-go to the column's kind.
// Missing values become the kind's zero value.
func toValue(v interface{}, kind query.Kind) query.Value {
	switch kind {
	case query.KindInteger:
		switch n := v.(type) {
		case int64:
			return query.Int(n)
		case int32:
			return query.Int(int64(n))
		case int:
			return query.Int(int64(n))
		case uint32:
			return query.Int(int64(n))
		case uint64:
			if n <= math.MaxInt64 {
				return query.Int(int64(n))
			}
		case bool:
			if n {
				return query.Int(1)
			}
		}
		return query.Int(0)

	case query.KindFloat:
		switch n := v.(type) {
		case float64:
			return query.Float(n)
		case float32:
			return query.Float(float64(n))
		case int64:
			return query.Float(float64(n))
		case int32:
			return query.Float(float64(n))
		}
		return query.Float(0)

	default:
		switch s := v.(type) {
		case nil:
			return query.Text("")
		case string:
			return query.Text(s)
		case []byte:
			return query.Text(string(s))
		case time.Time:
			return query.Text(s.UTC().Format(time.RFC3339Nano))
		default:
			return query.Text(fmt.Sprint(s))
		}
	}
}

// WriteTable writes columns and rows to a new parquet file at path.
// INT columns become INT64, DOUBLE columns DOUBLE and VARCHAR columns
// UTF-8 byte arrays. The column order is recorded in the file metadata so
// ReadTable returns the columns as written.
func WriteTable(path string, columns []query.Column, rows []query.Row) error {
	group := make(parquet.Group, len(columns))
	for _, col := range columns {
		if _, dup := group[col.Name]; dup {
			return fmt.Errorf("%w: duplicate column %s", ErrUnsupportedField, col.Name)
		}
		group[col.Name] = nodeOf(col)
	}
	schema := parquet.NewSchema("minisql", group)

	// Leaf index of each table column within the (name sorted) schema
	leaf := make(map[string]int, len(columns))
	for i, f := range schema.Fields() {
		leaf[f.Name()] = i
	}
	indices := make([]int, len(columns))
	for i, col := range columns {
		indices[i] = leaf[col.Name]
	}

	pqRows := make([]parquet.Row, 0, len(rows))
	for n, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row %d has %d values, want %d", n, len(row), len(columns))
		}
		pqRow := make(parquet.Row, len(columns))
		for i, v := range row {
			pqRow[indices[i]] = parquetValue(v, columns[i].Kind).Level(0, 0, indices[i])
		}
		pqRows = append(pqRows, pqRow)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w := parquet.NewWriter(f, schema,
		parquet.KeyValueMetadata(columnOrderKey, strings.Join(query.ColumnNames(columns), ",")))
	if _, err := w.WriteRows(pqRows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return f.Close()
}

func parquetValue(v query.Value, kind query.Kind) parquet.Value {
	switch kind {
	case query.KindInteger:
		i, _ := v.Int64()
		return parquet.Int64Value(i)
	case query.KindFloat:
		f, _ := v.Numeric()
		return parquet.DoubleValue(f)
	default:
		return parquet.ByteArrayValue([]byte(v.String()))
	}
}
