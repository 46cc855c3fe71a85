package table

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vegasq/minisql/query"
)

// floatPrecision is the number of decimals written for DOUBLE cells
const floatPrecision = 10

// maxLineSize bounds one line of a backing store
const maxLineSize = 1 << 20

// Load reads a table from its CSV backing store. When columns is nil the
// schema is inferred from the header and the first data rows.
//
// Loading is lenient: INT and DOUBLE cells that do not parse load as zero,
// lines with fewer cells than columns are skipped and extra cells are
// ignored.
func Load(name, path string, columns []query.Column) (*Table, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	if columns == nil {
		columns = InferSchema(header, records)
	}

	t := New(name, columns, path)
	for _, rec := range records {
		if len(rec) < len(columns) {
			continue
		}
		row := make(query.Row, len(columns))
		for i, col := range columns {
			row[i] = ParseCell(rec[i], col.Kind)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// ParseCell converts one stored cell to a value of the given kind
func ParseCell(cell string, kind query.Kind) query.Value {
	switch kind {
	case query.KindInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
		if err != nil {
			return query.Int(0)
		}
		return query.Int(i)
	case query.KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return query.Float(0)
		}
		return query.Float(f)
	default:
		return query.Text(cell)
	}
}

// FormatCell renders a value the way the backing store writes it
func FormatCell(v query.Value) string {
	if f, ok := v.Float64(); ok {
		return strconv.FormatFloat(f, 'f', floatPrecision, 64)
	}
	return v.String()
}

// readCSV returns the header cells and the data records of a store. Cells
// are split on every comma; there is no quoting.
func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var header []string
	var records [][]string
	first := true
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if first {
			first = false
			header = strings.Split(line, ",")
			for i := range header {
				header[i] = strings.TrimSpace(header[i])
			}
			continue
		}
		records = append(records, strings.Split(line, ","))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return header, records, nil
}

// writeCSV replaces the store at path with the header and rows
func writeCSV(path string, columns []query.Column, rows []query.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	w.WriteString(strings.Join(query.ColumnNames(columns), ","))
	w.WriteByte('\n')

	cells := make([]string, 0, len(columns))
	for _, row := range rows {
		cells = cells[:0]
		for _, v := range row {
			cells = append(cells, FormatCell(v))
		}
		w.WriteString(strings.Join(cells, ","))
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
