package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/minisql/query"
)

// CSVFormatter outputs rows as CSV format
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes a header row followed by one record per row. Unlike the
// table store, cells are quoted as needed.
func (c *CSVFormatter) Format(columns []string, rows []query.Row) error {
	csvWriter := csv.NewWriter(c.writer)

	if err := csvWriter.Write(columns); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	// Flush and check for errors
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return nil
}

// formatValue converts a value to string for CSV output
func formatValue(v query.Value) string {
	s, ok := v.Str()
	if !ok {
		return v.String()
	}

	// Sanitize against CSV injection by prefixing dangerous characters
	// that could trigger formula execution in spreadsheet applications
	if len(s) > 0 {
		switch s[0] {
		case '=', '+', '-', '@', '\t', '\r', '\n', '|':
			return "'" + strings.ReplaceAll(s, "'", "''")
		}
	}
	return s
}
