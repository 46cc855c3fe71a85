package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/minisql/query"
)

// ErrUnknownFormat is returned by New for an unsupported format name
var ErrUnknownFormat = errors.New("unknown output format")

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to render a result set and SetOutput to
// change the output destination.
type Formatter interface {
	// Format writes rows under the given column labels
	Format(columns []string, rows []query.Row) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Formats lists the names accepted by New
var Formats = []string{"table", "pretty", "markdown", "csv", "json"}

// New returns the formatter registered under name
func New(name string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(name) {
	case "table", "":
		return NewTableFormatter(w), nil
	case "pretty":
		return NewPrettyFormatter(w), nil
	case "markdown", "md":
		return NewMarkdownFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "json", "jsonl":
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownFormat, name, strings.Join(Formats, ", "))
	}
}

// cells renders a row for text formats
func cells(row query.Row) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = v.String()
	}
	return out
}
