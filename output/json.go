package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/vegasq/minisql/query"
)

// JSONFormatter outputs rows as JSON Lines format
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as JSON Lines (one JSON object per line). Keys keep
// the column order; a repeated label appears more than once.
func (j *JSONFormatter) Format(columns []string, rows []query.Row) error {
	w := bufio.NewWriter(j.writer)
	keys := make([][]byte, len(columns))
	for i, col := range columns {
		k, err := json.Marshal(col)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	for _, row := range rows {
		w.WriteByte('{')
		for i, v := range row {
			if i > 0 {
				w.WriteByte(',')
			}
			if i < len(keys) {
				w.Write(keys[i])
			} else {
				w.WriteString(`""`)
			}
			w.WriteByte(':')
			b, err := json.Marshal(v.Interface())
			if err != nil {
				return err
			}
			w.Write(b)
		}
		w.WriteString("}\n")
	}
	return w.Flush()
}
