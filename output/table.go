package output

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/minisql/query"
)

// TableFormatter draws an ASCII grid followed by a row count
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new ASCII table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TableFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format writes rows as an ASCII table
func (f *TableFormatter) Format(columns []string, rows []query.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(f.writer, "(0 rows)")
		return err
	}

	tw := tablewriter.NewWriter(f.writer)
	tw.SetHeader(columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	for _, row := range rows {
		tw.Append(cells(row))
	}
	tw.Render()

	_, err := fmt.Fprintf(f.writer, "(%d rows)\n", len(rows))
	return err
}

// PrettyFormatter draws a box-drawing table
type PrettyFormatter struct {
	writer io.Writer
}

// NewPrettyFormatter creates a new box-drawing table formatter
func NewPrettyFormatter(w io.Writer) *PrettyFormatter {
	return &PrettyFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *PrettyFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format writes rows as a box-drawing table
func (f *PrettyFormatter) Format(columns []string, rows []query.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(f.writer, "(0 rows)")
		return err
	}

	t := newGoPrettyTable(columns, rows)
	t.SetOutputMirror(f.writer)
	t.SetStyle(table.StyleLight)
	t.Render()

	_, err := fmt.Fprintf(f.writer, "(%d rows)\n", len(rows))
	return err
}

// MarkdownFormatter writes a GitHub-flavoured markdown table
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *MarkdownFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format writes rows as a markdown table. An empty result still gets its
// header so the output stays a valid table.
func (f *MarkdownFormatter) Format(columns []string, rows []query.Row) error {
	t := newGoPrettyTable(columns, rows)
	_, err := fmt.Fprintln(f.writer, t.RenderMarkdown())
	return err
}

func newGoPrettyTable(columns []string, rows []query.Row) table.Writer {
	t := table.NewWriter()

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v.String()
		}
		t.AppendRow(r)
	}
	return t
}
