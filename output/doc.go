// Package output provides formatters for query results.
//
// This package defines the Formatter interface and provides implementations
// for the formats the minisql shell can print. All formatters take the
// column labels and the rows of a result.
//
// # Supported Formats
//
//   - table: ASCII grid (olekukonko/tablewriter) with a row count
//   - pretty: box-drawing grid (jedib0t/go-pretty) with a row count
//   - markdown: GitHub-flavoured markdown table (jedib0t/go-pretty)
//   - csv: comma-separated values with header row
//   - json: JSON Lines, one object per row in column order
//
// # Basic Usage
//
//	formatter, err := output.New("table", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(result.Columns, result.Rows); err != nil {
//	    log.Fatal(err)
//	}
//
// # Type Handling
//
// INT and VARCHAR values print as stored. DOUBLE values print in their
// shortest exact form, so 2.50 prints as 2.5. The JSON formatter emits
// numbers as JSON numbers and text as strings.
//
// The CSV formatter quotes cells as needed and prefixes text that a
// spreadsheet could treat as a formula with a single quote.
package output
