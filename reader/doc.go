// Package reader moves tables in and out of Apache Parquet files.
//
// minisql keeps its own tables as CSV; this package is the bridge to the
// columnar world. It reads parquet files, or sets of files matched by a
// glob pattern, as typed columns and rows, and writes tables back out.
//
// # Reading
//
//	cols, rows, err := reader.ReadTable("exports/people-*.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Top-level fields map to columns by physical type: BOOLEAN, INT32 and
// INT64 become INT, FLOAT and DOUBLE become DOUBLE, everything else
// becomes VARCHAR. DATE, TIME and TIMESTAMP values are rendered as text.
// Nested groups and repeated fields are rejected.
//
// # Writing
//
//	err := reader.WriteTable("people.parquet", tbl.Columns(), tbl.Rows())
//
// The original column order is stored in the file's key-value metadata,
// so a written file reads back with its columns in place.
//
// # Inspection
//
// Describe lists a file's fields and the column each would import as.
//
// The package uses github.com/parquet-go/parquet-go for the underlying
// parquet file operations.
package reader
