// Package table implements the relation collaborator of minisql: a named
// schema with an in-memory row set that is persisted, whole-file, to a CSV
// backing store after every mutation.
//
// The store format is deliberately minimal. The first line holds the
// comma-joined column names and every following line holds one row.
// DOUBLE values are written with ten decimals. Nothing is quoted or
// escaped, so a VARCHAR value containing a comma will not load back as
// written.
//
// Tables loaded without a declared schema get one from InferSchema, which
// looks at the first five data rows.
package table
