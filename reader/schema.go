package reader

import (
	"errors"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/minisql/query"
)

var (
	// ErrUnsupportedField is returned for parquet fields that cannot be a table column
	ErrUnsupportedField = errors.New("unsupported parquet field")

	// ErrSchemaMismatch is returned when files of one import disagree on columns
	ErrSchemaMismatch = errors.New("parquet schema mismatch")
)

// FieldInfo describes one top-level parquet field and the column it maps to
type FieldInfo struct {
	Name         string `json:"name"`
	PhysicalType string `json:"physical_type"`
	LogicalType  string `json:"logical_type"`
	Optional     bool   `json:"optional"`
	Column       string `json:"column"`
}

// Describe lists the fields of a parquet file with the column definition
// each would import as. Fields that cannot be imported have an empty
// Column.
func Describe(path string) ([]FieldInfo, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	var infos []FieldInfo
	for _, field := range r.Schema().Fields() {
		info := FieldInfo{
			Name:         field.Name(),
			PhysicalType: physicalType(field),
			LogicalType:  logicalType(field),
			Optional:     field.Optional(),
		}
		if col, err := columnOf(field); err == nil {
			info.Column = col.String()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// columnOf maps a top-level field to a column. Groups and repeated fields
// have no flat representation and are rejected.
func columnOf(field parquet.Field) (query.Column, error) {
	if field.Type() == nil || len(field.Fields()) > 0 {
		return query.Column{}, fmt.Errorf("%w: %s is a group", ErrUnsupportedField, field.Name())
	}
	if field.Repeated() {
		return query.Column{}, fmt.Errorf("%w: %s is repeated", ErrUnsupportedField, field.Name())
	}

	// Temporal logical types decode as time values, keep them as text
	switch logicalType(field) {
	case "DATE", "TIME", "TIMESTAMP":
		return query.Column{Name: field.Name(), Kind: query.KindText, MaxLength: 50}, nil
	}

	switch field.Type().Kind() {
	case parquet.Boolean, parquet.Int32, parquet.Int64:
		return query.Column{Name: field.Name(), Kind: query.KindInteger}, nil
	case parquet.Float, parquet.Double:
		return query.Column{Name: field.Name(), Kind: query.KindFloat}, nil
	default:
		return query.Column{Name: field.Name(), Kind: query.KindText, MaxLength: 255}, nil
	}
}

// nodeOf returns the parquet node used to export a column
func nodeOf(col query.Column) parquet.Node {
	switch col.Kind {
	case query.KindInteger:
		return parquet.Int(64)
	case query.KindFloat:
		return parquet.Leaf(parquet.DoubleType)
	default:
		return parquet.String()
	}
}

// physicalType returns the physical type name of a Parquet field.
func physicalType(field parquet.Field) string {
	if field.Type() == nil || len(field.Fields()) > 0 {
		return "GROUP"
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT"
	case parquet.Double:
		return "DOUBLE"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

// logicalType returns the bare logical type name of a Parquet field, e.g.
// "TIMESTAMP" for TIMESTAMP(isAdjustedToUTC=true,unit=MILLIS)
func logicalType(field parquet.Field) string {
	if field.Type() == nil {
		return ""
	}
	lt := field.Type().LogicalType()
	if lt == nil {
		return ""
	}
	s := lt.String()
	for i := 0; i < len(s); i++ {
		if s[i] == '(' {
			return s[:i]
		}
	}
	return s
}
