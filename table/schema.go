package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vegasq/minisql/query"
)

const (
	// InferenceSampleRows is how many data rows InferSchema looks at
	InferenceSampleRows = 5

	// DefaultTextLength is the VARCHAR length used when none is given
	DefaultTextLength = 255

	minInferredTextLength = 50
)

// InferSchema derives column kinds from a header and sample records. A
// column whose sampled cells all parse as integers is INT, one whose cells
// all parse as numbers is DOUBLE, anything else is VARCHAR sized to the
// longest sample (at least 50, at most 255). Columns with no samples are
// VARCHAR.
func InferSchema(header []string, records [][]string) []query.Column {
	sample := records
	if len(sample) > InferenceSampleRows {
		sample = sample[:InferenceSampleRows]
	}

	columns := make([]query.Column, len(header))
	for i, name := range header {
		allInt, allNum, seen := true, true, false
		longest := 0
		for _, rec := range sample {
			if i >= len(rec) {
				continue
			}
			seen = true
			cell := strings.TrimSpace(rec[i])
			if len(rec[i]) > longest {
				longest = len(rec[i])
			}
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				allInt = false
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				allNum = false
			}
		}

		switch {
		case seen && allInt:
			columns[i] = query.Column{Name: name, Kind: query.KindInteger}
		case seen && allNum:
			columns[i] = query.Column{Name: name, Kind: query.KindFloat}
		default:
			columns[i] = query.Column{Name: name, Kind: query.KindText, MaxLength: inferredTextLength(longest)}
		}
	}
	return columns
}

func inferredTextLength(longest int) int {
	n := max(minInferredTextLength, longest)
	return min(n, DefaultTextLength)
}

// ParseColumnDefinitions parses "name TYPE, name TYPE(n), ..." as written
// in CREATE TABLE. INT*, DOUBLE*/FLOAT*/REAL and VARCHAR/CHAR/TEXT with an
// optional length are recognised. An unknown type becomes VARCHAR and is
// reported in the returned warnings.
func ParseColumnDefinitions(defs string) ([]query.Column, []string, error) {
	parts := splitDefinitions(defs)
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("%w: no columns", ErrInvalidDefinition)
	}

	var warnings []string
	seen := make(map[string]bool, len(parts))
	columns := make([]query.Column, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("%w: %q needs a name and a type", ErrInvalidDefinition, part)
		}
		name := fields[0]
		if err := query.ValidateColumnName(name); err != nil {
			return nil, nil, err
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("%w: duplicate column %s", ErrInvalidDefinition, name)
		}
		seen[name] = true

		col, known, err := parseColumnType(name, strings.Join(fields[1:], ""))
		if err != nil {
			return nil, nil, err
		}
		if !known {
			warnings = append(warnings, fmt.Sprintf("unknown type %q for column %s, using VARCHAR(%d)", strings.Join(fields[1:], " "), name, DefaultTextLength))
		}
		columns = append(columns, col)
	}
	return columns, warnings, nil
}

// parseColumnType maps a type spelling to a column. known is false when
// the type was not recognised and VARCHAR was substituted.
func parseColumnType(name, typ string) (query.Column, bool, error) {
	upper := strings.ToUpper(typ)
	switch {
	case strings.HasPrefix(upper, "INT"), strings.HasPrefix(upper, "BIGINT"):
		return query.Column{Name: name, Kind: query.KindInteger}, true, nil
	case strings.HasPrefix(upper, "DOUBLE"), strings.HasPrefix(upper, "FLOAT"), upper == "REAL":
		return query.Column{Name: name, Kind: query.KindFloat}, true, nil
	case strings.HasPrefix(upper, "VARCHAR"), strings.HasPrefix(upper, "CHAR"), upper == "TEXT":
		length := DefaultTextLength
		if open := strings.IndexByte(upper, '('); open >= 0 {
			end := strings.IndexByte(upper, ')')
			if end < open {
				return query.Column{}, false, fmt.Errorf("%w: bad length in %s %s", ErrInvalidDefinition, name, typ)
			}
			n, err := strconv.Atoi(strings.TrimSpace(upper[open+1 : end]))
			if err != nil || n <= 0 {
				return query.Column{}, false, fmt.Errorf("%w: bad length in %s %s", ErrInvalidDefinition, name, typ)
			}
			length = n
		}
		return query.Column{Name: name, Kind: query.KindText, MaxLength: length}, true, nil
	default:
		return query.Column{Name: name, Kind: query.KindText, MaxLength: DefaultTextLength}, false, nil
	}
}

// splitDefinitions splits on commas outside parentheses
func splitDefinitions(defs string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(defs); i++ {
		switch defs[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, defs[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, defs[start:])

	out := parts[:0]
	for _, p := range parts {
		if p = query.Trim(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseLiteral converts a literal as written in INSERT or UPDATE to a value
// for col. Quoted literals are unquoted first; the result is strictly
// checked against the column kind.
func ParseLiteral(raw string, col query.Column) (query.Value, error) {
	raw = query.Trim(raw)
	if n := len(raw); n >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[n-1] == raw[0] {
		return Coerce(query.Text(raw[1:n-1]), col)
	}

	switch col.Kind {
	case query.KindInteger:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return query.Int(i), nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Coerce(query.Float(f), col)
		}
	case query.KindFloat:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return query.Float(f), nil
		}
	default:
		return query.Text(raw), nil
	}
	return query.Value{}, fmt.Errorf("%w: %q is not a valid %s for %s", ErrTypeMismatch, raw, col.Kind, col.Name)
}
