package query

import (
	"cmp"
	"fmt"
	"sort"
)

// OrderByItem is one sort key of an ORDER BY clause
type OrderByItem struct {
	Column string
	Desc   bool
}

// resolveLabel finds the position of name among result labels. An exact
// label match wins; otherwise a bare name matches a qualified label.
func resolveLabel(labels []string, name string) int {
	for i, l := range labels {
		if l == name {
			return i
		}
	}
	for i, l := range labels {
		if StripQualifier(l) == name {
			return i
		}
	}
	return -1
}

// ApplyOrderBy sorts rows by the given keys. Keys name result columns;
// rows that compare equal keep their relative order.
func ApplyOrderBy(rows []Row, labels []string, orderBy []OrderByItem) ([]Row, error) {
	if len(orderBy) == 0 {
		return rows, nil
	}

	keys := make([]int, len(orderBy))
	for i, item := range orderBy {
		idx := resolveLabel(labels, item.Column)
		if idx < 0 {
			return nil, fmt.Errorf("%w in ORDER BY: %s", ErrUnknownColumn, item.Column)
		}
		keys[i] = idx
	}

	// Create a copy to avoid modifying the original slice
	sorted := make([]Row, len(rows))
	copy(sorted, rows)

	sort.SliceStable(sorted, func(i, j int) bool {
		for k, item := range orderBy {
			c := compareValues(sorted[i][keys[k]], sorted[j][keys[k]])
			if c != 0 {
				if item.Desc {
					return c > 0
				}
				return c < 0
			}
			// Values are equal, continue to next ORDER BY column
		}
		return false
	})

	return sorted, nil
}

// compareValues orders two values: numbers (Integer and Float64 compared
// as Float64) sort before text, text compares bytewise.
func compareValues(a, b Value) int {
	an, aNum := a.Numeric()
	bn, bNum := b.Numeric()
	switch {
	case aNum && bNum:
		if a.Kind() == KindInteger && b.Kind() == KindInteger {
			return cmp.Compare(a.i, b.i)
		}
		return cmp.Compare(an, bn)
	case aNum:
		return -1
	case bNum:
		return 1
	default:
		return cmp.Compare(a.s, b.s)
	}
}

// ApplyLimitOffset skips offset rows and keeps at most limit of the rest.
// A nil limit keeps everything; LIMIT 0 returns no rows.
func ApplyLimitOffset(rows []Row, limit, offset *int64) []Row {
	start := int64(0)
	if offset != nil && *offset > 0 {
		start = *offset
	}

	// If offset is beyond the end, return empty
	if start >= int64(len(rows)) {
		return []Row{}
	}

	end := int64(len(rows))
	if limit != nil && *limit >= 0 && *limit < end-start {
		end = start + *limit
	}
	return rows[start:end]
}
