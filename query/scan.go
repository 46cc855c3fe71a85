package query

import (
	"strings"
)

// Trim removes surrounding spaces, tabs, carriage returns and newlines
func Trim(s string) string {
	return strings.Trim(s, " \t\r\n")
}

// SplitList splits s on delim, trims every piece and drops empty pieces
func SplitList(s string, delim byte) []string {
	var out []string
	for _, piece := range strings.Split(s, string(delim)) {
		piece = Trim(piece)
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// StripQualifier returns the part of a column reference after the first
// dot, so "employees.id" becomes "id"
func StripQualifier(ref string) string {
	if dot := strings.IndexByte(ref, '.'); dot >= 0 {
		return ref[dot+1:]
	}
	return ref
}

// SplitQualifier splits "table.col" into its parts; table is empty for bare names
func SplitQualifier(ref string) (table, column string) {
	if dot := strings.IndexByte(ref, '.'); dot >= 0 {
		return ref[:dot], ref[dot+1:]
	}
	return "", ref
}

// isIdentChar reports whether c may appear in a (possibly qualified) column reference
func isIdentChar(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// FindOuterOperator returns the byte offset of the first occurrence of the
// keyword op in expr that sits at parenthesis depth zero, outside quoted
// literals, and is not part of a longer identifier. Matching is
// case-insensitive. It returns -1 when there is no such occurrence.
func FindOuterOperator(expr, op string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			continue
		case '(':
			depth++
			continue
		case ')':
			depth--
			continue
		}
		if depth != 0 || i+len(op) > len(expr) {
			continue
		}
		if !strings.EqualFold(expr[i:i+len(op)], op) {
			continue
		}
		leftOK := i == 0 || !isIdentChar(expr[i-1])
		end := i + len(op)
		rightOK := end == len(expr) || !isIdentChar(expr[end])
		if leftOK && rightOK {
			return i
		}
	}
	return -1
}

// splitOuter splits expr at every outer occurrence of op
func splitOuter(expr, op string) []string {
	var parts []string
	for {
		pos := FindOuterOperator(expr, op)
		if pos < 0 {
			return append(parts, expr)
		}
		parts = append(parts, expr[:pos])
		expr = expr[pos+len(op):]
	}
}

// cutKeyword reports whether s starts with the keyword kw (case-insensitive,
// followed by a non-identifier character or end of input) and returns the rest
func cutKeyword(s, kw string) (string, bool) {
	if len(s) < len(kw) || !strings.EqualFold(s[:len(kw)], kw) {
		return s, false
	}
	if len(s) > len(kw) && isIdentChar(s[len(kw)]) {
		return s, false
	}
	return s[len(kw):], true
}

// enclosedInParens reports whether s is one parenthesized group, i.e. the
// '(' at offset 0 is closed by the final byte
func enclosedInParens(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}
