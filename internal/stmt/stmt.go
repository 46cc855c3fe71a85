// Package stmt splits shell input into statements and parses each one into
// a Statement the engine can execute.
//
// Clauses are located by keyword position: a keyword counts only at
// parenthesis depth zero, outside quoted literals, and on word boundaries.
// Where-clauses are passed through as text and parsed later against the
// schema of the table they filter.
package stmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vegasq/minisql/query"
)

var (
	// ErrEmpty is returned for blank input
	ErrEmpty = errors.New("empty statement")

	// ErrSyntax is returned when a statement does not match its form
	ErrSyntax = errors.New("syntax error")

	// ErrUnknownStatement is returned for an unrecognised leading keyword
	ErrUnknownStatement = errors.New("unknown statement")
)

// Kind identifies a statement form
type Kind int

const (
	KindCreate Kind = iota
	KindDrop
	KindInsert
	KindSelect
	KindUpdate
	KindDelete
	KindShowTables
	KindDescribe
	KindHelp
	KindExit
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "CREATE TABLE"
	case KindDrop:
		return "DROP TABLE"
	case KindInsert:
		return "INSERT"
	case KindSelect:
		return "SELECT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindShowTables:
		return "SHOW TABLES"
	case KindDescribe:
		return "DESCRIBE"
	case KindHelp:
		return "HELP"
	case KindExit:
		return "EXIT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Assignment is one "column = literal" pair of an UPDATE
type Assignment struct {
	Column  string
	Literal string
}

// Join is the JOIN ... ON part of a SELECT
type Join struct {
	Right     string
	Type      query.JoinType
	Condition query.JoinCondition
}

// Statement is one parsed command
type Statement struct {
	Kind  Kind
	Table string

	// CREATE TABLE: the text between the parentheses
	Definitions string

	// INSERT: one literal per column, quotes preserved
	Values []string

	// SELECT: projection as written; empty or ["*"] selects everything
	Columns []string
	Join    *Join
	SaveAs  string
	OrderBy []query.OrderByItem
	Limit   *int64
	Offset  *int64

	// UPDATE
	Assignments []Assignment

	// SELECT, UPDATE and DELETE; empty means no filter
	Where string
}

// Split separates complete ';'-terminated statements from input and
// returns the unterminated remainder. Semicolons inside quoted literals do
// not terminate a statement. Blank statements are dropped.
func Split(input string) (statements []string, rest string) {
	var quote byte
	start := 0
	for i := 0; i < len(input); i++ {
		c := input[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case ';':
			if s := query.Trim(input[start:i]); s != "" {
				statements = append(statements, s)
			}
			start = i + 1
		}
	}
	return statements, input[start:]
}

// Parse parses a single statement; a trailing ';' is optional
func Parse(text string) (*Statement, error) {
	text = query.Trim(text)
	text = query.Trim(strings.TrimSuffix(text, ";"))
	if text == "" {
		return nil, ErrEmpty
	}

	word, rest := firstWord(text)
	switch strings.ToUpper(word) {
	case "CREATE":
		return parseCreate(rest)
	case "DROP":
		return parseDrop(rest)
	case "INSERT":
		return parseInsert(rest)
	case "SELECT":
		return parseSelect(rest)
	case "UPDATE":
		return parseUpdate(rest)
	case "DELETE":
		return parseDelete(rest)
	case "SHOW":
		if !strings.EqualFold(query.Trim(rest), "TABLES") {
			return nil, syntaxError("expected SHOW TABLES")
		}
		return &Statement{Kind: KindShowTables}, nil
	case "DESCRIBE", "DESC":
		name, err := tableName(rest)
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: KindDescribe, Table: name}, nil
	case "HELP", "\\H", "\\?":
		return &Statement{Kind: KindHelp}, nil
	case "EXIT", "QUIT", "\\Q":
		return &Statement{Kind: KindExit}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatement, word)
	}
}

func syntaxError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

// parseCreate parses "TABLE name (definitions)"
func parseCreate(s string) (*Statement, error) {
	rest, ok := keyword(s, "TABLE")
	if !ok {
		return nil, syntaxError("expected CREATE TABLE")
	}
	open := strings.IndexByte(rest, '(')
	if open < 0 || !strings.HasSuffix(rest, ")") {
		return nil, syntaxError("expected CREATE TABLE name (column TYPE, ...)")
	}
	name, err := tableName(rest[:open])
	if err != nil {
		return nil, err
	}
	defs := query.Trim(rest[open+1 : len(rest)-1])
	if defs == "" {
		return nil, syntaxError("table %s has no columns", name)
	}
	return &Statement{Kind: KindCreate, Table: name, Definitions: defs}, nil
}

// parseDrop parses "TABLE name"
func parseDrop(s string) (*Statement, error) {
	rest, ok := keyword(s, "TABLE")
	if !ok {
		return nil, syntaxError("expected DROP TABLE")
	}
	name, err := tableName(rest)
	if err != nil {
		return nil, err
	}
	return &Statement{Kind: KindDrop, Table: name}, nil
}

// parseInsert parses "INTO name VALUES (v, ...)"
func parseInsert(s string) (*Statement, error) {
	rest, ok := keyword(s, "INTO")
	if !ok {
		return nil, syntaxError("expected INSERT INTO")
	}
	pos := query.FindOuterOperator(rest, "VALUES")
	if pos < 0 {
		return nil, syntaxError("expected VALUES")
	}
	name, err := tableName(rest[:pos])
	if err != nil {
		return nil, err
	}

	tuple := query.Trim(rest[pos+len("VALUES"):])
	if len(tuple) < 2 || tuple[0] != '(' || tuple[len(tuple)-1] != ')' {
		return nil, syntaxError("expected VALUES (value, ...)")
	}
	values := splitOutside(tuple[1:len(tuple)-1], ',')
	for _, v := range values {
		if v == "" {
			return nil, syntaxError("empty value in VALUES list")
		}
	}
	return &Statement{Kind: KindInsert, Table: name, Values: values}, nil
}

// parseSelect parses
// "cols FROM a [[type] JOIN b ON a.x op b.y] [WHERE ...]
// [ORDER BY col [ASC|DESC], ...] [LIMIT n [OFFSET m]] [SAVE AS t]"
func parseSelect(s string) (*Statement, error) {
	from := query.FindOuterOperator(s, "FROM")
	if from < 0 {
		return nil, syntaxError("expected FROM")
	}
	st := &Statement{Kind: KindSelect, Columns: query.SplitList(s[:from], ',')}
	if len(st.Columns) == 0 {
		return nil, syntaxError("no columns selected")
	}
	tail := s[from+len("FROM"):]

	if pos := findPair(tail, "SAVE", "AS"); pos >= 0 {
		target := tail[pos+len("SAVE"):]
		target, _ = keyword(query.Trim(target), "AS")
		name, err := tableName(target)
		if err != nil {
			return nil, err
		}
		st.SaveAs = name
		tail = tail[:pos]
	}

	if pos := query.FindOuterOperator(tail, "LIMIT"); pos >= 0 {
		if err := parseLimit(tail[pos+len("LIMIT"):], st); err != nil {
			return nil, err
		}
		tail = tail[:pos]
	}

	if pos := findPair(tail, "ORDER", "BY"); pos >= 0 {
		by, _ := keyword(tail[pos+len("ORDER"):], "BY")
		items, err := parseOrderBy(by)
		if err != nil {
			return nil, err
		}
		st.OrderBy = items
		tail = tail[:pos]
	}

	if st.SaveAs != "" && (st.OrderBy != nil || st.Limit != nil) {
		return nil, syntaxError("ORDER BY and LIMIT cannot be combined with SAVE AS")
	}

	if pos := query.FindOuterOperator(tail, "WHERE"); pos >= 0 {
		st.Where = query.Trim(tail[pos+len("WHERE"):])
		if st.Where == "" {
			return nil, syntaxError("empty WHERE clause")
		}
		tail = tail[:pos]
	}

	pos := query.FindOuterOperator(tail, "JOIN")
	if pos < 0 {
		if st.SaveAs != "" {
			return nil, syntaxError("SAVE AS requires a JOIN")
		}
		name, err := tableName(tail)
		if err != nil {
			return nil, err
		}
		st.Table = name
		return st, nil
	}

	left, joinType, err := parseJoinSource(tail[:pos])
	if err != nil {
		return nil, err
	}
	st.Table = left

	right := tail[pos+len("JOIN"):]
	on := query.FindOuterOperator(right, "ON")
	if on < 0 {
		return nil, syntaxError("JOIN requires ON")
	}
	rightName, err := tableName(right[:on])
	if err != nil {
		return nil, err
	}
	cond, err := parseJoinCondition(right[on+len("ON"):], left, rightName)
	if err != nil {
		return nil, err
	}
	st.Join = &Join{Right: rightName, Type: joinType, Condition: cond}
	return st, nil
}

// findPair returns the offset of an outer two-word keyword such as
// "SAVE AS" or "ORDER BY", or -1
func findPair(s, first, second string) int {
	offset := 0
	for {
		pos := query.FindOuterOperator(s[offset:], first)
		if pos < 0 {
			return -1
		}
		at := offset + pos
		if _, ok := keyword(s[at+len(first):], second); ok {
			return at
		}
		offset = at + len(first)
	}
}

// parseLimit parses "n [OFFSET m]"
func parseLimit(s string, st *Statement) error {
	words := strings.Fields(s)
	if len(words) != 1 && !(len(words) == 3 && strings.EqualFold(words[1], "OFFSET")) {
		return syntaxError("expected LIMIT n [OFFSET m]")
	}
	limit, err := strconv.ParseInt(words[0], 10, 64)
	if err != nil || limit < 0 {
		return syntaxError("invalid LIMIT %q", words[0])
	}
	st.Limit = &limit
	if len(words) == 3 {
		offset, err := strconv.ParseInt(words[2], 10, 64)
		if err != nil || offset < 0 {
			return syntaxError("invalid OFFSET %q", words[2])
		}
		st.Offset = &offset
	}
	return nil
}

// parseOrderBy parses "col [ASC|DESC], ..."
func parseOrderBy(s string) ([]query.OrderByItem, error) {
	parts := query.SplitList(s, ',')
	if len(parts) == 0 {
		return nil, syntaxError("empty ORDER BY")
	}
	items := make([]query.OrderByItem, 0, len(parts))
	for _, part := range parts {
		words := strings.Fields(part)
		item := query.OrderByItem{Column: words[0]}
		table, col := query.SplitQualifier(words[0])
		if !isName(col) || (table != "" && !isName(table)) {
			return nil, syntaxError("invalid ORDER BY column %q", words[0])
		}
		switch {
		case len(words) == 1:
		case len(words) == 2 && strings.EqualFold(words[1], "ASC"):
		case len(words) == 2 && strings.EqualFold(words[1], "DESC"):
			item.Desc = true
		default:
			return nil, syntaxError("invalid ORDER BY item %q", part)
		}
		items = append(items, item)
	}
	return items, nil
}

// parseJoinSource parses "table [INNER | LEFT [OUTER] | RIGHT [OUTER] |
// FULL [OUTER] | CROSS]"
func parseJoinSource(s string) (string, query.JoinType, error) {
	words := strings.Fields(s)
	if len(words) == 0 {
		return "", query.JoinInner, syntaxError("missing table before JOIN")
	}
	name, err := tableName(words[0])
	if err != nil {
		return "", query.JoinInner, err
	}

	modifiers := strings.ToUpper(strings.Join(words[1:], " "))
	switch modifiers {
	case "", "INNER":
		return name, query.JoinInner, nil
	case "LEFT", "LEFT OUTER":
		return name, query.JoinLeft, nil
	case "RIGHT", "RIGHT OUTER":
		return name, query.JoinRight, nil
	case "FULL", "FULL OUTER":
		return name, query.JoinFull, nil
	case "CROSS":
		return name, query.JoinCross, nil
	default:
		return "", query.JoinInner, syntaxError("unknown join type %q", modifiers)
	}
}

// parseJoinCondition parses "a.x op b.y". Unqualified sides default to the
// left and right table respectively.
func parseJoinCondition(s, left, right string) (query.JoinCondition, error) {
	s = query.Trim(s)
	start := strings.IndexAny(s, "=<>!")
	if start < 0 {
		return query.JoinCondition{}, syntaxError("expected a comparison in ON clause")
	}
	end := start
	for end < len(s) && strings.IndexByte("=<>!", s[end]) >= 0 {
		end++
	}
	op, ok := query.ParseCompareOp(s[start:end])
	if !ok {
		return query.JoinCondition{}, syntaxError("unknown operator %q in ON clause", s[start:end])
	}

	lt, lc := query.SplitQualifier(query.Trim(s[:start]))
	rt, rc := query.SplitQualifier(query.Trim(s[end:]))
	if !isName(lc) || !isName(rc) {
		return query.JoinCondition{}, syntaxError("ON clause must compare two columns: %q", s)
	}
	if lt == "" {
		lt = left
	}
	if rt == "" {
		rt = right
	}
	for _, t := range []string{lt, rt} {
		if t != left && t != right {
			return query.JoinCondition{}, syntaxError("ON clause references unknown table %s", t)
		}
	}
	if lt == rt && left != right {
		return query.JoinCondition{}, syntaxError("ON clause must compare a column of %s with a column of %s", left, right)
	}

	return query.JoinCondition{
		LeftTable: lt, LeftColumn: lc,
		RightTable: rt, RightColumn: rc,
		Op: op,
	}, nil
}

// parseUpdate parses "name SET c = v[, ...] [WHERE ...]"
func parseUpdate(s string) (*Statement, error) {
	pos := query.FindOuterOperator(s, "SET")
	if pos < 0 {
		return nil, syntaxError("expected SET")
	}
	name, err := tableName(s[:pos])
	if err != nil {
		return nil, err
	}
	st := &Statement{Kind: KindUpdate, Table: name}

	set := s[pos+len("SET"):]
	if w := query.FindOuterOperator(set, "WHERE"); w >= 0 {
		st.Where = query.Trim(set[w+len("WHERE"):])
		if st.Where == "" {
			return nil, syntaxError("empty WHERE clause")
		}
		set = set[:w]
	}

	for _, pair := range splitOutside(set, ',') {
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			return nil, syntaxError("expected column = value, got %q", pair)
		}
		col := query.Trim(pair[:eq])
		val := query.Trim(pair[eq+1:])
		if !isName(col) || val == "" {
			return nil, syntaxError("expected column = value, got %q", pair)
		}
		st.Assignments = append(st.Assignments, Assignment{Column: col, Literal: val})
	}
	if len(st.Assignments) == 0 {
		return nil, syntaxError("UPDATE without assignments")
	}
	return st, nil
}

// parseDelete parses "FROM name [WHERE ...]"
func parseDelete(s string) (*Statement, error) {
	rest, ok := keyword(s, "FROM")
	if !ok {
		return nil, syntaxError("expected DELETE FROM")
	}
	st := &Statement{Kind: KindDelete}
	if w := query.FindOuterOperator(rest, "WHERE"); w >= 0 {
		st.Where = query.Trim(rest[w+len("WHERE"):])
		if st.Where == "" {
			return nil, syntaxError("empty WHERE clause")
		}
		rest = rest[:w]
	}
	name, err := tableName(rest)
	if err != nil {
		return nil, err
	}
	st.Table = name
	return st, nil
}

func firstWord(s string) (word, rest string) {
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// keyword strips a leading case-insensitive keyword from s
func keyword(s, kw string) (string, bool) {
	s = query.Trim(s)
	word, rest := firstWord(s)
	if !strings.EqualFold(word, kw) {
		// "TABLE name(" style input has no space before the parenthesis
		if len(s) > len(kw) && strings.EqualFold(s[:len(kw)], kw) && s[len(kw)] == '(' {
			return s[len(kw):], true
		}
		return s, false
	}
	return query.Trim(rest), true
}

func tableName(s string) (string, error) {
	name := query.Trim(s)
	if !isName(name) {
		return "", syntaxError("invalid table name %q", name)
	}
	return name, nil
}

// isName reports whether s is a bare identifier
func isName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// splitOutside splits s on sep outside quoted literals and parentheses,
// trimming every piece
func splitOutside(s string, sep byte) []string {
	var parts []string
	var quote byte
	depth, start := 0, 0
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
		case sep:
			if depth == 0 {
				parts = append(parts, query.Trim(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, query.Trim(s[start:]))
}
