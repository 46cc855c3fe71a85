package query

import (
	"fmt"
	"strconv"
	"strings"
)

// parser turns where-clause text into an expression tree. It holds no
// state besides the schema and the nesting guard, so one parser may only
// be used for a single Parse call.
type parser struct {
	schema []Column
	depth  *depthCounter
}

// Parse parses a where-clause against the given schema.
//
// The grammar, from lowest to highest precedence:
//
//	Expr    := OrExpr
//	OrExpr  := AndExpr (OR AndExpr)*
//	AndExpr := NotExpr (AND NotExpr)*
//	NotExpr := [NOT] Primary
//	Primary := '(' Expr ')' | Condition
//
// A Condition is "column op value" where value is a quoted text literal, a
// numeric literal, or another column. Column references may be qualified
// ("t.col"); the qualifier is dropped and the bare name must exist in schema.
//
// Parsing is all-or-nothing: any error yields a nil expression.
func Parse(where string, schema []Column) (*Expression, error) {
	if err := ValidateWhere(where); err != nil {
		return nil, err
	}

	s := Trim(where)
	if s == "" {
		return nil, ErrEmptyExpression
	}

	// Balance is checked up front so structural errors are reported before
	// any operand is looked at
	if err := ValidateBalance(s); err != nil {
		return nil, err
	}

	p := &parser{schema: schema, depth: newDepthCounter()}
	return p.parseOr(s)
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(where string, schema []Column) *Expression {
	expr, err := Parse(where, schema)
	if err != nil {
		panic(fmt.Sprintf("query.MustParse(%q): %v", where, err))
	}
	return expr
}

// parseOr parses OR expressions (lowest precedence)
func (p *parser) parseOr(s string) (*Expression, error) {
	if err := p.depth.Enter(); err != nil {
		return nil, err
	}
	defer p.depth.Exit()

	s = Trim(s)
	if s == "" {
		return nil, ErrEmptyExpression
	}

	parts := splitOuter(s, "OR")
	left, err := p.operand(parts[0], "OR", len(parts) > 1, p.parseAnd)
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		right, err := p.operand(part, "OR", true, p.parseAnd)
		if err != nil {
			return nil, err
		}
		left = NewOr(left, right)
	}
	return left, nil
}

// parseAnd parses AND expressions (higher precedence than OR)
func (p *parser) parseAnd(s string) (*Expression, error) {
	parts := splitOuter(s, "AND")
	left, err := p.operand(parts[0], "AND", len(parts) > 1, p.parseNot)
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		right, err := p.operand(part, "AND", true, p.parseNot)
		if err != nil {
			return nil, err
		}
		left = NewAnd(left, right)
	}
	return left, nil
}

// operand trims one side of a binary connective and parses it with next
func (p *parser) operand(s, op string, binary bool, next func(string) (*Expression, error)) (*Expression, error) {
	s = Trim(s)
	if s == "" {
		if binary {
			return nil, fmt.Errorf("%w for %s", ErrMissingOperand, op)
		}
		return nil, ErrEmptyExpression
	}
	return next(s)
}

// parseNot parses an optional leading NOT
func (p *parser) parseNot(s string) (*Expression, error) {
	rest, ok := cutKeyword(s, "NOT")
	if !ok {
		return p.parsePrimary(s)
	}

	rest = Trim(rest)
	if rest == "" {
		return nil, fmt.Errorf("%w for NOT", ErrMissingOperand)
	}

	if err := p.depth.Enter(); err != nil {
		return nil, err
	}
	defer p.depth.Exit()

	inner, err := p.parseNot(rest)
	if err != nil {
		return nil, err
	}
	return NewNot(inner), nil
}

// parsePrimary parses a parenthesized expression or a single condition
func (p *parser) parsePrimary(s string) (*Expression, error) {
	if enclosedInParens(s) {
		inner := Trim(s[1 : len(s)-1])
		if inner == "" {
			return nil, fmt.Errorf("%w inside parentheses", ErrEmptyExpression)
		}
		return p.parseOr(inner)
	}
	cond, err := p.parseCondition(s)
	if err != nil {
		return nil, err
	}
	return NewCondition(cond), nil
}

// parseCondition parses "column op value"
func (p *parser) parseCondition(s string) (Condition, error) {
	i := 0
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	leftRef := s[:i]
	if leftRef == "" {
		return Condition{}, fmt.Errorf("%w: expected column name in %q", ErrInvalidCondition, s)
	}

	for i < len(s) && isSpace(s[i]) {
		i++
	}
	opStart := i
	for i < len(s) && strings.IndexByte("=<>!", s[i]) >= 0 {
		i++
	}
	op, ok := ParseCompareOp(s[opStart:i])
	if !ok {
		return Condition{}, fmt.Errorf("%w: expected comparison operator in %q", ErrInvalidCondition, s)
	}

	left, err := p.resolveColumn(leftRef)
	if err != nil {
		return Condition{}, err
	}

	cond := Condition{LeftColumn: left.Name, Op: op}
	raw := Trim(s[i:])
	if raw == "" {
		return Condition{}, fmt.Errorf("%w: missing value in %q", ErrInvalidCondition, s)
	}

	switch {
	case raw[0] == '\'' || raw[0] == '"':
		text, err := quotedLiteral(raw)
		if err != nil {
			return Condition{}, fmt.Errorf("%w: %v in %q", ErrInvalidCondition, err, s)
		}
		cond.Constant = Text(text)

	case isNumberLiteral(raw):
		v, err := numericLiteral(raw, left.Kind)
		if err != nil {
			return Condition{}, fmt.Errorf("%w: %v in %q", ErrInvalidCondition, err, s)
		}
		cond.Constant = v

	case isIdentifier(raw):
		right, err := p.resolveColumn(raw)
		switch {
		case err == nil:
			cond.IsColumnComparison = true
			cond.RightColumn = right.Name
		case left.Kind == KindText:
			// Bare words compared with a text column are text literals
			cond.Constant = Text(raw)
		default:
			return Condition{}, err
		}

	default:
		return Condition{}, fmt.Errorf("%w: unexpected value %q", ErrInvalidCondition, raw)
	}

	return cond, nil
}

// resolveColumn strips any qualifier and looks the bare name up in the schema
func (p *parser) resolveColumn(ref string) (Column, error) {
	if err := ValidateColumnName(ref); err != nil {
		return Column{}, err
	}
	bare := StripQualifier(ref)
	for _, col := range p.schema {
		if col.Name == bare {
			return col, nil
		}
	}
	return Column{}, fmt.Errorf("%w: %s", ErrUnknownColumn, ref)
}

// quotedLiteral returns the content of a literal that must span all of raw
func quotedLiteral(raw string) (string, error) {
	quote := raw[0]
	end := strings.IndexByte(raw[1:], quote)
	if end < 0 {
		return "", fmt.Errorf("unterminated string literal")
	}
	end++ // index within raw
	if end != len(raw)-1 {
		return "", fmt.Errorf("unexpected text after string literal")
	}
	return raw[1:end], nil
}

// isNumberLiteral reports whether raw looks like a signed decimal number
func isNumberLiteral(raw string) bool {
	start := 0
	if raw[0] == '+' || raw[0] == '-' {
		start = 1
	}
	if start >= len(raw) {
		return false
	}
	c := raw[start]
	return (c >= '0' && c <= '9') || c == '.'
}

// numericLiteral converts a numeric token to a value of the column's kind.
// Integer columns keep fractional literals as Float64 so that the mixed
// numeric comparison applies; text columns keep the literal text.
func numericLiteral(raw string, kind Kind) (Value, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q", raw)
	}
	switch kind {
	case KindInteger:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Int(i), nil
		}
		return Float(f), nil
	case KindFloat:
		return Float(f), nil
	default:
		return Text(raw), nil
	}
}

// isIdentifier reports whether raw consists only of identifier characters
func isIdentifier(raw string) bool {
	for i := 0; i < len(raw); i++ {
		if !isIdentChar(raw[i]) {
			return false
		}
	}
	return raw != ""
}
