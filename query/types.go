package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the discriminant of a Value
type Kind int

const (
	KindInteger Kind = iota // 64-bit signed integer
	KindFloat               // 64-bit float
	KindText                // UTF-8 text
)

// String returns the declared type name used in column definitions
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "INT"
	case KindFloat:
		return "DOUBLE"
	case KindText:
		return "VARCHAR"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a tagged scalar: exactly one of Integer, Float64 or Text.
//
// The zero Value is Integer 0. Values are comparable with == and may be
// used as map keys; note that == distinguishes Int(5) from Float(5), use
// Compare for the mixed-numeric semantics.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Int returns an Integer value
func Int(v int64) Value {
	return Value{kind: KindInteger, i: v}
}

// Float returns a Float64 value
func Float(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// Text returns a Text value
func Text(v string) Value {
	return Value{kind: KindText, s: v}
}

// Kind returns the value's tag
func (v Value) Kind() Kind {
	return v.kind
}

// Int64 returns the integer payload and whether the value is an Integer
func (v Value) Int64() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// Float64 returns the float payload and whether the value is a Float64
func (v Value) Float64() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// Str returns the text payload and whether the value is Text
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindText
}

// Numeric returns the value as float64 if it is Integer or Float64
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Interface returns the payload as int64, float64 or string
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	default:
		return v.s
	}
}

// String renders the value for display. Floats use the shortest
// representation; the CSV store uses its own fixed-precision encoding.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s
	}
}

// Row is a fixed-arity tuple whose length equals its owner's column count
type Row []Value

// Column describes one attribute of a relation
type Column struct {
	Name      string
	Kind      Kind
	MaxLength int // advisory, Text only
}

// String renders the column as a definition, e.g. "name VARCHAR(50)"
func (c Column) String() string {
	if c.Kind == KindText && c.MaxLength > 0 {
		return fmt.Sprintf("%s %s(%d)", c.Name, c.Kind, c.MaxLength)
	}
	return c.Name + " " + c.Kind.String()
}

// ColumnNames returns the names of the given columns in order
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// CompareOp is a comparison operator
type CompareOp int

const (
	OpEqual        CompareOp = iota // =
	OpNotEqual                      // <> or !=
	OpGreater                       // >
	OpLess                          // <
	OpGreaterEqual                  // >=
	OpLessEqual                     // <=
)

// String returns the operator's canonical spelling
func (op CompareOp) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "<>"
	case OpGreater:
		return ">"
	case OpLess:
		return "<"
	case OpGreaterEqual:
		return ">="
	case OpLessEqual:
		return "<="
	default:
		return "?"
	}
}

// ParseCompareOp maps an operator spelling to a CompareOp
func ParseCompareOp(s string) (CompareOp, bool) {
	switch s {
	case "=":
		return OpEqual, true
	case "<>", "!=":
		return OpNotEqual, true
	case ">":
		return OpGreater, true
	case "<":
		return OpLess, true
	case ">=":
		return OpGreaterEqual, true
	case "<=":
		return OpLessEqual, true
	default:
		return 0, false
	}
}

// LogicOp is a boolean connective
type LogicOp int

const (
	LogicAnd LogicOp = iota
	LogicOr
	LogicNot
)

// String returns the keyword for the connective
func (op LogicOp) String() string {
	switch op {
	case LogicAnd:
		return "AND"
	case LogicOr:
		return "OR"
	case LogicNot:
		return "NOT"
	default:
		return "?"
	}
}

// Condition compares a column with either a literal or another column.
// Column names are bare (any table qualifier is stripped by the parser).
type Condition struct {
	LeftColumn         string
	Op                 CompareOp
	Constant           Value
	RightColumn        string
	IsColumnComparison bool
}

// String renders the condition, quoting text constants
func (c Condition) String() string {
	if c.IsColumnComparison {
		return fmt.Sprintf("%s %s %s", c.LeftColumn, c.Op, c.RightColumn)
	}
	if c.Constant.Kind() == KindText {
		return fmt.Sprintf("%s %s '%s'", c.LeftColumn, c.Op, c.Constant.s)
	}
	return fmt.Sprintf("%s %s %s", c.LeftColumn, c.Op, c.Constant)
}

// Expression is a node of a boolean expression tree. A node is either a
// single condition leaf or a logical node whose operands are themselves
// expressions. NOT uses only its left operand.
//
// Nodes are built once by the constructors below and are not modified
// afterwards; every child is owned by exactly one parent.
type Expression struct {
	op        LogicOp
	single    bool
	condition Condition
	left      *Expression
	right     *Expression
}

// NewCondition returns a leaf expression wrapping c
func NewCondition(c Condition) *Expression {
	return &Expression{op: LogicAnd, single: true, condition: c}
}

// NewAnd returns left AND right
func NewAnd(left, right *Expression) *Expression {
	return &Expression{op: LogicAnd, left: left, right: right}
}

// NewOr returns left OR right
func NewOr(left, right *Expression) *Expression {
	return &Expression{op: LogicOr, left: left, right: right}
}

// NewNot returns NOT operand
func NewNot(operand *Expression) *Expression {
	return &Expression{op: LogicNot, left: operand}
}

// IsSingleCondition reports whether the node is a condition leaf
func (e *Expression) IsSingleCondition() bool {
	return e.single
}

// Op returns the node's connective. Meaningless for leaves.
func (e *Expression) Op() LogicOp {
	return e.op
}

// Condition returns the leaf's condition
func (e *Expression) Condition() Condition {
	return e.condition
}

// Left returns the first operand (the only one for NOT)
func (e *Expression) Left() *Expression {
	return e.left
}

// Right returns the second operand, nil for NOT and leaves
func (e *Expression) Right() *Expression {
	return e.right
}

// String renders the tree fully parenthesized, e.g.
// "(a = 1 OR (b = 2 AND c = 3))"
func (e *Expression) String() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Expression) write(b *strings.Builder) {
	switch {
	case e.single:
		b.WriteString(e.condition.String())
	case e.op == LogicNot:
		b.WriteString("NOT ")
		e.left.write(b)
	default:
		b.WriteByte('(')
		e.left.write(b)
		b.WriteByte(' ')
		b.WriteString(e.op.String())
		b.WriteByte(' ')
		e.right.write(b)
		b.WriteByte(')')
	}
}

// JoinType represents the type of join operation
type JoinType int

const (
	JoinInner JoinType = iota // INNER JOIN (default)
	JoinLeft                  // LEFT JOIN / LEFT OUTER JOIN
	JoinRight                 // RIGHT JOIN / RIGHT OUTER JOIN
	JoinFull                  // FULL JOIN / FULL OUTER JOIN
	JoinCross                 // CROSS JOIN
)

// String returns the SQL spelling of the join type
func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "INNER"
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	case JoinCross:
		return "CROSS"
	default:
		return "UNKNOWN"
	}
}

// JoinCondition names the columns compared by a join
type JoinCondition struct {
	LeftTable   string
	LeftColumn  string
	RightTable  string
	RightColumn string
	Op          CompareOp // OpEqual unless set
}

// String renders the condition as "l.c = r.c"
func (jc JoinCondition) String() string {
	return fmt.Sprintf("%s.%s %s %s.%s", jc.LeftTable, jc.LeftColumn, jc.Op, jc.RightTable, jc.RightColumn)
}

// Relation is the read-only view of a table the evaluator and joiner need
type Relation interface {
	// Name returns the relation's table name
	Name() string
	// Columns returns the ordered schema
	Columns() []Column
	// Rows returns the current row set; callers must not modify it
	Rows() []Row
	// ColumnIndex returns the position of a column or -1
	ColumnIndex(name string) int
}
