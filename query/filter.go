package query

// Compare compares two values using the given operator.
//
// Values of the same kind compare natively. Integer and Float64 compare
// as float64 in either order. Every other kind mismatch, e.g. Text against
// a number, is false for every operator, including <>.
func Compare(left, right Value, op CompareOp) bool {
	if left.kind == right.kind {
		switch left.kind {
		case KindInteger:
			return compareOrdered(left.i, right.i, op)
		case KindFloat:
			return compareOrdered(left.f, right.f, op)
		default:
			return compareOrdered(left.s, right.s, op)
		}
	}

	leftNum, leftIsNum := left.Numeric()
	rightNum, rightIsNum := right.Numeric()
	if leftIsNum && rightIsNum {
		return compareOrdered(leftNum, rightNum, op)
	}

	return false
}

// compareOrdered applies op to two values of one ordered type
func compareOrdered[T int64 | float64 | string](left, right T, op CompareOp) bool {
	switch op {
	case OpEqual:
		return left == right
	case OpNotEqual:
		return left != right
	case OpLess:
		return left < right
	case OpGreater:
		return left > right
	case OpLessEqual:
		return left <= right
	case OpGreaterEqual:
		return left >= right
	default:
		return false
	}
}

// lookup returns the value of the first column called name
func lookup(row Row, columnNames []string, name string) (Value, bool) {
	for i, col := range columnNames {
		if col == name {
			if i >= len(row) {
				return Value{}, false
			}
			return row[i], true
		}
	}
	return Value{}, false
}

// EvaluateCondition evaluates a single condition against a row whose
// layout is described by columnNames. A reference to a column that is not
// in columnNames makes the condition false.
func EvaluateCondition(row Row, columnNames []string, cond Condition) bool {
	left, ok := lookup(row, columnNames, cond.LeftColumn)
	if !ok {
		return false
	}

	if cond.IsColumnComparison {
		right, ok := lookup(row, columnNames, cond.RightColumn)
		if !ok {
			return false
		}
		return Compare(left, right, cond.Op)
	}

	return Compare(left, cond.Constant, cond.Op)
}

// Evaluate evaluates an expression tree against a row. It never fails: a
// nil expression and any unresolvable column reference evaluate to false.
//
// AND and OR always evaluate both operands; NOT negates its left operand
// and ignores the right one.
func Evaluate(row Row, columnNames []string, expr *Expression) bool {
	if expr == nil {
		return false
	}

	if expr.single {
		return EvaluateCondition(row, columnNames, expr.condition)
	}

	left := Evaluate(row, columnNames, expr.left)
	if expr.op == LogicNot {
		return !left
	}

	right := Evaluate(row, columnNames, expr.right)
	switch expr.op {
	case LogicAnd:
		return left && right
	case LogicOr:
		return left || right
	default:
		return false
	}
}

// ApplyFilter returns the rows that satisfy filter. A nil filter keeps
// every row. The returned slice shares row storage with the input.
func ApplyFilter(rows []Row, columnNames []string, filter *Expression) []Row {
	if filter == nil {
		return rows
	}

	filtered := make([]Row, 0)
	for _, row := range rows {
		if Evaluate(row, columnNames, filter) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
