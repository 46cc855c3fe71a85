package query

import (
	"fmt"
	"io"
	"log/slog"
)

// DefaultHashJoinThreshold is the row count at which the planner stops
// using nested loops: if either relation has this many rows or more, an
// equality join runs as a hash join.
const DefaultHashJoinThreshold = 1000

// Strategy is a join algorithm
type Strategy int

const (
	StrategyNestedLoop Strategy = iota
	StrategyHash
)

// String returns the strategy name
func (s Strategy) String() string {
	switch s {
	case StrategyNestedLoop:
		return "nested-loop"
	case StrategyHash:
		return "hash"
	default:
		return "unknown"
	}
}

// JoinError reports a structural problem that aborts a join before any
// row is produced
type JoinError struct {
	Table  string
	Column string
	Err    error
}

func (e *JoinError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Column)
	}
	return fmt.Sprintf("%v: %s.%s", e.Err, e.Table, e.Column)
}

func (e *JoinError) Unwrap() error {
	return e.Err
}

// JoinResult holds the output of a join
type JoinResult struct {
	// Columns labels the output positions: "table.column" for "*",
	// otherwise the projection entries as written
	Columns  []string
	Rows     []Row
	Strategy Strategy
	// Warnings collects non-fatal notices, e.g. an outer join run as INNER
	Warnings []string
}

// Planner chooses and runs a join strategy
type Planner struct {
	// HashThreshold: when both inputs have fewer rows than this, the
	// nested loop is used. Zero sends every equality join to the hash path.
	HashThreshold int
	Logger        *slog.Logger
}

// NewPlanner creates a planner. A nil logger discards log output.
func NewPlanner(hashThreshold int, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{HashThreshold: hashThreshold, Logger: logger}
}

// Join runs an inner join with the default planner and returns the rows
func Join(left, right Relation, columns []string, joinType JoinType, cond JoinCondition, filter *Expression) ([]Row, error) {
	res, err := NewPlanner(DefaultHashJoinThreshold, nil).Join(left, right, columns, joinType, cond, filter)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Choose returns the strategy for inputs of the given sizes. Hash joins
// only find equal keys, so any other operator always uses the nested loop.
func (p *Planner) Choose(leftRows, rightRows int, op CompareOp) Strategy {
	if op != OpEqual {
		return StrategyNestedLoop
	}
	if leftRows < p.HashThreshold && rightRows < p.HashThreshold {
		return StrategyNestedLoop
	}
	return StrategyHash
}

// projection maps one output position to a side and column index
type projection struct {
	right bool
	index int
}

// Join joins left and right on cond, optionally filters the concatenated
// rows, and projects the survivors.
//
// columns is either ["*"] (or empty) for the full left-then-right row, or
// a list of "table.column" / bare column names; bare names resolve against
// left first. filter, if not nil, sees the full concatenated row with the
// left table's column names followed by the right's, regardless of the
// projection.
//
// Only inner joins are implemented; other join types run as INNER and add
// a warning to the result.
func (p *Planner) Join(left, right Relation, columns []string, joinType JoinType, cond JoinCondition, filter *Expression) (*JoinResult, error) {
	res := &JoinResult{}

	if joinType != JoinInner {
		msg := fmt.Sprintf("only INNER JOIN is supported; running %s JOIN as INNER", joinType)
		res.Warnings = append(res.Warnings, msg)
		p.Logger.Warn("join type downgraded", "requested", joinType.String(), "left", left.Name(), "right", right.Name())
	}

	leftIdx := left.ColumnIndex(cond.LeftColumn)
	if leftIdx < 0 {
		return nil, &JoinError{Table: left.Name(), Column: cond.LeftColumn, Err: ErrJoinColumnNotFound}
	}
	rightIdx := right.ColumnIndex(cond.RightColumn)
	if rightIdx < 0 {
		return nil, &JoinError{Table: right.Name(), Column: cond.RightColumn, Err: ErrJoinColumnNotFound}
	}

	proj, labels, err := planProjection(left, right, columns)
	if err != nil {
		return nil, err
	}
	res.Columns = labels

	whereColumns := append(ColumnNames(left.Columns()), ColumnNames(right.Columns())...)
	leftRows, rightRows := left.Rows(), right.Rows()

	emit := func(l, r Row) {
		full := make(Row, 0, len(l)+len(r))
		full = append(full, l...)
		full = append(full, r...)
		if filter != nil && !Evaluate(full, whereColumns, filter) {
			return
		}
		if proj == nil {
			res.Rows = append(res.Rows, full)
			return
		}
		out := make(Row, len(proj))
		for i, pr := range proj {
			if pr.right {
				out[i] = r[pr.index]
			} else {
				out[i] = l[pr.index]
			}
		}
		res.Rows = append(res.Rows, out)
	}

	res.Strategy = p.Choose(len(leftRows), len(rightRows), cond.Op)
	p.Logger.Debug("join planned",
		"left", left.Name(), "left_rows", len(leftRows),
		"right", right.Name(), "right_rows", len(rightRows),
		"op", cond.Op.String(), "strategy", res.Strategy.String())

	switch res.Strategy {
	case StrategyHash:
		hashJoin(leftRows, rightRows, leftIdx, rightIdx, emit)
	default:
		nestedLoopJoin(leftRows, rightRows, leftIdx, rightIdx, cond.Op, emit)
	}

	return res, nil
}

// planProjection resolves the requested columns. A nil projection means
// the full concatenated row.
func planProjection(left, right Relation, columns []string) ([]projection, []string, error) {
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "*") {
		labels := make([]string, 0, len(left.Columns())+len(right.Columns()))
		for _, c := range left.Columns() {
			labels = append(labels, left.Name()+"."+c.Name)
		}
		for _, c := range right.Columns() {
			labels = append(labels, right.Name()+"."+c.Name)
		}
		return nil, labels, nil
	}

	proj := make([]projection, 0, len(columns))
	for _, ref := range columns {
		table, name := SplitQualifier(ref)
		idx := -1
		onRight := false
		switch {
		case table == "":
			if idx = left.ColumnIndex(name); idx < 0 {
				idx = right.ColumnIndex(name)
				onRight = true
			}
		case table == left.Name():
			idx = left.ColumnIndex(name)
		case table == right.Name():
			idx = right.ColumnIndex(name)
			onRight = true
		}
		if idx < 0 {
			return nil, nil, &JoinError{Table: table, Column: name, Err: ErrProjectionColumnNotFound}
		}
		proj = append(proj, projection{right: onRight, index: idx})
	}
	return proj, append([]string(nil), columns...), nil
}

// valueAt returns row[idx] if the row is long enough
func valueAt(row Row, idx int) (Value, bool) {
	if idx < 0 || idx >= len(row) {
		return Value{}, false
	}
	return row[idx], true
}

// nestedLoopJoin compares every left row with every right row
func nestedLoopJoin(leftRows, rightRows []Row, leftIdx, rightIdx int, op CompareOp, emit func(l, r Row)) {
	for _, l := range leftRows {
		lv, ok := valueAt(l, leftIdx)
		if !ok {
			continue
		}
		for _, r := range rightRows {
			rv, ok := valueAt(r, rightIdx)
			if !ok {
				continue
			}
			if Compare(lv, rv, op) {
				emit(l, r)
			}
		}
	}
}

// hashKey buckets values so that every pair Compare treats as equal lands
// in the same bucket: Integer and Float64 share the numeric space.
type hashKey struct {
	numeric bool
	f       float64
	s       string
}

func keyOf(v Value) hashKey {
	if n, ok := v.Numeric(); ok {
		return hashKey{numeric: true, f: n}
	}
	return hashKey{s: v.s}
}

// hashJoin builds a multi-valued map over the smaller input (left on ties)
// and probes it with every row of the other input. Candidates from a
// bucket are confirmed with Compare, so large integers that collide as
// float64 keys are not reported as matches.
func hashJoin(leftRows, rightRows []Row, leftIdx, rightIdx int, emit func(l, r Row)) {
	buildLeft := len(leftRows) <= len(rightRows)
	build, probe := leftRows, rightRows
	buildIdx, probeIdx := leftIdx, rightIdx
	if !buildLeft {
		build, probe = rightRows, leftRows
		buildIdx, probeIdx = rightIdx, leftIdx
	}

	buckets := make(map[hashKey][]Row, len(build))
	for _, row := range build {
		v, ok := valueAt(row, buildIdx)
		if !ok {
			continue
		}
		k := keyOf(v)
		buckets[k] = append(buckets[k], row)
	}

	for _, pr := range probe {
		pv, ok := valueAt(pr, probeIdx)
		if !ok {
			continue
		}
		for _, br := range buckets[keyOf(pv)] {
			if !Compare(br[buildIdx], pv, OpEqual) {
				continue
			}
			if buildLeft {
				emit(br, pr)
			} else {
				emit(pr, br)
			}
		}
	}
}
