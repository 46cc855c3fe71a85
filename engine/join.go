package engine

import (
	"fmt"

	"github.com/vegasq/minisql/query"
	"github.com/vegasq/minisql/table"
)

// JoinRequest describes "SELECT columns FROM left JOIN right ON cond
// [WHERE where] [SAVE AS saveAs]"
type JoinRequest struct {
	Left      string
	Right     string
	Columns   []string
	Type      query.JoinType
	Condition query.JoinCondition
	Where     string
	// SaveAs, if set, stores the full joined rows as a new table
	SaveAs string
}

// Join runs a two-table join. The where-clause is parsed against the left
// table's columns followed by the right table's.
//
// With SaveAs set the projection is ignored: every column of both inputs
// is stored, named "<table>_<column>", and the result reports the new
// table's columns and rows.
func (e *Engine) Join(req JoinRequest) (*Result, error) {
	if req.SaveAs != "" {
		if err := validateTableName(req.SaveAs); err != nil {
			return nil, err
		}
		if e.Exists(req.SaveAs) {
			return nil, fmt.Errorf("%w: %s", ErrTableExists, req.SaveAs)
		}
	}

	left, err := e.Table(req.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.Table(req.Right)
	if err != nil {
		return nil, err
	}

	cond := orientCondition(req.Condition, req.Left, req.Right)

	schema := append(append([]query.Column{}, left.Columns()...), right.Columns()...)
	filter, err := parseWhere(req.Where, schema)
	if err != nil {
		return nil, err
	}

	columns := req.Columns
	if req.SaveAs != "" {
		columns = []string{"*"}
	}

	res, err := e.planner.Join(left, right, columns, req.Type, cond, filter)
	if err != nil {
		return nil, err
	}

	if req.SaveAs == "" {
		return &Result{Columns: res.Columns, Rows: res.Rows, Warnings: res.Warnings}, nil
	}

	saved, err := e.CreateTable(req.SaveAs, mergedColumns(left, right))
	if err != nil {
		return nil, err
	}
	if err := saved.Append(res.Rows); err != nil {
		return nil, err
	}
	e.logger.Info("join saved as table", "table", req.SaveAs, "rows", len(res.Rows), "strategy", res.Strategy.String())

	return &Result{Columns: saved.ColumnNames(), Rows: saved.Rows(), Warnings: res.Warnings}, nil
}

// orientCondition makes the condition's left column refer to the left
// table when it was written the other way round ("ON b.y = a.x").
func orientCondition(cond query.JoinCondition, left, right string) query.JoinCondition {
	if cond.LeftTable == right && cond.RightTable == left && left != right {
		cond.LeftTable, cond.RightTable = cond.RightTable, cond.LeftTable
		cond.LeftColumn, cond.RightColumn = cond.RightColumn, cond.LeftColumn
		cond.Op = mirror(cond.Op)
	}
	return cond
}

// mirror returns op with its operands swapped, so a < b becomes b > a
func mirror(op query.CompareOp) query.CompareOp {
	switch op {
	case query.OpGreater:
		return query.OpLess
	case query.OpLess:
		return query.OpGreater
	case query.OpGreaterEqual:
		return query.OpLessEqual
	case query.OpLessEqual:
		return query.OpGreaterEqual
	default:
		return op
	}
}

// mergedColumns prefixes every column with its table name. A self-join
// would repeat every name, so later duplicates get a "_2", "_3", ... suffix.
func mergedColumns(left, right *table.Table) []query.Column {
	cols := make([]query.Column, 0, len(left.Columns())+len(right.Columns()))
	seen := make(map[string]bool, cap(cols))
	add := func(prefix string, c query.Column) {
		base := prefix + "_" + c.Name
		c.Name = base
		for n := 2; seen[c.Name]; n++ {
			c.Name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[c.Name] = true
		cols = append(cols, c)
	}
	for _, c := range left.Columns() {
		add(left.Name(), c)
	}
	for _, c := range right.Columns() {
		add(right.Name(), c)
	}
	return cols
}
