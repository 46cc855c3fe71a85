package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/minisql/query"
)

var deptCondition = query.JoinCondition{
	LeftTable: "employees", LeftColumn: "dept_id",
	RightTable: "departments", RightColumn: "id",
	Op: query.OpEqual,
}

func TestJoin(t *testing.T) {
	e := openEngine(t, 4)
	seed(t, e)

	res, err := e.Join(JoinRequest{
		Left:      "employees",
		Right:     "departments",
		Columns:   []string{"employees.name", "departments.name"},
		Condition: deptCondition,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"employees.name", "departments.name"}, res.Columns)
	assert.ElementsMatch(t, []query.Row{
		{query.Text("Alice"), query.Text("Engineering")},
		{query.Text("Bob"), query.Text("Sales")},
		{query.Text("Carol"), query.Text("Engineering")},
	}, res.Rows)
	assert.Empty(t, res.Warnings)
}

func TestJoin_WhereSeesBothTables(t *testing.T) {
	e := openEngine(t, 4)
	seed(t, e)

	// Bare "name" resolves to the left table's column
	res, err := e.Join(JoinRequest{
		Left:      "employees",
		Right:     "departments",
		Columns:   []string{"name"},
		Condition: deptCondition,
		Where:     "salary > 60000 AND dept_id = 1",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []query.Row{{query.Text("Alice")}, {query.Text("Carol")}}, res.Rows)

	_, err = e.Join(JoinRequest{
		Left: "employees", Right: "departments",
		Condition: deptCondition,
		Where:     "budget > 1",
	})
	assert.ErrorIs(t, err, ErrInvalidWhere)
}

func TestJoin_ReversedCondition(t *testing.T) {
	e := openEngine(t, 4)
	seed(t, e)

	reversed := query.JoinCondition{
		LeftTable: "departments", LeftColumn: "id",
		RightTable: "employees", RightColumn: "dept_id",
		Op: query.OpEqual,
	}
	res, err := e.Join(JoinRequest{
		Left: "employees", Right: "departments",
		Columns:   []string{"*"},
		Condition: reversed,
	})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, "employees.id", res.Columns[0])
	assert.Equal(t, "departments.name", res.Columns[len(res.Columns)-1])
}

func TestJoin_OuterTypeWarns(t *testing.T) {
	e := openEngine(t, 4)
	seed(t, e)

	res, err := e.Join(JoinRequest{
		Left: "employees", Right: "departments",
		Type:      query.JoinLeft,
		Condition: deptCondition,
	})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "LEFT")
}

func TestJoin_SaveAs(t *testing.T) {
	e := openEngine(t, 4)
	seed(t, e)

	res, err := e.Join(JoinRequest{
		Left: "employees", Right: "departments",
		Columns:   []string{"employees.name"},
		Condition: deptCondition,
		Where:     "age < 35",
		SaveAs:    "staff",
	})
	require.NoError(t, err)

	wantCols := []string{
		"employees_id", "employees_name", "employees_age", "employees_salary", "employees_dept_id",
		"departments_id", "departments_name",
	}
	assert.Equal(t, wantCols, res.Columns)
	assert.Len(t, res.Rows, 2)

	schema, err := e.Schema("staff")
	require.NoError(t, err)
	assert.Equal(t, query.KindFloat, schema[3].Kind)

	store := readStore(t, e, "staff")
	assert.Contains(t, store, "employees_id,employees_name,employees_age,employees_salary,employees_dept_id,departments_id,departments_name\n")
	assert.Contains(t, store, "2,Bob,25,50000.0000000000,2,2,Sales\n")

	_, err = e.Join(JoinRequest{
		Left: "employees", Right: "departments",
		Condition: deptCondition,
		SaveAs:    "staff",
	})
	assert.ErrorIs(t, err, ErrTableExists)
}

func TestJoin_SaveAsSelfJoin(t *testing.T) {
	e := openEngine(t, 4)
	seed(t, e)

	res, err := e.Join(JoinRequest{
		Left: "departments", Right: "departments",
		Condition: query.JoinCondition{
			LeftTable: "departments", LeftColumn: "id",
			RightTable: "departments", RightColumn: "id",
			Op: query.OpEqual,
		},
		SaveAs: "pairs",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"departments_id", "departments_name", "departments_id_2", "departments_name_2"}, res.Columns)
	assert.ElementsMatch(t, []query.Row{
		{query.Int(1), query.Text("Engineering"), query.Int(1), query.Text("Engineering")},
		{query.Int(2), query.Text("Sales"), query.Int(2), query.Text("Sales")},
	}, res.Rows)

	// Every saved column is reachable by name
	sel, err := e.Select("pairs", []string{"departments_name_2"}, "departments_id_2 = 2")
	require.NoError(t, err)
	assert.Equal(t, []query.Row{{query.Text("Sales")}}, sel.Rows)
}

func TestJoin_Errors(t *testing.T) {
	e := openEngine(t, 4)
	seed(t, e)

	_, err := e.Join(JoinRequest{Left: "employees", Right: "nosuch", Condition: deptCondition})
	assert.ErrorIs(t, err, ErrTableNotFound)

	bad := deptCondition
	bad.RightColumn = "nosuch"
	_, err = e.Join(JoinRequest{Left: "employees", Right: "departments", Condition: bad})
	assert.ErrorIs(t, err, query.ErrJoinColumnNotFound)
}

func TestJoin_AcrossEviction(t *testing.T) {
	// A pool of one cannot hold both inputs; the join still sees both
	e := openEngine(t, 1)
	seed(t, e)

	res, err := e.Join(JoinRequest{
		Left: "employees", Right: "departments",
		Condition: deptCondition,
	})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
}

func TestMirror(t *testing.T) {
	tests := []struct {
		op, want query.CompareOp
	}{
		{query.OpEqual, query.OpEqual},
		{query.OpNotEqual, query.OpNotEqual},
		{query.OpLess, query.OpGreater},
		{query.OpGreater, query.OpLess},
		{query.OpLessEqual, query.OpGreaterEqual},
		{query.OpGreaterEqual, query.OpLessEqual},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mirror(tt.op), tt.op.String())
	}
}
