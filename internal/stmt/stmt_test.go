package stmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/minisql/query"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
		rest  string
	}{
		{"single", "SHOW TABLES;", []string{"SHOW TABLES"}, ""},
		{"two", "HELP; EXIT;", []string{"HELP", "EXIT"}, ""},
		{"unterminated", "SELECT * FROM t", nil, "SELECT * FROM t"},
		{"partial tail", "HELP;\nSELECT *", []string{"HELP"}, "\nSELECT *"},
		{"quoted semicolon", "INSERT INTO t VALUES (1, 'a;b');", []string{"INSERT INTO t VALUES (1, 'a;b')"}, ""},
		{"blank statements", ";;  ; HELP;", []string{"HELP"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest := Split(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestParse_Simple(t *testing.T) {
	tests := []struct {
		input string
		want  Statement
	}{
		{"SHOW TABLES", Statement{Kind: KindShowTables}},
		{"show tables;", Statement{Kind: KindShowTables}},
		{"HELP", Statement{Kind: KindHelp}},
		{"exit;", Statement{Kind: KindExit}},
		{"quit", Statement{Kind: KindExit}},
		{"DESCRIBE employees", Statement{Kind: KindDescribe, Table: "employees"}},
		{"DROP TABLE employees;", Statement{Kind: KindDrop, Table: "employees"}},
		{
			"CREATE TABLE employees (id INT, name VARCHAR(50), salary DOUBLE);",
			Statement{Kind: KindCreate, Table: "employees", Definitions: "id INT, name VARCHAR(50), salary DOUBLE"},
		},
		{
			"create table t(a INT)",
			Statement{Kind: KindCreate, Table: "t", Definitions: "a INT"},
		},
		{
			"INSERT INTO employees VALUES (1, 'Smith, John', 2.5)",
			Statement{Kind: KindInsert, Table: "employees", Values: []string{"1", "'Smith, John'", "2.5"}},
		},
		{
			"DELETE FROM employees",
			Statement{Kind: KindDelete, Table: "employees"},
		},
		{
			"DELETE FROM employees WHERE age > 30 AND name = 'x'",
			Statement{Kind: KindDelete, Table: "employees", Where: "age > 30 AND name = 'x'"},
		},
		{
			"UPDATE employees SET salary = 1000, name = 'a, b' WHERE id = 3",
			Statement{
				Kind:  KindUpdate,
				Table: "employees",
				Assignments: []Assignment{
					{Column: "salary", Literal: "1000"},
					{Column: "name", Literal: "'a, b'"},
				},
				Where: "id = 3",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParse_Select(t *testing.T) {
	st, err := Parse("SELECT name, age FROM employees WHERE age >= 30")
	require.NoError(t, err)
	assert.Equal(t, KindSelect, st.Kind)
	assert.Equal(t, "employees", st.Table)
	assert.Equal(t, []string{"name", "age"}, st.Columns)
	assert.Equal(t, "age >= 30", st.Where)
	assert.Nil(t, st.Join)

	// Keywords inside literals are not clause boundaries
	st, err = Parse("SELECT * FROM notes WHERE body = 'from where join'")
	require.NoError(t, err)
	assert.Equal(t, "notes", st.Table)
	assert.Equal(t, "body = 'from where join'", st.Where)
}

func TestParse_OrderByLimit(t *testing.T) {
	st, err := Parse("SELECT name, age FROM employees WHERE age > 20 ORDER BY age DESC, employees.name LIMIT 10 OFFSET 5;")
	require.NoError(t, err)
	assert.Equal(t, "employees", st.Table)
	assert.Equal(t, "age > 20", st.Where)
	assert.Equal(t, []query.OrderByItem{
		{Column: "age", Desc: true},
		{Column: "employees.name"},
	}, st.OrderBy)
	require.NotNil(t, st.Limit)
	require.NotNil(t, st.Offset)
	assert.Equal(t, int64(10), *st.Limit)
	assert.Equal(t, int64(5), *st.Offset)

	st, err = Parse("select * from t order by a asc limit 0")
	require.NoError(t, err)
	assert.Equal(t, "t", st.Table)
	assert.Equal(t, []query.OrderByItem{{Column: "a"}}, st.OrderBy)
	require.NotNil(t, st.Limit)
	assert.Equal(t, int64(0), *st.Limit)
	assert.Nil(t, st.Offset)

	// Keywords inside literals are not clauses
	st, err = Parse("SELECT * FROM t WHERE note = 'order by limit 3'")
	require.NoError(t, err)
	assert.Equal(t, "note = 'order by limit 3'", st.Where)
	assert.Nil(t, st.OrderBy)
	assert.Nil(t, st.Limit)
}

func TestParse_Join(t *testing.T) {
	st, err := Parse("SELECT employees.name, departments.name FROM employees JOIN departments " +
		"ON employees.dept_id = departments.id WHERE salary > 100 SAVE AS staff;")
	require.NoError(t, err)

	assert.Equal(t, "employees", st.Table)
	assert.Equal(t, []string{"employees.name", "departments.name"}, st.Columns)
	assert.Equal(t, "salary > 100", st.Where)
	assert.Equal(t, "staff", st.SaveAs)
	require.NotNil(t, st.Join)
	assert.Equal(t, "departments", st.Join.Right)
	assert.Equal(t, query.JoinInner, st.Join.Type)
	assert.Equal(t, query.JoinCondition{
		LeftTable: "employees", LeftColumn: "dept_id",
		RightTable: "departments", RightColumn: "id",
		Op: query.OpEqual,
	}, st.Join.Condition)
}

func TestParse_JoinTypes(t *testing.T) {
	tests := []struct {
		clause string
		want   query.JoinType
	}{
		{"a JOIN b", query.JoinInner},
		{"a INNER JOIN b", query.JoinInner},
		{"a LEFT JOIN b", query.JoinLeft},
		{"a left outer join b", query.JoinLeft},
		{"a RIGHT OUTER JOIN b", query.JoinRight},
		{"a FULL JOIN b", query.JoinFull},
		{"a CROSS JOIN b", query.JoinCross},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			st, err := Parse("SELECT * FROM " + tt.clause + " ON a.x = b.y")
			require.NoError(t, err)
			require.NotNil(t, st.Join)
			assert.Equal(t, tt.want, st.Join.Type)
		})
	}
}

func TestParse_JoinCondition(t *testing.T) {
	tests := []struct {
		on   string
		want query.JoinCondition
	}{
		{"a.x = b.y", query.JoinCondition{LeftTable: "a", LeftColumn: "x", RightTable: "b", RightColumn: "y", Op: query.OpEqual}},
		{"x <> y", query.JoinCondition{LeftTable: "a", LeftColumn: "x", RightTable: "b", RightColumn: "y", Op: query.OpNotEqual}},
		{"b.y>=a.x", query.JoinCondition{LeftTable: "b", LeftColumn: "y", RightTable: "a", RightColumn: "x", Op: query.OpGreaterEqual}},
	}

	for _, tt := range tests {
		t.Run(tt.on, func(t *testing.T) {
			st, err := Parse("SELECT * FROM a JOIN b ON " + tt.on)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Join.Condition)
		})
	}

	// A self-join names the same table on both sides
	st, err := Parse("SELECT * FROM a JOIN a ON a.x = a.y")
	require.NoError(t, err)
	assert.Equal(t, query.JoinCondition{LeftTable: "a", LeftColumn: "x", RightTable: "a", RightColumn: "y", Op: query.OpEqual}, st.Join.Condition)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"", ErrEmpty},
		{" ; ", ErrEmpty},
		{"MERGE INTO t", ErrUnknownStatement},
		{"SHOW COLUMNS", ErrSyntax},
		{"CREATE t (a INT)", ErrSyntax},
		{"CREATE TABLE t", ErrSyntax},
		{"CREATE TABLE t ()", ErrSyntax},
		{"CREATE TABLE bad-name (a INT)", ErrSyntax},
		{"DROP t", ErrSyntax},
		{"INSERT t VALUES (1)", ErrSyntax},
		{"INSERT INTO t (1)", ErrSyntax},
		{"INSERT INTO t VALUES 1, 2", ErrSyntax},
		{"INSERT INTO t VALUES (1, , 2)", ErrSyntax},
		{"SELECT * employees", ErrSyntax},
		{"SELECT FROM t", ErrSyntax},
		{"SELECT * FROM t WHERE", ErrSyntax},
		{"SELECT * FROM t SAVE AS u", ErrSyntax},
		{"SELECT * FROM t ORDER BY", ErrSyntax},
		{"SELECT * FROM t ORDER BY a SIDEWAYS", ErrSyntax},
		{"SELECT * FROM t ORDER BY 'a'", ErrSyntax},
		{"SELECT * FROM t LIMIT", ErrSyntax},
		{"SELECT * FROM t LIMIT -1", ErrSyntax},
		{"SELECT * FROM t LIMIT 2 OFFSET x", ErrSyntax},
		{"SELECT * FROM t LIMIT 2 SKIP 1", ErrSyntax},
		{"SELECT * FROM a JOIN b ON a.x = b.y LIMIT 1 SAVE AS c", ErrSyntax},
		{"SELECT * FROM a JOIN b ON a.x = b.y ORDER BY x SAVE AS c", ErrSyntax},
		{"SELECT * FROM a JOIN b", ErrSyntax},
		{"SELECT * FROM a SIDEWAYS JOIN b ON a.x = b.y", ErrSyntax},
		{"SELECT * FROM a JOIN b ON a.x", ErrSyntax},
		{"SELECT * FROM a JOIN b ON a.x = 5", ErrSyntax},
		{"SELECT * FROM a JOIN b ON c.x = b.y", ErrSyntax},
		{"SELECT * FROM a JOIN b ON a.x = a.y", ErrSyntax},
		{"SELECT * FROM a JOIN b ON b.x = b.y", ErrSyntax},
		{"SELECT * FROM a JOIN b ON x = a.y", ErrSyntax},
		{"SELECT * FROM a JOIN b ON a.x =! b.y", ErrSyntax},
		{"UPDATE t name = 1", ErrSyntax},
		{"UPDATE t SET name", ErrSyntax},
		{"UPDATE t SET = 1", ErrSyntax},
		{"DELETE t", ErrSyntax},
		{"DELETE FROM t WHERE ", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "SHOW TABLES", KindShowTables.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
