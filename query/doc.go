// Package query provides where-clause parsing, row evaluation and joins
// over typed relations.
//
// This package implements the relational core of minisql:
//   - Typed scalar values (INT, DOUBLE, VARCHAR) with mixed-numeric comparison
//   - A recursive-descent where-clause parser producing an expression tree
//   - Evaluation of expression trees against rows
//   - Inner joins with nested-loop and hash-join strategies
//   - ORDER BY, LIMIT and OFFSET over result rows
//
// # Parsing
//
// Parse a where-clause against a schema. Literals take their type from the
// column they are compared with:
//
//	schema := []query.Column{
//	    {Name: "id", Kind: query.KindInteger},
//	    {Name: "name", Kind: query.KindText},
//	    {Name: "age", Kind: query.KindInteger},
//	}
//
//	expr, err := query.Parse("age > 25 AND name <> 'Bob'", schema)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Precedence from lowest to highest is OR, AND, NOT, then parenthesized
// groups and conditions. Binary connectives associate to the left, so
// "a = 1 OR b = 2 OR c = 3" parses as "((a = 1 OR b = 2) OR c = 3)".
//
// # Filter Operations
//
// Evaluate an expression against rows:
//
//	rows := []query.Row{
//	    {query.Int(1), query.Text("Alice"), query.Int(28)},
//	    {query.Int(2), query.Text("Bob"), query.Int(35)},
//	}
//
//	filtered := query.ApplyFilter(rows, query.ColumnNames(schema), expr)
//
// Evaluation never fails. A reference to a column that is not in the row
// layout makes its condition false.
//
// # Comparison Semantics
//
// Values of the same kind compare natively; text compares byte-wise.
// Integer and DOUBLE values compare as float64 in either order. Text never
// compares true against a number, for any operator including <>.
//
// # Joins
//
// Join two relations on a column comparison:
//
//	planner := query.NewPlanner(query.DefaultHashJoinThreshold, logger)
//	res, err := planner.Join(employees, departments, []string{"*"},
//	    query.JoinInner,
//	    query.JoinCondition{LeftColumn: "dept_id", RightColumn: "id", Op: query.OpEqual},
//	    nil)
//
// When both inputs are smaller than the threshold a nested loop is used;
// otherwise an equality join builds a hash table over the smaller input.
// Non-equality joins always use the nested loop. Both strategies produce
// the same multiset of rows.
//
// # Ordering
//
// ApplyOrderBy sorts result rows by one or more result columns and
// ApplyLimitOffset pages them. Numbers sort before text; ties keep their
// input order.
//
// # Security Limits
//
// To prevent resource exhaustion, the following limits are enforced:
//   - Maximum where-clause length: 64KB
//   - Maximum expression nesting depth: 100 levels
//   - Maximum column reference length: 256 characters
package query
