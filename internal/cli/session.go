package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vegasq/minisql/engine"
	"github.com/vegasq/minisql/internal/stmt"
	"github.com/vegasq/minisql/output"
	"github.com/vegasq/minisql/query"
	"github.com/vegasq/minisql/table"
)

const helpText = `Statements (terminate each with ;):
  CREATE TABLE t (col INT, col DOUBLE, col VARCHAR(n), ...)
  DROP TABLE t
  INSERT INTO t VALUES (v1, v2, ...)
  SELECT cols FROM t [WHERE cond] [ORDER BY col [DESC], ...] [LIMIT n [OFFSET m]]
  SELECT cols FROM a [INNER] JOIN b ON a.x = b.y [WHERE cond] [ORDER BY ...] [LIMIT ...]
  SELECT cols FROM a [INNER] JOIN b ON a.x = b.y [WHERE cond] SAVE AS t
  UPDATE t SET col = v[, ...] [WHERE cond]
  DELETE FROM t [WHERE cond]
  SHOW TABLES
  DESCRIBE t
  HELP
  EXIT

Conditions combine col op value with AND, OR, NOT and parentheses.
Operators: = <> != < > <= >=. Text literals use single or double quotes.
`

// Session executes statements against one engine and renders their results
type Session struct {
	engine    *engine.Engine
	formatter output.Formatter
	out       io.Writer
	errOut    io.Writer
	logger    *slog.Logger
}

// NewSession creates a session printing results in the named format
func NewSession(e *engine.Engine, format string, out, errOut io.Writer, logger *slog.Logger) (*Session, error) {
	f, err := output.New(format, out)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{engine: e, formatter: f, out: out, errOut: errOut, logger: logger}, nil
}

// Engine returns the session's engine
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// Execute runs every statement in input, including an unterminated final
// one, and stops at the first failure. exit reports whether an EXIT
// statement was reached.
func (s *Session) Execute(input string) (exit bool, err error) {
	statements, rest := stmt.Split(input)
	if tail := query.Trim(rest); tail != "" {
		statements = append(statements, tail)
	}
	for _, text := range statements {
		exit, err = s.ExecuteStatement(text)
		if err != nil || exit {
			return exit, err
		}
	}
	return false, nil
}

// ExecuteStatement parses and runs one statement
func (s *Session) ExecuteStatement(text string) (exit bool, err error) {
	st, err := stmt.Parse(text)
	if err != nil {
		if errors.Is(err, stmt.ErrEmpty) {
			return false, nil
		}
		return false, err
	}
	s.logger.Debug("executing statement", "kind", st.Kind.String(), "table", st.Table)
	return s.Run(st)
}

// Run executes a parsed statement
func (s *Session) Run(st *stmt.Statement) (exit bool, err error) {
	switch st.Kind {
	case stmt.KindExit:
		return true, nil
	case stmt.KindHelp:
		_, err = fmt.Fprint(s.out, helpText)
	case stmt.KindCreate:
		err = s.create(st)
	case stmt.KindDrop:
		if err = s.engine.DropTable(st.Table); err == nil {
			_, err = fmt.Fprintf(s.out, "Table %s dropped.\n", st.Table)
		}
	case stmt.KindInsert:
		if err = s.engine.InsertLiterals(st.Table, st.Values); err == nil {
			_, err = fmt.Fprintln(s.out, "1 row inserted.")
		}
	case stmt.KindSelect:
		err = s.selectRows(st)
	case stmt.KindUpdate:
		err = s.update(st)
	case stmt.KindDelete:
		var n int
		if n, err = s.engine.Delete(st.Table, st.Where); err == nil {
			_, err = fmt.Fprintf(s.out, "%d row(s) deleted.\n", n)
		}
	case stmt.KindShowTables:
		err = s.showTables()
	case stmt.KindDescribe:
		err = s.describe(st.Table)
	default:
		err = fmt.Errorf("unsupported statement %s", st.Kind)
	}
	return false, err
}

// Close writes every cached table back to disk
func (s *Session) Close() error {
	return s.engine.Close()
}

func (s *Session) warn(warnings []string) {
	for _, w := range warnings {
		_, _ = fmt.Fprintf(s.errOut, "Warning: %s\n", w)
	}
}

func (s *Session) create(st *stmt.Statement) error {
	cols, warnings, err := table.ParseColumnDefinitions(st.Definitions)
	if err != nil {
		return err
	}
	s.warn(warnings)

	t, err := s.engine.CreateTable(st.Table, cols)
	if err != nil {
		return err
	}
	if t.Len() > 0 {
		_, err = fmt.Fprintf(s.out, "Table %s created from existing data (%d rows).\n", st.Table, t.Len())
		return err
	}
	_, err = fmt.Fprintf(s.out, "Table %s created.\n", st.Table)
	return err
}

func (s *Session) selectRows(st *stmt.Statement) error {
	if st.Join == nil {
		res, err := s.engine.Select(st.Table, st.Columns, st.Where)
		if err != nil {
			return err
		}
		return s.render(st, res.Columns, res.Rows)
	}

	res, err := s.engine.Join(engine.JoinRequest{
		Left:      st.Table,
		Right:     st.Join.Right,
		Columns:   st.Columns,
		Type:      st.Join.Type,
		Condition: st.Join.Condition,
		Where:     st.Where,
		SaveAs:    st.SaveAs,
	})
	if err != nil {
		return err
	}
	s.warn(res.Warnings)
	if st.SaveAs != "" {
		if _, err := fmt.Fprintf(s.out, "Saved %d row(s) as table %s.\n", len(res.Rows), st.SaveAs); err != nil {
			return err
		}
	}
	return s.render(st, res.Columns, res.Rows)
}

// render sorts and pages a result before handing it to the formatter.
// Sort keys must name result columns.
func (s *Session) render(st *stmt.Statement, columns []string, rows []query.Row) error {
	rows, err := query.ApplyOrderBy(rows, columns, st.OrderBy)
	if err != nil {
		return err
	}
	return s.formatter.Format(columns, query.ApplyLimitOffset(rows, st.Limit, st.Offset))
}

func (s *Session) update(st *stmt.Statement) error {
	assignments := make([]engine.Assignment, len(st.Assignments))
	for i, a := range st.Assignments {
		assignments[i] = engine.Assignment{Column: a.Column, Literal: a.Literal}
	}
	n, err := s.engine.Update(st.Table, assignments, st.Where)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.out, "%d row(s) updated.\n", n)
	return err
}

func (s *Session) showTables() error {
	names, err := s.engine.Tables()
	if err != nil {
		return err
	}
	rows := make([]query.Row, len(names))
	for i, name := range names {
		cached := "no"
		if s.engine.Cached(name) {
			cached = "yes"
		}
		rows[i] = query.Row{query.Text(name), query.Text(cached)}
	}
	return s.formatter.Format([]string{"table", "cached"}, rows)
}

func (s *Session) describe(name string) error {
	cols, err := s.engine.Schema(name)
	if err != nil {
		return err
	}
	rows := make([]query.Row, len(cols))
	for i, c := range cols {
		rows[i] = query.Row{query.Text(c.Name), query.Text(c.Kind.String()), query.Int(int64(c.MaxLength))}
	}
	return s.formatter.Format([]string{"column", "type", "max_length"}, rows)
}
