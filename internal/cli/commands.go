package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vegasq/minisql/engine"
	"github.com/vegasq/minisql/output"
	"github.com/vegasq/minisql/query"
	"github.com/vegasq/minisql/reader"
)

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Long: `Start the interactive shell. When standard input is not a terminal the
statements it contains are executed as a script.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd)
		},
	}
}

func newExecCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <statements>",
		Short: "Execute statements and exit",
		Example: `  minisql exec "CREATE TABLE t (id INT, name VARCHAR(20)); INSERT INTO t VALUES (1, 'a');"
  minisql -o csv exec "SELECT * FROM t WHERE id > 0"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			_, execErr := s.Execute(strings.Join(args, " "))
			return errors.Join(execErr, s.Close())
		},
	}
}

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			return s.showTables()
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <table> <file.parquet>",
		Short: "Create a table from parquet files",
		Long: `Create a new table from a parquet file. The path may be a glob pattern; all
matching files must share the same columns.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, pattern := args[0], args[1]

			cols, rows, err := reader.ReadTable(pattern)
			if err != nil {
				return err
			}

			e, err := a.openEngine()
			if err != nil {
				return err
			}
			if e.Exists(name) {
				return fmt.Errorf("%w: %s", engine.ErrTableExists, name)
			}
			t, err := e.CreateTable(name, cols)
			if err != nil {
				return err
			}
			if err := t.Append(rows); err != nil {
				return err
			}
			if err := e.Close(); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d row(s) into %s.\n", len(rows), name)
			return err
		},
	}
}

func newExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <table> <file.parquet>",
		Short: "Write a table to a parquet file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]

			e, err := a.openEngine()
			if err != nil {
				return err
			}
			t, err := e.Table(name)
			if err != nil {
				return err
			}
			if err := reader.WriteTable(path, t.Columns(), t.Rows()); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) from %s to %s.\n", t.Len(), name, path)
			return err
		},
	}
}

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.parquet>",
		Short: "Show the schema of a parquet file",
		Long: `Show the fields of a parquet file and the column definition each would
import as. Fields with no column cannot be imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := reader.Describe(args[0])
			if err != nil {
				return err
			}

			f, err := output.New(a.cfg.Output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			rows := make([]query.Row, len(fields))
			for i, fi := range fields {
				rows[i] = query.Row{
					query.Text(fi.Name),
					query.Text(fi.PhysicalType),
					query.Text(fi.LogicalType),
					query.Text(strconv.FormatBool(fi.Optional)),
					query.Text(fi.Column),
				}
			}
			return f.Format([]string{"name", "physical_type", "logical_type", "optional", "column"}, rows)
		},
	}
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "minisql v%s\n", version)
		},
	}
}
