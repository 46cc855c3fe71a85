package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd executes the root command with args against dataDir
func runCmd(t *testing.T, dataDir, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

type personRow struct {
	ID    int64   `parquet:"id"`
	Name  string  `parquet:"name"`
	Score float64 `parquet:"score"`
}

func writeParquet(t *testing.T, path string, rows []personRow) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[personRow](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestExecCommand(t *testing.T) {
	dir := t.TempDir()

	out, _, err := runCmd(t, dir, "", "exec",
		"CREATE TABLE t (id INT, name VARCHAR(20)); INSERT INTO t VALUES (1, 'a'); INSERT INTO t VALUES (2, 'b');")
	require.NoError(t, err)
	assert.Equal(t, "Table t created.\n1 row inserted.\n1 row inserted.\n", out)

	data, err := os.ReadFile(filepath.Join(dir, "t.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,a\n2,b\n", string(data))

	// A new process reloads the table from disk
	out, _, err = runCmd(t, dir, "", "-o", "json", "exec", "SELECT name FROM t WHERE id = 2")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"b"}`+"\n", out)

	_, _, err = runCmd(t, dir, "", "exec", "SELECT * FROM nosuch;")
	assert.Error(t, err)
}

func TestShell_ScriptInput(t *testing.T) {
	dir := t.TempDir()
	script := `CREATE TABLE t (id INT);
INSERT INTO t VALUES (1);
INSERT INTO t VALUES ('bad');
INSERT INTO t
  VALUES (2);
SELECT * FROM t;
EXIT;
SELECT * FROM t;`

	out, errOut, err := runCmd(t, dir, script, "-o", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 statement(s) failed")
	assert.Contains(t, errOut, "Error:")
	assert.Equal(t, "Table t created.\n1 row inserted.\n1 row inserted.\nid\n1\n2\n", out)
}

func TestTablesCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("x\n1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x\n1\n"), 0o644))

	out, _, err := runCmd(t, dir, "", "-o", "csv", "tables")
	require.NoError(t, err)
	assert.Equal(t, "table,cached\na,no\nb,no\n", out)
}

func TestImportExportCommands(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "people.parquet")
	writeParquet(t, src, []personRow{
		{ID: 1, Name: "Alice", Score: 9.5},
		{ID: 2, Name: "Bob", Score: 7},
	})

	out, _, err := runCmd(t, dir, "", "import", "people", src)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 row(s) into people.\n", out)

	out, _, err = runCmd(t, dir, "", "-o", "csv", "exec", "SELECT name, score FROM people WHERE score > 8;")
	require.NoError(t, err)
	assert.Equal(t, "name,score\nAlice,9.5\n", out)

	dst := filepath.Join(t.TempDir(), "copy.parquet")
	out, _, err = runCmd(t, dir, "", "export", "people", dst)
	require.NoError(t, err)
	assert.Equal(t, "Exported 2 row(s) from people to "+dst+".\n", out)

	out, _, err = runCmd(t, dir, "", "-o", "csv", "inspect", dst)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name,physical_type,logical_type,optional,column", lines[0])

	// Importing over an existing table is refused
	_, _, err = runCmd(t, dir, "", "import", "people", src)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCmd(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.Equal(t, "minisql v"+Version+"\n", out)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, _, err := runCmd(t, t.TempDir(), "", "--cache-capacity", "0", "tables")
	assert.Error(t, err)

	_, _, err = runCmd(t, t.TempDir(), "", "-o", "xml", "tables")
	assert.Error(t, err)
}
