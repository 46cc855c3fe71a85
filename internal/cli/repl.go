package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/vegasq/minisql/internal/stmt"
	"github.com/vegasq/minisql/query"
)

const (
	prompt         = "minisql> "
	continuePrompt = "    ...> "
)

var keywords = []string{
	"CREATE TABLE", "DROP TABLE", "INSERT INTO", "SELECT", "UPDATE", "DELETE FROM",
	"SHOW TABLES;", "DESCRIBE", "HELP;", "EXIT;",
}

// isInteractive reports whether r is a terminal
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && readline.IsTerminal(int(f.Fd()))
}

// runREPL reads statements from the terminal until EXIT or end of input.
// Lines accumulate until a ';' completes a statement; Ctrl-C discards the
// pending input.
func runREPL(s *Session, historyFile string, out, errOut io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    newCompleter(s),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(out, "minisql %s (data: %s)\n", Version, s.Engine().DataDir())
	_, _ = fmt.Fprintln(out, "Type HELP; for commands, EXIT; to quit")

	var pending strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			pending.Reset()
			rl.SetPrompt(prompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		pending.WriteString(line)
		pending.WriteByte('\n')

		statements, rest := stmt.Split(pending.String())
		pending.Reset()
		pending.WriteString(rest)

		exit := false
		for _, text := range statements {
			if exit, err = s.ExecuteStatement(text); err != nil {
				_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			}
			if exit {
				break
			}
		}
		if exit {
			break
		}

		if query.Trim(rest) == "" {
			pending.Reset()
			rl.SetPrompt(prompt)
		} else {
			rl.SetPrompt(continuePrompt)
		}
	}

	return s.Close()
}

// runScript executes statements read from a non-interactive source,
// reporting each failure and carrying on with the next statement
func runScript(s *Session, r io.Reader, errOut io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	statements, rest := stmt.Split(string(data))
	if tail := query.Trim(rest); tail != "" {
		statements = append(statements, tail)
	}

	failed := 0
	for _, text := range statements {
		exit, err := s.ExecuteStatement(text)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		if exit {
			break
		}
	}

	if err := s.Close(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d statement(s) failed", failed)
	}
	return nil
}

// newCompleter completes statement keywords and the table names known at
// startup
func newCompleter(s *Session) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, kw := range keywords {
		items = append(items, readline.PcItem(kw))
	}
	if names, err := s.Engine().Tables(); err == nil {
		for _, name := range names {
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
