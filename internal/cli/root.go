// Package cli provides the command-line interface for minisql.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vegasq/minisql/engine"
	"github.com/vegasq/minisql/internal/config"
	"github.com/vegasq/minisql/output"
)

// Version information (set at build time)
var Version = "0.1.0"

// app carries state shared by the command tree
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewLogger returns a text logger at Warn level, or Debug when verbose
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "minisql",
		Short: "minisql - a small relational database over CSV files",
		Long: `minisql keeps tables as CSV files in a data directory and runs a small
SQL dialect over them: CREATE/DROP TABLE, INSERT, SELECT with WHERE and
two-table JOINs (optionally SAVE AS a new table), UPDATE and DELETE.

Run without a subcommand to start the interactive shell.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}

			cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.ConfigFile != "" {
				a.logger.Debug("using config file", "path", cfg.ConfigFile)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./minisql.yaml)")
	flags.StringP("data-dir", "d", config.DefaultDataDir, "Directory holding table files")
	flags.Int("cache-capacity", 100, "Number of tables kept in memory")
	flags.Int("hash-join-threshold", 1000, "Row count at which equality joins use a hash table")
	flags.StringP("output", "o", config.DefaultOutput, "Output format (table|pretty|markdown|csv|json)")
	flags.BoolP("verbose", "v", false, "Verbose logging")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newShellCommand(a))
	rootCmd.AddCommand(newExecCommand(a))
	rootCmd.AddCommand(newTablesCommand(a))
	rootCmd.AddCommand(newImportCommand(a))
	rootCmd.AddCommand(newExportCommand(a))
	rootCmd.AddCommand(newInspectCommand(a))
	rootCmd.AddCommand(newVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// openEngine opens the engine described by the loaded configuration
func (a *app) openEngine() (*engine.Engine, error) {
	return engine.Open(engine.Options{
		DataDir:           a.cfg.DataDir,
		CacheCapacity:     a.cfg.CacheCapacity,
		HashJoinThreshold: a.cfg.HashJoinThreshold,
		Logger:            a.logger,
	})
}

// openSession opens the engine and a session writing to the command's
// output streams
func (a *app) openSession(cmd *cobra.Command) (*Session, error) {
	e, err := a.openEngine()
	if err != nil {
		return nil, err
	}
	return NewSession(e, a.cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr(), a.logger)
}

func (a *app) runShell(cmd *cobra.Command) error {
	s, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	in := cmd.InOrStdin()
	if isInteractive(in) {
		return runREPL(s, a.cfg.HistoryFile, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	return runScript(s, in, cmd.ErrOrStderr())
}
