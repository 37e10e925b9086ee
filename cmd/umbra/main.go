// Package main contains the cli implementation of the umbra engine. It
// uses cobra package for cli tool implementation; without -e it drops
// into a readline REPL.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"umbra/internal/engine"
	"umbra/internal/exec"
	"umbra/internal/output"
	"umbra/internal/umbraerr"
)

type rootFlags struct {
	dbDir            string
	execute          string
	format           string
	toleratePageLoss bool
	unsafe           bool
	verbose          bool
}

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "umbra",
		Short:         "Embeddable analytical database with per-query compiled kernels",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(flags)
		},
	}

	rootCmd.Flags().StringVar(&flags.dbDir, "db", "", "Database directory (required)")
	rootCmd.Flags().StringVarP(&flags.execute, "execute", "e", "", "Execute SQL and exit; omit for REPL mode")
	rootCmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: table, csv or json")
	rootCmd.Flags().BoolVar(&flags.toleratePageLoss, "tolerate-page-loss", false, "Skip unloadable pages with a warning instead of failing the query")
	rootCmd.Flags().BoolVarP(&flags.unsafe, "unsafe", "u", false, "Allow UPDATE/DELETE without a WHERE clause")
	rootCmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if umbraerr.UserError(err) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func run(flags *rootFlags) error {
	if flags.dbDir == "" {
		return fmt.Errorf("--db is required")
	}
	if flags.verbose {
		log.SetLevel(log.DebugLevel)
	}

	formatter, err := output.NewFormatter(flags.format)
	if err != nil {
		return err
	}

	eng, err := engine.Open(flags.dbDir)
	if err != nil {
		return err
	}
	defer eng.Close()
	if flags.toleratePageLoss {
		eng.SetToleratePageLoss(true)
	}

	if !eng.CompilerAvailable() {
		log.Warn("no C compiler found; queries and mutations will fail", "cc", "cc")
	}

	session := engine.NewSession(eng, engine.SessionOptions{Unsafe: flags.unsafe, Out: os.Stderr})

	if flags.execute != "" {
		return runBatch(session, formatter, flags.execute, os.Stdout)
	}
	return repl(eng, session, formatter, flags.dbDir)
}

func runBatch(session *engine.Session, formatter output.Formatter, script string, out io.Writer) error {
	results, err := session.Run(script)
	for _, rs := range results {
		if printErr := printResult(formatter, rs, out); printErr != nil && err == nil {
			err = printErr
		}
	}
	return err
}

func printResult(formatter output.Formatter, rs *exec.ResultSet, out io.Writer) error {
	text, err := formatter.FormatResult(rs)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text)
	return err
}

func repl(eng *engine.Engine, session *engine.Session, formatter output.Formatter, dbDir string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "umbra> ",
		HistoryFile:     filepath.Join(dbDir, ".umbra_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("umbra interactive shell; end statements with ';', 'exit' to quit")

	var pending strings.Builder
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				pending.Reset()
				rl.SetPrompt("umbra> ")
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(line)
		if pending.Len() == 0 {
			switch strings.ToLower(trimmed) {
			case "":
				continue
			case "exit", "quit", `\q`:
				return nil
			case "tables", `\d`:
				printTables(eng)
				continue
			}
		}

		pending.WriteString(line)
		pending.WriteByte('\n')
		if !strings.HasSuffix(trimmed, ";") {
			rl.SetPrompt("    -> ")
			continue
		}
		rl.SetPrompt("umbra> ")

		script := pending.String()
		pending.Reset()
		if err := runBatch(session, formatter, script, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func printTables(eng *engine.Engine) {
	tables, err := eng.Tables()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(tables) == 0 {
		fmt.Println("no tables")
		return
	}
	for _, t := range tables {
		fmt.Println(t)
	}
}
