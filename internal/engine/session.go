package engine

import (
	"fmt"
	"io"

	"umbra/internal/exec"
	"umbra/internal/sql"
)

// PreflightResult collects what a statement batch is about to do to the
// database before anything runs.
type PreflightResult struct {
	Warnings []Warning
	Errors   []string
}

// Warning pairs a danger level with the statement it concerns.
type Warning struct {
	Level   WarningLevel
	Message string
	SQL     string
}

// WarningLevel grades how risky a statement is.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// SessionOptions tunes a statement batch run.
type SessionOptions struct {
	Unsafe bool // let unguarded UPDATE/DELETE run; findings become cautions
	Out    io.Writer
}

// Session runs statement batches against one engine, with preflight
// reporting before execution.
type Session struct {
	engine  *Engine
	options SessionOptions
	out     io.Writer
}

// NewSession wraps an engine for batch execution.
func NewSession(e *Engine, options SessionOptions) *Session {
	out := options.Out
	if out == nil {
		out = io.Discard
	}
	return &Session{engine: e, options: options, out: out}
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

// Preflight inspects parsed statements for unguarded mutations: a
// DELETE or UPDATE without a WHERE clause touches every record of its
// table. With Unsafe set the findings downgrade to cautions.
func (s *Session) Preflight(stmts []sql.Statement, texts []string) *PreflightResult {
	result := &PreflightResult{}
	for i, stmt := range stmts {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		switch st := stmt.(type) {
		case *sql.DeleteStmt:
			if st.Where == nil {
				result.add(s.options.Unsafe, fmt.Sprintf("DELETE without WHERE removes every record of %q", st.Table), text)
			}
		case *sql.UpdateStmt:
			if st.Where == nil {
				result.add(s.options.Unsafe, fmt.Sprintf("UPDATE without WHERE rewrites every record of %q", st.Table), text)
			}
		}
	}
	return result
}

func (r *PreflightResult) add(unsafe bool, msg, sqlText string) {
	level := WarnDanger
	if unsafe {
		level = WarnCaution
	}
	r.Warnings = append(r.Warnings, Warning{Level: level, Message: msg, SQL: sqlText})
}

// Blocked reports whether execution must stop: any DANGER finding
// blocks unless the session runs unsafe.
func (r *PreflightResult) Blocked() bool {
	for _, w := range r.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return len(r.Errors) > 0
}

// Run parses a script, preflights it, and executes statement by
// statement. Execution stops at the first failing statement; earlier
// results are returned alongside the error.
func (s *Session) Run(script string) ([]*exec.ResultSet, error) {
	stmts, parseErrs := sql.ParseScript(script)
	if len(parseErrs) > 0 {
		return nil, parseErrs[0]
	}
	if len(stmts) == 0 {
		return nil, nil
	}

	preflight := s.Preflight(stmts, nil)
	for _, w := range preflight.Warnings {
		s.printf("%s: %s\n", w.Level, w.Message)
	}
	if preflight.Blocked() {
		return nil, fmt.Errorf("unguarded mutation blocked; rerun with --unsafe to proceed")
	}

	var results []*exec.ResultSet
	for _, stmt := range stmts {
		rs, err := s.engine.ExecuteStmt(stmt)
		if err != nil {
			return results, err
		}
		results = append(results, rs)
	}
	return results, nil
}
