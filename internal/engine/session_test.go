package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umbra/internal/config"
	"umbra/internal/sql"
)

func openPlain(t *testing.T) *Engine {
	t.Helper()
	e, err := OpenWith(t.TempDir(), config.Default())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestPreflightFlagsUnguardedMutations(t *testing.T) {
	e := openPlain(t)
	s := NewSession(e, SessionOptions{})

	stmts, errs := sql.ParseScript("DELETE FROM users; UPDATE users SET age = 1; SELECT * FROM users; DELETE FROM users WHERE age > 1;")
	require.Empty(t, errs)

	result := s.Preflight(stmts, nil)
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, WarnDanger, result.Warnings[0].Level)
	assert.Contains(t, result.Warnings[0].Message, "DELETE without WHERE")
	assert.Contains(t, result.Warnings[1].Message, "UPDATE without WHERE")
	assert.True(t, result.Blocked())
}

func TestPreflightUnsafeDowngrades(t *testing.T) {
	e := openPlain(t)
	s := NewSession(e, SessionOptions{Unsafe: true})

	stmts, errs := sql.ParseScript("DELETE FROM users;")
	require.Empty(t, errs)

	result := s.Preflight(stmts, nil)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarnCaution, result.Warnings[0].Level)
	assert.False(t, result.Blocked())
}

func TestSessionRunBlocksDangerousScript(t *testing.T) {
	e := openPlain(t)
	var out strings.Builder
	s := NewSession(e, SessionOptions{Out: &out})

	_, err := s.Run("DELETE FROM users;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--unsafe")
	assert.Contains(t, out.String(), "DANGER")
}

func TestSessionRunReportsParseError(t *testing.T) {
	e := openPlain(t)
	s := NewSession(e, SessionOptions{})
	_, err := s.Run("SELECT FROM;")
	require.Error(t, err)
}

func TestSessionRunEmptyScript(t *testing.T) {
	e := openPlain(t)
	s := NewSession(e, SessionOptions{})
	results, err := s.Run("  ;; ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSessionRunBatch(t *testing.T) {
	e := openPlain(t)
	if !e.CompilerAvailable() {
		t.Skip("no C compiler on PATH")
	}
	s := NewSession(e, SessionOptions{})

	results, err := s.Run(`
		CREATE TABLE notes (body VARCHAR(32));
		INSERT INTO notes (body) VALUES ('first');
		SELECT body FROM notes;
	`)
	require.NoError(t, err)
	require.Len(t, results, 3)
	values, err := results[2].AllValues()
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "first", values[0][0].Str)
}

func TestSessionStopsAtFirstFailure(t *testing.T) {
	e := openPlain(t)
	if !e.CompilerAvailable() {
		t.Skip("no C compiler on PATH")
	}
	s := NewSession(e, SessionOptions{})

	results, err := s.Run(`
		CREATE TABLE a (n INT);
		SELECT * FROM missing;
		CREATE TABLE b (n INT);
	`)
	require.Error(t, err)
	assert.Len(t, results, 1)

	tables, err := e.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tables)
}
