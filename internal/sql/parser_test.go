package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umbra/internal/umbraerr"
)

func mustSelect(t *testing.T, src string) *SelectStmt {
	t.Helper()
	stmt, err := Parse(src)
	require.NoError(t, err)
	sel, ok := stmt.(*SelectStmt)
	require.True(t, ok, "expected SelectStmt, got %T", stmt)
	return sel
}

func TestParseSelectBasics(t *testing.T) {
	sel := mustSelect(t, "SELECT name, age FROM users WHERE age > 21")
	assert.Equal(t, "users", sel.Table)
	assert.Equal(t, []string{"name", "age"}, sel.Columns)
	assert.False(t, sel.Star)
	assert.False(t, sel.Count)
	assert.Equal(t, "(age > 21)", ExprString(sel.Where))
	assert.Equal(t, -1, sel.Limit)
}

func TestParseSelectStarCountOrderLimit(t *testing.T) {
	sel := mustSelect(t, "SELECT * FROM t WHERE a = 1 ORDER BY b DESC, c LIMIT 10;")
	assert.True(t, sel.Star)
	assert.Equal(t, []OrderKey{{Column: "b", Desc: true}, {Column: "c"}}, sel.OrderBy)
	assert.Equal(t, 10, sel.Limit)

	count := mustSelect(t, "SELECT COUNT(*) FROM t")
	assert.True(t, count.Count)
	assert.Nil(t, count.Columns)
}

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"a OR b AND c", "(a OR (b AND c))"},
		{"NOT a AND b", "((NOT a) AND b)"},
		{"a = 1 OR b = 2 AND c = 3", "((a = 1) OR ((b = 2) AND (c = 3)))"},
		{"a + b * c = 7", "((a + (b * c)) = 7)"},
		{"a - b - c < 0", "(((a - b) - c) < 0)"},
		{"(a OR b) AND c", "((a OR b) AND c)"},
		{"a <> 1", "(a != 1)"},
	}
	for _, tc := range cases {
		sel := mustSelect(t, "SELECT * FROM t WHERE "+tc.src)
		assert.Equal(t, tc.want, ExprString(sel.Where), "input %q", tc.src)
	}
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("INSERT INTO users (name, age) VALUES ('ann', 30)")
	require.NoError(t, err)
	ins := stmt.(*InsertStmt)
	assert.Equal(t, "users", ins.Table)
	assert.Equal(t, []string{"name", "age"}, ins.Columns)
	require.Len(t, ins.Values, 2)
	assert.Equal(t, `"ann"`, ExprString(ins.Values[0]))
	assert.Equal(t, "30", ExprString(ins.Values[1]))

	stmt, err = Parse("INSERT INTO users VALUES (1, 'bob', 2 + 3)")
	require.NoError(t, err)
	ins = stmt.(*InsertStmt)
	assert.Empty(t, ins.Columns)
	assert.Equal(t, "(2 + 3)", ExprString(ins.Values[2]))
}

func TestParseUpdateDelete(t *testing.T) {
	stmt, err := Parse("UPDATE users SET age = 22, name = 'bob' WHERE name = 'bob'")
	require.NoError(t, err)
	upd := stmt.(*UpdateStmt)
	assert.Equal(t, "users", upd.Table)
	require.Len(t, upd.Assignments, 2)
	assert.Equal(t, "age", upd.Assignments[0].Column)
	assert.Equal(t, `(name = "bob")`, ExprString(upd.Where))

	stmt, err = Parse("DELETE FROM users WHERE age < 18")
	require.NoError(t, err)
	del := stmt.(*DeleteStmt)
	assert.Equal(t, "users", del.Table)
	assert.Equal(t, "(age < 18)", ExprString(del.Where))

	stmt, err = Parse("DELETE FROM users")
	require.NoError(t, err)
	assert.Nil(t, stmt.(*DeleteStmt).Where)
}

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE users (
		id INT PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		age INT,
		bio TEXT,
		joined DATE DEFAULT 0
	)`)
	require.NoError(t, err)
	ct := stmt.(*CreateTableStmt)
	assert.Equal(t, "users", ct.Table)
	require.Len(t, ct.Columns, 5)
	assert.True(t, ct.Columns[0].PrimaryKey)
	assert.Equal(t, 64, ct.Columns[1].Length)
	assert.True(t, ct.Columns[1].NotNull)
	assert.True(t, ct.Columns[4].HasDefault)
	assert.Equal(t, "0", ct.Columns[4].DefaultText)
}

func TestParseCreateIndex(t *testing.T) {
	stmt, err := Parse("CREATE UNIQUE INDEX idx_name ON users (name, age)")
	require.NoError(t, err)
	ci := stmt.(*CreateIndexStmt)
	assert.Equal(t, "idx_name", ci.Name)
	assert.Equal(t, "users", ci.Table)
	assert.Equal(t, []string{"name", "age"}, ci.Columns)
	assert.True(t, ci.Unique)
}

func TestParseUnknownFunction(t *testing.T) {
	_, err := Parse("SELECT * FROM t WHERE MAX(a) > 1")
	var parseErr *umbraerr.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Msg, "unknown function")
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"SELECT FROM t",
		"SELECT * users",
		"INSERT users VALUES (1)",
		"UPDATE t age = 1",
		"DELETE t WHERE a = 1",
		"SELECT * FROM t WHERE",
		"SELECT * FROM t LIMIT abc",
		"CREATE TABLE t",
	}
	for _, src := range cases {
		_, err := Parse(src)
		var parseErr *umbraerr.ParseError
		assert.True(t, errors.As(err, &parseErr), "input %q should fail with ParseError, got %v", src, err)
	}
}

func TestParseTrailingGarbage(t *testing.T) {
	_, err := Parse("SELECT * FROM t garbage")
	require.Error(t, err)
}

func TestParseScriptRecovery(t *testing.T) {
	stmts, errs := ParseScript("SELECT * FROM a; SELECT oops FROM; DELETE FROM b;")
	require.Len(t, errs, 1)
	require.Len(t, stmts, 2)
	assert.IsType(t, &SelectStmt{}, stmts[0])
	assert.IsType(t, &DeleteStmt{}, stmts[1])
}

func TestCanonicalFormEquality(t *testing.T) {
	a := mustSelect(t, "SELECT name FROM users WHERE age>21 AND  active = TRUE")
	b := mustSelect(t, "select name from users where AGE > 21 and active=true")
	assert.Equal(t, ExprString(a.Where), ExprString(b.Where))
}
