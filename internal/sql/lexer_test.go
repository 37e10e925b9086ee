package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umbra/internal/umbraerr"
)

func tokenTypes(t *testing.T, src string) []TokenType {
	t.Helper()
	toks, err := Tokenize(src)
	require.NoError(t, err)
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestLexerSelectTokenStream(t *testing.T) {
	toks, err := Tokenize("SELECT name, age FROM users WHERE age > 21")
	require.NoError(t, err)

	want := []struct {
		tt   TokenType
		text string
	}{
		{TokSelect, ""},
		{TokIdent, "name"},
		{TokComma, ""},
		{TokIdent, "age"},
		{TokFrom, ""},
		{TokIdent, "users"},
		{TokWhere, ""},
		{TokIdent, "age"},
		{TokGt, ""},
		{TokNumber, "21"},
		{TokEOF, ""},
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		assert.Equal(t, w.tt, toks[i].Type, "token %d", i)
		if w.text != "" {
			assert.Equal(t, w.text, toks[i].Text, "token %d", i)
		}
	}
}

func TestLexerKeywordsCaseInsensitive(t *testing.T) {
	assert.Equal(t,
		tokenTypes(t, "SELECT * FROM t"),
		tokenTypes(t, "select * from t"))
	assert.Equal(t,
		[]TokenType{TokSelect, TokStar, TokFrom, TokIdent, TokEOF},
		tokenTypes(t, "SeLeCt * FrOm t"))
}

func TestLexerOperators(t *testing.T) {
	assert.Equal(t,
		[]TokenType{TokEq, TokNeq, TokNeq, TokLt, TokLte, TokGt, TokGte, TokPlus, TokMinus, TokStar, TokSlash, TokEOF},
		tokenTypes(t, "= != <> < <= > >= + - * /"))
}

func TestLexerStringLiterals(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"single quoted", "'bob'", "bob"},
		{"double quoted", `"bob"`, "bob"},
		{"doubled quote escape", "'it''s'", "it's"},
		{"doubled double quote", `"say ""hi"""`, `say "hi"`},
		{"empty", "''", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := Tokenize(tc.src)
			require.NoError(t, err)
			require.Equal(t, TokString, toks[0].Type)
			assert.Equal(t, tc.want, toks[0].Text)
		})
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	_, err := Tokenize("SELECT 'oops")
	var parseErr *umbraerr.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Msg, "unterminated")
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	_, err := Tokenize("SELECT @ FROM t")
	var parseErr *umbraerr.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Msg, "unexpected character")
	assert.Equal(t, 1, parseErr.Line)
	assert.Equal(t, 8, parseErr.Col)
}

func TestLexerLineComment(t *testing.T) {
	assert.Equal(t,
		[]TokenType{TokSelect, TokStar, TokFrom, TokIdent, TokEOF},
		tokenTypes(t, "SELECT * -- trailing comment\nFROM t"))
}

func TestLexerPositions(t *testing.T) {
	toks, err := Tokenize("SELECT\n  name")
	require.NoError(t, err)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 1, toks[0].Col)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 3, toks[1].Col)
}
