// Package sql is the SQL front end: a hand-rolled lexer, a
// recursive-descent parser producing the statement AST, and the
// semantic validator that resolves the AST against a table schema.
package sql

import "strings"

// TokenType enumerates every token the lexer can produce.
type TokenType int

const (
	TokEOF TokenType = iota
	TokIdent
	TokNumber
	TokString

	TokSelect
	TokFrom
	TokWhere
	TokAnd
	TokOr
	TokNot
	TokInsert
	TokInto
	TokValues
	TokUpdate
	TokSet
	TokDelete
	TokCreate
	TokTable
	TokIndex
	TokAs
	TokAsc
	TokDesc
	TokOrder
	TokBy
	TokLimit
	TokGroup
	TokPrimary
	TokKey
	TokDefault
	TokUnique
	TokOn
	TokTrue
	TokFalse
	TokNull

	TokEq
	TokNeq
	TokLt
	TokLte
	TokGt
	TokGte

	TokPlus
	TokMinus
	TokStar
	TokSlash

	TokComma
	TokDot
	TokSemicolon
	TokLParen
	TokRParen
)

var tokenNames = map[TokenType]string{
	TokEOF:       "EOF",
	TokIdent:     "IDENT",
	TokNumber:    "NUMBER",
	TokString:    "STRING",
	TokSelect:    "SELECT",
	TokFrom:      "FROM",
	TokWhere:     "WHERE",
	TokAnd:       "AND",
	TokOr:        "OR",
	TokNot:       "NOT",
	TokInsert:    "INSERT",
	TokInto:      "INTO",
	TokValues:    "VALUES",
	TokUpdate:    "UPDATE",
	TokSet:       "SET",
	TokDelete:    "DELETE",
	TokCreate:    "CREATE",
	TokTable:     "TABLE",
	TokIndex:     "INDEX",
	TokAs:        "AS",
	TokAsc:       "ASC",
	TokDesc:      "DESC",
	TokOrder:     "ORDER",
	TokBy:        "BY",
	TokLimit:     "LIMIT",
	TokGroup:     "GROUP",
	TokPrimary:   "PRIMARY",
	TokKey:       "KEY",
	TokDefault:   "DEFAULT",
	TokUnique:    "UNIQUE",
	TokOn:        "ON",
	TokTrue:      "TRUE",
	TokFalse:     "FALSE",
	TokNull:      "NULL",
	TokEq:        "EQUALS",
	TokNeq:       "NOT_EQUALS",
	TokLt:        "LESS",
	TokLte:       "LESS_EQUALS",
	TokGt:        "GREATER",
	TokGte:       "GREATER_EQUALS",
	TokPlus:      "PLUS",
	TokMinus:     "MINUS",
	TokStar:      "STAR",
	TokSlash:     "SLASH",
	TokComma:     "COMMA",
	TokDot:       "DOT",
	TokSemicolon: "SEMICOLON",
	TokLParen:    "LPAREN",
	TokRParen:    "RPAREN",
}

var keywords = map[string]TokenType{
	"SELECT":  TokSelect,
	"FROM":    TokFrom,
	"WHERE":   TokWhere,
	"AND":     TokAnd,
	"OR":      TokOr,
	"NOT":     TokNot,
	"INSERT":  TokInsert,
	"INTO":    TokInto,
	"VALUES":  TokValues,
	"UPDATE":  TokUpdate,
	"SET":     TokSet,
	"DELETE":  TokDelete,
	"CREATE":  TokCreate,
	"TABLE":   TokTable,
	"INDEX":   TokIndex,
	"AS":      TokAs,
	"ASC":     TokAsc,
	"DESC":    TokDesc,
	"ORDER":   TokOrder,
	"BY":      TokBy,
	"LIMIT":   TokLimit,
	"GROUP":   TokGroup,
	"PRIMARY": TokPrimary,
	"KEY":     TokKey,
	"DEFAULT": TokDefault,
	"UNIQUE":  TokUnique,
	"ON":      TokOn,
	"TRUE":    TokTrue,
	"FALSE":   TokFalse,
	"NULL":    TokNull,
}

// Token is one lexeme with its 1-based source position.
type Token struct {
	Type TokenType
	Text string
	Line int
	Col  int
}

func (t Token) String() string {
	switch t.Type {
	case TokIdent, TokNumber, TokString:
		return tokenNames[t.Type] + "(" + t.Text + ")"
	default:
		return tokenNames[t.Type]
	}
}

func lookupKeyword(word string) (TokenType, bool) {
	tt, ok := keywords[strings.ToUpper(word)]
	return tt, ok
}
