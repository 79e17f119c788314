// Package token defines the lexical tokens produced by the lexer and
// consumed by the parser.
package token

import (
	"fmt"

	"github.com/aledsdavies/hustle/internal/source"
)

// Type tags a token's lexical kind.
type Type int

const (
	EOF Type = iota
	NEWLINE

	INT
	FLOAT
	STRING
	IDENTIFIER
	KEYWORD

	PLUS
	MINUS
	MUL
	DIV
	MOD
	POW

	LPAREN
	RPAREN
	LSQUARE
	RSQUARE
	COMMA
	ARROW

	EQ
	EE
	NE
	LT
	LTE
	GT
	GTE

	ILLEGAL
)

var names = [...]string{
	EOF:        "EOF",
	NEWLINE:    "NEWLINE",
	INT:        "INT",
	FLOAT:      "FLOAT",
	STRING:     "STRING",
	IDENTIFIER: "IDENTIFIER",
	KEYWORD:    "KEYWORD",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	MUL:        "MUL",
	DIV:        "DIV",
	MOD:        "MOD",
	POW:        "POW",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LSQUARE:    "LSQUARE",
	RSQUARE:    "RSQUARE",
	COMMA:      "COMMA",
	ARROW:      "ARROW",
	EQ:         "EQ",
	EE:         "EE",
	NE:         "NE",
	LT:         "LT",
	LTE:        "LTE",
	GT:         "GT",
	GTE:        "GTE",
	ILLEGAL:    "ILLEGAL",
}

// String renders the type's symbolic name, falling back to a numeric form
// for anything outside the known table.
func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Keywords reserved by the language. Includes both control-flow keywords and
// the statement intrinsics, which share KEYWORD token kind with everything
// else reserved.
var Keywords = map[string]bool{
	"var": true, "and": true, "or": true, "not": true,
	"if": true, "elif": true, "else": true,
	"for": true, "to": true, "step": true, "while": true, "then": true,
	"func": true, "end": true, "return": true, "continue": true, "break": true,
	"Exit": true, "Argv": true, "include": true,
	"make_int": true, "make_float": true, "make_str": true,
	"Shuffle": true, "lenStr": true, "takeElement": true, "randInt": true,
	"system": true, "sleep": true,
}

// Token is one lexical unit: a kind, an optional payload, and its span.
type Token struct {
	Kind     Type
	Value    string
	PosStart source.Position
	PosEnd   source.Position
}

// New builds a token whose span is [start, end).
func New(kind Type, value string, start, end source.Position) Token {
	return Token{Kind: kind, Value: value, PosStart: start, PosEnd: end}
}

// Matches reports whether the token has the given kind and literal value.
func (t Token) Matches(kind Type, value string) bool {
	return t.Kind == kind && t.Value == value
}

func (t Token) String() string {
	if t.Value != "" {
		return fmt.Sprintf("%s:%s", t.Kind, t.Value)
	}
	return t.Kind.String()
}
