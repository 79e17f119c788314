// Package lexer turns source text into a token stream.
package lexer

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/hustle/internal/source"
	"github.com/aledsdavies/hustle/internal/token"
)

// classification tables, precomputed once so the hot scanning loop is a
// slice lookup rather than a chain of range comparisons.
var (
	isWhitespace [256]bool
	isDigit      [256]bool
	isIdentStart [256]bool
	isIdentPart  [256]bool
)

func init() {
	for c := 0; c < 256; c++ {
		isWhitespace[c] = c == ' ' || c == '\t' || c == '\r'
		isDigit[c] = c >= '0' && c <= '9'
		isIdentStart[c] = c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isIdentPart[c] = isIdentStart[c] || isDigit[c]
	}
}

// Error is a lexical error: illegal character or a malformed composite
// operator ("expected character").
type Error struct {
	Kind     string
	Details  string
	PosStart source.Position
	PosEnd   source.Position
}

func (e *Error) Error() string { return e.Details }

// FormatString renders the error the way every diagnostic in this
// interpreter is rendered: kind, message, file/line, caret-underlined
// excerpt.
func (e *Error) FormatString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", e.Kind, e.Details)
	fmt.Fprintf(&b, "File %s, line %d\n\n", e.PosStart.File.Name, e.PosStart.Line+1)
	b.WriteString(source.Excerpt(e.PosStart, e.PosEnd))
	return b.String()
}

// Lexer scans a source file into a token stream.
type Lexer struct {
	file    *source.File
	text    string
	pos     source.Position
	current byte
}

// New builds a lexer positioned at the start of file.
func New(file *source.File) *Lexer {
	l := &Lexer{
		file: file,
		text: file.Text,
		pos:  source.NewPosition(-1, 0, -1, file),
	}
	l.advance()
	return l
}

func (l *Lexer) advance() {
	var r byte
	if l.pos.Idx >= 0 && l.pos.Idx < len(l.text) {
		r = l.text[l.pos.Idx]
	}
	l.pos = l.pos.Advance(rune(r))
	if l.pos.Idx < len(l.text) {
		l.current = l.text[l.pos.Idx]
	} else {
		l.current = 0
	}
}

func (l *Lexer) atEOF() bool { return l.pos.Idx >= len(l.text) }

// Lex consumes the whole file and returns its token stream, always
// terminated by exactly one EOF token, or the first lexical error
// encountered. The lexer stops scanning on the first illegal character.
func Lex(file *source.File) ([]token.Token, error) {
	l := New(file)
	var tokens []token.Token

	for !l.atEOF() {
		c := l.current

		switch {
		case isWhitespace[c]:
			l.advance()

		case c == '#':
			for !l.atEOF() && l.current != '\n' {
				l.advance()
			}

		case c == '\n' || c == ';':
			start := l.pos.Copy()
			l.advance()
			tokens = append(tokens, token.New(token.NEWLINE, "", start, l.pos.Copy()))

		case isDigit[c]:
			tokens = append(tokens, l.makeNumber())

		case c == '"':
			t, err := l.makeString()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, t)

		case isIdentStart[c]:
			tokens = append(tokens, l.makeIdentifier())

		case c == '+':
			tokens = append(tokens, l.single(token.PLUS))
		case c == '-':
			tokens = append(tokens, l.makeMinusOrArrow())
		case c == '*':
			tokens = append(tokens, l.single(token.MUL))
		case c == '/':
			tokens = append(tokens, l.single(token.DIV))
		case c == '%':
			tokens = append(tokens, l.single(token.MOD))
		case c == '^':
			tokens = append(tokens, l.single(token.POW))
		case c == '(':
			tokens = append(tokens, l.single(token.LPAREN))
		case c == ')':
			tokens = append(tokens, l.single(token.RPAREN))
		case c == '[':
			tokens = append(tokens, l.single(token.LSQUARE))
		case c == ']':
			tokens = append(tokens, l.single(token.RSQUARE))
		case c == ',':
			tokens = append(tokens, l.single(token.COMMA))

		case c == '!':
			t, err := l.makeNotEquals()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, t)

		case c == '=':
			tokens = append(tokens, l.makeEquals())
		case c == '<':
			tokens = append(tokens, l.makeLessThan())
		case c == '>':
			tokens = append(tokens, l.makeGreaterThan())

		default:
			start := l.pos.Copy()
			bad := string(c)
			l.advance()
			return nil, &Error{
				Kind:     "Illegal Character",
				Details:  fmt.Sprintf("'%s'", bad),
				PosStart: start,
				PosEnd:   l.pos.Copy(),
			}
		}
	}

	tokens = append(tokens, token.New(token.EOF, "", l.pos.Copy(), l.pos.Copy()))
	return tokens, nil
}

func (l *Lexer) single(kind token.Type) token.Token {
	start := l.pos.Copy()
	l.advance()
	return token.New(kind, "", start, l.pos.Copy())
}

func (l *Lexer) makeNumber() token.Token {
	start := l.pos.Copy()
	var b strings.Builder
	dotCount := 0

	for !l.atEOF() && (isDigit[l.current] || l.current == '.') {
		if l.current == '.' {
			if dotCount == 1 {
				break
			}
			dotCount++
		}
		b.WriteByte(l.current)
		l.advance()
	}

	if dotCount == 0 {
		return token.New(token.INT, b.String(), start, l.pos.Copy())
	}
	return token.New(token.FLOAT, b.String(), start, l.pos.Copy())
}

func (l *Lexer) makeIdentifier() token.Token {
	start := l.pos.Copy()
	var b strings.Builder

	for !l.atEOF() && isIdentPart[l.current] {
		b.WriteByte(l.current)
		l.advance()
	}

	name := b.String()
	kind := token.IDENTIFIER
	if token.Keywords[name] {
		kind = token.KEYWORD
	}
	return token.New(kind, name, start, l.pos.Copy())
}

func (l *Lexer) makeString() (token.Token, error) {
	start := l.pos.Copy()
	l.advance() // opening quote

	var b strings.Builder
	escapeChars := map[byte]byte{'n': '\n', 't': '\t'}

	escaping := false
	for !l.atEOF() && (l.current != '"' || escaping) {
		if escaping {
			if replaced, ok := escapeChars[l.current]; ok {
				b.WriteByte(replaced)
			} else {
				b.WriteByte(l.current)
			}
			escaping = false
		} else if l.current == '\\' {
			escaping = true
		} else {
			b.WriteByte(l.current)
		}
		l.advance()
	}

	l.advance() // closing quote
	return token.New(token.STRING, b.String(), start, l.pos.Copy()), nil
}

func (l *Lexer) makeMinusOrArrow() token.Token {
	start := l.pos.Copy()
	l.advance()
	if !l.atEOF() && l.current == '>' {
		l.advance()
		return token.New(token.ARROW, "", start, l.pos.Copy())
	}
	return token.New(token.MINUS, "", start, l.pos.Copy())
}

func (l *Lexer) makeNotEquals() (token.Token, error) {
	start := l.pos.Copy()
	l.advance()
	if !l.atEOF() && l.current == '=' {
		l.advance()
		return token.New(token.NE, "", start, l.pos.Copy()), nil
	}
	end := l.pos.Copy()
	return token.Token{}, &Error{
		Kind:     "Expected Character",
		Details:  "'=' (after '!')",
		PosStart: start,
		PosEnd:   end,
	}
}

func (l *Lexer) makeEquals() token.Token {
	start := l.pos.Copy()
	l.advance()
	kind := token.EQ
	if !l.atEOF() && l.current == '=' {
		l.advance()
		kind = token.EE
	}
	return token.New(kind, "", start, l.pos.Copy())
}

func (l *Lexer) makeLessThan() token.Token {
	start := l.pos.Copy()
	l.advance()
	kind := token.LT
	if !l.atEOF() && l.current == '=' {
		l.advance()
		kind = token.LTE
	}
	return token.New(kind, "", start, l.pos.Copy())
}

func (l *Lexer) makeGreaterThan() token.Token {
	start := l.pos.Copy()
	l.advance()
	kind := token.GT
	if !l.atEOF() && l.current == '=' {
		l.advance()
		kind = token.GTE
	}
	return token.New(kind, "", start, l.pos.Copy())
}
