// Package parser implements the language's recursive-descent parser.
//
// Speculative lookahead (needed to decide, for instance, whether a
// statement list has run out of statements) is handled with explicit
// checkpoints over the token cursor rather than host-level exceptions:
// save() captures the cursor, restore() rewinds it. The parser keeps track
// of the furthest token position any attempted parse reached, so that when
// parsing ultimately fails, the reported error points at the deepest
// failure rather than the first one tried.
package parser

import (
	"fmt"

	"github.com/aledsdavies/hustle/internal/ast"
	"github.com/aledsdavies/hustle/internal/invariant"
	"github.com/aledsdavies/hustle/internal/source"
	"github.com/aledsdavies/hustle/internal/token"
)

// Error is a syntax error produced by the parser.
type Error struct {
	Message  string
	PosStart source.Position
	PosEnd   source.Position
}

func (e *Error) Error() string { return e.Message }

// FormatString renders the error in the interpreter's standard diagnostic
// shape.
func (e *Error) FormatString() string {
	return fmt.Sprintf("Invalid Syntax: %s\nFile %s, line %d\n\n%s",
		e.Message, e.PosStart.File.Name, e.PosStart.Line+1, source.Excerpt(e.PosStart, e.PosEnd))
}

type checkpoint int

// Parser walks a token stream and builds an AST, or reports the furthest
// syntax error it encountered.
type Parser struct {
	toks []token.Token
	pos  int

	deepestErr *Error
	deepestPos int
}

// Parse consumes the whole token stream and returns the program's
// statement list, or the furthest syntax error encountered. Success
// requires the EOF token to be the only thing left unconsumed.
func Parse(toks []token.Token) (*ast.StatementList, error) {
	invariant.Precondition(len(toks) > 0, "token stream must not be empty")
	invariant.Postcondition(toks[len(toks)-1].Kind == token.EOF, "token stream must end in EOF")

	p := &Parser{toks: toks}
	stmts, err := p.statements(nil)
	if err != nil {
		return nil, err
	}
	if p.current().Kind != token.EOF {
		return nil, p.note(&Error{
			Message:  "Expected '+', '-', '*', '/', or operator",
			PosStart: p.current().PosStart,
			PosEnd:   p.current().PosEnd,
		})
	}
	return stmts, nil
}

func (p *Parser) current() token.Token { return p.toks[p.pos] }

func (p *Parser) save() checkpoint { return checkpoint(p.pos) }

func (p *Parser) restore(c checkpoint) { p.pos = int(c) }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	if p.pos > p.deepestPos {
		p.deepestPos = p.pos
	}
	return t
}

// note records err as the parser's current best error if it occurs at least
// as deep into the token stream as the furthest token any parse attempt has
// advanced to, matching the "furthest advanced token wins" diagnostic rule.
// Otherwise the previously recorded error is kept and returned.
func (p *Parser) note(err *Error) *Error {
	if p.deepestErr == nil || p.pos >= p.deepestPos {
		p.deepestErr = err
		p.deepestPos = p.pos
	}
	return p.deepestErr
}

func (p *Parser) skipNewlines() {
	for p.current().Kind == token.NEWLINE {
		p.advance()
	}
}

func (p *Parser) expectKeyword(kw string) (token.Token, error) {
	if p.current().Matches(token.KEYWORD, kw) {
		return p.advance(), nil
	}
	return token.Token{}, p.note(&Error{
		Message:  fmt.Sprintf("Expected '%s'", kw),
		PosStart: p.current().PosStart,
		PosEnd:   p.current().PosEnd,
	})
}

func (p *Parser) expectKind(kind token.Type, what string) (token.Token, error) {
	if p.current().Kind == kind {
		return p.advance(), nil
	}
	return token.Token{}, p.note(&Error{
		Message:  fmt.Sprintf("Expected '%s'", what),
		PosStart: p.current().PosStart,
		PosEnd:   p.current().PosEnd,
	})
}

// statements parses a newline-separated list of statements. stopKeywords
// names any block-closing keyword ("end", "elif", "else") that should end
// the list without being consumed.
func (p *Parser) statements(stopKeywords map[string]bool) (*ast.StatementList, error) {
	start := p.current().PosStart
	var stmts []ast.Node

	p.skipNewlines()

	first, err := p.statement()
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, first)

	for {
		newlineCount := 0
		for p.current().Kind == token.NEWLINE {
			p.advance()
			newlineCount++
		}
		if newlineCount == 0 {
			break
		}
		if stopKeywords != nil && p.current().Kind == token.KEYWORD && stopKeywords[p.current().Value] {
			break
		}
		if p.current().Kind == token.EOF {
			break
		}

		cp := p.save()
		stmt, err := p.statement()
		if err != nil {
			p.restore(cp)
			break
		}
		stmts = append(stmts, stmt)
	}

	return ast.NewStatementList(stmts, start, p.current().PosStart), nil
}

func (p *Parser) statement() (ast.Node, error) {
	start := p.current().PosStart

	switch {
	case p.current().Matches(token.KEYWORD, "return"):
		p.advance()
		cp := p.save()
		if p.current().Kind == token.NEWLINE || p.current().Kind == token.EOF {
			return ast.NewReturn(nil, start, p.current().PosEnd), nil
		}
		expr, err := p.expr()
		if err != nil {
			p.restore(cp)
			return ast.NewReturn(nil, start, p.current().PosEnd), nil
		}
		return ast.NewReturn(expr, start, expr.PosEnd()), nil

	case p.current().Matches(token.KEYWORD, "continue"):
		p.advance()
		return ast.NewContinue(start, p.current().PosEnd), nil

	case p.current().Matches(token.KEYWORD, "break"):
		p.advance()
		return ast.NewBreak(start, p.current().PosEnd), nil
	}

	return p.expr()
}

// expr handles `var IDENT = expr` and the non-short-circuiting and/or
// chain over comp_expr. Both operands of and/or are always evaluated by
// design; see the evaluator package.
func (p *Parser) expr() (ast.Node, error) {
	if p.current().Matches(token.KEYWORD, "var") {
		start := p.current().PosStart
		p.advance()
		nameTok, err := p.expectKind(token.IDENTIFIER, "identifier")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(token.EQ, "="); err != nil {
			return nil, err
		}
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		return ast.NewVarAssign(nameTok.Value, value, start, value.PosEnd()), nil
	}

	left, err := p.compExpr()
	if err != nil {
		return nil, err
	}

	for p.current().Matches(token.KEYWORD, "and") || p.current().Matches(token.KEYWORD, "or") {
		op := p.advance().Value
		right, err := p.compExpr()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinOp(left, op, right)
	}
	return left, nil
}

func (p *Parser) compExpr() (ast.Node, error) {
	if p.current().Matches(token.KEYWORD, "not") {
		start := p.current().PosStart
		p.advance()
		operand, err := p.compExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp("not", operand, start, operand.PosEnd()), nil
	}

	left, err := p.arithExpr()
	if err != nil {
		return nil, err
	}

	for isComparisonOp(p.current().Kind) {
		op := p.advance().Kind.String()
		right, err := p.arithExpr()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinOp(left, op, right)
	}
	return left, nil
}

func isComparisonOp(k token.Type) bool {
	switch k {
	case token.EE, token.NE, token.LT, token.LTE, token.GT, token.GTE:
		return true
	}
	return false
}

func (p *Parser) arithExpr() (ast.Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == token.PLUS || p.current().Kind == token.MINUS {
		op := p.advance().Kind.String()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinOp(left, op, right)
	}
	return left, nil
}

func (p *Parser) term() (ast.Node, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == token.MUL || p.current().Kind == token.DIV || p.current().Kind == token.MOD {
		op := p.advance().Kind.String()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinOp(left, op, right)
	}
	return left, nil
}

func (p *Parser) factor() (ast.Node, error) {
	if p.current().Kind == token.PLUS || p.current().Kind == token.MINUS {
		start := p.current().PosStart
		op := p.advance().Kind.String()
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(op, operand, start, operand.PosEnd()), nil
	}
	return p.power()
}

func (p *Parser) power() (ast.Node, error) {
	left, err := p.call()
	if err != nil {
		return nil, err
	}
	if p.current().Kind == token.POW {
		p.advance()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		return ast.NewBinOp(left, "POW", right), nil
	}
	return left, nil
}

func (p *Parser) call() (ast.Node, error) {
	atomNode, err := p.atom()
	if err != nil {
		return nil, err
	}
	if p.current().Kind != token.LPAREN {
		return atomNode, nil
	}
	p.advance()

	var args []ast.Node
	if p.current().Kind != token.RPAREN {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		for p.current().Kind == token.COMMA {
			p.advance()
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
	end, err := p.expectKind(token.RPAREN, ")")
	if err != nil {
		return nil, err
	}
	return ast.NewCall(atomNode, args, end.PosEnd), nil
}

func (p *Parser) atom() (ast.Node, error) {
	t := p.current()

	switch {
	case t.Kind == token.INT:
		p.advance()
		return ast.NewNumberLit(t.Value, false, t.PosStart, t.PosEnd), nil

	case t.Kind == token.FLOAT:
		p.advance()
		return ast.NewNumberLit(t.Value, true, t.PosStart, t.PosEnd), nil

	case t.Kind == token.STRING:
		p.advance()
		return ast.NewStringLit(t.Value, t.PosStart, t.PosEnd), nil

	case t.Kind == token.IDENTIFIER:
		p.advance()
		return ast.NewIdentifier(t.Value, t.PosStart, t.PosEnd), nil

	case t.Kind == token.LPAREN:
		p.advance()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(token.RPAREN, ")"); err != nil {
			return nil, err
		}
		return e, nil

	case t.Kind == token.LSQUARE:
		return p.listExpr()

	case t.Matches(token.KEYWORD, "if"):
		return p.ifExpr()

	case t.Matches(token.KEYWORD, "for"):
		return p.forExpr()

	case t.Matches(token.KEYWORD, "while"):
		return p.whileExpr()

	case t.Matches(token.KEYWORD, "func"):
		return p.funcDef()

	case t.Kind == token.KEYWORD && isIntrinsicKeyword(t.Value):
		return p.intrinsic()
	}

	return nil, p.note(&Error{
		Message:  "Expected int, float, identifier, '+', '-', '(', '[' or keyword",
		PosStart: t.PosStart,
		PosEnd:   t.PosEnd,
	})
}

func (p *Parser) listExpr() (ast.Node, error) {
	start := p.current().PosStart
	p.advance() // [

	var elems []ast.Node
	if p.current().Kind != token.RSQUARE {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		for p.current().Kind == token.COMMA {
			p.advance()
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
	}
	end, err := p.expectKind(token.RSQUARE, "]")
	if err != nil {
		return nil, err
	}
	return ast.NewListLit(elems, start, end.PosEnd), nil
}

// blockOrExpr implements the inline-vs-single-expression duality shared by
// if/for/while/func: a NEWLINE after the header means "parse statements
// until a closing keyword", anything else means "parse one statement".
func (p *Parser) blockOrExpr(closers map[string]bool) (ast.Node, bool, error) {
	if p.current().Kind == token.NEWLINE {
		p.advance()
		body, err := p.statements(closers)
		if err != nil {
			return nil, false, err
		}
		return body, true, nil
	}
	e, err := p.statement()
	if err != nil {
		return nil, false, err
	}
	return e, false, nil
}

var ifBlockClosers = map[string]bool{"end": true, "elif": true, "else": true}

func (p *Parser) ifExpr() (ast.Node, error) {
	start := p.current().PosStart
	var cases []ast.IfCase
	var elseBody ast.Node
	elseNull := false
	hasElse := false

	if _, err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	for {
		cond, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("then"); err != nil {
			return nil, err
		}
		body, wantsNull, err := p.blockOrExpr(ifBlockClosers)
		if err != nil {
			return nil, err
		}
		cases = append(cases, ast.IfCase{Cond: cond, Body: body, WantsNull: wantsNull})

		if !p.current().Matches(token.KEYWORD, "elif") {
			break
		}
		p.advance()
	}

	if p.current().Matches(token.KEYWORD, "else") {
		p.advance()
		hasElse = true
		body, wantsNull, err := p.blockOrExpr(ifBlockClosers)
		if err != nil {
			return nil, err
		}
		elseBody, elseNull = body, wantsNull
	}

	end := p.current().PosEnd
	if ifNeedsEnd(cases, elseNull, hasElse) {
		endTok, err := p.expectKeyword("end")
		if err != nil {
			return nil, err
		}
		end = endTok.PosEnd
	}

	return ast.NewIf(cases, elseBody, elseNull, hasElse, start, end), nil
}

func ifNeedsEnd(cases []ast.IfCase, elseNull, hasElse bool) bool {
	for _, c := range cases {
		if c.WantsNull {
			return true
		}
	}
	return hasElse && elseNull
}

var blockClosers = map[string]bool{"end": true}

func (p *Parser) forExpr() (ast.Node, error) {
	start := p.current().PosStart
	p.advance() // for

	nameTok, err := p.expectKind(token.IDENTIFIER, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(token.EQ, "="); err != nil {
		return nil, err
	}
	startExpr, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("to"); err != nil {
		return nil, err
	}
	endExpr, err := p.expr()
	if err != nil {
		return nil, err
	}

	var stepExpr ast.Node
	if p.current().Matches(token.KEYWORD, "step") {
		p.advance()
		stepExpr, err = p.expr()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	body, wantsNull, err := p.blockOrExpr(blockClosers)
	if err != nil {
		return nil, err
	}

	end := p.current().PosEnd
	if wantsNull {
		endTok, err := p.expectKeyword("end")
		if err != nil {
			return nil, err
		}
		end = endTok.PosEnd
	}

	return ast.NewFor(nameTok.Value, startExpr, endExpr, stepExpr, body, wantsNull, start, end), nil
}

func (p *Parser) whileExpr() (ast.Node, error) {
	start := p.current().PosStart
	p.advance() // while

	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	body, wantsNull, err := p.blockOrExpr(blockClosers)
	if err != nil {
		return nil, err
	}

	end := p.current().PosEnd
	if wantsNull {
		endTok, err := p.expectKeyword("end")
		if err != nil {
			return nil, err
		}
		end = endTok.PosEnd
	}

	return ast.NewWhile(cond, body, wantsNull, start, end), nil
}

func (p *Parser) funcDef() (ast.Node, error) {
	start := p.current().PosStart
	p.advance() // func

	name := ""
	if p.current().Kind == token.IDENTIFIER {
		name = p.advance().Value
	}

	if _, err := p.expectKind(token.LPAREN, "("); err != nil {
		return nil, err
	}
	var params []string
	if p.current().Kind == token.IDENTIFIER {
		params = append(params, p.advance().Value)
		for p.current().Kind == token.COMMA {
			p.advance()
			ident, err := p.expectKind(token.IDENTIFIER, "identifier")
			if err != nil {
				return nil, err
			}
			params = append(params, ident.Value)
		}
	}
	if _, err := p.expectKind(token.RPAREN, ")"); err != nil {
		return nil, err
	}

	if p.current().Kind == token.ARROW {
		p.advance()
		body, err := p.expr()
		if err != nil {
			return nil, err
		}
		return ast.NewFuncDef(name, params, body, true, start, body.PosEnd()), nil
	}

	if _, err := p.expectKind(token.NEWLINE, "'->' or newline"); err != nil {
		return nil, err
	}
	body, err := p.statements(blockClosers)
	if err != nil {
		return nil, err
	}
	endTok, err := p.expectKeyword("end")
	if err != nil {
		return nil, err
	}
	return ast.NewFuncDef(name, params, body, false, start, endTok.PosEnd), nil
}

var intrinsicKeywords = map[string]ast.IntrinsicKind{
	"Exit":        ast.Exit,
	"Argv":        ast.Argv,
	"include":     ast.Include,
	"make_int":    ast.MakeInt,
	"make_float":  ast.MakeFloat,
	"make_str":    ast.MakeStr,
	"Shuffle":     ast.Shuffle,
	"lenStr":      ast.LenStr,
	"takeElement": ast.TakeElement,
	"randInt":     ast.RandInt,
	"system":      ast.System,
	"sleep":       ast.Sleep,
}

func isIntrinsicKeyword(value string) bool {
	_, ok := intrinsicKeywords[value]
	return ok
}

// intrinsic parses the shared `KEYWORD(args) statement` shape. The trailing
// statement is accepted but ignored at evaluation time.
func (p *Parser) intrinsic() (ast.Node, error) {
	start := p.current().PosStart
	kind := intrinsicKeywords[p.current().Value]
	p.advance()

	if _, err := p.expectKind(token.LPAREN, "("); err != nil {
		return nil, err
	}
	var args []ast.Node
	if p.current().Kind != token.RPAREN {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		for p.current().Kind == token.COMMA {
			p.advance()
			a, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
	}
	if _, err := p.expectKind(token.RPAREN, ")"); err != nil {
		return nil, err
	}

	cp := p.save()
	body, err := p.statement()
	if err != nil {
		p.restore(cp)
		body = nil
	}

	end := p.current().PosEnd
	if body != nil {
		end = body.PosEnd()
	}
	return ast.NewIntrinsic(kind, args, body, start, end), nil
}

