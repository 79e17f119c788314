package parser

import (
	"testing"

	"github.com/aledsdavies/hustle/internal/ast"
	"github.com/aledsdavies/hustle/internal/lexer"
	"github.com/aledsdavies/hustle/internal/source"
)

func parse(t *testing.T, text string) (*ast.StatementList, error) {
	t.Helper()
	f := source.New("test.hsle", text)
	toks, err := lexer.Lex(f)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	return Parse(toks)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	prog, err := parse(t, "1 + 2 * 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	bin, ok := prog.Statements[0].(*ast.BinOp)
	if !ok {
		t.Fatalf("expected top-level BinOp, got %T", prog.Statements[0])
	}
	if bin.Op != "PLUS" {
		t.Errorf("expected top-level op PLUS (lowest precedence first), got %s", bin.Op)
	}
	if _, ok := bin.Right.(*ast.BinOp); !ok {
		t.Errorf("expected right side to be the nested MUL, got %T", bin.Right)
	}
}

func TestParseVarAssign(t *testing.T) {
	prog, err := parse(t, "var x = 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assign, ok := prog.Statements[0].(*ast.VarAssign)
	if !ok {
		t.Fatalf("expected VarAssign, got %T", prog.Statements[0])
	}
	if assign.Name != "x" {
		t.Errorf("expected name x, got %s", assign.Name)
	}
}

func TestParseFuncDefArrowForm(t *testing.T) {
	prog, err := parse(t, "func sq(n) -> n^2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn, ok := prog.Statements[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("expected FuncDef, got %T", prog.Statements[0])
	}
	if !fn.ShouldAutoReturn {
		t.Error("arrow-form function should auto-return")
	}
	if fn.Name != "sq" || len(fn.ParamNames) != 1 || fn.ParamNames[0] != "n" {
		t.Errorf("unexpected function shape: %+v", fn)
	}
}

func TestParseIfBlockForm(t *testing.T) {
	prog, err := parse(t, "if 1 then\nvar x = 1\nend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ifNode, ok := prog.Statements[0].(*ast.If)
	if !ok {
		t.Fatalf("expected If, got %T", prog.Statements[0])
	}
	if !ifNode.Cases[0].WantsNull {
		t.Error("block-form if case should want null")
	}
}

func TestParseForLoop(t *testing.T) {
	prog, err := parse(t, "for i = 0 to 3 then printh(i)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	forNode, ok := prog.Statements[0].(*ast.For)
	if !ok {
		t.Fatalf("expected For, got %T", prog.Statements[0])
	}
	if forNode.VarName != "i" {
		t.Errorf("expected loop var i, got %s", forNode.VarName)
	}
}

func TestParseReportsFurthestError(t *testing.T) {
	text := "var x = 1 + "
	_, err := parse(t, text)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	perr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	// the furthest token reached is the EOF just past the trailing "+ "
	if perr.PosStart.Idx != len(text) {
		t.Errorf("expected error at index %d, got %d", len(text), perr.PosStart.Idx)
	}
}

func TestParseListLiteral(t *testing.T) {
	prog, err := parse(t, "[1, 2, 3]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := prog.Statements[0].(*ast.ListLit)
	if !ok {
		t.Fatalf("expected ListLit, got %T", prog.Statements[0])
	}
	if len(list.Elements) != 3 {
		t.Errorf("expected 3 elements, got %d", len(list.Elements))
	}
}

func TestParseCallExpression(t *testing.T) {
	prog, err := parse(t, "sq(5)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call, ok := prog.Statements[0].(*ast.Call)
	if !ok {
		t.Fatalf("expected Call, got %T", prog.Statements[0])
	}
	if len(call.Args) != 1 {
		t.Errorf("expected 1 arg, got %d", len(call.Args))
	}
}
