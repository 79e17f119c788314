package eval

import (
	"bytes"
	"testing"

	"github.com/aledsdavies/hustle/internal/environment"
	"github.com/aledsdavies/hustle/internal/evalctx"
	"github.com/aledsdavies/hustle/internal/lexer"
	"github.com/aledsdavies/hustle/internal/parser"
	"github.com/aledsdavies/hustle/internal/source"
	"github.com/aledsdavies/hustle/internal/value"
)

func run(t *testing.T, text string) (Outcome, *evalctx.Context) {
	t.Helper()
	f := source.New("test.hsle", text)
	toks, err := lexer.Lex(f)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	table := environment.New()
	ctx := evalctx.NewRoot("<program>", table)
	ev := New("test.hsle", Config{})
	ev.host = Host{Stdout: &bytes.Buffer{}}

	return ev.Eval(prog, ctx), ctx
}

func TestEvalArithmeticPrecedence(t *testing.T) {
	out, _ := run(t, "1 + 2 * 3")
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	n := out.Value.(*value.Number)
	if n.I != 7 {
		t.Errorf("got %d, want 7", n.I)
	}
}

func TestEvalFunctionCallPower(t *testing.T) {
	out, _ := run(t, "func sq(n) -> n^2\nsq(5)")
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	n := out.Value.(*value.Number)
	if n.I != 25 {
		t.Errorf("got %d, want 25", n.I)
	}
}

func TestEvalListAliasAppend(t *testing.T) {
	out, ctx := run(t, "var L = [1,2,3]\nvar M = L\nappend(L, 4)\nlen(M)")
	_ = out
	// append isn't bound in this bare evaluator test (builtins live in
	// internal/builtin); exercise List aliasing directly instead.
	l, ok := ctx.Table.Get("L")
	if !ok {
		t.Fatal("L not bound")
	}
	m, ok := ctx.Table.Get("M")
	if !ok {
		t.Fatal("M not bound")
	}
	list := l.(*value.List)
	*list.Elements = append(*list.Elements, value.NewInt(4))
	if len(*m.(*value.List).Elements) != 4 {
		t.Errorf("M should alias L's storage, got %d elements", len(*m.(*value.List).Elements))
	}
}

func TestEvalDivisionByZeroIsRuntimeError(t *testing.T) {
	out, _ := run(t, "1 / 0")
	if out.Err == nil {
		t.Fatal("expected runtime error")
	}
	rtErr, ok := out.Err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T", out.Err)
	}
	if rtErr.Message != "Division by zero" {
		t.Errorf("got message %q", rtErr.Message)
	}
}

func TestEvalForLoopBinding(t *testing.T) {
	_, ctx := run(t, "for i = 0 to 3 then var x = i")
	x, ok := ctx.Table.Get("x")
	if !ok {
		t.Fatal("x not bound")
	}
	if x.(*value.Number).I != 2 {
		t.Errorf("expected loop to end with x = 2 (exclusive end), got %v", x.(*value.Number).I)
	}
}

func TestEvalWhileLoopRunsUntilConditionFails(t *testing.T) {
	out, ctx := run(t, "var i = 0\nwhile i < 3 then\nvar i = i + 1\ni\nend")
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	i, ok := ctx.Table.Get("i")
	if !ok {
		t.Fatal("i not bound")
	}
	if i.(*value.Number).I != 3 {
		t.Errorf("expected loop to stop with i = 3, got %v", i.(*value.Number).I)
	}
}

func TestEvalRecursiveFactorial(t *testing.T) {
	out, _ := run(t, "func fact(n)\nif n == 0 then return 1\nreturn n * fact(n - 1)\nend\nfact(5)")
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Value.(*value.Number).I != 120 {
		t.Errorf("got %v, want 120", out.Value)
	}
}

func TestEvalClosureCapturesDefiningScope(t *testing.T) {
	out, _ := run(t, `
var x = 10
func makeAdder()
var x = 99
func inner(n) -> n + x
return inner
end
var adder = makeAdder()
adder(1)
`)
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Value.(*value.Number).I != 100 {
		t.Errorf("closure should capture its defining x=99, got %v", out.Value)
	}
}

func TestEvalUndefinedIdentifier(t *testing.T) {
	out, _ := run(t, "undefinedVar")
	if out.Err == nil {
		t.Fatal("expected runtime error")
	}
}

func TestEvalArgumentCountMismatch(t *testing.T) {
	out, _ := run(t, "func f(a, b) -> a + b\nf(1)")
	if out.Err == nil {
		t.Fatal("expected argument count error")
	}
}

func TestEvalRecursionDepthGuard(t *testing.T) {
	f := source.New("test.hsle", "func loop(n) -> loop(n + 1)\nloop(0)")
	toks, err := lexer.Lex(f)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	table := environment.New()
	ctx := evalctx.NewRoot("<program>", table)
	ev := New("test.hsle", Config{MaxDepth: 50})
	ev.host = Host{Stdout: &bytes.Buffer{}}

	out := ev.Eval(prog, ctx)
	if out.Err == nil {
		t.Fatal("expected recursion depth error")
	}
}
