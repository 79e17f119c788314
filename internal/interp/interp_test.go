package interp

import (
	"bufio"
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/aledsdavies/hustle/internal/parser"
	"github.com/aledsdavies/hustle/internal/value"
)

func newInterp(stdout *bytes.Buffer) *Interpreter {
	return &Interpreter{
		Out:  stdout,
		In:   bufio.NewReader(strings.NewReader("")),
		Argv: []string{"hustle", "run", "test.hsle"},
		Rand: rand.New(rand.NewSource(1)),
		Exit: func(int) {},
	}
}

func TestScenarioArithmeticThenPrint(t *testing.T) {
	var out bytes.Buffer
	ip := newInterp(&out)
	_, err := ip.RunText("t.hsle", "var x = 1 + 2 * 3\nprinth(x)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "7\n" {
		t.Errorf("got %q, want %q", out.String(), "7\n")
	}
}

func TestScenarioFunctionCall(t *testing.T) {
	var out bytes.Buffer
	ip := newInterp(&out)
	_, err := ip.RunText("t.hsle", "func sq(n) -> n^2\nprinth(sq(5))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "25\n" {
		t.Errorf("got %q, want %q", out.String(), "25\n")
	}
}

func TestScenarioListAppendLenAndDivideIndex(t *testing.T) {
	var out bytes.Buffer
	ip := newInterp(&out)
	_, err := ip.RunText("t.hsle", "var L = [1,2,3]\nappend(L, 4)\nprinth(len(L))\nprinth(L/0)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "4\n1\n" {
		t.Errorf("got %q, want %q", out.String(), "4\n1\n")
	}
}

func TestScenarioForLoopPrints(t *testing.T) {
	var out bytes.Buffer
	ip := newInterp(&out)
	_, err := ip.RunText("t.hsle", "for i = 0 to 3 then printh(i)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "0\n1\n2\n" {
		t.Errorf("got %q, want %q", out.String(), "0\n1\n2\n")
	}
}

func TestScenarioRecursiveFactorial(t *testing.T) {
	var out bytes.Buffer
	ip := newInterp(&out)
	_, err := ip.RunText("t.hsle",
		"func fact(n)\nif n == 0 then return 1\nreturn n * fact(n - 1)\nend\nprinth(fact(5))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "120\n" {
		t.Errorf("got %q, want %q", out.String(), "120\n")
	}
}

func TestScenarioDivisionByZeroIsRuntimeError(t *testing.T) {
	var out bytes.Buffer
	ip := newInterp(&out)
	_, err := ip.RunText("t.hsle", "printh(1 / 0)")
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	fe, ok := err.(FormatError)
	if !ok {
		t.Fatalf("expected a FormatError, got %T", err)
	}
	if !strings.Contains(fe.FormatString(), "Division by zero") {
		t.Errorf("formatted error missing message: %s", fe.FormatString())
	}
}

func TestScenarioSyntaxErrorReportsFurthestPosition(t *testing.T) {
	var out bytes.Buffer
	ip := newInterp(&out)
	text := "var x = 1 +"
	_, err := ip.RunText("t.hsle", text)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if _, ok := err.(FormatError); !ok {
		t.Fatalf("expected a FormatError, got %T", err)
	}
	perr, ok := err.(*parser.Error)
	if !ok {
		t.Fatalf("expected *parser.Error, got %T", err)
	}
	if perr.PosStart.Idx != len(text) {
		t.Errorf("expected error at the end of input (index %d), got %d", len(text), perr.PosStart.Idx)
	}
}

func TestRunValueIsReturnedToCaller(t *testing.T) {
	var out bytes.Buffer
	ip := newInterp(&out)
	result, err := ip.RunText("t.hsle", "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.(*value.Number).I != 42 {
		t.Errorf("got %v, want 42", result)
	}
}
