package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aledsdavies/hustle/internal/source"
	"github.com/aledsdavies/hustle/internal/token"
)

func kinds(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexBasicArithmetic(t *testing.T) {
	toks, err := Lex(source.New("test.hsle", "1 + 2 * 3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []token.Type{token.INT, token.PLUS, token.INT, token.MUL, token.INT, token.EOF}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLexAlwaysEndsInSingleEOF(t *testing.T) {
	toks, err := Lex(source.New("test.hsle", "var x = 1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		t.Fatalf("expected trailing EOF, got %v", toks)
	}
	for _, tok := range toks[:len(toks)-1] {
		if tok.Kind == token.EOF {
			t.Fatalf("EOF appeared before the end of the stream: %v", toks)
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex(source.New("test.hsle", `"a\nb\tc\\d"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Value != "a\nb\tc\\d" {
		t.Errorf("got %q, want %q", toks[0].Value, "a\nb\tc\\d")
	}
}

func TestLexKeywordsVsIdentifiers(t *testing.T) {
	toks, err := Lex(source.New("test.hsle", "var func1 = func"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.KEYWORD || toks[0].Value != "var" {
		t.Errorf("expected var keyword, got %v", toks[0])
	}
	if toks[1].Kind != token.IDENTIFIER || toks[1].Value != "func1" {
		t.Errorf("expected func1 identifier, got %v", toks[1])
	}
	if toks[3].Kind != token.KEYWORD || toks[3].Value != "func" {
		t.Errorf("expected func keyword, got %v", toks[3])
	}
}

func TestLexIllegalCharacter(t *testing.T) {
	_, err := Lex(source.New("test.hsle", "1 + @"))
	if err == nil {
		t.Fatal("expected an error for '@'")
	}
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if lexErr.Kind != "Illegal Character" {
		t.Errorf("got kind %q, want %q", lexErr.Kind, "Illegal Character")
	}
}

func TestLexExpectedCharacterAfterBang(t *testing.T) {
	_, err := Lex(source.New("test.hsle", "1 ! 2"))
	if err == nil {
		t.Fatal("expected an error for bare '!'")
	}
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if lexErr.Kind != "Expected Character" {
		t.Errorf("got kind %q, want %q", lexErr.Kind, "Expected Character")
	}
}

func TestLexNewlineAndSemicolonBothProduceNEWLINE(t *testing.T) {
	toks, err := Lex(source.New("test.hsle", "1\n2;3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Type{token.INT, token.NEWLINE, token.INT, token.NEWLINE, token.INT, token.EOF}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLexComment(t *testing.T) {
	toks, err := Lex(source.New("test.hsle", "1 # this is ignored\n2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Type{token.INT, token.NEWLINE, token.INT, token.EOF}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
}
