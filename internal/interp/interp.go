// Package interp wires the lexer, parser, evaluator, and built-in registry
// together into the single entry point used by both the CLI and the
// in-language run(...)/include(...) forms.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/aledsdavies/hustle/internal/builtin"
	"github.com/aledsdavies/hustle/internal/environment"
	"github.com/aledsdavies/hustle/internal/eval"
	"github.com/aledsdavies/hustle/internal/evalctx"
	"github.com/aledsdavies/hustle/internal/lexer"
	"github.com/aledsdavies/hustle/internal/parser"
	"github.com/aledsdavies/hustle/internal/source"
	"github.com/aledsdavies/hustle/internal/value"
)

// FormatError is satisfied by every error kind this pipeline can produce
// (lex, parse, runtime) so the driver can render whichever one it gets the
// same way: kind, message, source excerpt, and - for runtime errors - a
// traceback.
type FormatError interface {
	error
	FormatString() string
}

// Interpreter holds the process-level collaborators (I/O streams, argv,
// randomness, exit) shared across every file a program runs or includes,
// so that nested run(...)/include(...) calls reuse the same stdout and
// random source rather than each spinning up their own.
type Interpreter struct {
	Out    io.Writer
	In     *bufio.Reader
	Trace  io.Writer // debug trace destination; nil disables output even when Config.Debug is set
	Argv   []string
	Rand   *rand.Rand
	Exit   func(code int)
	Config eval.Config
}

// New builds an Interpreter wired to the real process environment.
func New(argv []string) *Interpreter {
	return &Interpreter{
		Out:  os.Stdout,
		In:   bufio.NewReader(os.Stdin),
		Argv: argv,
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		Exit: os.Exit,
	}
}

// Run reads, lexes, parses, and evaluates the file at fileName, returning
// its final value or the first lex/parse/runtime error encountered.
func (ip *Interpreter) Run(fileName string) (value.Value, error) {
	text, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	return ip.RunText(fileName, string(text))
}

// RunText evaluates text as if it were the contents of fileName, without
// touching the filesystem - used by Run above once it has read the file.
func (ip *Interpreter) RunText(fileName, text string) (value.Value, error) {
	file := source.New(fileName, text)

	toks, err := lexer.Lex(file)
	if err != nil {
		return nil, err
	}

	prog, err := parser.Parse(toks)
	if err != nil {
		return nil, err
	}

	table := environment.New()
	builtin.Register(table, builtin.IO{Out: ip.Out, In: ip.In}, ip.Exit, ip.Run)

	ctx := evalctx.NewRoot(fileName, table)
	evaluator := eval.New(fileName, ip.Config)
	evaluator.WithHost(eval.Host{
		Stdout:  ip.Out,
		Argv:    ip.Argv,
		Rand:    ip.Rand,
		Include: ip.Run,
		Exit:    ip.Exit,
	})

	out := evaluator.Eval(prog, ctx)
	ip.dumpTrace(evaluator)
	if out.Err != nil {
		return nil, out.Err
	}
	return out.Value, nil
}

func (ip *Interpreter) dumpTrace(evaluator *eval.Evaluator) {
	if ip.Config.Debug == eval.DebugOff || ip.Trace == nil {
		return
	}
	for _, ev := range evaluator.DebugEvents {
		fmt.Fprintf(ip.Trace, "eval: %*s%s\n", ev.Depth*2, "", ev.Node)
	}
}
