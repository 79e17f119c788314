package eval

import (
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"time"

	"github.com/aledsdavies/hustle/internal/ast"
	"github.com/aledsdavies/hustle/internal/evalctx"
	"github.com/aledsdavies/hustle/internal/value"
)

// Host supplies the process-level collaborators statement intrinsics need:
// output, the process argument vector, randomness, file inclusion, and
// process exit. Keeping these injectable (rather than reaching for os.*
// directly throughout this file) is what lets the evaluator's tests run
// without a real terminal or process environment.
type Host struct {
	Stdout  interface{ Write([]byte) (int, error) }
	Argv    []string
	Rand    *rand.Rand
	Include func(path string) (value.Value, error)
	Exit    func(code int)
}

// DefaultHost wires up a Host against the real process environment.
func DefaultHost(argv []string) Host {
	return Host{
		Stdout: os.Stdout,
		Argv:   argv,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		Exit:   os.Exit,
	}
}

// WithHost attaches the process collaborators an evaluator needs for
// statement intrinsics. Evaluators built without calling this (e.g. in
// pure-expression tests) fail loudly the first time an intrinsic needs them.
func (e *Evaluator) WithHost(h Host) *Evaluator {
	e.host = h
	return e
}

func (e *Evaluator) evalArgs(nodes []ast.Node, ctx *evalctx.Context) ([]value.Value, Outcome, bool) {
	args := make([]value.Value, 0, len(nodes))
	for _, n := range nodes {
		out := e.Eval(n, ctx)
		if out.ShouldReturn() {
			return nil, out, false
		}
		args = append(args, out.Value)
	}
	return args, Outcome{}, true
}

func (e *Evaluator) evalIntrinsic(v *ast.Intrinsic, ctx *evalctx.Context) Outcome {
	args, abort, ok := e.evalArgs(v.Args, ctx)
	if !ok {
		return abort
	}

	switch v.Kind {
	case ast.Exit:
		return e.intrinsicExit(v, args, ctx)
	case ast.Argv:
		return e.intrinsicArgv(v, args, ctx)
	case ast.Include:
		return e.intrinsicInclude(v, args, ctx)
	case ast.MakeInt:
		return e.intrinsicMakeInt(v, args, ctx)
	case ast.MakeFloat:
		return e.intrinsicMakeFloat(v, args, ctx)
	case ast.MakeStr:
		return e.intrinsicMakeStr(v, args, ctx)
	case ast.Shuffle:
		return e.intrinsicShuffle(v, args, ctx)
	case ast.LenStr:
		return e.intrinsicLenStr(v, args, ctx)
	case ast.TakeElement:
		return e.intrinsicTakeElement(v, args, ctx)
	case ast.RandInt:
		return e.intrinsicRandInt(v, args, ctx)
	case ast.System:
		return e.intrinsicSystem(v, args, ctx)
	case ast.Sleep:
		return e.intrinsicSleep(v, args, ctx)
	}
	return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "unknown intrinsic")
}

func (e *Evaluator) intrinsicExit(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "Exit expects exactly 1 argument")
	}
	switch code := args[0].(type) {
	case *value.Number:
		e.host.Exit(int(asFloat(code)))
	case *value.String:
		fmt.Fprintln(e.host.Stdout, code.Value)
		e.host.Exit(1)
	default:
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "Exit code must be a number or string")
	}
	return Ok(value.NewNull())
}

// intrinsicArgv returns a single-element list containing the (n+2)th host
// process argument - the offset reflects that the host CLI itself consumes
// two leading arguments (program name, subcommand) before user arguments.
func (e *Evaluator) intrinsicArgv(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "Argv expects exactly 1 argument")
	}
	n, ok := args[0].(*value.Number)
	if !ok {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "Argv index must be a number")
	}
	idx := int(asFloat(n)) + 2
	if idx < 0 || idx >= len(e.host.Argv) {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "Argv index out of range")
	}
	return Ok(value.NewList([]value.Value{value.NewString(e.host.Argv[idx])}).WithPos(v.PosStart(), v.PosEnd()))
}

// intrinsicInclude evaluates another source file and prints its result. A
// failure here is reported but does not abort the enclosing evaluation.
func (e *Evaluator) intrinsicInclude(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "include expects exactly 1 argument")
	}
	pathVal, ok := args[0].(*value.String)
	if !ok {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "include path must be a string")
	}

	path := pathVal.Value
	if path == "all" || path == "stdlib" {
		path = "stdlib.hsle"
	}
	if !hasHsleExtension(path) {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "include path must end in .hsle")
	}

	result, err := e.host.Include(path)
	if err != nil {
		fmt.Fprintln(e.host.Stdout, err.Error())
		return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
	}
	fmt.Fprintln(e.host.Stdout, result.Print())
	return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
}

func hasHsleExtension(path string) bool {
	return len(path) >= 5 && path[len(path)-5:] == ".hsle"
}

func (e *Evaluator) intrinsicMakeInt(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "make_int expects exactly 1 argument")
	}
	switch n := args[0].(type) {
	case *value.Number:
		// Truncates towards zero, matching int64(float) conversion.
		return Ok(value.NewInt(int64(asFloat(n))).WithPos(v.PosStart(), v.PosEnd()))
	case *value.String:
		i, err := parseInt(n.Value)
		if err != nil {
			f, ferr := parseFloat(n.Value)
			if ferr != nil {
				return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "cannot convert %q to int", n.Value)
			}
			return Ok(value.NewInt(int64(f)).WithPos(v.PosStart(), v.PosEnd()))
		}
		return Ok(value.NewInt(i).WithPos(v.PosStart(), v.PosEnd()))
	}
	return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "make_int argument must be a number or string")
}

func (e *Evaluator) intrinsicMakeFloat(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "make_float expects exactly 1 argument")
	}
	switch n := args[0].(type) {
	case *value.Number:
		return Ok(value.NewFloat(asFloat(n)).WithPos(v.PosStart(), v.PosEnd()))
	case *value.String:
		f, err := parseFloat(n.Value)
		if err != nil {
			return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "cannot convert %q to float", n.Value)
		}
		return Ok(value.NewFloat(f).WithPos(v.PosStart(), v.PosEnd()))
	}
	return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "make_float argument must be a number or string")
}

func (e *Evaluator) intrinsicMakeStr(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "make_str expects exactly 1 argument")
	}
	return Ok(value.NewString(args[0].Print()).WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) intrinsicShuffle(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "Shuffle expects exactly 1 argument")
	}
	list, ok := args[0].(*value.List)
	if !ok {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "Shuffle argument must be a list")
	}
	elems := *list.Elements
	e.host.Rand.Shuffle(len(elems), func(i, j int) { elems[i], elems[j] = elems[j], elems[i] })
	return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) intrinsicLenStr(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "lenStr expects exactly 1 argument")
	}
	s, ok := args[0].(*value.String)
	if !ok {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "lenStr argument must be a string")
	}
	return Ok(value.NewInt(int64(len([]rune(s.Value)))).WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) intrinsicTakeElement(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 2 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "takeElement expects exactly 2 arguments")
	}
	idxVal, ok := args[1].(*value.Number)
	if !ok {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "takeElement index must be a number")
	}
	idx := int(asFloat(idxVal))

	switch container := args[0].(type) {
	case *value.List:
		elems := *container.Elements
		if idx < 0 || idx >= len(elems) {
			return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "takeElement index out of bounds")
		}
		return Ok(value.NewList([]value.Value{elems[idx]}).WithPos(v.PosStart(), v.PosEnd()))
	case *value.String:
		runes := []rune(container.Value)
		if idx < 0 || idx >= len(runes) {
			return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "takeElement index out of bounds")
		}
		return Ok(value.NewList([]value.Value{value.NewString(string(runes[idx]))}).WithPos(v.PosStart(), v.PosEnd()))
	}
	return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "takeElement container must be a list or string")
}

func (e *Evaluator) intrinsicRandInt(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 2 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "randInt expects exactly 2 arguments")
	}
	lo, loOK := args[0].(*value.Number)
	hi, hiOK := args[1].(*value.Number)
	if !loOK || !hiOK {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "randInt bounds must be numbers")
	}
	loI, hiI := int64(asFloat(lo)), int64(asFloat(hi))
	if hiI < loI {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "randInt upper bound must not be less than lower bound")
	}
	n := loI + e.host.Rand.Int63n(hiI-loI+1)
	return Ok(value.NewInt(n).WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) intrinsicSystem(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "system expects exactly 1 argument")
	}
	cmdStr, ok := args[0].(*value.String)
	if !ok {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "system argument must be a string")
	}
	cmd := exec.Command("sh", "-c", cmdStr.Value)
	cmd.Stdout = e.host.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "system command failed: %s", err.Error())
	}
	return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) intrinsicSleep(v *ast.Intrinsic, args []value.Value, ctx *evalctx.Context) Outcome {
	if len(args) != 1 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "sleep expects exactly 1 argument")
	}
	seconds, ok := args[0].(*value.Number)
	if !ok {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "sleep argument must be a number")
	}
	secs := asFloat(seconds)
	if secs <= 0 {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "sleep duration must be positive")
	}
	time.Sleep(time.Duration(secs * float64(time.Second)))
	return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
}
