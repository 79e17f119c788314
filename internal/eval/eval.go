// Package eval implements the tree-walking evaluator: it visits an AST and
// threads an Outcome through every call, the explicit sum type this
// interpreter uses in place of flag-bag result structs or ambient
// exceptions for value, error, function-return, break, and continue.
package eval

import (
	"fmt"
	"strconv"

	"github.com/aledsdavies/hustle/internal/ast"
	"github.com/aledsdavies/hustle/internal/environment"
	"github.com/aledsdavies/hustle/internal/evalctx"
	"github.com/aledsdavies/hustle/internal/invariant"
	"github.com/aledsdavies/hustle/internal/source"
	"github.com/aledsdavies/hustle/internal/value"
)

// Outcome is the five-way sum every visit produces: a plain value, a
// runtime error, a function return, or a loop break/continue signal. At
// most one of Err/HasReturn/Continue/Break is ever set.
type Outcome struct {
	Value     value.Value
	Err       error
	Return    value.Value
	HasReturn bool
	Continue  bool
	Break     bool
}

// Ok wraps a plain expression result.
func Ok(v value.Value) Outcome { return Outcome{Value: v} }

// Fail wraps a runtime error. It always propagates until something catches
// it (nothing in this language does - errors reach the driver).
func Fail(err error) Outcome { return Outcome{Err: err} }

// Returned wraps a function's `return value` signal.
func Returned(v value.Value) Outcome { return Outcome{Return: v, HasReturn: true} }

// Continued is the `continue` loop signal.
func Continued() Outcome { return Outcome{Continue: true} }

// Broke is the `break` loop signal.
func Broke() Outcome { return Outcome{Break: true} }

// ShouldReturn reports whether any control signal is set, meaning the
// caller must stop evaluating siblings and propagate this Outcome upward.
func (o Outcome) ShouldReturn() bool {
	return o.Err != nil || o.HasReturn || o.Continue || o.Break
}

func (o Outcome) assertExclusive() {
	set := 0
	for _, b := range []bool{o.Err != nil, o.HasReturn, o.Continue, o.Break} {
		if b {
			set++
		}
	}
	invariant.Invariant(set <= 1, "at most one control signal may be set, got %d", set)
}

// RuntimeError is a tagged runtime failure: illegal operations, undefined
// names, bad arity, I/O failures from run/include, and the rest of the
// RuntimeError subcategories named in the error taxonomy. It carries the
// active call-context chain so the driver can render a traceback.
type RuntimeError struct {
	Message  string
	PosStart source.Position
	PosEnd   source.Position
	Ctx      *evalctx.Context
	FileName string
}

func (e *RuntimeError) Error() string { return e.Message }

// FormatString renders the error with a "most recent call last" traceback
// followed by the standard kind/details/excerpt diagnostic shape.
func (e *RuntimeError) FormatString() string {
	tb := ""
	if e.Ctx != nil {
		tb = e.Ctx.Traceback(e.FileName)
	}
	return fmt.Sprintf("%sRuntimeError: %s\nFile %s, line %d\n\n%s",
		tb, e.Message, e.FileName, e.PosStart.Line+1, source.Excerpt(e.PosStart, e.PosEnd))
}

// DebugLevel controls how much internal evaluator tracing is recorded.
type DebugLevel int

const (
	DebugOff DebugLevel = iota
	DebugPaths
	DebugDetailed
)

// DebugEvent is one recorded evaluator trace entry, emitted only when
// Config.Debug requests it.
type DebugEvent struct {
	Node  string
	Depth int
}

// Config tunes the evaluator: a recursion-depth ceiling, so that runaway
// recursion surfaces as a runtime error instead of exhausting the host
// stack, and an optional debug trace level.
type Config struct {
	MaxDepth int
	Debug    DebugLevel
}

// DefaultMaxDepth is used when Config.MaxDepth is unset.
const DefaultMaxDepth = 2000

// Evaluator walks an AST against a chain of evaluation contexts.
type Evaluator struct {
	FileName    string
	cfg         Config
	depth       int
	DebugEvents []DebugEvent
	host        Host
}

// New builds an evaluator for fileName (used in error/traceback rendering).
func New(fileName string, cfg Config) *Evaluator {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Evaluator{FileName: fileName, cfg: cfg}
}

func (e *Evaluator) trace(node string) {
	if e.cfg.Debug >= DebugPaths {
		e.DebugEvents = append(e.DebugEvents, DebugEvent{Node: node, Depth: e.depth})
	}
}

func (e *Evaluator) rtErr(ctx *evalctx.Context, start, end source.Position, format string, args ...interface{}) Outcome {
	return Fail(&RuntimeError{
		Message:  fmt.Sprintf(format, args...),
		PosStart: start, PosEnd: end,
		Ctx: ctx, FileName: e.FileName,
	})
}

// Eval visits n under ctx and returns its Outcome.
func (e *Evaluator) Eval(n ast.Node, ctx *evalctx.Context) Outcome {
	invariant.NotNil(n, "node")
	invariant.NotNil(ctx, "context")

	var out Outcome
	switch v := n.(type) {
	case *ast.NumberLit:
		out = e.evalNumberLit(v)
	case *ast.StringLit:
		out = Ok(value.NewString(v.Value).WithPos(v.PosStart(), v.PosEnd()))
	case *ast.ListLit:
		out = e.evalListLit(v, ctx)
	case *ast.Identifier:
		out = e.evalIdentifier(v, ctx)
	case *ast.VarAssign:
		out = e.evalVarAssign(v, ctx)
	case *ast.BinOp:
		out = e.evalBinOp(v, ctx)
	case *ast.UnaryOp:
		out = e.evalUnaryOp(v, ctx)
	case *ast.If:
		out = e.evalIf(v, ctx)
	case *ast.For:
		out = e.evalFor(v, ctx)
	case *ast.While:
		out = e.evalWhile(v, ctx)
	case *ast.FuncDef:
		out = e.evalFuncDef(v, ctx)
	case *ast.Call:
		out = e.evalCall(v, ctx)
	case *ast.Return:
		out = e.evalReturn(v, ctx)
	case *ast.Continue:
		out = Continued()
	case *ast.Break:
		out = Broke()
	case *ast.StatementList:
		out = e.evalStatementList(v, ctx)
	case *ast.Intrinsic:
		out = e.evalIntrinsic(v, ctx)
	default:
		invariant.Invariant(false, "unhandled ast node type %T", n)
	}

	out.assertExclusive()
	return out
}

func (e *Evaluator) evalNumberLit(v *ast.NumberLit) Outcome {
	if v.IsFloat {
		f, err := parseFloat(v.Raw)
		invariant.ExpectNoError(err, "lexer guarantees well-formed float literals")
		return Ok(value.NewFloat(f).WithPos(v.PosStart(), v.PosEnd()))
	}
	i, err := parseInt(v.Raw)
	invariant.ExpectNoError(err, "lexer guarantees well-formed int literals")
	return Ok(value.NewInt(i).WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) evalListLit(v *ast.ListLit, ctx *evalctx.Context) Outcome {
	elems := make([]value.Value, 0, len(v.Elements))
	for _, elemNode := range v.Elements {
		out := e.Eval(elemNode, ctx)
		if out.ShouldReturn() {
			return out
		}
		elems = append(elems, out.Value)
	}
	return Ok(value.NewList(elems).WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) evalIdentifier(v *ast.Identifier, ctx *evalctx.Context) Outcome {
	val, ok := ctx.Table.Get(v.Name)
	if !ok {
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "'%s' is not defined", v.Name)
	}
	return Ok(val.WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) evalVarAssign(v *ast.VarAssign, ctx *evalctx.Context) Outcome {
	out := e.Eval(v.Value, ctx)
	if out.ShouldReturn() {
		return out
	}
	ctx.Table.Set(v.Name, out.Value)
	return Ok(out.Value.WithPos(v.PosStart(), v.PosEnd()))
}

// evalBinOp evaluates both operands unconditionally. `and`/`or` do not
// short-circuit: the right operand runs (and can fail) even when the left
// already decides the result.
func (e *Evaluator) evalBinOp(v *ast.BinOp, ctx *evalctx.Context) Outcome {
	left := e.Eval(v.Left, ctx)
	if left.ShouldReturn() {
		return left
	}
	right := e.Eval(v.Right, ctx)
	if right.ShouldReturn() {
		return right
	}

	result, err := value.BinaryOp(v.Op, left.Value, right.Value)
	if err != nil {
		return e.opError(ctx, err)
	}
	return Ok(result.WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) opError(ctx *evalctx.Context, err error) Outcome {
	if opErr, ok := err.(*value.OpError); ok {
		return e.rtErr(ctx, opErr.PosStart, opErr.PosEnd, "%s", opErr.Message)
	}
	return Fail(err)
}

func (e *Evaluator) evalUnaryOp(v *ast.UnaryOp, ctx *evalctx.Context) Outcome {
	operand := e.Eval(v.Operand, ctx)
	if operand.ShouldReturn() {
		return operand
	}

	switch v.Op {
	case "MINUS":
		result, err := value.BinaryOp("MUL", operand.Value, value.NewInt(-1))
		if err != nil {
			return e.opError(ctx, err)
		}
		return Ok(result.WithPos(v.PosStart(), v.PosEnd()))
	case "PLUS":
		return Ok(operand.Value.WithPos(v.PosStart(), v.PosEnd()))
	case "not":
		notted := value.NewInt(0)
		if !operand.Value.Truthy() {
			notted = value.NewInt(1)
		}
		return Ok(notted.WithPos(v.PosStart(), v.PosEnd()))
	}
	invariant.Invariant(false, "unhandled unary operator %q", v.Op)
	return Outcome{}
}

func (e *Evaluator) evalIf(v *ast.If, ctx *evalctx.Context) Outcome {
	for _, c := range v.Cases {
		cond := e.Eval(c.Cond, ctx)
		if cond.ShouldReturn() {
			return cond
		}
		if cond.Value.Truthy() {
			body := e.Eval(c.Body, ctx)
			if body.ShouldReturn() {
				return body
			}
			if c.WantsNull {
				return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
			}
			return Ok(body.Value.WithPos(v.PosStart(), v.PosEnd()))
		}
	}
	if v.HasElse {
		body := e.Eval(v.Else, ctx)
		if body.ShouldReturn() {
			return body
		}
		if v.ElseNull {
			return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
		}
		return Ok(body.Value.WithPos(v.PosStart(), v.PosEnd()))
	}
	return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
}

// evalFor implements the numeric loop: step defaults to 1, the end bound is
// exclusive, and the termination test flips depending on the step's sign so
// that a negative step still counts down to completion.
func (e *Evaluator) evalFor(v *ast.For, ctx *evalctx.Context) Outcome {
	startOut := e.Eval(v.StartExpr, ctx)
	if startOut.ShouldReturn() {
		return startOut
	}
	endOut := e.Eval(v.EndExpr, ctx)
	if endOut.ShouldReturn() {
		return endOut
	}

	step := 1.0
	if v.StepExpr != nil {
		stepOut := e.Eval(v.StepExpr, ctx)
		if stepOut.ShouldReturn() {
			return stepOut
		}
		step = asFloat(stepOut.Value)
	}

	i := asFloat(startOut.Value)
	end := asFloat(endOut.Value)

	var elems []value.Value
	for (step >= 0 && i < end) || (step < 0 && i > end) {
		ctx.Table.Set(v.VarName, value.NewInt(int64(i)))
		i += step

		body := e.Eval(v.Body, ctx)
		if body.Continue {
			continue
		}
		if body.Break {
			break
		}
		if body.ShouldReturn() {
			return body
		}
		if !v.WantsNull {
			elems = append(elems, body.Value)
		}
	}

	if v.WantsNull {
		return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
	}
	return Ok(value.NewList(elems).WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) evalWhile(v *ast.While, ctx *evalctx.Context) Outcome {
	var elems []value.Value
	for {
		cond := e.Eval(v.Cond, ctx)
		if cond.ShouldReturn() {
			return cond
		}
		if !cond.Value.Truthy() {
			break
		}

		body := e.Eval(v.Body, ctx)
		if body.Continue {
			continue
		}
		if body.Break {
			break
		}
		if body.ShouldReturn() {
			return body
		}
		if !v.WantsNull {
			elems = append(elems, body.Value)
		}
	}

	if v.WantsNull {
		return Ok(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
	}
	return Ok(value.NewList(elems).WithPos(v.PosStart(), v.PosEnd()))
}

func (e *Evaluator) evalFuncDef(v *ast.FuncDef, ctx *evalctx.Context) Outcome {
	fn := value.NewFunction(v.Name, v.ParamNames, v.Body, v.ShouldAutoReturn, ctx.Table)
	var fnVal value.Value = fn
	fnVal = fnVal.WithPos(v.PosStart(), v.PosEnd())
	if v.Name != "" {
		ctx.Table.Set(v.Name, fnVal)
	}
	return Ok(fnVal)
}

func (e *Evaluator) evalCall(v *ast.Call, ctx *evalctx.Context) Outcome {
	calleeOut := e.Eval(v.Callee, ctx)
	if calleeOut.ShouldReturn() {
		return calleeOut
	}

	args := make([]value.Value, 0, len(v.Args))
	for _, argNode := range v.Args {
		argOut := e.Eval(argNode, ctx)
		if argOut.ShouldReturn() {
			return argOut
		}
		args = append(args, argOut.Value)
	}

	switch callee := calleeOut.Value.(type) {
	case *value.Function:
		return e.callFunction(callee, args, v, ctx)
	case *value.Builtin:
		return e.callBuiltin(callee, args, v, ctx)
	default:
		return e.rtErr(ctx, v.PosStart(), v.PosEnd(), "'%s' is not a function", callee.Print())
	}
}

func (e *Evaluator) callFunction(fn *value.Function, args []value.Value, callSite *ast.Call, ctx *evalctx.Context) Outcome {
	if len(args) != len(fn.ParamNames) {
		diff := len(fn.ParamNames) - len(args)
		word := "few"
		if diff < 0 {
			word = "many"
			diff = -diff
		}
		return e.rtErr(ctx, callSite.PosStart(), callSite.PosEnd(),
			"%d too %s args passed into %s", abs(diff), word, displayName(fn.Name))
	}

	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.cfg.MaxDepth {
		return e.rtErr(ctx, callSite.PosStart(), callSite.PosEnd(), "Maximum recursion depth exceeded")
	}
	e.trace("call:" + displayName(fn.Name))

	definingScope, ok := fn.DefiningScope.(*environment.Table)
	invariant.Precondition(ok, "function's defining scope must be *environment.Table")

	callTable := environment.NewChild(definingScope)
	for i, name := range fn.ParamNames {
		callTable.Set(name, args[i])
	}
	callCtx := evalctx.NewChild(displayName(fn.Name), ctx, callSite.PosStart(), callTable)

	bodyOut := e.Eval(fn.Body, callCtx)
	if bodyOut.Err != nil {
		return bodyOut
	}
	if bodyOut.HasReturn {
		return Ok(bodyOut.Return.WithPos(callSite.PosStart(), callSite.PosEnd()))
	}
	if fn.ShouldAutoReturn {
		return Ok(bodyOut.Value.WithPos(callSite.PosStart(), callSite.PosEnd()))
	}
	return Ok(value.NewNull().WithPos(callSite.PosStart(), callSite.PosEnd()))
}

func (e *Evaluator) callBuiltin(b *value.Builtin, args []value.Value, callSite *ast.Call, ctx *evalctx.Context) Outcome {
	if len(args) != len(b.ParamNames) {
		diff := len(b.ParamNames) - len(args)
		word := "few"
		if diff < 0 {
			word = "many"
			diff = -diff
		}
		return e.rtErr(ctx, callSite.PosStart(), callSite.PosEnd(),
			"%d too %s args passed into %s", abs(diff), word, b.Name)
	}

	result, err := b.Fn(args)
	if err != nil {
		return e.rtErr(ctx, callSite.PosStart(), callSite.PosEnd(), "%s", err.Error())
	}
	return Ok(result.WithPos(callSite.PosStart(), callSite.PosEnd()))
}

func displayName(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

func (e *Evaluator) evalReturn(v *ast.Return, ctx *evalctx.Context) Outcome {
	if v.Value == nil {
		return Returned(value.NewNull().WithPos(v.PosStart(), v.PosEnd()))
	}
	out := e.Eval(v.Value, ctx)
	if out.Err != nil {
		return out
	}
	return Returned(out.Value)
}

func (e *Evaluator) evalStatementList(v *ast.StatementList, ctx *evalctx.Context) Outcome {
	var last Outcome = Ok(value.NewNull())
	for _, stmt := range v.Statements {
		last = e.Eval(stmt, ctx)
		if last.ShouldReturn() {
			return last
		}
	}
	return last
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func parseInt(s string) (int64, error)     { return strconv.ParseInt(s, 10, 64) }
func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func asFloat(v value.Value) float64 {
	n, ok := v.(*value.Number)
	if !ok {
		return 0
	}
	if n.IsFloat {
		return n.F
	}
	return float64(n.I)
}
