// Package value implements the interpreter's tagged value model: numbers,
// strings, lists, and the two callable variants, plus their arithmetic,
// comparison, and truthiness rules.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aledsdavies/hustle/internal/ast"
	"github.com/aledsdavies/hustle/internal/source"
)

// Kind tags a Value's runtime type.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindList
	KindFunction
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindFunction:
		return "function"
	case KindBuiltin:
		return "built-in function"
	default:
		return "unknown"
	}
}

// Value is any runtime value. Every node visit in the evaluator is expected
// to return a freshly positioned copy (via WithPos) so that position
// tagging used for error reporting never leaks across call sites.
type Value interface {
	Kind() Kind
	Pos() (start, end source.Position)
	WithPos(start, end source.Position) Value
	Truthy() bool
	Print() string
	Repr() string
}

// OpError is an illegal-operation or arithmetic runtime error produced by a
// value operation (division by zero, type mismatch, out-of-bounds index).
type OpError struct {
	Message  string
	PosStart source.Position
	PosEnd   source.Position
}

func (e *OpError) Error() string { return e.Message }

func illegalOperation(left, right Value) error {
	ls, _ := left.Pos()
	_, re := right.Pos()
	return &OpError{Message: "Illegal operation", PosStart: ls, PosEnd: re}
}

// basePos is embedded by every concrete value type to carry its span.
type basePos struct {
	start, end source.Position
}

func (b basePos) Pos() (source.Position, source.Position) { return b.start, b.end }

// Null is the distinguished "no value" marker. It prints as a single
// newline for compatibility with the source language's output format.
type Null struct{ basePos }

func NewNull() *Null { return &Null{} }

func (n *Null) Kind() Kind { return KindNull }
func (n *Null) WithPos(start, end source.Position) Value {
	return &Null{basePos{start, end}}
}
func (n *Null) Truthy() bool  { return false }
func (n *Null) Print() string { return "\n" }
func (n *Null) Repr() string  { return "\n" }

// Number is a unified integer/float numeric value. IsFloat distinguishes
// the two; arithmetic keeps the integer tag only when both operands are
// integers and the operation has an exact integer result (division always
// promotes to float).
type Number struct {
	basePos
	IsFloat bool
	I       int64
	F       float64
}

func NewInt(i int64) *Number     { return &Number{I: i} }
func NewFloat(f float64) *Number { return &Number{IsFloat: true, F: f} }

func boolNumber(b bool) *Number {
	if b {
		return NewInt(1)
	}
	return NewInt(0)
}

func (n *Number) Kind() Kind { return KindNumber }
func (n *Number) WithPos(start, end source.Position) Value {
	cp := *n
	cp.basePos = basePos{start, end}
	return &cp
}
func (n *Number) Truthy() bool { return n.asFloat() != 0 }

func (n *Number) asFloat() float64 {
	if n.IsFloat {
		return n.F
	}
	return float64(n.I)
}

func (n *Number) Print() string {
	if n.IsFloat {
		return strconv.FormatFloat(n.F, 'g', -1, 64)
	}
	return strconv.FormatInt(n.I, 10)
}
func (n *Number) Repr() string { return n.Print() }

func (n *Number) AddedTo(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	if !n.IsFloat && !o.IsFloat {
		return NewInt(n.I + o.I), nil
	}
	return NewFloat(n.asFloat() + o.asFloat()), nil
}

func (n *Number) SubbedBy(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	if !n.IsFloat && !o.IsFloat {
		return NewInt(n.I - o.I), nil
	}
	return NewFloat(n.asFloat() - o.asFloat()), nil
}

func (n *Number) MultedBy(other Value) (Value, error) {
	switch o := other.(type) {
	case *Number:
		if !n.IsFloat && !o.IsFloat {
			return NewInt(n.I * o.I), nil
		}
		return NewFloat(n.asFloat() * o.asFloat()), nil
	case *String:
		count := int(n.asFloat())
		if count < 0 {
			count = 0
		}
		return &String{Value: strings.Repeat(o.Value, count)}, nil
	default:
		return nil, illegalOperation(n, other)
	}
}

func (n *Number) DivvedBy(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	if o.asFloat() == 0 {
		s, e := other.Pos()
		return nil, &OpError{Message: "Division by zero", PosStart: s, PosEnd: e}
	}
	return NewFloat(n.asFloat() / o.asFloat()), nil
}

func (n *Number) ModdedBy(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	if o.asFloat() == 0 {
		s, e := other.Pos()
		return nil, &OpError{Message: "Division by zero", PosStart: s, PosEnd: e}
	}
	if !n.IsFloat && !o.IsFloat {
		return NewInt(n.I % o.I), nil
	}
	return NewFloat(mathMod(n.asFloat(), o.asFloat())), nil
}

func mathMod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	return m
}

func (n *Number) PowedBy(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	base := n.asFloat()
	exp := o.asFloat()
	result := pow(base, exp)
	if !n.IsFloat && !o.IsFloat && o.I >= 0 {
		return NewInt(int64(result)), nil
	}
	return NewFloat(result), nil
}

func pow(base, exp float64) float64 {
	return math.Pow(base, exp)
}

func (n *Number) GetComparisonEQ(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	return boolNumber(n.asFloat() == o.asFloat()), nil
}

func (n *Number) GetComparisonNE(other Value) (Value, error) {
	v, err := n.GetComparisonEQ(other)
	if err != nil {
		return nil, err
	}
	return boolNumber(!v.Truthy()), nil
}

func (n *Number) GetComparisonLT(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	return boolNumber(n.asFloat() < o.asFloat()), nil
}

func (n *Number) GetComparisonLTE(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	return boolNumber(n.asFloat() <= o.asFloat()), nil
}

func (n *Number) GetComparisonGT(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	return boolNumber(n.asFloat() > o.asFloat()), nil
}

func (n *Number) GetComparisonGTE(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	return boolNumber(n.asFloat() >= o.asFloat()), nil
}

func (n *Number) AndedBy(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	return boolNumber(n.Truthy() && o.Truthy()), nil
}

func (n *Number) OredBy(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(n, other)
	}
	return boolNumber(n.Truthy() || o.Truthy()), nil
}

// String is Unicode text.
type String struct {
	basePos
	Value string
}

func NewString(s string) *String { return &String{Value: s} }

func (s *String) Kind() Kind { return KindString }
func (s *String) WithPos(start, end source.Position) Value {
	cp := *s
	cp.basePos = basePos{start, end}
	return &cp
}

// Truthy reports the string as truthy when non-empty.
func (s *String) Truthy() bool  { return len(s.Value) > 0 }
func (s *String) Print() string { return s.Value }
func (s *String) Repr() string  { return strconv.Quote(s.Value) }

func (s *String) AddedTo(other Value) (Value, error) {
	o, ok := other.(*String)
	if !ok {
		return nil, illegalOperation(s, other)
	}
	return NewString(s.Value + o.Value), nil
}

func (s *String) MultedBy(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(s, other)
	}
	count := int(o.asFloat())
	if count < 0 {
		count = 0
	}
	return NewString(strings.Repeat(s.Value, count)), nil
}

func (s *String) GetComparisonEQ(other Value) (Value, error) {
	o, ok := other.(*String)
	if !ok {
		return nil, illegalOperation(s, other)
	}
	return boolNumber(s.Value == o.Value), nil
}

func (s *String) GetComparisonNE(other Value) (Value, error) {
	v, err := s.GetComparisonEQ(other)
	if err != nil {
		return nil, err
	}
	return boolNumber(!v.Truthy()), nil
}

// List is an insertion-ordered, reference-shared sequence. Copying a List
// value (WithPos) copies the wrapper but aliases the same underlying
// *[]Value storage, so `append` mutates every binding that holds the list.
type List struct {
	basePos
	Elements *[]Value
}

func NewList(elements []Value) *List {
	return &List{Elements: &elements}
}

func (l *List) Kind() Kind { return KindList }
func (l *List) WithPos(start, end source.Position) Value {
	return &List{basePos: basePos{start, end}, Elements: l.Elements}
}
func (l *List) Truthy() bool { return len(*l.Elements) > 0 }

func (l *List) Print() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range *l.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Repr())
	}
	b.WriteByte(']')
	return b.String()
}
func (l *List) Repr() string { return l.Print() }

// AddedTo appends other to the list in place and returns the
// (same, mutated) list.
func (l *List) AddedTo(other Value) (Value, error) {
	*l.Elements = append(*l.Elements, other)
	return l, nil
}

// SubbedBy removes the element at index other and returns the list.
func (l *List) SubbedBy(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(l, other)
	}
	idx := int(o.asFloat())
	if idx < 0 || idx >= len(*l.Elements) {
		s, e := other.Pos()
		return nil, &OpError{
			Message:  "Element at this index could not be removed from list because index is out of bounds",
			PosStart: s, PosEnd: e,
		}
	}
	elems := *l.Elements
	*l.Elements = append(elems[:idx], elems[idx+1:]...)
	return l, nil
}

// MultedBy extends the list in place with the elements of other.
func (l *List) MultedBy(other Value) (Value, error) {
	o, ok := other.(*List)
	if !ok {
		return nil, illegalOperation(l, other)
	}
	*l.Elements = append(*l.Elements, *o.Elements...)
	return l, nil
}

// DivvedBy indexes the list by other.
func (l *List) DivvedBy(other Value) (Value, error) {
	o, ok := other.(*Number)
	if !ok {
		return nil, illegalOperation(l, other)
	}
	idx := int(o.asFloat())
	if idx < 0 || idx >= len(*l.Elements) {
		s, e := other.Pos()
		return nil, &OpError{
			Message:  "Element at this index could not be retrieved from list because index is out of bounds",
			PosStart: s, PosEnd: e,
		}
	}
	return (*l.Elements)[idx], nil
}

// Function is a user-defined function capturing its defining scope.
// DefiningScope is an interface{} rather than a direct dependency on the
// environment package, which would otherwise import value and create a
// cycle; internal/eval type-asserts it back to *environment.Table.
type Function struct {
	basePos
	Name             string
	ParamNames       []string
	Body             ast.Node
	ShouldAutoReturn bool
	// DefiningScope is *environment.Table. It is kept as interface{} here
	// because environment.Table holds Value bindings, and Value living in
	// this package would otherwise create an import cycle; internal/eval
	// type-asserts it back when it calls the function.
	DefiningScope interface{}
}

// NewFunction constructs a Function value capturing its defining scope.
func NewFunction(name string, params []string, body ast.Node, autoReturn bool, definingScope interface{}) *Function {
	return &Function{Name: name, ParamNames: params, Body: body, ShouldAutoReturn: autoReturn, DefiningScope: definingScope}
}

func (f *Function) Kind() Kind { return KindFunction }
func (f *Function) WithPos(start, end source.Position) Value {
	cp := *f
	cp.basePos = basePos{start, end}
	return &cp
}
func (f *Function) Truthy() bool  { return true }
func (f *Function) Print() string { return fmt.Sprintf("<function %s>", f.displayName()) }
func (f *Function) Repr() string  { return f.Print() }

func (f *Function) displayName() string {
	if f.Name == "" {
		return "<anonymous>"
	}
	return f.Name
}

// Builtin is a native function bound in the global table.
type Builtin struct {
	basePos
	Name       string
	ParamNames []string
	Fn         func(args []Value) (Value, error)
}

// NewBuiltin constructs a built-in function value.
func NewBuiltin(name string, params []string, fn func(args []Value) (Value, error)) *Builtin {
	return &Builtin{Name: name, ParamNames: params, Fn: fn}
}

func (b *Builtin) Kind() Kind { return KindBuiltin }
func (b *Builtin) WithPos(start, end source.Position) Value {
	cp := *b
	cp.basePos = basePos{start, end}
	return &cp
}
func (b *Builtin) Truthy() bool  { return true }
func (b *Builtin) Print() string { return fmt.Sprintf("<built-in function %s>", b.Name) }
func (b *Builtin) Repr() string  { return b.Print() }

// TypeName returns the printable name of a value's kind.
func TypeName(v Value) string { return v.Kind().String() }
