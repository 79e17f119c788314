// Package builtin seeds the global environment with the language's
// predefined singletons and its ordinary-call-syntax built-in functions.
//
// Statement intrinsics (Exit, Argv, include, ...) are a separate mechanism,
// dispatched directly from dedicated AST node kinds by internal/eval; only
// the functions callable by ordinary `name(args)` syntax live here, bound
// by name in a static registry.
package builtin

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aledsdavies/hustle/internal/environment"
	"github.com/aledsdavies/hustle/internal/value"
)

// RunFunc loads, lexes, parses, and evaluates another source file - the
// same pipeline the driver itself runs, exposed here so the `run` built-in
// can invoke it without internal/builtin importing internal/interp (which
// imports this package).
type RunFunc func(fileName string) (value.Value, error)

// IO supplies the streams printh/input/input_int read and write.
type IO struct {
	Out io.Writer
	In  *bufio.Reader
}

// Register seeds table with null/true/false/math_pi and every built-in
// function, given the collaborators (I/O, process exit, file running) the
// impure ones need.
func Register(table *environment.Table, io IO, exit func(code int), run RunFunc) {
	table.Set("null", value.NewNull())
	table.Set("true", value.NewInt(1))
	table.Set("false", value.NewInt(0))
	table.Set("math_pi", value.NewFloat(math.Pi))

	bind := func(name string, params []string, fn func(args []value.Value) (value.Value, error)) {
		table.Set(name, value.NewBuiltin(name, params, fn))
	}

	bind("printh", []string{"value"}, func(args []value.Value) (value.Value, error) {
		fmt.Fprintln(io.Out, args[0].Print())
		return value.NewNull(), nil
	})

	bind("printh_ret", []string{"value"}, func(args []value.Value) (value.Value, error) {
		return value.NewString(args[0].Print()), nil
	})

	bind("input", nil, func(args []value.Value) (value.Value, error) {
		line, _ := io.In.ReadString('\n')
		return value.NewString(strings.TrimRight(line, "\r\n")), nil
	})

	bind("input_int", nil, func(args []value.Value) (value.Value, error) {
		line, _ := io.In.ReadString('\n')
		line = strings.TrimSpace(line)
		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			fmt.Fprintf(io.Out, "Invalid input: %s must be an integer\n", line)
			exit(1)
			return value.NewNull(), nil
		}
		return value.NewInt(n), nil
	})

	clearFn := func(args []value.Value) (value.Value, error) {
		fmt.Fprint(io.Out, "\033[H\033[2J")
		return value.NewNull(), nil
	}
	bind("clear", nil, clearFn)
	bind("cls", nil, clearFn)

	bind("is_number", []string{"value"}, typePredicate(value.KindNumber))
	bind("is_string", []string{"value"}, typePredicate(value.KindString))
	bind("is_list", []string{"value"}, typePredicate(value.KindList))
	bind("is_function", []string{"value"}, func(args []value.Value) (value.Value, error) {
		k := args[0].Kind()
		ok := k == value.KindFunction || k == value.KindBuiltin
		return boolNumber(ok), nil
	})

	bind("append", []string{"list", "value"}, func(args []value.Value) (value.Value, error) {
		list, ok := args[0].(*value.List)
		if !ok {
			return nil, fmt.Errorf("First argument must be list")
		}
		*list.Elements = append(*list.Elements, args[1])
		return value.NewNull(), nil
	})

	bind("pop", []string{"list", "index"}, func(args []value.Value) (value.Value, error) {
		list, ok := args[0].(*value.List)
		if !ok {
			return nil, fmt.Errorf("First argument must be list")
		}
		idxVal, ok := args[1].(*value.Number)
		if !ok {
			return nil, fmt.Errorf("Second argument must be number")
		}
		elems := *list.Elements
		idx := int(asFloat(idxVal))
		if idx < 0 || idx >= len(elems) {
			return nil, fmt.Errorf("Element at this index could not be removed from list because index is out of bounds")
		}
		removed := elems[idx]
		*list.Elements = append(elems[:idx], elems[idx+1:]...)
		return removed, nil
	})

	// entend: the misspelling is part of the language surface; scripts
	// call it under this name.
	bind("entend", []string{"listA", "listB"}, func(args []value.Value) (value.Value, error) {
		a, ok := args[0].(*value.List)
		if !ok {
			return nil, fmt.Errorf("First argument must be list")
		}
		b, ok := args[1].(*value.List)
		if !ok {
			return nil, fmt.Errorf("Second argument must be list")
		}
		*a.Elements = append(*a.Elements, *b.Elements...)
		return value.NewNull(), nil
	})

	bind("len", []string{"list"}, func(args []value.Value) (value.Value, error) {
		list, ok := args[0].(*value.List)
		if !ok {
			return nil, fmt.Errorf("Argument must be list")
		}
		return value.NewInt(int64(len(*list.Elements))), nil
	})

	bind("run", []string{"fn"}, func(args []value.Value) (value.Value, error) {
		fn, ok := args[0].(*value.String)
		if !ok {
			return nil, fmt.Errorf("Argument must be string")
		}
		result, err := run(fn.Value)
		if err != nil {
			return nil, fmt.Errorf("Failed to load script %q: %s", fn.Value, err.Error())
		}
		return result, nil
	})
}

func typePredicate(kind value.Kind) func(args []value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		return boolNumber(args[0].Kind() == kind), nil
	}
}

func boolNumber(b bool) *value.Number {
	if b {
		return value.NewInt(1)
	}
	return value.NewInt(0)
}

func asFloat(n *value.Number) float64 {
	if n.IsFloat {
		return n.F
	}
	return float64(n.I)
}

// StdIO builds an IO bound to the real process stdin/stdout.
func StdIO() IO {
	return IO{Out: os.Stdout, In: bufio.NewReader(os.Stdin)}
}
