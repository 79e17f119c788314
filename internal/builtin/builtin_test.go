package builtin

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/aledsdavies/hustle/internal/environment"
	"github.com/aledsdavies/hustle/internal/value"
)

func newTable(out *bytes.Buffer) *environment.Table {
	table := environment.New()
	io := IO{Out: out, In: bufio.NewReader(strings.NewReader(""))}
	Register(table, io, func(int) {}, func(string) (value.Value, error) {
		return value.NewNull(), nil
	})
	return table
}

func call(t *testing.T, table *environment.Table, name string, args ...value.Value) value.Value {
	t.Helper()
	fnVal, ok := table.Get(name)
	if !ok {
		t.Fatalf("%s not registered", name)
	}
	fn, ok := fnVal.(*value.Builtin)
	if !ok {
		t.Fatalf("%s is not a builtin", name)
	}
	result, err := fn.Fn(args)
	if err != nil {
		t.Fatalf("%s call failed: %v", name, err)
	}
	return result
}

func TestPrinthWritesPrintForm(t *testing.T) {
	var out bytes.Buffer
	table := newTable(&out)
	call(t, table, "printh", value.NewInt(7))
	if out.String() != "7\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestAppendMutatesSharedList(t *testing.T) {
	var out bytes.Buffer
	table := newTable(&out)
	list := value.NewList([]value.Value{value.NewInt(1)})
	call(t, table, "append", list, value.NewInt(2))
	if len(*list.Elements) != 2 {
		t.Errorf("expected 2 elements after append, got %d", len(*list.Elements))
	}
}

func TestLenReturnsElementCount(t *testing.T) {
	var out bytes.Buffer
	table := newTable(&out)
	list := value.NewList([]value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	result := call(t, table, "len", list)
	if result.(*value.Number).I != 3 {
		t.Errorf("got %v, want 3", result)
	}
}

func TestPopOutOfBounds(t *testing.T) {
	var out bytes.Buffer
	table := newTable(&out)
	fnVal, _ := table.Get("pop")
	fn := fnVal.(*value.Builtin)
	list := value.NewList([]value.Value{value.NewInt(1)})
	_, err := fn.Fn([]value.Value{list, value.NewInt(9)})
	if err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}

func TestTypePredicates(t *testing.T) {
	var out bytes.Buffer
	table := newTable(&out)
	if call(t, table, "is_number", value.NewInt(1)).(*value.Number).I != 1 {
		t.Error("is_number(1) should be true")
	}
	if call(t, table, "is_string", value.NewInt(1)).(*value.Number).I != 0 {
		t.Error("is_string(1) should be false")
	}
}

func TestClsAliasesClear(t *testing.T) {
	var outClear, outCls bytes.Buffer
	t1 := newTable(&outClear)
	t2 := newTable(&outCls)
	call(t, t1, "clear")
	call(t, t2, "cls")
	if outClear.String() != outCls.String() {
		t.Errorf("clear and cls should produce identical output")
	}
}
