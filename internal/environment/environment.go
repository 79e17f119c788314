// Package environment implements the interpreter's lexically-chained
// symbol tables.
package environment

import "github.com/aledsdavies/hustle/internal/value"

// Table is a single scope's name-to-value bindings, chained to its parent
// for lookups. Functions capture the Table active at their definition site,
// not the table active at their call site, which is what gives closures
// their lexical (rather than dynamic) scoping.
type Table struct {
	vars   map[string]value.Value
	parent *Table
}

// New creates a root table with no parent (used for the global scope).
func New() *Table {
	return &Table{vars: make(map[string]value.Value)}
}

// NewChild creates a table whose lookups fall back to parent.
func NewChild(parent *Table) *Table {
	return &Table{vars: make(map[string]value.Value), parent: parent}
}

// Get walks the parent chain looking for name, returning (value, true) on
// the first hit.
func (t *Table) Get(name string) (value.Value, bool) {
	for tbl := t; tbl != nil; tbl = tbl.parent {
		if v, ok := tbl.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name in this table only, never a parent.
func (t *Table) Set(name string, v value.Value) {
	t.vars[name] = v
}

// Remove deletes name from this table only.
func (t *Table) Remove(name string) {
	delete(t.vars, name)
}

// Parent returns the table's parent, or nil at the root.
func (t *Table) Parent() *Table { return t.parent }
