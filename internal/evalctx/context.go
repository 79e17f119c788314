// Package evalctx implements the evaluation frame threaded through the
// tree walker: a display name, an optional parent frame, the position of
// the call that entered this frame, and the lexical symbol table.
package evalctx

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/hustle/internal/environment"
	"github.com/aledsdavies/hustle/internal/source"
)

// Context is one evaluation frame. Frames chain through Parent to produce
// "most recent call last" tracebacks for runtime errors; they are distinct
// from the Table's own parent chain, which governs variable visibility.
type Context struct {
	DisplayName string
	Parent      *Context
	EntryPos    *source.Position
	Table       *environment.Table
}

// NewRoot creates the top-level context for a file, with no parent frame.
func NewRoot(displayName string, table *environment.Table) *Context {
	return &Context{DisplayName: displayName, Table: table}
}

// NewChild creates a call frame entered from pos, with its own table
// (usually a child of the function's defining table, for lexical scoping).
func NewChild(displayName string, parent *Context, entryPos source.Position, table *environment.Table) *Context {
	p := entryPos
	return &Context{DisplayName: displayName, Parent: parent, EntryPos: &p, Table: table}
}

// Traceback renders the frame chain from outermost to innermost, the way
// runtime errors report their call stack.
func (c *Context) Traceback(fileName string) string {
	var frames []string
	for ctx := c; ctx != nil; ctx = ctx.Parent {
		if ctx.EntryPos == nil {
			break
		}
		frames = append(frames, fmt.Sprintf("  File %s, line %d, in %s", fileName, ctx.EntryPos.Line+1, ctx.DisplayName))
	}
	if len(frames) == 0 {
		return ""
	}
	// reverse so outermost call prints first, innermost (most recent) last
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	return "Traceback (most recent call last):\n" + strings.Join(frames, "\n") + "\n"
}
