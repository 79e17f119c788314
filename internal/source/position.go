// Package source holds the file/text pair the lexer and parser walk over,
// and renders caret-underlined excerpts for diagnostics.
package source

import "strings"

// File is a named chunk of source text.
type File struct {
	Name string
	Text string
}

// New wraps a file name and its full text.
func New(name, text string) *File {
	return &File{Name: name, Text: text}
}

// Position is a cursor into a File: a byte index plus derived line/column.
//
// Column and Idx start at -1 so that the first Advance call (with no rune,
// from the lexer's initial positioning) lands on index 0, column 0.
type Position struct {
	Idx  int
	Line int
	Col  int
	File *File
}

// NewPosition builds a Position at the given coordinates over file.
func NewPosition(idx, line, col int, file *File) Position {
	return Position{Idx: idx, Line: line, Col: col, File: file}
}

// Advance moves the position forward by one rune. Passing '\n' moves to the
// next line and resets the column; anything else just advances the column.
func (p Position) Advance(r rune) Position {
	p.Idx++
	p.Col++
	if r == '\n' {
		p.Line++
		p.Col = 0
	}
	return p
}

// Copy returns an independent copy of the position.
func (p Position) Copy() Position {
	return p
}

// Excerpt renders the source line(s) spanning start..end with a '^'
// underline, the way diagnostics in this family of interpreters do.
func Excerpt(start, end Position) string {
	text := start.File.Text

	idxStart := strings.LastIndexByte(text[:min(start.Idx, len(text))], '\n') + 1
	idxEnd := strings.IndexByte(text[start.Idx:], '\n')
	if idxEnd == -1 {
		idxEnd = len(text)
	} else {
		idxEnd += start.Idx
	}

	var b strings.Builder
	lineCount := end.Line - start.Line + 1
	for i := 0; i < lineCount; i++ {
		line := text[idxStart:idxEnd]

		colStart := 0
		if i == 0 {
			colStart = start.Col
		}
		colEnd := len(line)
		if i == lineCount-1 {
			colEnd = end.Col
		}
		if colEnd <= colStart {
			colEnd = colStart + 1
		}

		b.WriteString(line)
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(" ", colStart))
		b.WriteString(strings.Repeat("^", colEnd-colStart))

		idxStart = idxEnd + 1
		if idxStart > len(text) {
			break
		}
		nextEnd := strings.IndexByte(text[idxStart:], '\n')
		if nextEnd == -1 {
			idxEnd = len(text)
		} else {
			idxEnd = idxStart + nextEnd
		}
	}

	return strings.ReplaceAll(b.String(), "\t", "")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
