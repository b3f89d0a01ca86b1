package tiny

import (
	"sort"
	"unicode/utf8"
)

// Position identifies a 1-based line and column in the source text.
type Position struct {
	Line   int
	Column int
}

// lineTable maps byte offsets to positions. Columns count runes.
type lineTable struct {
	source string
	starts []int
}

func newLineTable(source string) lineTable {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineTable{source: source, starts: starts}
}

func (t lineTable) position(offset int) Position {
	if offset > len(t.source) {
		offset = len(t.source)
	}
	line := sort.Search(len(t.starts), func(i int) bool { return t.starts[i] > offset }) - 1
	start := t.starts[line]
	return Position{Line: line + 1, Column: utf8.RuneCountInString(t.source[start:offset]) + 1}
}
