package tiny

import (
	"fmt"
	"strconv"
	"strings"
)

// codeFrame renders the source line at pos with a caret under the column.
func (t lineTable) codeFrame(pos Position) string {
	if t.source == "" || pos.Line <= 0 || pos.Line > len(t.starts) {
		return ""
	}

	start := t.starts[pos.Line-1]
	lineText := t.source[start:]
	if nl := strings.IndexByte(lineText, '\n'); nl >= 0 {
		lineText = lineText[:nl]
	}
	lineRunes := []rune(lineText)

	column := max(pos.Column, 1)
	column = min(column, len(lineRunes)+1)

	lineLabel := strconv.Itoa(pos.Line)
	gutterPad := strings.Repeat(" ", len(lineLabel))
	caretPad := strings.Repeat(" ", column-1)

	return fmt.Sprintf(
		"  --> line %d, column %d\n %s | %s\n %s | %s^",
		pos.Line,
		column,
		lineLabel,
		lineText,
		gutterPad,
		caretPad,
	)
}
