package tiny

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseError reports the first point at which the source stopped matching
// the grammar.
type ParseError struct {
	Pos       Position
	Msg       string
	CodeFrame string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	if e.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(e.CodeFrame)
	}
	return b.String()
}

// Is makes every ParseError match ErrSyntax.
func (e *ParseError) Is(target error) bool {
	return target == ErrSyntax
}

// fail records that the item was expected at the current offset. Only the
// furthest offset is kept.
func (p *parser) fail(expected string) {
	switch {
	case p.off > p.failOff:
		p.failOff = p.off
		p.expected = append(p.expected[:0], expected)
	case p.off == p.failOff:
		for _, e := range p.expected {
			if e == expected {
				return
			}
		}
		p.expected = append(p.expected, expected)
	}
}

func (p *parser) syntaxError() error {
	off := p.failOff
	if off < 0 {
		off = p.off
	}
	msg := "unexpected " + describeInput(p.input, off)
	if len(p.expected) > 0 {
		msg = fmt.Sprintf("expected %s, got %s", joinExpected(p.expected), describeInput(p.input, off))
	}
	pos := p.lines.position(off)
	return &ParseError{Pos: pos, Msg: msg, CodeFrame: p.lines.codeFrame(pos)}
}

func joinExpected(items []string) string {
	if len(items) == 1 {
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}

func literalLabel(s string) string {
	switch s {
	case "\n":
		return "newline"
	case "\n    ":
		return "indented line"
	default:
		return strconv.Quote(s)
	}
}

const maxSnippetRunes = 12

func describeInput(input string, off int) string {
	if off >= len(input) {
		return "end of input"
	}
	rest := input[off:]
	if rest[0] == '\n' {
		return "newline"
	}
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	if utf8.RuneCountInString(rest) > maxSnippetRunes {
		rest = string([]rune(rest)[:maxSnippetRunes]) + "..."
	}
	return strconv.Quote(rest)
}
