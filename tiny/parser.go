package tiny

import "strings"

// Parse turns source text into a Program. The whole input must match the
// grammar; otherwise a *ParseError describing the furthest point the parser
// reached is returned.
func Parse(source string) (*Program, error) {
	return newParser(source).ParseProgram()
}

// parser is an ordered-choice parser working directly on the source bytes.
// Every alternative restores the offset when it fails, so callers can try
// the next one from the same place.
type parser struct {
	input string
	off   int
	lines lineTable

	failOff  int
	expected []string

	depth int
}

// maxNestingDepth bounds how deeply brackets, call arguments and index
// expressions may nest within one expression.
const maxNestingDepth = 1000

func newParser(input string) *parser {
	return &parser{input: input, lines: newLineTable(input), failOff: -1}
}

func (p *parser) ParseProgram() (*Program, error) {
	program := &Program{source: p.input}
	for {
		stmt, ok := p.parseStatement()
		if !ok {
			return nil, p.syntaxError()
		}
		program.Statements = append(program.Statements, stmt)
		if !p.match("\n") {
			break
		}
	}
	if p.off < len(p.input) {
		p.fail("end of input")
		return nil, p.syntaxError()
	}
	return program, nil
}

func (p *parser) parseStatement() (Statement, bool) {
	start := p.off
	for _, alt := range []func() (Statement, bool){
		p.parseFunctionStatement,
		p.parseWhileStatement,
		p.parseIfStatement,
		p.parseReturnStatement,
		p.parseAssignStatement,
	} {
		if stmt, ok := alt(); ok {
			return stmt, true
		}
		p.off = start
	}
	return nil, false
}

// parseBodyStatement accepts the statements allowed inside an indented body.
func (p *parser) parseBodyStatement() (Statement, bool) {
	start := p.off
	if stmt, ok := p.parseReturnStatement(); ok {
		return stmt, true
	}
	p.off = start
	return p.parseAssignStatement()
}

func (p *parser) parseFunctionStatement() (Statement, bool) {
	pos := p.here()
	if !p.match("func ") {
		return nil, false
	}
	name, ok := p.identifier()
	if !ok {
		return nil, false
	}
	if !p.match("(") {
		return nil, false
	}
	params := parseList(p, p.identifier)
	if !p.match(")") {
		return nil, false
	}
	body := p.parseBody()
	return &FunctionStmt{Name: name, Function: &Function{Params: params, Body: body, position: pos}, position: pos}, true
}

func (p *parser) parseWhileStatement() (Statement, bool) {
	pos := p.here()
	if !p.match("while ") {
		return nil, false
	}
	condition, ok := p.parseExpression()
	if !ok {
		return nil, false
	}
	return &WhileStmt{Condition: condition, Body: p.parseBody(), position: pos}, true
}

func (p *parser) parseIfStatement() (Statement, bool) {
	pos := p.here()
	if !p.match("if ") {
		return nil, false
	}
	condition, ok := p.parseExpression()
	if !ok {
		return nil, false
	}
	return &IfStmt{Condition: condition, Body: p.parseBody(), position: pos}, true
}

func (p *parser) parseReturnStatement() (Statement, bool) {
	pos := p.here()
	if !p.match("return ") {
		return nil, false
	}
	value, ok := p.parseExpression()
	if !ok {
		return nil, false
	}
	return &ReturnStmt{Value: value, position: pos}, true
}

func (p *parser) parseAssignStatement() (Statement, bool) {
	pos := p.here()
	name, ok := p.identifier()
	if !ok {
		return nil, false
	}
	if !p.match(" = ") {
		return nil, false
	}
	value, ok := p.parseExpression()
	if !ok {
		return nil, false
	}
	return &AssignStmt{Name: name, Value: value, position: pos}, true
}

// parseBody collects indented lines. A line that does not parse ends the
// body and is left for the caller.
func (p *parser) parseBody() []Statement {
	body := []Statement{}
	for {
		mark := p.off
		if !p.match("\n    ") {
			return body
		}
		stmt, ok := p.parseBodyStatement()
		if !ok {
			p.off = mark
			return body
		}
		body = append(body, stmt)
	}
}

// parseList parses zero or more items separated by ", ". A separator that is
// not followed by an item is left unconsumed.
func parseList[T any](p *parser, item func() (T, bool)) []T {
	items := []T{}
	mark := p.off
	first, ok := item()
	if !ok {
		p.off = mark
		return items
	}
	items = append(items, first)
	for {
		mark = p.off
		if !p.match(", ") {
			return items
		}
		next, ok := item()
		if !ok {
			p.off = mark
			return items
		}
		items = append(items, next)
	}
}

// nest enters one bracket level. Past maxNestingDepth it records a failure
// and reports false; callers that succeed must call unnest.
func (p *parser) nest() bool {
	if p.depth >= maxNestingDepth {
		p.fail("shallower nesting")
		return false
	}
	p.depth++
	return true
}

func (p *parser) unnest() {
	p.depth--
}

func (p *parser) identifier() (string, bool) {
	end := p.off
	for end < len(p.input) && isIdentByte(p.input[end]) {
		end++
	}
	if end == p.off {
		p.fail("identifier")
		return "", false
	}
	name := strings.Clone(p.input[p.off:end])
	p.off = end
	return name, true
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// match consumes s when the input continues with it.
func (p *parser) match(s string) bool {
	if len(p.input)-p.off >= len(s) && p.input[p.off:p.off+len(s)] == s {
		p.off += len(s)
		return true
	}
	p.fail(literalLabel(s))
	return false
}

func (p *parser) here() Position {
	return p.lines.position(p.off)
}
