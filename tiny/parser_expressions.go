package tiny

import (
	"strconv"
	"strings"
)

type binaryOp struct {
	text string
	op   BinaryOperator
}

var (
	logicOps          = []binaryOp{{" and ", OpAnd}, {" or ", OpOr}}
	comparisonOps     = []binaryOp{{" == ", OpEqual}, {" != ", OpNotEqual}}
	multiplicativeOps = []binaryOp{{" * ", OpMultiply}, {" / ", OpDivide}}
	additiveOps       = []binaryOp{{" + ", OpAdd}, {" - ", OpSubtract}}
)

func (p *parser) parseExpression() (Expression, bool) {
	return p.parseBinary(p.parseComparison, logicOps)
}

func (p *parser) parseComparison() (Expression, bool) {
	return p.parseBinary(p.parseMultiplicative, comparisonOps)
}

func (p *parser) parseMultiplicative() (Expression, bool) {
	return p.parseBinary(p.parseAdditive, multiplicativeOps)
}

func (p *parser) parseAdditive() (Expression, bool) {
	return p.parseBinary(p.parsePostfix, additiveOps)
}

// parseBinary parses one operand, then at most one operator and a second
// operand of the same level. Operators do not chain.
func (p *parser) parseBinary(operand func() (Expression, bool), ops []binaryOp) (Expression, bool) {
	left, ok := operand()
	if !ok {
		return nil, false
	}
	mark := p.off
	for _, candidate := range ops {
		if !p.match(candidate.text) {
			continue
		}
		pos := p.lines.position(mark + 1)
		right, ok := operand()
		if !ok {
			break
		}
		return &BinaryExpr{Left: left, Operator: candidate.op, Right: right, position: pos}, true
	}
	p.off = mark
	return left, true
}

func (p *parser) parsePostfix() (Expression, bool) {
	start := p.off
	pos := p.here()
	object, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	afterPrimary := p.off

	if p.match(".") {
		if name, ok := p.identifier(); ok {
			afterName := p.off
			if args, ok := p.parseArguments(); ok {
				return &MethodCallExpr{Object: object, Method: name, Args: args, position: pos}, true
			}
			p.off = afterName
			return &MemberExpr{Object: object, Property: name, position: pos}, true
		}
	}
	p.off = afterPrimary

	if p.match("[") && p.nest() {
		index, ok := p.parseExpression()
		p.unnest()
		if ok && p.match("]") {
			return &IndexExpr{Object: object, Index: index, position: pos}, true
		}
	}

	p.off = start
	if name, ok := p.identifier(); ok {
		if args, ok := p.parseArguments(); ok {
			return &CallExpr{Name: name, Args: args, position: pos}, true
		}
	}

	p.off = afterPrimary
	return object, true
}

func (p *parser) parseArguments() ([]Expression, bool) {
	if !p.match("(") || !p.nest() {
		return nil, false
	}
	args := parseList(p, p.parseExpression)
	p.unnest()
	if !p.match(")") {
		return nil, false
	}
	return args, true
}

func (p *parser) parsePrimary() (Expression, bool) {
	start := p.off
	for _, alt := range []func() (Expression, bool){
		p.parseArrayLiteral,
		p.parseBoolLiteral,
		p.parseNumberLiteral,
		p.parseTextLiteral,
		p.parseIdentifier,
	} {
		if expr, ok := alt(); ok {
			return expr, true
		}
		p.off = start
	}
	return nil, false
}

func (p *parser) parseArrayLiteral() (Expression, bool) {
	pos := p.here()
	if !p.match("[") || !p.nest() {
		return nil, false
	}
	elements := parseList(p, p.parseExpression)
	p.unnest()
	if !p.match("]") {
		return nil, false
	}
	return &ArrayLiteral{Elements: elements, position: pos}, true
}

func (p *parser) parseBoolLiteral() (Expression, bool) {
	pos := p.here()
	if p.match("true") {
		return &BoolLiteral{Value: true, position: pos}, true
	}
	if p.match("false") {
		return &BoolLiteral{Value: false, position: pos}, true
	}
	return nil, false
}

func (p *parser) parseNumberLiteral() (Expression, bool) {
	pos := p.here()
	end := p.off
	for end < len(p.input) && isDigit(p.input[end]) {
		end++
	}
	if end == p.off {
		p.fail("number")
		return nil, false
	}
	// Overlong digit runs overflow to +Inf; ParseFloat still returns that value.
	value, _ := strconv.ParseFloat(p.input[p.off:end], 64)
	p.off = end
	return &NumberLiteral{Value: value, position: pos}, true
}

func (p *parser) parseTextLiteral() (Expression, bool) {
	pos := p.here()
	if !p.match(`"`) {
		return nil, false
	}
	length := strings.IndexByte(p.input[p.off:], '"')
	if length < 0 {
		p.fail("closing quote")
		return nil, false
	}
	text := strings.Clone(p.input[p.off : p.off+length])
	p.off += length + 1
	return &TextLiteral{Value: text, position: pos}, true
}

func (p *parser) parseIdentifier() (Expression, bool) {
	pos := p.here()
	name, ok := p.identifier()
	if !ok {
		return nil, false
	}
	return &Identifier{Name: name, position: pos}, true
}
