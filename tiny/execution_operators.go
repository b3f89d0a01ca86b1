package tiny

func (exec *Execution) evalBinaryExpr(expr *BinaryExpr, st *state) (Value, error) {
	// Both operands are always evaluated; and/or do not short-circuit.
	left, err := exec.evalExpression(expr.Left, st)
	if err != nil {
		return Value{}, err
	}
	right, err := exec.evalExpression(expr.Right, st)
	if err != nil {
		return Value{}, err
	}
	result, ok := applyBinary(expr.Operator, left, right)
	if !ok {
		return Value{}, exec.errorAt(kindTypeError, expr.Pos(), "cannot evaluate %s %s %s", left.Kind(), expr.Operator, right.Kind())
	}
	return result, nil
}

// applyBinary implements the operator typing table. It reports false for
// every operator/operand combination outside the table.
func applyBinary(op BinaryOperator, left, right Value) (Value, bool) {
	switch {
	case left.Kind() == KindNumber && right.Kind() == KindNumber:
		l, r := left.Number(), right.Number()
		switch op {
		case OpAdd:
			return NewNumber(l + r), true
		case OpSubtract:
			return NewNumber(l - r), true
		case OpMultiply:
			return NewNumber(l * r), true
		case OpDivide:
			return NewNumber(l / r), true
		case OpEqual:
			return NewBool(l == r), true
		case OpNotEqual:
			return NewBool(l != r), true
		}
	case left.Kind() == KindText && right.Kind() == KindText:
		l, r := left.Text(), right.Text()
		switch op {
		case OpAdd:
			return NewText(l + r), true
		case OpEqual:
			return NewBool(l == r), true
		case OpNotEqual:
			return NewBool(l != r), true
		}
	case left.Kind() == KindBool && right.Kind() == KindBool:
		l, r := left.Bool(), right.Bool()
		switch op {
		case OpAnd:
			return NewBool(l && r), true
		case OpOr:
			return NewBool(l || r), true
		}
	}
	return Value{}, false
}
