package tiny

import (
	"math"
)

// evalExpression never modifies st.
func (exec *Execution) evalExpression(expr Expression, st *state) (Value, error) {
	if err := exec.step(); err != nil {
		return Value{}, err
	}
	switch e := expr.(type) {
	case *Identifier:
		val, ok := st.variables[e.Name]
		if !ok {
			return Value{}, exec.errorAt(kindNameError, e.Pos(), "undefined variable %s", e.Name)
		}
		return val, nil
	case *BoolLiteral:
		return NewBool(e.Value), nil
	case *NumberLiteral:
		return NewNumber(e.Value), nil
	case *TextLiteral:
		return NewText(e.Value), nil
	case *ArrayLiteral:
		elems, err := exec.evalExpressions(e.Elements, st)
		if err != nil {
			return Value{}, err
		}
		return NewArray(elems), nil
	case *BinaryExpr:
		return exec.evalBinaryExpr(e, st)
	case *CallExpr:
		return exec.evalCallExpr(e, st)
	case *IndexExpr:
		return exec.evalIndexExpr(e, st)
	case *MemberExpr:
		obj, err := exec.evalExpression(e.Object, st)
		if err != nil {
			return Value{}, err
		}
		return exec.getMember(obj, e.Property, e.Pos())
	case *MethodCallExpr:
		receiver, err := exec.evalExpression(e.Object, st)
		if err != nil {
			return Value{}, err
		}
		args, err := exec.evalExpressions(e.Args, st)
		if err != nil {
			return Value{}, err
		}
		return exec.callMethod(receiver, e.Method, args, e.Pos())
	default:
		return Value{}, exec.errorAt(kindStructureError, expr.Pos(), "unsupported expression %T", expr)
	}
}

func (exec *Execution) evalExpressions(exprs []Expression, st *state) ([]Value, error) {
	vals := make([]Value, len(exprs))
	for i, expr := range exprs {
		val, err := exec.evalExpression(expr, st)
		if err != nil {
			return nil, err
		}
		vals[i] = val
	}
	return vals, nil
}

func (exec *Execution) evalIndexExpr(e *IndexExpr, st *state) (Value, error) {
	obj, err := exec.evalExpression(e.Object, st)
	if err != nil {
		return Value{}, err
	}
	idx, err := exec.evalExpression(e.Index, st)
	if err != nil {
		return Value{}, err
	}
	if obj.Kind() != KindArray {
		return Value{}, exec.errorAt(kindTypeError, e.Object.Pos(), "cannot index %s", obj.Kind())
	}
	if idx.Kind() != KindNumber {
		return Value{}, exec.errorAt(kindTypeError, e.Index.Pos(), "array index must be number, got %s", idx.Kind())
	}
	length, _ := obj.Len()
	pos := math.Trunc(idx.Number())
	if math.IsNaN(pos) || pos < 0 || pos >= float64(length) {
		return Value{}, exec.errorAt(kindIndexError, e.Index.Pos(), "index %s out of range for array of length %d", formatNumber(idx.Number()), length)
	}
	val, _ := obj.Index(int(pos))
	return val, nil
}

func (exec *Execution) evalCallExpr(e *CallExpr, st *state) (Value, error) {
	fn, ok := st.functions[e.Name]
	if !ok {
		return Value{}, exec.errorAt(kindNameError, e.Pos(), "undefined function %s", e.Name)
	}
	if len(e.Args) != len(fn.Params) {
		return Value{}, exec.errorAt(kindArityError, e.Pos(), "function %s expects %d argument(s), got %d", e.Name, len(fn.Params), len(e.Args))
	}

	callState := newState(nil, exec.callFunctions())
	for i, arg := range e.Args {
		val, err := exec.evalExpression(arg, st)
		if err != nil {
			return Value{}, err
		}
		callState.variables[fn.Params[i]] = val
	}

	if limit := exec.engine.config.RecursionLimit; len(exec.callStack) >= limit {
		return Value{}, exec.errorAt(kindLimitError, e.Pos(), "recursion limit of %d exceeded", limit)
	}
	exec.callStack = append(exec.callStack, callFrame{Function: e.Name, Pos: e.Pos()})
	defer func() {
		exec.callStack = exec.callStack[:len(exec.callStack)-1]
	}()
	exec.engine.logger.Debug("call", "function", e.Name, "depth", len(exec.callStack))

	out, err := exec.execStatements(fn.Body, callState)
	if err != nil {
		return Value{}, err
	}
	if !out.returned {
		return Value{}, exec.errorAt(kindStructureError, fn.Pos(), "function %s finished without returning a value", e.Name)
	}
	return out.value, nil
}

// callFunctions is the function table a new call starts with.
func (exec *Execution) callFunctions() map[string]*Function {
	if exec.engine.config.IsolatedCalls {
		return make(map[string]*Function)
	}
	return exec.root.functions
}
