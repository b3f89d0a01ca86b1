package tiny

import (
	"context"
	"fmt"
)

// Execution carries the per-run bookkeeping of one Engine.Run call.
type Execution struct {
	engine    *Engine
	program   *Program
	ctx       context.Context
	quota     int
	steps     int
	callStack []callFrame
	root      *state
	lines     *lineTable
}

type callFrame struct {
	Function string
	Pos      Position
}

// outcome is the result of executing a statement sequence: it either ran to
// the end or a return statement produced the value of the enclosing call.
type outcome struct {
	returned bool
	value    Value
}

var continuing = outcome{}

func (exec *Execution) step() error {
	exec.steps++
	if exec.quota > 0 && exec.steps > exec.quota {
		return exec.newRuntimeError(kindLimitError, fmt.Sprintf("step quota exceeded (%d)", exec.quota), Position{})
	}
	select {
	case <-exec.ctx.Done():
		return exec.ctx.Err()
	default:
	}
	return nil
}

func (exec *Execution) inFunction() bool {
	return len(exec.callStack) > 0
}

func (exec *Execution) execStatements(stmts []Statement, st *state) (outcome, error) {
	for _, stmt := range stmts {
		if err := exec.step(); err != nil {
			return continuing, err
		}
		out, err := exec.execStatement(stmt, st)
		if err != nil {
			return continuing, err
		}
		if out.returned {
			return out, nil
		}
	}
	return continuing, nil
}

func (exec *Execution) execStatement(stmt Statement, st *state) (outcome, error) {
	switch s := stmt.(type) {
	case *AssignStmt:
		val, err := exec.evalExpression(s.Value, st)
		if err != nil {
			return continuing, err
		}
		st.variables[s.Name] = val
		return continuing, nil
	case *FunctionStmt:
		st.functions[s.Name] = s.Function
		return continuing, nil
	case *IfStmt:
		cond, err := exec.evalCondition("if", s.Condition, st)
		if err != nil || !cond {
			return continuing, err
		}
		return exec.execStatements(s.Body, st)
	case *WhileStmt:
		for {
			cond, err := exec.evalCondition("while", s.Condition, st)
			if err != nil || !cond {
				return continuing, err
			}
			out, err := exec.execStatements(s.Body, st)
			if err != nil || out.returned {
				return out, err
			}
		}
	case *ReturnStmt:
		if !exec.inFunction() {
			return continuing, exec.errorAt(kindStructureError, s.Pos(), "return outside of a function")
		}
		val, err := exec.evalExpression(s.Value, st)
		if err != nil {
			return continuing, err
		}
		return outcome{returned: true, value: val}, nil
	default:
		return continuing, exec.errorAt(kindStructureError, stmt.Pos(), "unsupported statement %T", stmt)
	}
}

func (exec *Execution) evalCondition(construct string, expr Expression, st *state) (bool, error) {
	val, err := exec.evalExpression(expr, st)
	if err != nil {
		return false, err
	}
	if val.Kind() != KindBool {
		return false, exec.errorAt(kindTypeError, expr.Pos(), "%s condition must be bool, got %s", construct, val.Kind())
	}
	return val.Bool(), nil
}
