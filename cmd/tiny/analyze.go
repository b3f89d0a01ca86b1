package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fatih/color"

	"github.com/mgomes/tinyscript/tiny"
)

const scriptFrame = "<script>"

type lintWarning struct {
	Function string
	Pos      tiny.Position
	Message  string
}

func analyzeCommand(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("tiny analyze: script path required")
	}

	scriptPath, err := filepath.Abs(remaining[0])
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	program, err := loadProgram(scriptPath)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	warnings := analyzeProgram(program)
	if len(warnings) == 0 {
		fmt.Println("No issues found")
		return nil
	}

	location := color.New(color.Bold)
	for _, warning := range warnings {
		fmt.Printf("%s %s (%s)\n",
			location.Sprintf("%s:%d:%d:", scriptPath, warning.Pos.Line, warning.Pos.Column),
			color.YellowString(warning.Message),
			warning.Function)
	}

	return fmt.Errorf("analysis found %d issue(s)", len(warnings))
}

type analyzer struct {
	// every function defined anywhere in the file, last definition wins
	all map[string]*tiny.Function
	// functions defined so far while walking the top level
	defined  map[string]*tiny.Function
	warnings []lintWarning
}

func analyzeProgram(program *tiny.Program) []lintWarning {
	a := &analyzer{
		all:      make(map[string]*tiny.Function),
		defined:  make(map[string]*tiny.Function),
		warnings: make([]lintWarning, 0),
	}
	for _, stmt := range program.Statements {
		if fn, ok := stmt.(*tiny.FunctionStmt); ok {
			a.all[fn.Name] = fn.Function
		}
	}
	for _, stmt := range program.Statements {
		a.lintTopLevel(stmt)
	}

	sort.SliceStable(a.warnings, func(i, j int) bool {
		if a.warnings[i].Pos.Line != a.warnings[j].Pos.Line {
			return a.warnings[i].Pos.Line < a.warnings[j].Pos.Line
		}
		return a.warnings[i].Pos.Column < a.warnings[j].Pos.Column
	})
	return a.warnings
}

func (a *analyzer) warn(function string, pos tiny.Position, format string, args ...any) {
	a.warnings = append(a.warnings, lintWarning{Function: function, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (a *analyzer) lintTopLevel(stmt tiny.Statement) {
	switch s := stmt.(type) {
	case *tiny.FunctionStmt:
		a.defined[s.Name] = s.Function
		a.lintFunction(s.Name, s.Function)
	case *tiny.AssignStmt:
		a.lintExpression(scriptFrame, s.Value, a.defined)
	case *tiny.ReturnStmt:
		a.warn(scriptFrame, s.Pos(), "return outside of a function")
		a.lintExpression(scriptFrame, s.Value, a.defined)
	case *tiny.IfStmt:
		a.lintExpression(scriptFrame, s.Condition, a.defined)
		a.lintTopLevelBody(s.Body)
	case *tiny.WhileStmt:
		a.lintExpression(scriptFrame, s.Condition, a.defined)
		a.lintTopLevelBody(s.Body)
	}
}

func (a *analyzer) lintTopLevelBody(body []tiny.Statement) {
	for _, stmt := range body {
		a.lintTopLevel(stmt)
	}
}

// lintFunction resolves calls against the whole file, since a body only
// runs once the program has reached the call.
func (a *analyzer) lintFunction(function string, fn *tiny.Function) {
	body := fn.Body
	terminated := false
	for _, stmt := range body {
		if terminated {
			a.warn(function, stmt.Pos(), "unreachable statement")
			continue
		}
		switch s := stmt.(type) {
		case *tiny.ReturnStmt:
			a.lintExpression(function, s.Value, a.all)
			terminated = true
		case *tiny.AssignStmt:
			a.lintExpression(function, s.Value, a.all)
		}
	}
	if !terminated {
		if len(body) == 0 {
			a.warn(function, fn.Pos(), "function has an empty body")
			return
		}
		a.warn(function, body[len(body)-1].Pos(), "function ends without a return")
	}
}

func (a *analyzer) lintExpression(function string, expr tiny.Expression, functions map[string]*tiny.Function) {
	switch e := expr.(type) {
	case *tiny.CallExpr:
		fn, ok := functions[e.Name]
		switch {
		case !ok:
			a.warn(function, e.Pos(), "call to undefined function %s", e.Name)
		case len(fn.Params) != len(e.Args):
			a.warn(function, e.Pos(), "function %s expects %d argument(s), got %d", e.Name, len(fn.Params), len(e.Args))
		}
		a.lintExpressions(function, e.Args, functions)
	case *tiny.BinaryExpr:
		a.lintExpression(function, e.Left, functions)
		a.lintExpression(function, e.Right, functions)
	case *tiny.ArrayLiteral:
		a.lintExpressions(function, e.Elements, functions)
	case *tiny.IndexExpr:
		a.lintExpression(function, e.Object, functions)
		a.lintExpression(function, e.Index, functions)
	case *tiny.MemberExpr:
		a.lintExpression(function, e.Object, functions)
	case *tiny.MethodCallExpr:
		a.lintExpression(function, e.Object, functions)
		a.lintExpressions(function, e.Args, functions)
	}
}

func (a *analyzer) lintExpressions(function string, exprs []tiny.Expression, functions map[string]*tiny.Function) {
	for _, expr := range exprs {
		a.lintExpression(function, expr, functions)
	}
}
