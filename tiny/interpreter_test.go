package tiny

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func runSource(t testing.TB, source string) Bindings {
	t.Helper()
	program, err := Parse(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	bindings, err := Run(program)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return bindings
}

func runError(t *testing.T, cfg Config, source string) error {
	t.Helper()
	program, err := Parse(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	bindings, err := NewEngine(cfg).Run(context.Background(), program)
	if err == nil {
		t.Fatalf("expected runtime error, got bindings %v", bindings)
	}
	if bindings != nil {
		t.Fatalf("expected no bindings on error, got %v", bindings)
	}
	return err
}

func requireBinding(t *testing.T, bindings Bindings, name string, want Value) {
	t.Helper()
	got, ok := bindings[name]
	if !ok {
		t.Fatalf("missing binding %s in %v", name, bindings.Names())
	}
	if !got.Equal(want) {
		t.Fatalf("%s: expected %s, got %s", name, want.Inspect(), got.Inspect())
	}
}

func TestAssignLiterals(t *testing.T) {
	bindings := runSource(t, "a = 42")
	if len(bindings) != 1 {
		t.Fatalf("expected one binding, got %v", bindings.Names())
	}
	requireBinding(t, bindings, "a", NewNumber(42))

	bindings = runSource(t, `a = "Hello, world!"`)
	requireBinding(t, bindings, "a", NewText("Hello, world!"))

	bindings = runSource(t, "a = 42\nb = a")
	requireBinding(t, bindings, "a", NewNumber(42))
	requireBinding(t, bindings, "b", NewNumber(42))
}

func TestBinaryOperators(t *testing.T) {
	tests := []struct {
		source string
		want   Value
	}{
		{"a = 2 + 2", NewNumber(4)},
		{"a = 13 - 8", NewNumber(5)},
		{"a = 2 * 3", NewNumber(6)},
		{"a = 6 / 2", NewNumber(3)},
		{`a = "a" + "b"`, NewText("ab")},
		{"a = 2 == 2", NewBool(true)},
		{"a = 2 != 3", NewBool(true)},
		{"a = 2 != 2", NewBool(false)},
		{`a = "x" == "x"`, NewBool(true)},
		{`a = "x" != "y"`, NewBool(true)},
		{"a = true and true", NewBool(true)},
		{"a = true and false", NewBool(false)},
		{"a = false and true", NewBool(false)},
		{"a = false and false", NewBool(false)},
		{"a = true or true", NewBool(true)},
		{"a = true or false", NewBool(true)},
		{"a = false or true", NewBool(true)},
		{"a = false or false", NewBool(false)},
		{"a = 1 / 0", NewNumber(math.Inf(1))},
		{"a = 0 - 1", NewNumber(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			requireBinding(t, runSource(t, tt.source), "a", tt.want)
		})
	}
}

func TestPrecedence(t *testing.T) {
	// multiplication binds looser than addition
	requireBinding(t, runSource(t, "a = 2 + 3 * 4"), "a", NewNumber(20))
	requireBinding(t, runSource(t, "a = 2 * 3 + 4"), "a", NewNumber(14))
	requireBinding(t, runSource(t, "a = 1 + 1 == 2"), "a", NewBool(true))
	requireBinding(t, runSource(t, "a = 1 == 1 and 2 != 3"), "a", NewBool(true))
}

func TestNaNDivision(t *testing.T) {
	got := runSource(t, "a = 0 / 0")["a"]
	if got.Kind() != KindNumber || !math.IsNaN(got.Number()) {
		t.Fatalf("expected NaN, got %s", got.Inspect())
	}
}

func TestArraysAndMembers(t *testing.T) {
	bindings := runSource(t, `a = [2, "test"]
b = a[0]
c = a[1]
d = [2, "test"].length
e = "hello".length
f = [[1, 2], []]`)
	requireBinding(t, bindings, "a", NewArray([]Value{NewNumber(2), NewText("test")}))
	requireBinding(t, bindings, "b", NewNumber(2))
	requireBinding(t, bindings, "c", NewText("test"))
	requireBinding(t, bindings, "d", NewNumber(2))
	requireBinding(t, bindings, "e", NewNumber(5))
	requireBinding(t, bindings, "f", NewArray([]Value{
		NewArray([]Value{NewNumber(1), NewNumber(2)}),
		NewArray(nil),
	}))
}

func TestIndexTruncatesTowardZero(t *testing.T) {
	requireBinding(t, runSource(t, "a = [1, 2][1 / 2]"), "a", NewNumber(1))
	requireBinding(t, runSource(t, "a = [1, 2][3 / 2]"), "a", NewNumber(2))
}

func TestIndexOutOfRange(t *testing.T) {
	for _, source := range []string{
		"a = [1][1]",
		"a = [][0]",
		"a = [1, 2][0 - 1]",
		"a = [1][0 / 0]",
		"a = [1][1 / 0]",
	} {
		t.Run(source, func(t *testing.T) {
			err := runError(t, Config{}, source)
			if !errors.Is(err, ErrIndex) {
				t.Fatalf("expected index error, got %v", err)
			}
		})
	}
}

func TestIndexErrorPosition(t *testing.T) {
	err := runError(t, Config{}, "a = [1][1]")
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	if re.Type != "IndexError" {
		t.Fatalf("unexpected type %s", re.Type)
	}
	if re.Pos != (Position{Line: 1, Column: 9}) {
		t.Fatalf("unexpected position %+v", re.Pos)
	}
	if !strings.Contains(re.CodeFrame, "  --> line 1, column 9") {
		t.Fatalf("unexpected code frame:\n%s", re.CodeFrame)
	}
	if len(re.Frames) != 1 || re.Frames[0].Function != "<script>" {
		t.Fatalf("unexpected frames %+v", re.Frames)
	}
}

func TestFunctionCall(t *testing.T) {
	requireBinding(t, runSource(t, "func f()\n    return 2\na = f()"), "a", NewNumber(2))

	bindings := runSource(t, `x = 3
func add(a, b)
    sum = a + b
    return sum
y = add(x, 4)`)
	requireBinding(t, bindings, "y", NewNumber(7))
	if _, ok := bindings["sum"]; ok {
		t.Fatalf("call-local variable leaked into top level")
	}
	if _, ok := bindings["a"]; ok {
		t.Fatalf("parameter leaked into top level")
	}
}

func TestFunctionReturnStopsBody(t *testing.T) {
	requireBinding(t, runSource(t, "func f()\n    return 1\n    return 2\na = f()"), "a", NewNumber(1))
}

func TestCalleeCannotSeeCallerVariables(t *testing.T) {
	err := runError(t, Config{}, "x = 3\nfunc f()\n    return x\na = f()")
	if !errors.Is(err, ErrName) {
		t.Fatalf("expected name error, got %v", err)
	}
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	if len(re.Frames) != 2 || re.Frames[0].Function != "f" || re.Frames[1].Function != "f" {
		t.Fatalf("unexpected frames %+v", re.Frames)
	}
	if re.Frames[0].Pos != (Position{Line: 3, Column: 12}) || re.Frames[1].Pos != (Position{Line: 4, Column: 5}) {
		t.Fatalf("unexpected frame positions %+v", re.Frames)
	}
}

func TestFunctionsCallOtherFunctions(t *testing.T) {
	source := `func two()
    return 2
func four()
    return two() + two()
a = four()`
	requireBinding(t, runSource(t, source), "a", NewNumber(4))

	err := runError(t, Config{IsolatedCalls: true}, source)
	if !errors.Is(err, ErrName) {
		t.Fatalf("expected name error with isolated calls, got %v", err)
	}
	if !strings.Contains(err.Error(), "undefined function two") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIsolatedCallsAllowTopLevelCalls(t *testing.T) {
	program, err := Parse("func f(x)\n    return x * 2\na = f(4)")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	bindings, err := NewEngine(Config{IsolatedCalls: true}).Run(context.Background(), program)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	requireBinding(t, bindings, "a", NewNumber(8))
}

func TestFunctionMustBeDefinedBeforeCall(t *testing.T) {
	err := runError(t, Config{}, "a = f()\nfunc f()\n    return 1")
	if !errors.Is(err, ErrName) {
		t.Fatalf("expected name error, got %v", err)
	}
}

func TestFunctionRedefinition(t *testing.T) {
	bindings := runSource(t, `func f()
    return 1
a = f()
func f()
    return 2
b = f()`)
	requireBinding(t, bindings, "a", NewNumber(1))
	requireBinding(t, bindings, "b", NewNumber(2))
}

func TestArityError(t *testing.T) {
	err := runError(t, Config{}, "func f(x)\n    return x\na = f()")
	if !errors.Is(err, ErrArity) {
		t.Fatalf("expected arity error, got %v", err)
	}
	if !strings.Contains(err.Error(), "function f expects 1 argument(s), got 0") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestArityCheckedBeforeArguments(t *testing.T) {
	err := runError(t, Config{}, "func f()\n    return 1\na = f(missing)")
	if !errors.Is(err, ErrArity) {
		t.Fatalf("expected arity error, got %v", err)
	}
}

func TestFunctionWithoutReturn(t *testing.T) {
	err := runError(t, Config{}, "func f()\n    x = 1\na = f()")
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structure error, got %v", err)
	}
	err = runError(t, Config{}, "func f()\na = f()")
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structure error for empty body, got %v", err)
	}
}

func TestReturnOutsideFunction(t *testing.T) {
	err := runError(t, Config{}, "return missing")
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structure error, got %v", err)
	}
	err = runError(t, Config{}, "if true\n    return 1")
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structure error inside if, got %v", err)
	}
}

func TestWhileLoop(t *testing.T) {
	requireBinding(t, runSource(t, "i = 0\nwhile i != 5\n    i = i + 1"), "i", NewNumber(5))
	requireBinding(t, runSource(t, "i = 0\nwhile false\n    i = 1"), "i", NewNumber(0))
}

func TestSequentialIf(t *testing.T) {
	bindings := runSource(t, "i = 0\nif i == 0\n    i = 1\nif i == 0\n    i = 2")
	requireBinding(t, bindings, "i", NewNumber(1))
}

func TestConditionMustBeBool(t *testing.T) {
	for _, source := range []string{"if 1\n    a = 1", "while \"yes\"\n    a = 1"} {
		err := runError(t, Config{}, source)
		if !errors.Is(err, ErrType) {
			t.Fatalf("%q: expected type error, got %v", source, err)
		}
	}
}

func TestStartsWith(t *testing.T) {
	bindings := runSource(t, `a = "hello"
b = a.starts_with("he")
c = a.starts_with("ha")`)
	requireBinding(t, bindings, "b", NewBool(true))
	requireBinding(t, bindings, "c", NewBool(false))
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		source string
		want   error
	}{
		{`a = 1 + "x"`, ErrType},
		{`a = "a" - "b"`, ErrType},
		{`a = true + true`, ErrType},
		{`a = 1 and true`, ErrType},
		{`a = [1] == [1]`, ErrType},
		{`a = 1 == "1"`, ErrType},
		{`a = 1[0]`, ErrType},
		{`a = [1]["0"]`, ErrType},
		{`a = 1.length`, ErrType},
		{`a = true.length`, ErrType},
		{`a = [1].size`, ErrType},
		{`a = [1].starts_with("x")`, ErrType},
		{`a = "x".ends_with("x")`, ErrType},
		{`a = "x".starts_with(1)`, ErrType},
		{`a = "x".starts_with()`, ErrArity},
		{`a = "x".starts_with("a", "b")`, ErrArity},
		{`a = missing`, ErrName},
		{`a = missing()`, ErrName},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			err := runError(t, Config{}, tt.source)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBinaryTypeErrorMessage(t *testing.T) {
	err := runError(t, Config{}, `a = 1 + "x"`)
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	if re.Message != "cannot evaluate number + text" {
		t.Fatalf("unexpected message %q", re.Message)
	}
	if re.Pos != (Position{Line: 1, Column: 7}) {
		t.Fatalf("unexpected position %+v", re.Pos)
	}
	if !strings.HasPrefix(err.Error(), "TypeError: cannot evaluate number + text\n") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestAndOrEvaluateBothOperands(t *testing.T) {
	err := runError(t, Config{}, "a = false and missing")
	if !errors.Is(err, ErrName) {
		t.Fatalf("expected name error from right operand, got %v", err)
	}
	err = runError(t, Config{}, "a = true or missing")
	if !errors.Is(err, ErrName) {
		t.Fatalf("expected name error from right operand, got %v", err)
	}
}

func TestFirstErrorWins(t *testing.T) {
	err := runError(t, Config{}, "a = [first, second]")
	if !strings.Contains(err.Error(), "undefined variable first") {
		t.Fatalf("expected left-most error, got %v", err)
	}
}

func TestAssignOnlyProgramBindingCount(t *testing.T) {
	source := "a = 1\nb = \"two\"\na = b\nc = [a, b]\nb = c\nd = true"
	program, err := Parse(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	first, err := Run(program)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(first) != 4 {
		t.Fatalf("expected 4 bindings, got %v", first.Names())
	}
	second, err := Run(program)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("runs disagree: %v vs %v", first.Names(), second.Names())
	}
	for name, val := range first {
		if !second[name].Equal(val) {
			t.Fatalf("%s differs between runs: %s vs %s", name, val.Inspect(), second[name].Inspect())
		}
	}
}

func TestRecursionLimit(t *testing.T) {
	err := runError(t, Config{RecursionLimit: 20}, "func f(n)\n    return f(n + 1)\na = f(0)")
	if !errors.Is(err, ErrLimit) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if !strings.Contains(err.Error(), "recursion limit of 20 exceeded") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "frames omitted") {
		t.Fatalf("expected elided stack frames, got %v", err)
	}
}

func TestDefaultRecursionLimit(t *testing.T) {
	err := runError(t, Config{}, "func f()\n    return f()\na = f()")
	var re *RuntimeError
	if !errors.As(err, &re) || re.Type != "LimitError" {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if len(re.Frames) != defaultRecursionLimit+1 {
		t.Fatalf("expected %d frames, got %d", defaultRecursionLimit+1, len(re.Frames))
	}
}

func TestStepQuota(t *testing.T) {
	err := runError(t, Config{StepQuota: 100}, "i = 0\nwhile true\n    i = i + 1")
	if !errors.Is(err, ErrLimit) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if !strings.Contains(err.Error(), "step quota exceeded (100)") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	program, err := Parse("i = 0\nwhile true\n    i = i + 1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewEngine(Config{}).Run(ctx, program)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunNilProgram(t *testing.T) {
	if _, err := Run(nil); err == nil {
		t.Fatalf("expected error for nil program")
	}
}

func TestEngineExec(t *testing.T) {
	bindings, err := NewEngine(Config{}).Exec(context.Background(), "a = 1 + 1")
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	requireBinding(t, bindings, "a", NewNumber(2))

	if _, err := NewEngine(Config{}).Exec(context.Background(), "a ="); !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestConfigSummary(t *testing.T) {
	got := NewEngine(Config{StepQuota: 50, IsolatedCalls: true}).ConfigSummary()
	if got != "steps=50 recursion=1000 isolated_calls=true" {
		t.Fatalf("unexpected summary %q", got)
	}
	got = NewEngine(Config{RecursionLimit: 7}).ConfigSummary()
	if got != "steps=unlimited recursion=7 isolated_calls=false" {
		t.Fatalf("unexpected summary %q", got)
	}
}
