package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mgomes/tinyscript/tiny"
)

func TestUpdateQuitCommandReturnsQuit(t *testing.T) {
	m := newREPLModel()
	m.textInput.SetValue(":quit")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}

	if !rm.quitting {
		t.Fatalf("quitting flag not set")
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after quit command")
	}
	if cmd == nil {
		t.Fatalf("expected tea.Quit command")
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(tea.QuitMsg); !ok {
			t.Fatalf("expected QuitMsg, got %T", msg)
		}
	}
}

func TestUpdateNonQuitCommandDoesNotReturnCmd(t *testing.T) {
	m := newREPLModel()
	m.textInput.SetValue(":help")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}

	if cmd != nil {
		t.Fatalf("expected no command for non-quit input")
	}
	if rm.quitting {
		t.Fatalf("quitting should remain false")
	}
	if !rm.showHelp {
		t.Fatalf("help toggle should be enabled")
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after command")
	}
}

func TestUpdateEnterRecordsHistory(t *testing.T) {
	m := newREPLModel()
	m.textInput.SetValue("a = 40 + 2")

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm := model.(replModel)
	if len(rm.history) != 1 || rm.history[0].output != "a = 42" || rm.history[0].isErr {
		t.Fatalf("unexpected history %+v", rm.history)
	}
	if len(rm.cmdHistory) != 1 || rm.cmdHistory[0] != "a = 40 + 2" {
		t.Fatalf("unexpected command history %v", rm.cmdHistory)
	}
}

func TestEvaluateAssignmentStoresVariable(t *testing.T) {
	m := newREPLModel()

	output, isErr := m.evaluate("score = 42")
	if isErr {
		t.Fatalf("unexpected eval error: %s", output)
	}
	if output != "score = 42" {
		t.Fatalf("unexpected output %q", output)
	}

	score, ok := m.session.Bindings()["score"]
	if !ok {
		t.Fatalf("expected score to be stored in the session")
	}
	if !score.Equal(tiny.NewNumber(42)) {
		t.Fatalf("unexpected score value: %s", score.Inspect())
	}
}

func TestEvaluateExpandsLineBreaks(t *testing.T) {
	m := newREPLModel()

	output, isErr := m.evaluate(`func double(x)\n    return x * 2`)
	if isErr {
		t.Fatalf("unexpected eval error: %s", output)
	}
	if output != "func double" {
		t.Fatalf("unexpected output %q", output)
	}

	output, isErr = m.evaluate("b = double(4)")
	if isErr || output != "b = 8" {
		t.Fatalf("unexpected result %q (error %v)", output, isErr)
	}
}

func TestEvaluateUnchangedBindingsReportOK(t *testing.T) {
	m := newREPLModel()
	if _, isErr := m.evaluate("a = 5"); isErr {
		t.Fatalf("unexpected eval error")
	}
	output, isErr := m.evaluate("a = 5")
	if isErr || output != "ok" {
		t.Fatalf("expected ok, got %q", output)
	}
}

func TestEvaluateErrorKeepsSession(t *testing.T) {
	m := newREPLModel()
	if _, isErr := m.evaluate("a = 1"); isErr {
		t.Fatalf("unexpected eval error")
	}

	output, isErr := m.evaluate(`a = 2\nb = missing`)
	if !isErr {
		t.Fatalf("expected error, got %q", output)
	}
	if !strings.Contains(output, "undefined variable missing") {
		t.Fatalf("unexpected error output %q", output)
	}
	if a := m.session.Bindings()["a"]; !a.Equal(tiny.NewNumber(1)) {
		t.Fatalf("failed entry changed a to %s", a.Inspect())
	}
}

func TestResetCommandClearsSession(t *testing.T) {
	m := newREPLModel()
	if _, isErr := m.evaluate("a = 1"); isErr {
		t.Fatalf("unexpected eval error")
	}
	m, _ = m.handleCommand(":reset")
	if len(m.session.Bindings()) != 0 {
		t.Fatalf("expected empty session after reset")
	}
	if last := m.history[len(m.history)-1]; last.output != "Session reset" {
		t.Fatalf("unexpected history entry %+v", last)
	}
}

func TestAutocompleteSingleMatch(t *testing.T) {
	m := newREPLModel()
	if _, isErr := m.evaluate("counter = 1"); isErr {
		t.Fatalf("unexpected eval error")
	}
	m.textInput.SetValue("b = coun")
	m = m.handleAutocomplete()
	if got := m.textInput.Value(); got != "b = counter" {
		t.Fatalf("unexpected completion %q", got)
	}
}

func TestViewRendersHistory(t *testing.T) {
	m := newREPLModel()
	model, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = model.(replModel)
	m.textInput.SetValue("a = 1")
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(replModel)

	view := m.View()
	if !strings.Contains(view, "TinyScript REPL") || !strings.Contains(view, "a = 1") {
		t.Fatalf("unexpected view %q", view)
	}
}
