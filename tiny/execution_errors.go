package tiny

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSyntax    = errors.New("syntax error")
	ErrType      = errors.New("type error")
	ErrArity     = errors.New("arity error")
	ErrName      = errors.New("name error")
	ErrIndex     = errors.New("index error")
	ErrStructure = errors.New("structure error")
	ErrLimit     = errors.New("limit error")
)

const (
	kindTypeError      = "TypeError"
	kindArityError     = "ArityError"
	kindNameError      = "NameError"
	kindIndexError     = "IndexError"
	kindStructureError = "StructureError"
	kindLimitError     = "LimitError"

	runtimeErrorFrameHead = 8
	runtimeErrorFrameTail = 8
)

var runtimeErrorSentinels = map[string]error{
	kindTypeError:      ErrType,
	kindArityError:     ErrArity,
	kindNameError:      ErrName,
	kindIndexError:     ErrIndex,
	kindStructureError: ErrStructure,
	kindLimitError:     ErrLimit,
}

type StackFrame struct {
	Function string
	Pos      Position
}

// RuntimeError is raised while evaluating a parsed program. Frames lists the
// innermost frame first.
type RuntimeError struct {
	Type      string
	Message   string
	Pos       Position
	CodeFrame string
	Frames    []StackFrame
}

func (re *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(re.Type)
	b.WriteString(": ")
	b.WriteString(re.Message)
	if re.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(re.CodeFrame)
	}
	renderFrame := func(frame StackFrame) {
		if frame.Pos.Line > 0 && frame.Pos.Column > 0 {
			fmt.Fprintf(&b, "\n  at %s (%d:%d)", frame.Function, frame.Pos.Line, frame.Pos.Column)
		} else if frame.Pos.Line > 0 {
			fmt.Fprintf(&b, "\n  at %s (line %d)", frame.Function, frame.Pos.Line)
		} else {
			fmt.Fprintf(&b, "\n  at %s", frame.Function)
		}
	}

	if len(re.Frames) <= runtimeErrorFrameHead+runtimeErrorFrameTail {
		for _, frame := range re.Frames {
			renderFrame(frame)
		}
		return b.String()
	}

	for _, frame := range re.Frames[:runtimeErrorFrameHead] {
		renderFrame(frame)
	}
	omitted := len(re.Frames) - (runtimeErrorFrameHead + runtimeErrorFrameTail)
	fmt.Fprintf(&b, "\n  ... %d frames omitted ...", omitted)
	for _, frame := range re.Frames[len(re.Frames)-runtimeErrorFrameTail:] {
		renderFrame(frame)
	}
	return b.String()
}

// Is matches the sentinel for the error's Type.
func (re *RuntimeError) Is(target error) bool {
	sentinel, ok := runtimeErrorSentinels[re.Type]
	return ok && target == sentinel
}

func (exec *Execution) errorAt(kind string, pos Position, format string, args ...any) error {
	return exec.newRuntimeError(kind, fmt.Sprintf(format, args...), pos)
}

func (exec *Execution) newRuntimeError(kind, message string, pos Position) error {
	frames := make([]StackFrame, 0, len(exec.callStack)+1)
	if len(exec.callStack) > 0 {
		// the failing position inside the current function, then each call site
		current := exec.callStack[len(exec.callStack)-1]
		frames = append(frames, StackFrame{Function: current.Function, Pos: pos})
		for i := len(exec.callStack) - 1; i >= 0; i-- {
			frames = append(frames, StackFrame(exec.callStack[i]))
		}
	} else {
		frames = append(frames, StackFrame{Function: "<script>", Pos: pos})
	}

	codeFrame := ""
	if exec.program != nil {
		if exec.lines == nil {
			lines := newLineTable(exec.program.source)
			exec.lines = &lines
		}
		codeFrame = exec.lines.codeFrame(pos)
	}
	return &RuntimeError{Type: kind, Message: message, Pos: pos, CodeFrame: codeFrame, Frames: frames}
}
