package tiny

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

const defaultRecursionLimit = 1000

// Config controls interpreter execution bounds and call semantics.
type Config struct {
	// StepQuota caps the number of evaluation steps per run. Zero means
	// unlimited.
	StepQuota int
	// RecursionLimit caps the depth of nested function calls.
	RecursionLimit int
	// IsolatedCalls starts every call with an empty function table, so a
	// function body cannot call other functions.
	IsolatedCalls bool
	Logger        *slog.Logger
}

// Engine executes TinyScript programs. It holds no per-run state and may be
// shared between goroutines.
type Engine struct {
	config Config
	logger *slog.Logger
}

// NewEngine constructs an Engine, filling in defaults for unset limits.
func NewEngine(cfg Config) *Engine {
	if cfg.StepQuota < 0 {
		cfg.StepQuota = 0
	}
	if cfg.RecursionLimit <= 0 {
		cfg.RecursionLimit = defaultRecursionLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{config: cfg, logger: logger}
}

// Run executes program with a default engine and returns the final
// top-level bindings.
func Run(program *Program) (Bindings, error) {
	return NewEngine(Config{}).Run(context.Background(), program)
}

// Run executes program against a fresh top-level state and returns its final
// variables. No bindings are returned when execution fails.
func (e *Engine) Run(ctx context.Context, program *Program) (Bindings, error) {
	root := newState(nil, nil)
	if err := e.execute(ctx, program, root); err != nil {
		return nil, err
	}
	return Bindings(root.variables), nil
}

// Exec parses and runs source in one step.
func (e *Engine) Exec(ctx context.Context, source string) (Bindings, error) {
	program, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, program)
}

func (e *Engine) execute(ctx context.Context, program *Program, root *state) error {
	if program == nil {
		return errors.New("tiny: nil program")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	exec := &Execution{
		engine:  e,
		program: program,
		ctx:     ctx,
		quota:   e.config.StepQuota,
		root:    root,
	}
	e.logger.Debug("run started", "statements", len(program.Statements))
	_, err := exec.execStatements(program.Statements, root)
	if err != nil {
		e.logger.Debug("run failed", "steps", exec.steps, "error", err)
		return err
	}
	e.logger.Debug("run finished", "steps", exec.steps, "variables", len(root.variables))
	return nil
}

// ConfigSummary provides a human-readable description of the interpreter limits.
func (e *Engine) ConfigSummary() string {
	quota := "unlimited"
	if e.config.StepQuota > 0 {
		quota = fmt.Sprintf("%d", e.config.StepQuota)
	}
	return fmt.Sprintf("steps=%s recursion=%d isolated_calls=%t", quota, e.config.RecursionLimit, e.config.IsolatedCalls)
}
