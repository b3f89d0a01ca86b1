package tiny

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Session runs successive chunks of source against one persistent top-level
// state, the way an interactive prompt does. A chunk that fails leaves the
// state as it was before the chunk started.
type Session struct {
	engine *Engine

	mu        sync.Mutex
	variables map[string]Value
	functions map[string]*Function
}

// NewSession creates an empty session. A nil engine uses the default Config.
func NewSession(engine *Engine) *Session {
	if engine == nil {
		engine = NewEngine(Config{})
	}
	return &Session{
		engine:    engine,
		variables: make(map[string]Value),
		functions: make(map[string]*Function),
	}
}

// Exec parses and runs source, committing its effects only on success.
func (s *Session) Exec(ctx context.Context, source string) (Bindings, error) {
	program, err := Parse(source)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	root := newState(maps.Clone(s.variables), maps.Clone(s.functions))
	if err := s.engine.execute(ctx, program, root); err != nil {
		return nil, err
	}
	s.variables = root.variables
	s.functions = root.functions
	return maps.Clone(Bindings(s.variables)), nil
}

// Bindings returns a snapshot of the session's variables.
func (s *Session) Bindings() Bindings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(Bindings(s.variables))
}

// Functions returns the names of the defined functions, sorted.
func (s *Session) Functions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.functions))
}

// Reset forgets every variable and function.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variables = make(map[string]Value)
	s.functions = make(map[string]*Function)
}
