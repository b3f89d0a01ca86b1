package tiny

import (
	"maps"
	"slices"
)

// state is one scope: the top level of a run, or a single function call.
type state struct {
	variables map[string]Value
	functions map[string]*Function
}

func newState(variables map[string]Value, functions map[string]*Function) *state {
	if variables == nil {
		variables = make(map[string]Value)
	}
	if functions == nil {
		functions = make(map[string]*Function)
	}
	return &state{variables: variables, functions: functions}
}

// Bindings maps top-level variable names to their final values.
type Bindings map[string]Value

// Names returns the bound names in sorted order.
func (b Bindings) Names() []string {
	return slices.Sorted(maps.Keys(b))
}

// Interface converts every value to plain Go data, see Value.Interface.
func (b Bindings) Interface() map[string]any {
	out := make(map[string]any, len(b))
	for name, val := range b {
		out[name] = val.Interface()
	}
	return out
}
