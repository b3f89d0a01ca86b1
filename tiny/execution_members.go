package tiny

import "strings"

type methodKey struct {
	kind ValueKind
	name string
}

type builtinMethod struct {
	params []ValueKind
	fn     func(receiver Value, args []Value) Value
}

var builtinMethods = map[methodKey]builtinMethod{
	{KindText, "starts_with"}: {
		params: []ValueKind{KindText},
		fn: func(receiver Value, args []Value) Value {
			return NewBool(strings.HasPrefix(receiver.Text(), args[0].Text()))
		},
	},
}

func (exec *Execution) getMember(obj Value, property string, pos Position) (Value, error) {
	if property == "length" {
		if n, ok := obj.Len(); ok {
			return NewNumber(float64(n)), nil
		}
	}
	return Value{}, exec.errorAt(kindTypeError, pos, "unknown member %s for %s", property, obj.Kind())
}

func (exec *Execution) callMethod(receiver Value, name string, args []Value, pos Position) (Value, error) {
	method, ok := builtinMethods[methodKey{receiver.Kind(), name}]
	if !ok {
		return Value{}, exec.errorAt(kindTypeError, pos, "unknown method %s for %s", name, receiver.Kind())
	}
	if len(args) != len(method.params) {
		return Value{}, exec.errorAt(kindArityError, pos, "%s.%s expects %d argument(s), got %d", receiver.Kind(), name, len(method.params), len(args))
	}
	for i, want := range method.params {
		if args[i].Kind() != want {
			return Value{}, exec.errorAt(kindTypeError, pos, "%s.%s argument %d must be %s, got %s", receiver.Kind(), name, i+1, want, args[i].Kind())
		}
	}
	return method.fn(receiver, args), nil
}
