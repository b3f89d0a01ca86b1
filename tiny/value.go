package tiny

type ValueKind int

const (
	KindArray ValueKind = iota + 1
	KindBool
	KindNumber
	KindText
)

// Value is a runtime datum. The zero Value is invalid and only appears when
// a host forgets to construct one.
type Value struct {
	kind ValueKind
	data any
}

func NewArray(elements []Value) Value {
	if elements == nil {
		elements = []Value{}
	}
	return Value{kind: KindArray, data: elements}
}

func NewBool(b bool) Value { return Value{kind: KindBool, data: b} }

func NewNumber(n float64) Value { return Value{kind: KindNumber, data: n} }

func NewText(s string) Value { return Value{kind: KindText, data: s} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) Array() []Value {
	elems, _ := v.data.([]Value)
	return elems
}

func (v Value) Bool() bool {
	b, _ := v.data.(bool)
	return b
}

func (v Value) Number() float64 {
	n, _ := v.data.(float64)
	return n
}

func (v Value) Text() string {
	s, _ := v.data.(string)
	return s
}
