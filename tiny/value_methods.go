package tiny

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func (k ValueKind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// String renders the value for display: text is written raw, everything
// nested inside an array is rendered with Inspect.
func (v Value) String() string {
	if v.kind == KindText {
		return v.Text()
	}
	return v.Inspect()
}

// Inspect renders the value the way it would be written in source, quoting
// text.
func (v Value) Inspect() string {
	switch v.kind {
	case KindArray:
		elems := v.Array()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.Inspect()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.Number())
	case KindText:
		return strconv.Quote(v.Text())
	default:
		return "<invalid>"
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

// Equal reports structural equality. Values of different kinds are never
// equal and NaN is not equal to itself.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindArray:
		a, b := v.Array(), other.Array()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case KindBool:
		return v.Bool() == other.Bool()
	case KindNumber:
		return v.Number() == other.Number()
	case KindText:
		return v.Text() == other.Text()
	default:
		return false
	}
}

// Len returns the byte length of text or the element count of an array.
func (v Value) Len() (int, bool) {
	switch v.kind {
	case KindArray:
		return len(v.Array()), true
	case KindText:
		return len(v.Text()), true
	default:
		return 0, false
	}
}

// Index returns the element at position i of an array.
func (v Value) Index(i int) (Value, bool) {
	elems := v.Array()
	if v.kind != KindArray || i < 0 || i >= len(elems) {
		return Value{}, false
	}
	return elems[i], true
}

// Interface converts the value to plain Go data: []any, bool, float64 or
// string.
func (v Value) Interface() any {
	switch v.kind {
	case KindArray:
		elems := v.Array()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = e.Interface()
		}
		return out
	case KindBool:
		return v.Bool()
	case KindNumber:
		return v.Number()
	case KindText:
		return v.Text()
	default:
		return nil
	}
}
