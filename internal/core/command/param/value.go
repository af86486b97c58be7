package param

import (
	"fmt"
	"strconv"
)

// Kind identifies which member of the Value union is populated.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindVector2
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindVector2:
		return "Vector2"
	case KindEnum:
		return "enum"
	default:
		return "invalid"
	}
}

// Vector2 is a 2-component float pair.
type Vector2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vector2) Scale(f float64) Vector2 { return Vector2{X: v.X * f, Y: v.Y * f} }

func (v Vector2) String() string {
	return strconv.FormatFloat(v.X, 'g', -1, 64) + "," + strconv.FormatFloat(v.Y, 'g', -1, 64)
}

// Enum is a resolved member of a named enum type.
type Enum struct {
	Type    TypeTag
	Name    string
	Ordinal int
}

// Value is a typed parameter produced once at parse time.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	vec  Vector2
	enum Enum
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func IntValue(i int) Value { return Value{kind: KindInt, num: int64(i)} }

func FloatValue(f float64) Value { return Value{kind: KindFloat, flt: f} }

func BoolValue(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

func Vector2Value(x, y float64) Value { return Value{kind: KindVector2, vec: Vector2{X: x, Y: y}} }

func EnumValue(e Enum) Value { return Value{kind: KindEnum, enum: e} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsInt() (int, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int(v.num), true
}

// AsFloat also accepts int values, widening them.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.flt, true
	case KindInt:
		return float64(v.num), true
	default:
		return 0, false
	}
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.num != 0, true
}

func (v Value) AsVector2() (Vector2, bool) {
	if v.kind != KindVector2 {
		return Vector2{}, false
	}
	return v.vec, true
}

func (v Value) AsEnum() (Enum, bool) {
	if v.kind != KindEnum {
		return Enum{}, false
	}
	return v.enum, true
}

// String renders the value in a form TryParse accepts for the same tag.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.num != 0)
	case KindVector2:
		return v.vec.String()
	case KindEnum:
		return v.enum.Name
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// Values is the typed parameter map of one record.
type Values map[string]Value

func (vs Values) Has(key string) bool {
	_, ok := vs[key]
	return ok
}

func (vs Values) String(key string) (string, bool) {
	v, ok := vs[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}

func (vs Values) Int(key string) (int, bool) {
	v, ok := vs[key]
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

func (vs Values) Float(key string) (float64, bool) {
	v, ok := vs[key]
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

func (vs Values) Bool(key string) (bool, bool) {
	v, ok := vs[key]
	if !ok {
		return false, false
	}
	return v.AsBool()
}

func (vs Values) Vector2(key string) (Vector2, bool) {
	v, ok := vs[key]
	if !ok {
		return Vector2{}, false
	}
	return v.AsVector2()
}

func (vs Values) Enum(key string) (Enum, bool) {
	v, ok := vs[key]
	if !ok {
		return Enum{}, false
	}
	return v.AsEnum()
}
