package param

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

func parseString(raw string) (Value, error) {
	return StringValue(raw), nil
}

func parseInt(raw string) (Value, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q is not an int", ErrParse, raw)
	}
	return IntValue(int(i)), nil
}

func parseFloat(raw string) (Value, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q is not a float", ErrParse, raw)
	}
	return FloatValue(f), nil
}

func parseBool(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(s, "true"):
		return BoolValue(true), nil
	case strings.EqualFold(s, "false"):
		return BoolValue(false), nil
	case s == "1":
		return BoolValue(true), nil
	case s == "0":
		return BoolValue(false), nil
	}
	return Value{}, fmt.Errorf("%w: %q is not a bool", ErrParse, raw)
}

type vector2JSON struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// parseVector2 accepts {"x":1,"y":2}, "1,2" and "1 2".
func parseVector2(raw string) (Value, error) {
	if strings.Contains(raw, "{") && strings.Contains(raw, "}") {
		var v vector2JSON
		if err := json.Unmarshal([]byte(raw), &v); err == nil && v.X != nil && v.Y != nil {
			return Vector2Value(*v.X, *v.Y), nil
		}
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 2 {
		return Value{}, fmt.Errorf("%w: %q is not a Vector2", ErrParse, raw)
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	if errX != nil || errY != nil {
		return Value{}, fmt.Errorf("%w: %q is not a Vector2", ErrParse, raw)
	}
	return Vector2Value(x, y), nil
}

func enumParser(tag TypeTag, members []string) Parser {
	return func(raw string) (Value, error) {
		s := strings.TrimSpace(raw)
		for i, m := range members {
			if strings.EqualFold(m, s) {
				return EnumValue(Enum{Type: tag, Name: m, Ordinal: i}), nil
			}
		}
		return Value{}, fmt.Errorf("%w: %q is not a member of %s", ErrParse, raw, tag)
	}
}

// Spec is the part of a command schema the record parser needs.
type Spec interface {
	CommandName() string
	ParamNames() []string
	ParamType(name string) (TypeTag, bool)
	IsOptional(name string) bool
	MinParamCount() int
	MaxParamCount() int
}

// TryParseRecordParams validates arity, then parses every declared parameter.
// Any failure rejects the whole record; no partial map is returned. Keys the
// schema does not declare are ignored.
func (t *TypeTable) TryParseRecordParams(raw map[string]string, spec Spec) (Values, error) {
	name := spec.CommandName()
	if n := len(raw); n < spec.MinParamCount() || n > spec.MaxParamCount() {
		return nil, &Error{
			Command: name,
			Err:     fmt.Errorf("%w: got %d, want %d..%d", ErrArity, n, spec.MinParamCount(), spec.MaxParamCount()),
		}
	}

	out := make(Values, len(raw))
	for _, p := range spec.ParamNames() {
		rawValue, present := raw[p]
		if !present {
			if spec.IsOptional(p) {
				continue
			}
			return nil, &Error{Command: name, Param: p, Err: ErrMissingParam}
		}
		tag, ok := spec.ParamType(p)
		if !ok {
			return nil, &Error{Command: name, Param: p, Raw: rawValue, Err: ErrUnresolvedType}
		}
		v, err := t.TryParse(rawValue, tag)
		if err != nil {
			return nil, &Error{Command: name, Param: p, Raw: rawValue, Err: err}
		}
		out[p] = v
	}
	return out, nil
}
