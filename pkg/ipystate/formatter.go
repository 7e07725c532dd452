package ipystate

import (
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"
)

// DefaultFormatter renders primitive values to a human-readable YAML form
// (spec §4.5 "value rendered via a per-type primitive formatter —
// human-readable textual form or compact binary"), falling back to a
// go-spew dump for values YAML cannot marshal safely (channels, funcs).
// It also implements the inverse, internal/change.PrimitiveDecoder, so a
// PrimitiveChange round-trips through the same codec it was written with.
type DefaultFormatter struct{}

// IsPrimitive reports whether v is one of the scalar kinds spec §4.2 calls
// out as constants, or a []byte payload (spec's "compact binary" case).
func (DefaultFormatter) IsPrimitive(v any) bool {
	if v == nil {
		return true
	}

	switch v.(type) {
	case bool, string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// Repr renders v to bytes plus a type-name string.
func (DefaultFormatter) Repr(v any) (data []byte, typeName string, err error) {
	typeName = reflectTypeName(v)

	if b, ok := v.([]byte); ok {
		return append([]byte(nil), b...), typeName, nil
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		return []byte(spew.Sdump(v)), typeName, nil
	}

	return out, typeName, nil
}

// Parse is Repr's inverse for the scalar typeNames DefaultFormatter ever
// produces; anything else is handed back as a generic YAML-decoded value.
// yaml.Unmarshal into a bare any always yields a plain int/float64/bool/
// string regardless of the original width or signedness, so every numeric
// typeName needs its own case to recover the original Go type.
func (DefaultFormatter) Parse(data []byte, typeName string) (any, error) {
	switch typeName {
	case "[]uint8", "[]byte":
		return append([]byte(nil), data...), nil
	case "nil":
		return nil, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("ipystate: parse primitive %s: %w", typeName, err)
	}

	switch typeName {
	case "int", "int8", "int16", "int32", "int64":
		n, err := asInt64(v)
		if err != nil {
			return nil, fmt.Errorf("ipystate: parse primitive %s: %w", typeName, err)
		}

		switch typeName {
		case "int":
			return int(n), nil
		case "int8":
			return int8(n), nil
		case "int16":
			return int16(n), nil
		case "int32":
			return int32(n), nil
		default:
			return n, nil
		}
	case "uint", "uint8", "uint16", "uint32", "uint64":
		n, err := asUint64(v)
		if err != nil {
			return nil, fmt.Errorf("ipystate: parse primitive %s: %w", typeName, err)
		}

		switch typeName {
		case "uint":
			return uint(n), nil
		case "uint8":
			return uint8(n), nil
		case "uint16":
			return uint16(n), nil
		case "uint32":
			return uint32(n), nil
		default:
			return n, nil
		}
	case "float32":
		f, err := asFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("ipystate: parse primitive %s: %w", typeName, err)
		}

		return float32(f), nil
	case "float64":
		f, err := asFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("ipystate: parse primitive %s: %w", typeName, err)
		}

		return f, nil
	default:
		return v, nil
	}
}

// asInt64 coerces a generically YAML-decoded scalar (int, uint64 or
// float64, depending on the literal's shape) to int64.
func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected decoded type %T for an integer value", v)
	}
}

// asUint64 coerces a generically YAML-decoded scalar to uint64.
func asUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case int:
		return uint64(n), nil
	case int64:
		return uint64(n), nil
	case uint64:
		return n, nil
	case float64:
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("unexpected decoded type %T for an unsigned integer value", v)
	}
}

// asFloat64 coerces a generically YAML-decoded scalar to float64. YAML
// renders an integral float (e.g. 3.0) without a decimal point, so an
// exact-valued float round-trips back through yaml.Unmarshal as a plain int.
func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unexpected decoded type %T for a float value", v)
	}
}

func reflectTypeName(v any) string {
	if v == nil {
		return "nil"
	}

	return reflect.TypeOf(v).String()
}

// DiffPreview renders a human-readable diff between two primitive
// payloads, used by cmd/ipystatectl's report command to summarize a
// PrimitiveChange without printing full payloads.
func DiffPreview(before, after []byte) string {
	dmp := diffmatchpatch.New()

	diffs := dmp.DiffMain(string(before), string(after), false)

	return dmp.DiffPrettyText(diffs)
}
