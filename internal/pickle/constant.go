package pickle

import (
	"fmt"
	"io"
	"math"
)

// constTag identifies the Go type of an encoded Constant leaf so Unpickler
// can reconstruct the exact original type rather than a generic any.
type constTag byte

const (
	tagNil constTag = iota
	tagBool
	tagInt64
	tagUint64
	tagFloat64
	tagString
	tagBytes
)

// encodeConstant writes the scalar leaf v (spec §4.2 "Constants": None,
// bool, int, float, bytes, str) to w.
func encodeConstant(w io.Writer, v any) error {
	switch val := v.(type) {
	case nil:
		_, err := w.Write([]byte{byte(tagNil)})

		return err
	case bool:
		b := byte(0)
		if val {
			b = 1
		}

		if _, err := w.Write([]byte{byte(tagBool), b}); err != nil {
			return err
		}

		return nil
	case string:
		if _, err := w.Write([]byte{byte(tagString)}); err != nil {
			return err
		}

		return writeString(w, val)
	case []byte:
		if _, err := w.Write([]byte{byte(tagBytes)}); err != nil {
			return err
		}

		return writeBytes(w, val)
	default:
		if i, ok := asInt64(v); ok {
			if _, err := w.Write([]byte{byte(tagInt64)}); err != nil {
				return err
			}

			return writeVarint(w, uint64(i))
		}

		if u, ok := asUint64(v); ok {
			if _, err := w.Write([]byte{byte(tagUint64)}); err != nil {
				return err
			}

			return writeVarint(w, u)
		}

		if f, ok := asFloat64(v); ok {
			if _, err := w.Write([]byte{byte(tagFloat64)}); err != nil {
				return err
			}

			return writeVarint(w, math.Float64bits(f))
		}

		return fmt.Errorf("pickle: %w: unsupported constant type %T", errUnsupportedConstant, v)
	}
}

// decodeConstant reads a scalar leaf encoded by encodeConstant.
func decodeConstant(r interface {
	io.Reader
	io.ByteReader
},
) (any, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("pickle: read constant tag: %w", err)
	}

	switch constTag(tagByte) {
	case tagNil:
		return nil, nil
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}

		return b != 0, nil
	case tagInt64:
		u, err := readVarint(r)
		if err != nil {
			return nil, err
		}

		return int64(u), nil
	case tagUint64:
		u, err := readVarint(r)

		return u, err
	case tagFloat64:
		u, err := readVarint(r)
		if err != nil {
			return nil, err
		}

		return math.Float64frombits(u), nil
	case tagString:
		return readString(r)
	case tagBytes:
		return readBytes(r)
	default:
		return nil, fmt.Errorf("pickle: %w: tag %d", errUnsupportedConstant, tagByte)
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case uintptr:
		return uint64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
