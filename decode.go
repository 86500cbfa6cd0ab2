package formts

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Decoder narrows an arbitrary input to the value type a field stores.
// Decoders are pure; a failed decode leaves form state untouched.
type Decoder func(v any) (any, error)

func decodeError(want string, v any) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrDecode, want, v)
}

func decodeString(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, decodeError("string", v)
	}
	return s, nil
}

// decodeNumber accepts numeric values and numeric strings. The empty string
// is kept as-is so an untouched number input stays blank.
func decodeNumber(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return nil, decodeError("number", v)
		}
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return f, nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return "", nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return nil, fmt.Errorf("%w: %q is not a number", ErrDecode, n)
		}
		return f, nil
	default:
		return nil, decodeError("number", v)
	}
}

func decodeBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a bool", ErrDecode, b)
		}
		return parsed, nil
	default:
		return nil, decodeError("bool", v)
	}
}

// decodeDate accepts time.Time, RFC 3339 strings and nil (no date chosen).
func decodeDate(v any) (any, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return d, nil
	case *time.Time:
		if d == nil {
			return nil, nil
		}
		return *d, nil
	case string:
		if d == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return t, nil
	default:
		return nil, decodeError("date", v)
	}
}

func choiceDecoder(values []string) Decoder {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, decodeError("string", v)
		}
		if !slices.Contains(values, s) {
			return nil, fmt.Errorf("%w: %q is not one of %v", ErrDecode, s, values)
		}
		return s, nil
	}
}

func objectDecoder(props []Property) Decoder {
	return func(v any) (any, error) {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, decodeError("object", v)
		}
		out := make(map[string]any, len(props))
		for _, p := range props {
			raw, present := m[p.Name]
			if !present {
				out[p.Name] = p.Node.Defaults()
				continue
			}
			decoded, err := p.Node.Decode(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name, err)
			}
			out[p.Name] = decoded
		}
		return out, nil
	}
}

func arrayDecoder(elem *Node) Decoder {
	return func(v any) (any, error) {
		var items []any
		switch a := v.(type) {
		case []any:
			items = a
		case []string:
			items = make([]any, len(a))
			for i, s := range a {
				items[i] = s
			}
		case nil:
			return []any{}, nil
		default:
			return nil, decodeError("array", v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			decoded, err := elem.Decode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = decoded
		}
		return out, nil
	}
}
