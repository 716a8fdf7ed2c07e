package engine

import (
	"fmt"
	"strconv"
)

// stringPairs interprets host-provided environment or property data. Nil and
// empty collections yield a nil map. Anything that is not a flat collection
// of string keys and scalar values yields ErrMalformedProperties.
func stringPairs(v any) (map[string]string, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		if len(m) == 0 {
			return nil, nil
		}
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, nil
	case map[string]any:
		if len(m) == 0 {
			return nil, nil
		}
		out := make(map[string]string, len(m))
		for k, val := range m {
			s, ok := scalarString(val)
			if !ok {
				return nil, fmt.Errorf("%w: key %q holds %T", ErrMalformedProperties, k, val)
			}
			out[k] = s
		}
		return out, nil
	case map[any]any:
		if len(m) == 0 {
			return nil, nil
		}
		out := make(map[string]string, len(m))
		for k, val := range m {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: key %v is %T, not string", ErrMalformedProperties, k, k)
			}
			s, ok := scalarString(val)
			if !ok {
				return nil, fmt.Errorf("%w: key %q holds %T", ErrMalformedProperties, key, val)
			}
			out[key] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a string-keyed collection", ErrMalformedProperties, v)
	}
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val), true
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), true
	default:
		return "", false
	}
}
