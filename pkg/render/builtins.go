package render

import (
	"fmt"
	"reflect"
	"strings"
)

var keywords = map[string]struct{}{
	"if": {}, "unless": {}, "each": {}, "each-in": {}, "let": {}, "yield": {},
	"component": {}, "has-block": {}, "else": {}, "this": {},
}

// IsKeyword reports whether name is handled by the template runtime itself
// and cannot be registered as a helper.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

// builtins are plain helpers available to every template. Registered
// helpers with the same name take precedence.
var builtins = map[string]Helper{
	"concat": func(params []any, _ map[string]any) (any, error) {
		var b strings.Builder
		for _, p := range params {
			b.WriteString(Stringify(p))
		}
		return b.String(), nil
	},
	"eq": func(params []any, _ map[string]any) (any, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("eq expects 2 params, got %d", len(params))
		}
		return equal(params[0], params[1]), nil
	},
	"not": func(params []any, _ map[string]any) (any, error) {
		for _, p := range params {
			if Truthy(p) {
				return false, nil
			}
		}
		return true, nil
	},
	"and": func(params []any, _ map[string]any) (any, error) {
		var last any = true
		for _, p := range params {
			if !Truthy(p) {
				return p, nil
			}
			last = p
		}
		return last, nil
	},
	"or": func(params []any, _ map[string]any) (any, error) {
		var last any
		for _, p := range params {
			if Truthy(p) {
				return p, nil
			}
			last = p
		}
		return last, nil
	},
	"array": func(params []any, _ map[string]any) (any, error) {
		out := make([]any, len(params))
		copy(out, params)
		return out, nil
	},
	"hash": func(_ []any, hash map[string]any) (any, error) {
		out := make(map[string]any, len(hash))
		for k, v := range hash {
			out[k] = v
		}
		return out, nil
	},
	"html-safe": func(params []any, _ map[string]any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("html-safe expects 1 param, got %d", len(params))
		}
		return SafeString(Stringify(params[0])), nil
	},
}

func equal(a, b any) bool {
	if an, ok := toFloat(a); ok {
		if bn, ok := toFloat(b); ok {
			return an == bn
		}
	}
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
