package component

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Getter lets a component expose computed properties to templates without
// reflection.
type Getter interface {
	Get(key string) (any, bool)
}

// TagName is the struct tag consulted before field names.
const TagName = "glimmer"

// Property resolves key on obj. Lookup order: Getter, string-keyed maps,
// slice length and indices, struct fields (tagged first, then by name with the
// first letter upper-cased, then case-insensitively), and finally zero-arg
// methods returning a value or (value, error).
func Property(obj any, key string) (any, bool) {
	if obj == nil || key == "" {
		return nil, false
	}
	if getter, ok := obj.(Getter); ok {
		return getter.Get(key)
	}
	if m, ok := obj.(map[string]any); ok {
		v, found := m[key]
		return v, found
	}

	rv := reflect.ValueOf(obj)
	if v, ok := methodValue(rv, key); ok {
		return v, true
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array, reflect.String:
		if key == "length" {
			return rv.Len(), true
		}
		if rv.Kind() == reflect.String {
			return nil, false
		}
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	case reflect.Struct:
		index, ok := fieldIndex(rv.Type(), key)
		if !ok {
			return nil, false
		}
		field, err := rv.FieldByIndexErr(index)
		if err != nil {
			return nil, false
		}
		return field.Interface(), true
	}
	return nil, false
}

// Path resolves a dotted tail against obj. A missing segment yields nil.
func Path(obj any, tail []string) any {
	current := obj
	for _, key := range tail {
		v, ok := Property(current, key)
		if !ok {
			return nil
		}
		current = v
	}
	return current
}

func methodValue(rv reflect.Value, key string) (any, bool) {
	if !rv.IsValid() {
		return nil, false
	}
	name := exportedName(key)
	if name == "" {
		return nil, false
	}
	method := rv.MethodByName(name)
	if !method.IsValid() {
		return nil, false
	}
	mt := method.Type()
	if mt.NumIn() != 0 || mt.NumOut() == 0 || mt.NumOut() > 2 {
		return nil, false
	}
	if mt.NumOut() == 2 && !mt.Out(1).Implements(errorType) {
		return nil, false
	}
	out := method.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, false
	}
	return out[0].Interface(), true
}

var (
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
	fieldCache sync.Map // fieldKey -> []int
)

type fieldKey struct {
	typ reflect.Type
	key string
}

func fieldIndex(t reflect.Type, key string) ([]int, bool) {
	cacheKey := fieldKey{typ: t, key: key}
	if cached, ok := fieldCache.Load(cacheKey); ok {
		index, _ := cached.([]int)
		return index, index != nil
	}

	index := lookupField(t, key)
	fieldCache.Store(cacheKey, index)
	return index, index != nil
}

func lookupField(t reflect.Type, key string) []int {
	fields := reflect.VisibleFields(t)
	for _, f := range fields {
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get(TagName), ",")
		if tag == key {
			return f.Index
		}
	}
	if name := exportedName(key); name != "" {
		for _, f := range fields {
			if f.IsExported() && !f.Anonymous && f.Name == name && f.Tag.Get(TagName) != "-" {
				return f.Index
			}
		}
	}
	for _, f := range fields {
		if f.IsExported() && !f.Anonymous && strings.EqualFold(f.Name, key) && f.Tag.Get(TagName) != "-" {
			return f.Index
		}
	}
	return nil
}

func exportedName(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return ""
	}
	return string(unicode.ToUpper(r)) + key[size:]
}
