// Package scope resolves dotted property paths against caller-owned data.
//
// A Scope is the root of an arbitrary, mutable object tree. Lookups never
// fail: a path that runs into a missing or nil value resolves to the empty
// string so that templates keep rendering while data is still being filled in.
package scope

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

// Scope is the data a template is rendered against.
type Scope map[string]any

// ErrEmptyPath is returned by Set when the path has no segments.
var ErrEmptyPath = errors.New("scope: empty path")

// Split splits a dotted path into its segments.
// Surrounding whitespace is ignored, so "{{ user.name }}" and
// "{{user.name}}" name the same path.
func Split(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Resolve walks path one segment at a time starting at s.
// If any value along the way is nil or missing, Resolve stops and returns "".
func Resolve(path string, s any) any {
	return Lookup(Split(path), s)
}

// Lookup is Resolve for a pre-split path.
// An empty segment ends the walk and yields the value reached so far.
func Lookup(segs []string, s any) any {
	v := s
	for _, seg := range segs {
		if seg == "" {
			break
		}
		v = field(v, seg)
		if v == nil {
			return ""
		}
	}
	if v == nil {
		return ""
	}
	return v
}

// Clone returns a shallow copy of s.
func Clone(s Scope) Scope {
	if s == nil {
		return Scope{}
	}
	return maps.Clone(s)
}

// Set stores v at path, creating intermediate maps as needed.
// Intermediate values must be maps; Set does not assign into structs or slices.
func Set(s Scope, path string, v any) error {
	segs := Split(path)
	if len(segs) == 0 {
		return ErrEmptyPath
	}
	m := map[string]any(s)
	for _, seg := range segs[:len(segs)-1] {
		switch next := m[seg].(type) {
		case nil:
			child := make(map[string]any)
			m[seg] = child
			m = child
		case map[string]any:
			m = next
		case Scope:
			m = next
		default:
			return fmt.Errorf("scope: cannot set %q: %q holds %T", path, seg, next)
		}
	}
	m[segs[len(segs)-1]] = v
	return nil
}

func field(v any, name string) any {
	switch m := v.(type) {
	case Scope:
		return m[name]
	case map[string]any:
		return m[name]
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil
		}
		return valueOf(rv.MapIndex(reflect.ValueOf(name).Convert(kt)))
	case reflect.Struct:
		return valueOf(structField(rv, name))
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil
		}
		return valueOf(rv.Index(i))
	}
	return nil
}

// structField finds an exported field by Go name, falling back to its json tag.
func structField(rv reflect.Value, name string) reflect.Value {
	if f, ok := rv.Type().FieldByName(name); ok && f.IsExported() {
		fv, err := rv.FieldByIndexErr(f.Index)
		if err != nil {
			return reflect.Value{}
		}
		return fv
	}
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name {
			return rv.Field(i)
		}
	}
	return reflect.Value{}
}

func valueOf(x reflect.Value) any {
	if !x.IsValid() || !x.CanInterface() {
		return nil
	}
	switch x.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if x.IsNil() {
			return nil
		}
	}
	return x.Interface()
}
