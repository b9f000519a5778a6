package expr

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/canopyclimate/clay/scope"
)

var repeatRe = regexp.MustCompile(`^{{(\w+)\sin\s([\w.]+)}}$`)

// ErrRepeatSyntax matches every *RepeatSyntaxError.
var ErrRepeatSyntax = errors.New("expr: unexpected syntax for repeat")

// A RepeatSyntaxError reports a repeat directive that is not of the form
// "{{item in collection}}".
type RepeatSyntaxError struct {
	Expr string
}

func (e *RepeatSyntaxError) Error() string {
	return fmt.Sprintf("expr: unexpected syntax for repeat: %q", e.Expr)
}

func (e *RepeatSyntaxError) Is(target error) bool { return target == ErrRepeatSyntax }

// A Repeat expands one scope into one child scope per element of a collection.
type Repeat struct {
	source  string
	varName string
	path    []string
}

// CompileRepeat compiles a "{{item in collection}}" directive.
// Whitespace around the directive is ignored.
func CompileRepeat(raw string) (*Repeat, error) {
	src := strings.TrimSpace(raw)
	m := repeatRe.FindStringSubmatch(src)
	if m == nil {
		return nil, &RepeatSyntaxError{Expr: raw}
	}
	return &Repeat{source: src, varName: m[1], path: scope.Split(m[2])}, nil
}

// Var returns the iteration variable name.
func (r *Repeat) Var() string { return r.varName }

// Path returns the dotted path of the collection.
func (r *Repeat) Path() string { return strings.Join(r.path, ".") }

// Source returns the directive text.
func (r *Repeat) Source() string { return r.source }

// Expand returns one shallow clone of parent per element of the collection,
// with the iteration variable bound to that element.
// A missing or non-sequence collection expands to nothing.
func (r *Repeat) Expand(parent scope.Scope) []scope.Scope {
	rv := reflect.ValueOf(scope.Lookup(r.path, parent))
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]scope.Scope, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		child := scope.Clone(parent)
		child[r.varName] = rv.Index(i).Interface()
		out = append(out, child)
	}
	return out
}

// Record returns the transportable form of r.
func (r *Repeat) Record() *Record {
	return newRecord(r.source)
}
