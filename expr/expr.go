// Package expr compiles the two directive forms the template language
// understands: "{{dotted.path}}" interpolation and the
// "{{item in collection}}" repeat expression.
//
// Compiled evaluators hold a small expression tree rather than generated
// code. They never look at a scope while being built and may be evaluated
// any number of times against different scopes.
package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/canopyclimate/clay/scope"
)

// Kind identifies the variant of an Expr.
type Kind uint8

const (
	KindLiteral Kind = iota
	KindPath
	KindConcat
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindPath:
		return "path"
	case KindConcat:
		return "concat"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Expr is a node of a compiled expression tree.
type Expr struct {
	Kind  Kind
	Text  string   // KindLiteral
	Path  []string // KindPath
	Parts []*Expr  // KindConcat
}

// Eval appends the value of e against s to b.
func (e *Expr) Eval(b *strings.Builder, s scope.Scope) {
	switch e.Kind {
	case KindLiteral:
		b.WriteString(e.Text)
	case KindPath:
		appendValue(b, scope.Lookup(e.Path, s))
	case KindConcat:
		for _, p := range e.Parts {
			p.Eval(b, s)
		}
	}
}

// String returns template source equivalent to e.
func (e *Expr) String() string {
	switch e.Kind {
	case KindLiteral:
		return e.Text
	case KindPath:
		return "{{" + strings.Join(e.Path, ".") + "}}"
	case KindConcat:
		var b strings.Builder
		for _, p := range e.Parts {
			b.WriteString(p.String())
		}
		return b.String()
	}
	return ""
}

// appendValue writes the interpolated form of v.
// Strings and numbers are written as-is and sequences are joined with
// commas. Every other type, including bool, contributes nothing.
func appendValue(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		return
	case string:
		b.WriteString(v)
		return
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		b.WriteString(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32:
		b.WriteString(formatFloat(rv.Float(), 32))
	case reflect.Float64:
		b.WriteString(formatFloat(rv.Float(), 64))
	case reflect.Slice, reflect.Array:
		appendSeq(b, rv)
	}
}

// formatFloat writes f the way a browser prints a number: the shortest
// decimal form, switching to exponent notation below 1e-6 and from 1e21 on.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if a := math.Abs(f); a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
	s := strconv.FormatFloat(f, 'e', -1, bits)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

func appendSeq(b *strings.Builder, rv reflect.Value) {
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		appendElem(b, rv.Index(i))
	}
}

func appendElem(b *strings.Builder, ev reflect.Value) {
	for ev.Kind() == reflect.Interface || ev.Kind() == reflect.Pointer {
		if ev.IsNil() {
			return
		}
		ev = ev.Elem()
	}
	switch ev.Kind() {
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(ev.Bool()))
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Slice, reflect.Array:
		if ev.CanInterface() {
			appendValue(b, ev.Interface())
		}
	default:
		if ev.CanInterface() {
			fmt.Fprint(b, ev.Interface())
		}
	}
}
