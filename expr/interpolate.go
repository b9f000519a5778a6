package expr

import (
	"regexp"
	"strings"

	"github.com/canopyclimate/clay/scope"
)

var (
	markerRe   = regexp.MustCompile(`{{[^{}]+}}`)
	controlRe  = regexp.MustCompile(`[\r\n\t]`)
	collapseRe = regexp.MustCompile(`\s{2,}`)
)

// HasMarker reports whether raw contains at least one "{{...}}" marker.
func HasMarker(raw string) bool {
	return markerRe.MatchString(raw)
}

// An Interpolation evaluates a string containing "{{path}}" markers.
type Interpolation struct {
	source string
	body   *Expr
}

// Compile compiles raw into an Interpolation.
// It returns nil if raw contains no marker; such strings are used verbatim.
//
// Before parsing, carriage returns, newlines and tabs become spaces and runs
// of whitespace collapse to a single space.
func Compile(raw string) *Interpolation {
	if !HasMarker(raw) {
		return nil
	}
	src := collapseRe.ReplaceAllString(controlRe.ReplaceAllString(raw, " "), " ")
	return &Interpolation{source: src, body: parse(src)}
}

func parse(src string) *Expr {
	body := &Expr{Kind: KindConcat}
	last := 0
	for _, loc := range markerRe.FindAllStringIndex(src, -1) {
		if loc[0] > last {
			body.Parts = append(body.Parts, &Expr{Kind: KindLiteral, Text: src[last:loc[0]]})
		}
		path := src[loc[0]+2 : loc[1]-2]
		body.Parts = append(body.Parts, &Expr{Kind: KindPath, Path: scope.Split(path)})
		last = loc[1]
	}
	if last < len(src) {
		body.Parts = append(body.Parts, &Expr{Kind: KindLiteral, Text: src[last:]})
	}
	return body
}

// Eval returns the interpolated string for s.
// Missing values contribute nothing.
func (in *Interpolation) Eval(s scope.Scope) string {
	var b strings.Builder
	in.body.Eval(&b, s)
	return b.String()
}

// Source returns the normalized directive text.
func (in *Interpolation) Source() string { return in.source }

// Body returns the expression tree. It must not be modified.
func (in *Interpolation) Body() *Expr { return in.body }

// Paths returns the distinct dotted paths referenced by in, in source order.
func (in *Interpolation) Paths() []string {
	var paths []string
	seen := make(map[string]bool)
	for _, p := range in.body.Parts {
		if p.Kind != KindPath {
			continue
		}
		path := strings.Join(p.Path, ".")
		if seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	return paths
}

// Record returns the transportable form of in.
func (in *Interpolation) Record() *Record {
	return newRecord(in.source)
}
