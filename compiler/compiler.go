// Package compiler turns parsed template markup into a compiled structure
// and materializes virtual trees from it.
//
// Compilation happens once per template. Every attribute and text run that
// contains a "{{...}}" marker gets a pre-built evaluator; the repeat
// attribute gets a repeat evaluator; attributes named after a registered
// helper become hooks. The parsed markup is never modified.
package compiler

import (
	"fmt"
	"log"

	"github.com/canopyclimate/clay/expr"
	"github.com/canopyclimate/clay/markup"
	"github.com/canopyclimate/clay/scope"
	"github.com/canopyclimate/clay/vdom"
)

// DefaultRepeatAttr is the attribute that marks a repeating element.
const DefaultRepeatAttr = "cl-repeat"

// Helpers maps helper attribute names to the hooks they install.
type Helpers map[string]vdom.Hook

// Options configure compilation.
type Options struct {
	Helpers    Helpers
	RepeatAttr string      // defaults to DefaultRepeatAttr
	Logger     *log.Logger // receives markup parse reports
}

func (o Options) repeatAttr() string {
	if o.RepeatAttr != "" {
		return o.RepeatAttr
	}
	return DefaultRepeatAttr
}

// An Attr is a plain attribute. Eval is nil when Value has no marker.
type Attr struct {
	Name  string
	Value string
	Eval  *expr.Interpolation
}

func (a *Attr) eval(s scope.Scope) string {
	if a.Eval == nil {
		return a.Value
	}
	return a.Eval.Eval(s)
}

// A HookAttr is an attribute handled by a helper.
type HookAttr struct {
	Attr
	Hook vdom.Hook
}

// A Node is a compiled template node.
type Node struct {
	Type     markup.NodeType
	Name     string              // TagNode
	Data     string              // TextNode and CommentNode
	Text     *expr.Interpolation // TextNode, nil when Data has no marker
	Attrs    []Attr
	Style    *Attr
	Repeat   *expr.Repeat
	Hooks    []HookAttr
	Children []*Node

	// Source is the parsed node this node was compiled from.
	// It is nil for nodes rebuilt by Unmarshal.
	Source *markup.Node
}

// Compile compiles n and its descendants.
// The only possible error is a malformed repeat directive, which is
// returned wrapped and matches expr.ErrRepeatSyntax.
func Compile(n *markup.Node, opts Options) (*Node, error) {
	c := &Node{Type: n.Type, Name: n.Name, Data: n.Data, Source: n}
	switch n.Type {
	case markup.TextNode:
		c.Text = expr.Compile(n.Data)
		return c, nil
	case markup.CommentNode:
		return c, nil
	}

	repeatAttr := opts.repeatAttr()
	seen := make(map[string]bool, len(n.Attrs))
	for _, a := range n.Attrs {
		// First occurrence wins, as in the browser.
		if seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		attr := Attr{Name: a.Key, Value: a.Val}
		switch {
		case a.Key == "style":
			attr.Eval = expr.Compile(a.Val)
			c.Style = &attr
		case opts.Helpers[a.Key] != nil:
			attr.Eval = expr.Compile(a.Val)
			c.Hooks = append(c.Hooks, HookAttr{Attr: attr, Hook: opts.Helpers[a.Key]})
		case a.Key == repeatAttr:
			r, err := expr.CompileRepeat(a.Val)
			if err != nil {
				return nil, fmt.Errorf("compiler: <%s %s>: %w", n.Name, a.Key, err)
			}
			c.Repeat = r
		default:
			attr.Eval = expr.Compile(a.Val)
			c.Attrs = append(c.Attrs, attr)
		}
	}

	for _, child := range n.Children {
		cc, err := Compile(child, opts)
		if err != nil {
			return nil, err
		}
		c.Children = append(c.Children, cc)
	}
	return c, nil
}

// CompileHTML parses src and compiles its single root element.
func CompileHTML(src string, opts Options) (*Node, error) {
	nodes := markup.Parse(src, markup.Options{Logger: opts.Logger})
	if len(nodes) != 1 {
		return nil, &StructureError{Count: len(nodes)}
	}
	root, err := Compile(nodes[0], opts)
	if err != nil {
		return nil, err
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	return root, nil
}

func checkRoot(root *Node) error {
	if root.Type != markup.TagNode {
		return &StructureError{Count: 1, Reason: fmt.Sprintf("template root must be an element, got %s", root.Type)}
	}
	if root.Repeat != nil {
		return &StructureError{Count: 1, Reason: fmt.Sprintf("root element <%s> cannot repeat", root.Name)}
	}
	return nil
}
