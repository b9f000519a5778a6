package compiler

import (
	"github.com/canopyclimate/clay/markup"
	"github.com/canopyclimate/clay/scope"
	"github.com/canopyclimate/clay/vdom"
)

// Materialize evaluates n against s.
//
// Comments produce nothing. A repeating element produces one node per
// element of its collection, each evaluated against its own child scope.
// Everything else produces exactly one node. Neither n nor s is modified.
func Materialize(n *Node, s scope.Scope) []*vdom.Node {
	return materialize(nil, n, s, false)
}

// Root materializes the root of a compiled template.
// It returns nil if n does not produce exactly one node.
func Root(n *Node, s scope.Scope) *vdom.Node {
	nodes := Materialize(n, s)
	if len(nodes) != 1 {
		return nil
	}
	return nodes[0]
}

func materialize(dst []*vdom.Node, n *Node, s scope.Scope, expanded bool) []*vdom.Node {
	switch n.Type {
	case markup.CommentNode:
		return dst
	case markup.TextNode:
		if n.Text == nil {
			return append(dst, vdom.Text(n.Data))
		}
		return append(dst, vdom.Text(n.Text.Eval(s)))
	}

	if n.Repeat != nil && !expanded {
		for _, child := range n.Repeat.Expand(s) {
			dst = materialize(dst, n, child, true)
		}
		return dst
	}

	v := &vdom.Node{Type: vdom.ElementNode, Tag: n.Name}
	if n.Style != nil {
		v.Style = vdom.ParseStyle(n.Style.eval(s))
	}
	if len(n.Attrs) > 0 {
		v.Attrs = make(map[string]string, len(n.Attrs))
		for i := range n.Attrs {
			v.Attrs[n.Attrs[i].Name] = n.Attrs[i].eval(s)
		}
	}
	if len(n.Hooks) > 0 {
		v.Hooks = make(map[string]vdom.HookValue, len(n.Hooks))
		for i := range n.Hooks {
			h := &n.Hooks[i]
			v.Hooks[h.Name] = vdom.HookValue{Hook: h.Hook, Value: h.eval(s)}
		}
	}
	for _, c := range n.Children {
		v.Children = materialize(v.Children, c, s, false)
	}
	return append(dst, v)
}
