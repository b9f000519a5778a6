// Package vdom is a small virtual node tree with a positional diff and a
// live in-memory render target.
package vdom

import (
	"fmt"

	"golang.org/x/exp/maps"
)

// NodeType is the kind of a Node.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	}
	return fmt.Sprintf("NodeType(%d)", uint8(t))
}

// A Node is an immutable description of an element or a text run.
// Trees are built fresh for every render and never modified afterwards.
type Node struct {
	Type     NodeType
	Tag      string
	Text     string
	Attrs    map[string]string
	Style    map[string]string
	Hooks    map[string]HookValue
	Children []*Node
}

// Text returns a text node.
func Text(s string) *Node {
	return &Node{Type: TextNode, Text: s}
}

// Tag returns an element node with the given children.
func Tag(name string, children ...*Node) *Node {
	return &Node{Type: ElementNode, Tag: name, Children: children}
}

// Equal reports whether n and m describe the same tree.
// Nil and empty maps are equal. Hooks compare by name and value.
func (n *Node) Equal(m *Node) bool {
	if n == nil || m == nil {
		return n == m
	}
	if n.Type != m.Type {
		return false
	}
	if n.Type == TextNode {
		return n.Text == m.Text
	}
	if n.Tag != m.Tag ||
		!maps.Equal(n.Attrs, m.Attrs) ||
		!maps.Equal(n.Style, m.Style) ||
		!maps.EqualFunc(n.Hooks, m.Hooks, func(a, b HookValue) bool { return a.Value == b.Value }) ||
		len(n.Children) != len(m.Children) {
		return false
	}
	for i, c := range n.Children {
		if !c.Equal(m.Children[i]) {
			return false
		}
	}
	return true
}

func (n *Node) String() string {
	b, err := n.JSON()
	if err != nil {
		return fmt.Sprintf("<invalid node: %v>", err)
	}
	return string(b)
}
