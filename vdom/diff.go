package vdom

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// OpKind is the kind of a patch operation.
type OpKind uint8

const (
	OpReplace OpKind = iota
	OpInsert
	OpRemove
	OpText
	OpSetAttr
	OpRemoveAttr
	OpSetStyle
	OpRemoveStyle
	OpHook
	OpUnhook
)

var opNames = [...]string{
	OpReplace:     "replace",
	OpInsert:      "insert",
	OpRemove:      "remove",
	OpText:        "text",
	OpSetAttr:     "setAttr",
	OpRemoveAttr:  "removeAttr",
	OpSetStyle:    "setStyle",
	OpRemoveStyle: "removeStyle",
	OpHook:        "hook",
	OpUnhook:      "unhook",
}

func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// An Op is a single change to a render target.
//
// Path addresses a node by child indexes from the root; the empty path is
// the root itself. For OpInsert and OpRemove the last index is the
// position in the parent's children.
type Op struct {
	Kind  OpKind
	Path  []int
	Key   string // attribute, style property or hook name
	Value string // new text, attribute, style or hook value
	Node  *Node  // OpReplace, OpInsert
	Hook  Hook   // OpHook
}

// A PatchSet is an ordered list of operations. Applying the operations in
// order to a target showing the old tree makes it show the new one.
type PatchSet struct {
	Ops []Op
}

// Len returns the number of operations in ps. A nil PatchSet is empty.
func (ps *PatchSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.Ops)
}

func (ps *PatchSet) add(kind OpKind, path []int, op Op) {
	op.Kind = kind
	op.Path = slices.Clone(path)
	if op.Path == nil {
		op.Path = []int{}
	}
	ps.Ops = append(ps.Ops, op)
}

// Diff returns the operations that turn a into b.
// Children are compared by position: the common prefix is diffed in place,
// surplus old children are removed from the end and new ones appended.
// Diff of equal trees is empty.
func Diff(a, b *Node) *PatchSet {
	ps := new(PatchSet)
	diffNode(ps, nil, a, b)
	return ps
}

func diffNode(ps *PatchSet, path []int, a, b *Node) {
	switch {
	case a == nil && b == nil:
		return
	case a == nil || b == nil || a.Type != b.Type || (a.Type == ElementNode && a.Tag != b.Tag):
		ps.add(OpReplace, path, Op{Node: b})
		return
	case a.Type == TextNode:
		if a.Text != b.Text {
			ps.add(OpText, path, Op{Value: b.Text})
		}
		return
	}
	diffMap(ps, path, a.Attrs, b.Attrs, OpSetAttr, OpRemoveAttr)
	diffMap(ps, path, a.Style, b.Style, OpSetStyle, OpRemoveStyle)
	diffHooks(ps, path, a.Hooks, b.Hooks)

	common := min(len(a.Children), len(b.Children))
	for i := 0; i < common; i++ {
		diffNode(ps, append(path, i), a.Children[i], b.Children[i])
	}
	for i := len(a.Children) - 1; i >= common; i-- {
		ps.add(OpRemove, append(path, i), Op{})
	}
	for i := common; i < len(b.Children); i++ {
		ps.add(OpInsert, append(path, i), Op{Node: b.Children[i]})
	}
}

func diffMap(ps *PatchSet, path []int, a, b map[string]string, set, remove OpKind) {
	for _, k := range sortedKeys(b) {
		if v, ok := a[k]; !ok || v != b[k] {
			ps.add(set, path, Op{Key: k, Value: b[k]})
		}
	}
	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			ps.add(remove, path, Op{Key: k})
		}
	}
}

func diffHooks(ps *PatchSet, path []int, a, b map[string]HookValue) {
	for _, k := range sortedKeys(b) {
		if old, ok := a[k]; !ok || old.Value != b[k].Value {
			ps.add(OpHook, path, Op{Key: k, Value: b[k].Value, Hook: b[k].Hook})
		}
	}
	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			ps.add(OpUnhook, path, Op{Key: k})
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
