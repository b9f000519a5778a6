package vdom

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// A Target is a live rendering surface that can apply patch sets.
type Target interface {
	Apply(ps *PatchSet) error
}

// An Element is a mutable, live tree built from a Node.
// It is the in-memory render target; patch sets applied to it keep it in
// step with the latest virtual tree.
type Element struct {
	Type     NodeType
	Tag      string
	Text     string
	Attrs    map[string]string
	Style    map[string]string
	Children []*Element
	Parent   *Element

	hooks map[string]HookValue
}

// Create builds a live element from n and attaches its hooks.
func Create(n *Node) *Element {
	el := new(Element)
	el.build(n)
	return el
}

// build makes el describe n, attaching hooks bottom-up.
func (el *Element) build(n *Node) {
	el.Type = n.Type
	el.Tag = n.Tag
	el.Text = n.Text
	el.Attrs = copyMap(n.Attrs)
	el.Style = copyMap(n.Style)
	el.Children = make([]*Element, 0, len(n.Children))
	for _, c := range n.Children {
		child := &Element{Parent: el}
		child.build(c)
		el.Children = append(el.Children, child)
	}
	el.hooks = nil
	for _, k := range sortedKeys(n.Hooks) {
		el.attach(k, n.Hooks[k])
	}
}

func (el *Element) attach(name string, hv HookValue) {
	if el.hooks == nil {
		el.hooks = make(map[string]HookValue)
	}
	el.hooks[name] = hv
	if hv.Hook != nil {
		hv.Hook.OnAttach(el, hv.Value)
	}
}

// release detaches every hook in the subtree rooted at el, children first.
func (el *Element) release() {
	for _, c := range el.Children {
		c.release()
	}
	for _, k := range sortedKeys(el.hooks) {
		if h := el.hooks[k].Hook; h != nil {
			h.OnDetach(el)
		}
	}
	el.hooks = nil
}

// Hook returns the value bound to the named hook.
func (el *Element) Hook(name string) (string, bool) {
	hv, ok := el.hooks[name]
	return hv.Value, ok
}

// Node returns a snapshot of el as a virtual node.
func (el *Element) Node() *Node {
	n := &Node{
		Type:  el.Type,
		Tag:   el.Tag,
		Text:  el.Text,
		Attrs: copyMap(el.Attrs),
		Style: copyMap(el.Style),
	}
	if len(el.hooks) > 0 {
		n.Hooks = make(map[string]HookValue, len(el.hooks))
		for k, v := range el.hooks {
			n.Hooks[k] = v
		}
	}
	for _, c := range el.Children {
		n.Children = append(n.Children, c.Node())
	}
	return n
}

// Apply applies the operations of ps to el in order.
// It stops at the first operation whose path does not exist.
func (el *Element) Apply(ps *PatchSet) error {
	if ps == nil {
		return nil
	}
	for _, op := range ps.Ops {
		if err := el.apply(op); err != nil {
			return err
		}
	}
	return nil
}

func (el *Element) apply(op Op) error {
	switch op.Kind {
	case OpInsert, OpRemove:
		if len(op.Path) == 0 {
			return fmt.Errorf("vdom: %s needs a child path", op.Kind)
		}
		parent := el.lookup(op.Path[:len(op.Path)-1])
		if parent == nil {
			return badPath(op)
		}
		i := op.Path[len(op.Path)-1]
		if op.Kind == OpInsert {
			if i < 0 || i > len(parent.Children) || op.Node == nil {
				return badPath(op)
			}
			child := &Element{Parent: parent}
			child.build(op.Node)
			parent.Children = slices.Insert(parent.Children, i, child)
			return nil
		}
		if i < 0 || i >= len(parent.Children) {
			return badPath(op)
		}
		parent.Children[i].release()
		parent.Children[i].Parent = nil
		parent.Children = slices.Delete(parent.Children, i, i+1)
		return nil
	}

	target := el.lookup(op.Path)
	if target == nil {
		return badPath(op)
	}
	switch op.Kind {
	case OpReplace:
		if op.Node == nil {
			return badPath(op)
		}
		target.release()
		target.build(op.Node)
	case OpText:
		target.Text = op.Value
	case OpSetAttr:
		if target.Attrs == nil {
			target.Attrs = make(map[string]string)
		}
		target.Attrs[op.Key] = op.Value
	case OpRemoveAttr:
		delete(target.Attrs, op.Key)
	case OpSetStyle:
		if target.Style == nil {
			target.Style = make(map[string]string)
		}
		target.Style[op.Key] = op.Value
	case OpRemoveStyle:
		delete(target.Style, op.Key)
	case OpHook:
		old, ok := target.hooks[op.Key]
		if !ok {
			target.attach(op.Key, HookValue{Hook: op.Hook, Value: op.Value})
			break
		}
		h := op.Hook
		if h == nil {
			h = old.Hook
		}
		target.hooks[op.Key] = HookValue{Hook: h, Value: op.Value}
		if h != nil {
			h.OnUpdate(target, op.Value)
		}
	case OpUnhook:
		if hv, ok := target.hooks[op.Key]; ok {
			delete(target.hooks, op.Key)
			if hv.Hook != nil {
				hv.Hook.OnDetach(target)
			}
		}
	default:
		return fmt.Errorf("vdom: unknown op %v", op.Kind)
	}
	return nil
}

func (el *Element) lookup(path []int) *Element {
	cur := el
	for _, i := range path {
		if i < 0 || i >= len(cur.Children) {
			return nil
		}
		cur = cur.Children[i]
	}
	return cur
}

func badPath(op Op) error {
	return fmt.Errorf("vdom: %s: no node at path %v", op.Kind, op.Path)
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
