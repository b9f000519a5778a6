package vdom

import (
	"io"

	"github.com/canopyclimate/clay/internal/json"
)

var (
	startTag      = []byte(`{"t":`)
	startAttrs    = []byte(`,"a":`)
	startStyle    = []byte(`,"s":`)
	startHooks    = []byte(`,"h":`)
	startChildren = []byte(`,"c":[`)
	startOps      = []byte(`{"ops":[`)
	startOp       = []byte(`{"op":`)
	startPath     = []byte(`,"path":`)
	startKey      = []byte(`,"key":`)
	startValue    = []byte(`,"value":`)
	startNode     = []byte(`,"node":`)
)

// JSON returns the JSON form of the tree rooted at n.
// A text node is a JSON string; an element is an object with the tag in "t"
// and non-empty attributes, style, hook values and children in "a", "s",
// "h" and "c". Object keys are sorted.
func (n *Node) JSON() ([]byte, error) {
	return n.appendJSON(nil)
}

// WriteTo writes the JSON form of n to w.
func (n *Node) WriteTo(w io.Writer) (written int64, err error) {
	b, err := n.JSON()
	if err != nil {
		return 0, err
	}
	m, err := w.Write(b)
	return int64(m), err
}

func (n *Node) appendJSON(dst []byte) ([]byte, error) {
	var err error
	if n == nil {
		return append(dst, "null"...), nil
	}
	if n.Type == TextNode {
		return json.AppendString(dst, n.Text)
	}
	dst = append(dst, startTag...)
	if dst, err = json.AppendString(dst, n.Tag); err != nil {
		return dst, err
	}
	if len(n.Attrs) > 0 {
		dst = append(dst, startAttrs...)
		if dst, err = json.AppendStringMap(dst, n.Attrs); err != nil {
			return dst, err
		}
	}
	if len(n.Style) > 0 {
		dst = append(dst, startStyle...)
		if dst, err = json.AppendStringMap(dst, n.Style); err != nil {
			return dst, err
		}
	}
	if len(n.Hooks) > 0 {
		hooks := make(map[string]string, len(n.Hooks))
		for k, hv := range n.Hooks {
			hooks[k] = hv.Value
		}
		dst = append(dst, startHooks...)
		if dst, err = json.AppendStringMap(dst, hooks); err != nil {
			return dst, err
		}
	}
	if len(n.Children) > 0 {
		dst = append(dst, startChildren...)
		for i, c := range n.Children {
			if i > 0 {
				dst = append(dst, ',')
			}
			if dst, err = c.appendJSON(dst); err != nil {
				return dst, err
			}
		}
		dst = append(dst, ']')
	}
	return append(dst, '}'), nil
}

// JSON returns the JSON form of ps:
// {"ops":[{"op":kind,"path":[...],"key":...,"value":...,"node":...}]}.
// Members an operation does not use are omitted.
func (ps *PatchSet) JSON() ([]byte, error) {
	var err error
	dst := append([]byte(nil), startOps...)
	if ps != nil {
		for i, op := range ps.Ops {
			if i > 0 {
				dst = append(dst, ',')
			}
			if dst, err = op.appendJSON(dst); err != nil {
				return nil, err
			}
		}
	}
	return append(dst, "]}"...), nil
}

// WriteTo writes the JSON form of ps to w.
func (ps *PatchSet) WriteTo(w io.Writer) (written int64, err error) {
	b, err := ps.JSON()
	if err != nil {
		return 0, err
	}
	m, err := w.Write(b)
	return int64(m), err
}

func (op Op) appendJSON(dst []byte) ([]byte, error) {
	var err error
	dst = append(dst, startOp...)
	if dst, err = json.AppendString(dst, op.Kind.String()); err != nil {
		return dst, err
	}
	dst = append(dst, startPath...)
	dst = json.AppendInts(dst, op.Path)
	switch op.Kind {
	case OpSetAttr, OpSetStyle, OpHook, OpRemoveAttr, OpRemoveStyle, OpUnhook:
		dst = append(dst, startKey...)
		if dst, err = json.AppendString(dst, op.Key); err != nil {
			return dst, err
		}
	}
	switch op.Kind {
	case OpText, OpSetAttr, OpSetStyle, OpHook:
		dst = append(dst, startValue...)
		if dst, err = json.AppendString(dst, op.Value); err != nil {
			return dst, err
		}
	case OpReplace, OpInsert:
		dst = append(dst, startNode...)
		if dst, err = op.Node.appendJSON(dst); err != nil {
			return dst, err
		}
	}
	return append(dst, '}'), nil
}
